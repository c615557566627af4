package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "ORDERSTONE_"

type Config struct {
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Network  NetworkConfig  `yaml:"network" envPrefix:"NETWORK_"`
	API      APIConfig      `yaml:"api" envPrefix:"API_"`
	Game     GameConfig     `yaml:"game" envPrefix:"GAME_"`
	Saves    SavesConfig    `yaml:"saves" envPrefix:"SAVES_"`
	Mods     ModsConfig     `yaml:"mods" envPrefix:"MODS_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type NetworkConfig struct {
	// Name is announced to LAN discovery
	Name    string `yaml:"name" env:"NAME"`
	TCPPort int    `yaml:"tcp_port" env:"TCP_PORT"`
	UDPPort int    `yaml:"udp_port" env:"UDP_PORT"`
	// WSPort 0 disables WebSocket clients
	WSPort        int `yaml:"ws_port" env:"WS_PORT"`
	DiscoveryPort int `yaml:"discovery_port" env:"DISCOVERY_PORT"`
	MaxPlayers    int `yaml:"max_players" env:"MAX_PLAYERS"`
}

type APIConfig struct {
	// Port 0 disables the status API
	Port int `yaml:"port" env:"PORT"`
	// Token guards /players when set
	Token    string `yaml:"token" env:"TOKEN"`
	CertFile string `yaml:"cert_file" env:"CERT_FILE"`
	KeyFile  string `yaml:"key_file" env:"KEY_FILE"`
}

type GameConfig struct {
	World string `yaml:"world" env:"WORLD"`
	// Seed is used when the world has to be created, 0 picks one at random
	Seed int64 `yaml:"seed" env:"SEED"`
	// Owner gets OWNER permission; empty means the first player to join
	Owner             string        `yaml:"owner" env:"OWNER"`
	DefaultPermission string        `yaml:"default_permission" env:"DEFAULT_PERMISSION"`
	TickInterval      time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	AutosaveInterval  time.Duration `yaml:"autosave_interval" env:"AUTOSAVE_INTERVAL"`
}

type SavesConfig struct {
	Dir       string `yaml:"dir" env:"DIR"`
	Compress  bool   `yaml:"compress" env:"COMPRESS"`
	MaxWorlds int    `yaml:"max_worlds" env:"MAX_WORLDS"`
}

type ModsConfig struct {
	Dir     string `yaml:"dir" env:"DIR"`
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
}

type DatabaseConfig struct {
	// URL is sqlite://<path> or postgresql://...; empty disables the repository
	URL string `yaml:"url" env:"URL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Network: NetworkConfig{
			Name:          "Order of the Stone",
			TCPPort:       25565,
			UDPPort:       25567,
			WSPort:        25568,
			DiscoveryPort: 25566,
			MaxPlayers:    10,
		},
		API: APIConfig{
			Port: 8080,
		},
		Game: GameConfig{
			World:             "Default World",
			DefaultPermission: permissions.Player.String(),
			TickInterval:      50 * time.Millisecond,
			AutosaveInterval:  time.Minute,
		},
		Saves: SavesConfig{
			Dir:       "saves",
			Compress:  true,
			MaxWorlds: 12,
		},
		Mods: ModsConfig{
			Dir:     "mods",
			Enabled: true,
		},
		Database: DatabaseConfig{
			URL: "sqlite://orderstone.db",
		},
	}
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when empty) and the environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("config: failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Flags are the command line overrides of the server.
type Flags struct {
	TCPPort       int
	UDPPort       int
	WSPort        int
	DiscoveryPort int
	APIPort       int
	World         string
	LogLevel      string
}

// Register adds the override flags to fs. Defaults are shown for help only,
// Apply copies a flag only when it was set.
func (f *Flags) Register(fs *pflag.FlagSet) {
	defaults := Default()
	fs.IntVar(&f.TCPPort, "tcp-port", defaults.Network.TCPPort, "TCP port to listen on")
	fs.IntVar(&f.UDPPort, "udp-port", defaults.Network.UDPPort, "UDP port to listen on")
	fs.IntVar(&f.WSPort, "ws-port", defaults.Network.WSPort, "WebSocket port to listen on, 0 disables it")
	fs.IntVar(&f.DiscoveryPort, "discovery-port", defaults.Network.DiscoveryPort, "UDP port answering LAN discovery")
	fs.IntVar(&f.APIPort, "api-port", defaults.API.Port, "Status API port, 0 disables it")
	fs.StringVar(&f.World, "world", defaults.Game.World, "World to load or create")
	fs.StringVar(&f.LogLevel, "log-level", defaults.Log.Level, "Log level (error, warn, info, debug, trace)")
}

// Apply copies the flags that were set on fs into cfg.
func (f *Flags) Apply(fs *pflag.FlagSet, cfg *Config) {
	if fs.Changed("tcp-port") {
		cfg.Network.TCPPort = f.TCPPort
	}
	if fs.Changed("udp-port") {
		cfg.Network.UDPPort = f.UDPPort
	}
	if fs.Changed("ws-port") {
		cfg.Network.WSPort = f.WSPort
	}
	if fs.Changed("discovery-port") {
		cfg.Network.DiscoveryPort = f.DiscoveryPort
	}
	if fs.Changed("api-port") {
		cfg.API.Port = f.APIPort
	}
	if fs.Changed("world") {
		cfg.Game.World = f.World
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
}

func validPort(name string, port int, optional bool) error {
	if optional && port == 0 {
		return nil
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	for _, p := range []struct {
		name     string
		port     int
		optional bool
	}{
		{"network.tcp_port", c.Network.TCPPort, false},
		{"network.udp_port", c.Network.UDPPort, false},
		{"network.ws_port", c.Network.WSPort, true},
		{"network.discovery_port", c.Network.DiscoveryPort, true},
		{"api.port", c.API.Port, true},
	} {
		if err := validPort(p.name, p.port, p.optional); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Network.MaxPlayers < 1 {
		errs = append(errs, fmt.Errorf("network.max_players must be positive"))
	}
	if c.Game.World == "" {
		errs = append(errs, fmt.Errorf("game.world is required"))
	}
	if level, err := permissions.ParseLevel(c.Game.DefaultPermission); err != nil {
		errs = append(errs, err)
	} else if level == permissions.Owner {
		errs = append(errs, fmt.Errorf("game.default_permission cannot be owner"))
	}
	if c.Game.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("game.tick_interval must be positive"))
	}
	if c.Game.AutosaveInterval < 0 {
		errs = append(errs, fmt.Errorf("game.autosave_interval cannot be negative"))
	}
	if c.Saves.Dir == "" {
		errs = append(errs, fmt.Errorf("saves.dir is required"))
	}
	if (c.API.CertFile == "") != (c.API.KeyFile == "") {
		errs = append(errs, fmt.Errorf("api.cert_file and api.key_file must be set together"))
	}
	return errors.Join(errs...)
}

// DefaultPermission returns the parsed default permission level.
func (c Config) DefaultPermission() permissions.Level {
	level, err := permissions.ParseLevel(c.Game.DefaultPermission)
	if err != nil {
		return permissions.Player
	}
	return level
}
