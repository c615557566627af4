package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orderstone.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_isValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, permissions.Player, cfg.DefaultPermission())
}

func TestLoad_layers(t *testing.T) {
	path := writeConfig(t, `
network:
  tcp_port: 30000
  max_players: 4
game:
  world: Castle Hill
  owner: Steve
  autosave_interval: 30s
saves:
  compress: false
`)
	t.Setenv("ORDERSTONE_NETWORK_TCP_PORT", "31000")
	t.Setenv("ORDERSTONE_LOG_LEVEL", "debug")
	t.Setenv("ORDERSTONE_API_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	// environment wins over the file
	assert.Equal(t, 31000, cfg.Network.TCPPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "s3cret", cfg.API.Token)
	// file wins over defaults
	assert.Equal(t, 4, cfg.Network.MaxPlayers)
	assert.Equal(t, "Castle Hill", cfg.Game.World)
	assert.Equal(t, "Steve", cfg.Game.Owner)
	assert.Equal(t, 30*time.Second, cfg.Game.AutosaveInterval)
	assert.False(t, cfg.Saves.Compress)
	// untouched defaults survive
	assert.Equal(t, 25567, cfg.Network.UDPPort)
	assert.Equal(t, 50*time.Millisecond, cfg.Game.TickInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "network: [not, a, map"))
	assert.Error(t, err)

	t.Setenv("ORDERSTONE_NETWORK_UDP_PORT", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestFlags_applyOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags := &Flags{}
	flags.Register(fs)
	require.NoError(t, fs.Parse([]string{"--udp-port", "40000", "--world", "Sky Islands"}))

	cfg := Default()
	cfg.Network.TCPPort = 31000
	flags.Apply(fs, &cfg)

	assert.Equal(t, 40000, cfg.Network.UDPPort)
	assert.Equal(t, "Sky Islands", cfg.Game.World)
	assert.Equal(t, 31000, cfg.Network.TCPPort)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{name: "log level", modify: func(cfg *Config) { cfg.Log.Level = "loud" }},
		{name: "log format", modify: func(cfg *Config) { cfg.Log.Format = "xml" }},
		{name: "tcp port", modify: func(cfg *Config) { cfg.Network.TCPPort = 0 }},
		{name: "udp port", modify: func(cfg *Config) { cfg.Network.UDPPort = 70000 }},
		{name: "max players", modify: func(cfg *Config) { cfg.Network.MaxPlayers = 0 }},
		{name: "world", modify: func(cfg *Config) { cfg.Game.World = "" }},
		{name: "default permission", modify: func(cfg *Config) { cfg.Game.DefaultPermission = "king" }},
		{name: "owner as default", modify: func(cfg *Config) { cfg.Game.DefaultPermission = "owner" }},
		{name: "tick interval", modify: func(cfg *Config) { cfg.Game.TickInterval = 0 }},
		{name: "tls pair", modify: func(cfg *Config) { cfg.API.CertFile = "cert.pem" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("optional ports", func(t *testing.T) {
		cfg := Default()
		cfg.Network.WSPort = 0
		cfg.API.Port = 0
		assert.NoError(t, cfg.Validate())
	})
}
