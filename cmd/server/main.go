// orderstone-server hosts an Order of the Stone world for LAN play.
//
// Usage:
//
//	orderstone-server                      - Run the server
//	orderstone-server worlds list          - List saved worlds
//	orderstone-server worlds create <name> - Create an empty world
//	orderstone-server worlds delete <name> - Delete a world
//	orderstone-server mods list            - Show the mods that would load
//
// Configuration is read from --config, then ORDERSTONE_* environment
// variables, then the command line flags.
package main

import (
	"fmt"
	"os"

	"github.com/cbodonnell/orderstone/pkg/config"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/version"
	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagOverrides  config.Flags
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "orderstone-server",
	Short:         "Order of the Stone LAN server",
	Version:       version.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to a YAML config file")
	flagOverrides.Register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(worldsCmd)
	rootCmd.AddCommand(modsCmd)
}

// loadConfig layers the config file, the environment and the flags of cmd,
// then installs the configured logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return cfg, err
	}
	flagOverrides.Apply(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := log.ParseLogLevel(cfg.Log.Level)
	format, _ := log.ParseFormat(cfg.Log.Format)
	log.SetDefaultLogger(log.New(os.Stderr, log.Options{
		Prefix: "orderstone",
		Level:  level,
		Format: format,
	}))
	return cfg, nil
}
