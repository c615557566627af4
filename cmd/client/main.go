// orderstone-client is a terminal client for Order of the Stone servers.
//
// Usage:
//
//	orderstone-client discover                           - Find servers on the LAN
//	orderstone-client chat --addr host:port --name Steve - Join a server and chat
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/version"
	"github.com/spf13/cobra"
)

var flagLogLevel string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "orderstone-client",
	Short:         "Terminal client for Order of the Stone LAN servers",
	Version:       version.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := log.ParseLogLevel(flagLogLevel)
		if err != nil {
			return err
		}
		log.SetDefaultLogger(log.New(os.Stderr, log.Options{
			Level:  level,
			Format: log.FormatText,
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (error, warn, info, debug, trace)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(chatCmd)
}
