package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/cbodonnell/orderstone/pkg/discovery"
	"github.com/spf13/cobra"
)

var (
	flagDiscoveryPort    int
	flagDiscoveryTimeout time.Duration
	flagDiscoveryHosts   []string
	flagDiscoveryJSON    bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Broadcast on the LAN and list the servers that answer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		servers, err := discovery.Discover(cmd.Context(), discovery.DiscoverOptions{
			Port:      flagDiscoveryPort,
			Timeout:   flagDiscoveryTimeout,
			Addresses: flagDiscoveryHosts,
		})
		if err != nil {
			return err
		}
		if flagDiscoveryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(servers)
		}
		if len(servers) == 0 {
			fmt.Println("No servers found")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tADDRESS\tWORLD\tPLAYERS\tVERSION")
		for _, s := range servers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n", s.Name, net.JoinHostPort(s.Address, strconv.Itoa(s.Port)), s.World, s.Players, s.MaxPlayers, s.Version)
		}
		return w.Flush()
	},
}

func init() {
	discoverCmd.Flags().IntVar(&flagDiscoveryPort, "port", discovery.DefaultPort, "Discovery port of the servers")
	discoverCmd.Flags().DurationVar(&flagDiscoveryTimeout, "timeout", discovery.DefaultTimeout, "How long to wait for replies")
	discoverCmd.Flags().StringSliceVar(&flagDiscoveryHosts, "host", nil, "Extra hosts to ask directly")
	discoverCmd.Flags().BoolVar(&flagDiscoveryJSON, "json", false, "Print the servers as JSON")
}
