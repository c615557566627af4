package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cbodonnell/orderstone/pkg/mods"
	"github.com/spf13/cobra"
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Inspect installed mods",
}

var modsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Load every mod in the mods directory and report its status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		manager := mods.NewManager(mods.NewManagerOptions{})
		defer manager.Close()
		if err := manager.LoadDir(cfg.Mods.Dir); err != nil {
			return err
		}

		infos := manager.Mods()
		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}
		if len(infos) == 0 {
			fmt.Println("No mods found in", cfg.Mods.Dir)
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tVERSION\tKIND\tSTATUS\tERROR")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", info.ID, info.Name, info.Version, info.Kind, info.Status, info.Error)
		}
		return w.Flush()
	},
}

func init() {
	modsListCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the mods as JSON")

	modsCmd.AddCommand(modsListCmd)
}
