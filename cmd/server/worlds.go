package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagWorldSeed int64
	flagJSON      bool
)

var worldsCmd = &cobra.Command{
	Use:   "worlds",
	Short: "Manage saved worlds",
}

var worldsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved worlds, most recently played first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		summaries, err := newStore(cfg).List()
		if err != nil {
			return err
		}
		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}
		if len(summaries) == 0 {
			fmt.Println("No worlds found in", cfg.Saves.Dir)
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSEED\tPLAYERS\tBLOCKS\tLAST PLAYED\tSTATUS")
		for _, s := range summaries {
			status := "ok"
			if s.Error != "" {
				status = s.Error
			}
			lastPlayed := "never"
			if !s.LastPlayed.IsZero() {
				lastPlayed = s.LastPlayed.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n", s.Name, s.Seed, s.Players, s.Blocks, lastPlayed, status)
		}
		return w.Flush()
	},
}

var worldsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty world",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		save, err := newStore(cfg).Create(args[0], flagWorldSeed)
		if err != nil {
			return err
		}
		fmt.Printf("Created world %q (seed %d)\n", save.Name, save.Seed)
		return nil
	},
}

var worldsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a world and its save files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := newStore(cfg).Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted world %q\n", args[0])
		return nil
	},
}

func init() {
	worldsListCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the worlds as JSON")
	worldsCreateCmd.Flags().Int64Var(&flagWorldSeed, "seed", 0, "World seed (0 = random)")

	worldsCmd.AddCommand(worldsListCmd)
	worldsCmd.AddCommand(worldsCreateCmd)
	worldsCmd.AddCommand(worldsDeleteCmd)
}
