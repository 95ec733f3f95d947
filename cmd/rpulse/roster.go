package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/rosterpulse/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster file utilities",
}

var rosterValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a roster file without fetching anything",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRosterValidate,
}

func init() {
	rosterCmd.AddCommand(rosterValidateCmd)
}

func runRosterValidate(cmd *cobra.Command, args []string) error {
	path := cfg.Roster.Path
	if len(args) == 1 {
		path = args[0]
	}

	entries, err := roster.Load(path, cfg.Roster.DefaultRepo)
	if err != nil {
		return err
	}
	if err := roster.Validate(entries); err != nil {
		return err
	}

	groups := map[string]int{}
	for _, e := range entries {
		groups[e.Branch+"/"+e.Section]++
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "✓ %s: %d entries in %d groups\n", path, len(entries), len(groups))
	for _, k := range keys {
		fmt.Fprintf(out, "  %-20s %d\n", k, groups[k])
	}
	return nil
}
