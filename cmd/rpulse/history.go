package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/rosterpulse/internal/models"
	"github.com/rohankatakam/rosterpulse/internal/output"
	"github.com/rohankatakam/rosterpulse/internal/roster"
)

var historyRepo string

var historyCmd = &cobra.Command{
	Use:   "history <identity>",
	Short: "List recent commits for one roster identity",
	Long: `List the most recent commits (sha, message, committer, date) in the
repository tracked for an identity. Identities not on the roster are looked up
in the default repository unless --repo is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyRepo, "repo", "", "repository name (overrides the roster)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	entry := models.RosterEntry{Identity: args[0], Repo: cfg.Roster.DefaultRepo}
	if entries, err := roster.Load(cfg.Roster.Path, cfg.Roster.DefaultRepo); err == nil {
		if found, ok := roster.Find(entries, args[0]); ok {
			entry = found
		}
	} else {
		logger.WithError(err).Debug("Roster not loaded, using default repository")
	}
	if historyRepo != "" {
		entry.Repo = historyRepo
	}

	client, err := newGitHubClient()
	if err != nil {
		return err
	}
	loc, err := location()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Ingest.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Ingest.FetchTimeout)
		defer cancel()
	}

	commits, err := client.FetchCommits(ctx, entry.Identity, entry.Repo)
	if err != nil {
		return err
	}
	return output.FormatHistory(entry, commits, loc, interactive(), cmd.OutOrStdout())
}
