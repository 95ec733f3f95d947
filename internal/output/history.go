package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// FormatHistory prints one identity's commit list
func FormatHistory(entry models.RosterEntry, commits []models.CommitRecord, loc *time.Location, interactive bool, w io.Writer) error {
	fmt.Fprintf(w, "Commit history for %s (%s)\n", entry.Identity, entry.RepoPath())
	if entry.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", entry.Name)
	}

	if len(commits) == 0 {
		_, err := fmt.Fprintf(w, "No commits found\n")
		return err
	}

	if loc == nil {
		loc = time.UTC
	}
	latest := commits[0].CommittedAt
	for _, c := range commits[1:] {
		if c.CommittedAt.After(latest) {
			latest = c.CommittedAt
		}
	}

	fmt.Fprintf(w, "Commits: %d\n", len(commits))
	fmt.Fprintf(w, "Latest commit: %s (%s)\n\n", latest.In(loc).Format("2006-01-02 15:04"), humanize.Time(latest))
	_, err := fmt.Fprintf(w, "%s\n", HistoryTable(commits, loc, interactive).Render())
	return err
}
