package output

import (
	"fmt"
	"io"
	"time"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// StandardFormatter outputs the user, summary and invalid-entry tables (default)
type StandardFormatter struct {
	Interactive bool
}

func (f *StandardFormatter) Format(report *models.Report, w io.Writer) error {
	// Header
	fmt.Fprintf(w, "📊 RosterPulse Report\n")
	if report.RunID != "" {
		fmt.Fprintf(w, "Run: %s (%s)\n", report.RunID, report.Duration().Round(time.Millisecond))
	}
	if n := len(report.Window); n > 0 {
		fmt.Fprintf(w, "Window: %s to %s\n", report.Window[n-1], report.Window[0])
	}
	fmt.Fprintf(w, "Total entries: %d\n", len(report.Roster))
	fmt.Fprintf(w, "Active users: %d\n\n", report.Rollup.TotalActiveUsers)

	// Users
	fmt.Fprintf(w, "User Commits\n")
	fmt.Fprintf(w, "%s\n\n", UsersTable(report, f.Interactive).Render())

	// Groups
	if len(report.Rollup.Summary) > 0 {
		fmt.Fprintf(w, "Summary\n")
		fmt.Fprintf(w, "%s\n\n", GroupsTable(report.Rollup, f.Interactive).Render())
	}

	// Invalid entries
	if len(report.InvalidEntries) > 0 {
		fmt.Fprintf(w, "Invalid Repositories or Usernames (%d)\n", len(report.InvalidEntries))
		fmt.Fprintf(w, "%s\n", InvalidTable(report.InvalidEntries, f.Interactive).Render())
		return nil
	}

	_, err := fmt.Fprintf(w, "No invalid entries\n")
	return err
}
