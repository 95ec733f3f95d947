package output

import (
	"fmt"
	"io"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// QuietFormatter outputs one-line summary (for cron jobs and CI)
type QuietFormatter struct{}

func (f *QuietFormatter) Format(report *models.Report, w io.Writer) error {
	total := len(report.Roster)
	active := report.Rollup.TotalActiveUsers
	days := len(report.Window)

	if len(report.InvalidEntries) == 0 {
		_, err := fmt.Fprintf(w, "✅ %d/%d users active over %d days\n", active, total, days)
		return err
	}

	fmt.Fprintf(w, "⚠️  %d/%d users active over %d days, %d invalid entries\n",
		active, total, days, len(report.InvalidEntries))
	_, err := fmt.Fprintf(w, "Run 'rpulse run' for details\n")
	return err
}
