package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rohankatakam/rosterpulse/internal/metrics"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

// NoCommit fills a day cell with no activity
const NoCommit = "No Commit"

const shortSHALength = 7

func newTable(interactive bool) table.Writer {
	tbl := table.NewWriter()
	if interactive {
		tbl.SetStyle(table.StyleLight)
	} else {
		tbl.SetStyle(table.StyleDefault)
	}
	return tbl
}

// UsersTable lists every roster entry with its total and one column per
// window day. Unreachable entries show 0 and blank day cells.
func UsersTable(report *models.Report, interactive bool) table.Writer {
	tbl := newTable(interactive)
	header, rows := userRows(report)
	tbl.AppendHeader(header)
	tbl.AppendRows(rows)
	return tbl
}

func userRows(report *models.Report) (table.Row, []table.Row) {
	header := table.Row{"#", "Name", "Roll No", "Username", "Commits", "Branch", "Section"}
	for _, date := range report.Window {
		header = append(header, date)
	}

	rows := make([]table.Row, 0, len(report.Roster))
	for i, entry := range report.Roster {
		row := table.Row{
			i + 1,
			entry.Name,
			entry.RollNo,
			entry.Identity,
			report.CommitCounts[entry.Identity],
			entry.Branch,
			entry.Section,
		}

		buckets, reachable := report.Histograms[entry.Identity]
		for d := range report.Window {
			switch {
			case !reachable || d >= len(buckets):
				row = append(row, "")
			case buckets[d].Count == 0:
				row = append(row, NoCommit)
			default:
				row = append(row, buckets[d].Count)
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

// GroupsTable renders the branch/section rollup with a totals footer
func GroupsTable(rollup models.Rollup, interactive bool) table.Writer {
	tbl := newTable(interactive)
	tbl.AppendHeader(table.Row{"Branch", "Section", "Commits", "Active", "Users", "Active %"})

	for _, g := range metrics.SortedGroups(rollup) {
		tbl.AppendRow(table.Row{
			g.Branch,
			g.Section,
			g.TotalCommits,
			g.ActiveUsers,
			g.TotalUsers,
			fmt.Sprintf("%.2f%%", g.ActiveUserPercentage),
		})
	}

	total := metrics.Totals(rollup)
	tbl.AppendFooter(table.Row{
		"Total", "",
		total.TotalCommits,
		total.ActiveUsers,
		total.TotalUsers,
		fmt.Sprintf("%.2f%%", total.ActiveUserPercentage),
	})
	return tbl
}

// InvalidTable lists unreachable entries
func InvalidTable(entries []models.InvalidEntry, interactive bool) table.Writer {
	tbl := newTable(interactive)
	header, rows := invalidRows(entries)
	tbl.AppendHeader(header)
	tbl.AppendRows(rows)
	return tbl
}

func invalidRows(entries []models.InvalidEntry) (table.Row, []table.Row) {
	header := table.Row{"#", "Name", "Roll No.", "Username", "Repo", "Error", "Branch", "Section"}
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, table.Row{i + 1, e.Name, e.RollNo, e.Identity, e.Repo, e.Error, e.Branch, e.Section})
	}
	return header, rows
}

// HistoryTable lists commits as returned by the source, newest first
func HistoryTable(commits []models.CommitRecord, loc *time.Location, interactive bool) table.Writer {
	if loc == nil {
		loc = time.UTC
	}

	tbl := newTable(interactive)
	tbl.AppendHeader(table.Row{"#", "SHA", "Message", "Committer", "Date"})

	for i, c := range commits {
		tbl.AppendRow(table.Row{
			i + 1,
			shortSHA(c.SHA),
			firstLine(c.Message),
			c.CommitterName,
			c.CommittedAt.In(loc).Format("2006-01-02 15:04"),
		})
	}
	return tbl
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALength {
		return sha[:shortSHALength]
	}
	return sha
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return strings.TrimSpace(msg[:i])
	}
	return strings.TrimSpace(msg)
}
