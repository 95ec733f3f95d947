package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportFormat infers the export format from a file extension
func ExportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.ValidationErrorf("unsupported export format %q (use .csv or .json)", filepath.Ext(path))
}

// ExportFile writes the report to path, choosing the format by extension
func ExportFile(report *models.Report, path string) error {
	format, err := ExportFormat(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := Export(report, format, f); err != nil {
		return err
	}
	return f.Close()
}

// Export writes the report in the given format
func Export(report *models.Report, format string, w io.Writer) error {
	switch format {
	case FormatCSV:
		return ExportCSV(report, w)
	case FormatJSON:
		return (&JSONFormatter{Indent: true}).Format(report, w)
	}
	return errors.ValidationErrorf("unsupported export format %q", format)
}

// ExportCSV writes two RFC 4180 blocks separated by a blank line:
// "User Commits" with one column per window day, then "Invalid Repos".
func ExportCSV(report *models.Report, w io.Writer) error {
	usersHeader, users := userRows(report)
	invalidHeader, invalid := invalidRows(report.InvalidEntries)

	blocks := []struct {
		title  string
		header table.Row
		rows   []table.Row
	}{
		{"User Commits", usersHeader, users},
		{"Invalid Repos", invalidHeader, invalid},
	}

	for i, b := range blocks {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", b.title); err != nil {
			return err
		}

		cw := csv.NewWriter(w)
		if err := cw.Write(csvRecord(b.header)); err != nil {
			return fmt.Errorf("failed to write %s header: %w", b.title, err)
		}
		for _, row := range b.rows {
			if err := cw.Write(csvRecord(row)); err != nil {
				return fmt.Errorf("failed to write %s row: %w", b.title, err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("failed to write %s: %w", b.title, err)
		}
	}
	return nil
}

func csvRecord(row table.Row) []string {
	record := make([]string, len(row))
	for i, cell := range row {
		record[i] = fmt.Sprint(cell)
	}
	return record
}
