package output

import (
	"encoding/json"
	"io"

	"github.com/rohankatakam/rosterpulse/internal/metrics"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

// SchemaVersion identifies the JSON document layout
const SchemaVersion = "1.0"

// JSONFormatter outputs the full report as machine-readable JSON
type JSONFormatter struct {
	Indent bool
}

// Document is the JSON envelope around a report
type Document struct {
	Version string                `json:"version"`
	Totals  models.GroupSummary   `json:"totals"`
	Groups  []models.GroupSummary `json:"groups"`
	Report  *models.Report        `json:"report"`
}

// NewDocument wraps a report with its flattened summary
func NewDocument(report *models.Report) Document {
	groups := metrics.SortedGroups(report.Rollup)
	if groups == nil {
		groups = []models.GroupSummary{}
	}
	return Document{
		Version: SchemaVersion,
		Totals:  metrics.Totals(report.Rollup),
		Groups:  groups,
		Report:  report,
	}
}

func (f *JSONFormatter) Format(report *models.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewDocument(report))
}
