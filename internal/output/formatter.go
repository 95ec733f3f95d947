package output

import (
	"io"
	"os"
	"strings"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// Formatter defines output formatting interface
type Formatter interface {
	Format(report *models.Report, w io.Writer) error
}

// VerbosityLevel determines output detail
type VerbosityLevel int

const (
	VerbosityQuiet    VerbosityLevel = iota // One-line summary
	VerbosityStandard                       // Tables
	VerbosityJSON                           // Machine-readable report
)

// NewFormatter creates appropriate formatter based on level. Interactive
// selects box-drawing tables; otherwise plain ASCII is used.
func NewFormatter(level VerbosityLevel, interactive bool) Formatter {
	switch level {
	case VerbosityQuiet:
		return &QuietFormatter{}
	case VerbosityJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &StandardFormatter{Interactive: interactive}
	}
}

// ParseVerbosity maps a --output value to a level
func ParseVerbosity(s string) (VerbosityLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "q":
		return VerbosityQuiet, true
	case "", "table", "standard":
		return VerbosityStandard, true
	case "json":
		return VerbosityJSON, true
	}
	return VerbosityStandard, false
}

// GetDefaultVerbosity returns appropriate default based on environment
func GetDefaultVerbosity() VerbosityLevel {
	if level, ok := ParseVerbosity(os.Getenv("RPULSE_OUTPUT")); ok && os.Getenv("RPULSE_OUTPUT") != "" {
		return level
	}
	return VerbosityStandard
}
