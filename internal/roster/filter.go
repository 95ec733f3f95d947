package roster

import (
	"strings"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// Filter narrows a roster by branch and section. Empty fields match anything;
// comparisons ignore case.
type Filter struct {
	Branch  string
	Section string
}

// IsZero reports whether the filter matches every entry
func (f Filter) IsZero() bool {
	return f.Branch == "" && f.Section == ""
}

// Match reports whether branch/section pass the filter
func (f Filter) Match(branch, section string) bool {
	if f.Branch != "" && !strings.EqualFold(f.Branch, branch) {
		return false
	}
	if f.Section != "" && !strings.EqualFold(f.Section, section) {
		return false
	}
	return true
}

// Apply returns the entries that match, preserving order
func (f Filter) Apply(entries []models.RosterEntry) []models.RosterEntry {
	if f.IsZero() {
		return entries
	}
	out := make([]models.RosterEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e.Branch, e.Section) {
			out = append(out, e)
		}
	}
	return out
}

// ApplyInvalid narrows an invalid-entry list the same way
func (f Filter) ApplyInvalid(entries []models.InvalidEntry) []models.InvalidEntry {
	if f.IsZero() {
		return entries
	}
	out := make([]models.InvalidEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e.Branch, e.Section) {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entry for identity, ignoring case
func Find(entries []models.RosterEntry, identity string) (models.RosterEntry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Identity, identity) {
			return e, true
		}
	}
	return models.RosterEntry{}, false
}
