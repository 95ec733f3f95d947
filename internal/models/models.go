package models

import (
	"time"
)

// RosterEntry represents one tracked individual and the repository their
// activity is read from
type RosterEntry struct {
	Identity string `json:"identity" yaml:"identity"`
	Name     string `json:"name" yaml:"name"`
	RollNo   string `json:"roll_no" yaml:"roll_no"`
	Branch   string `json:"branch" yaml:"branch"`
	Section  string `json:"section" yaml:"section"`
	Repo     string `json:"repo" yaml:"repo"`
}

// RepoPath returns the "identity/repo" path used in API calls and messages
func (e RosterEntry) RepoPath() string {
	return e.Identity + "/" + e.Repo
}

// CommitRecord represents a commit as returned by the remote commit source
type CommitRecord struct {
	SHA           string    `json:"sha"`
	Message       string    `json:"message"`
	AuthorName    string    `json:"author_name"`
	CommitterName string    `json:"committer_name"`
	CommittedAt   time.Time `json:"committed_at"`
	URL           string    `json:"url,omitempty"`
}

// FetchOutcome is the result of one fetch attempt for a roster entry.
// Exactly one of Commits or Err is meaningful.
type FetchOutcome struct {
	Entry   RosterEntry    `json:"entry"`
	Commits []CommitRecord `json:"commits,omitempty"`
	Err     error          `json:"-"`
}

// Succeeded reports whether the fetch returned commit data
func (o FetchOutcome) Succeeded() bool {
	return o.Err == nil
}

// DailyBucket holds the commit count for one calendar day
type DailyBucket struct {
	Date  string `json:"date"` // 2006-01-02
	Count int    `json:"count"`
}

// InvalidEntry is a failed roster entry with enough context to report it
// without joining back to the roster
type InvalidEntry struct {
	Identity string `json:"identity"`
	Repo     string `json:"repo"`
	Error    string `json:"error"`
	Name     string `json:"name"`
	RollNo   string `json:"roll_no"`
	Branch   string `json:"branch"`
	Section  string `json:"section"`
}

// GroupSummary aggregates activity for one (branch, section) group
type GroupSummary struct {
	Branch               string  `json:"branch"`
	Section              string  `json:"section"`
	TotalCommits         int     `json:"total_commits"`
	ActiveUsers          int     `json:"active_users"`
	TotalUsers           int     `json:"total_users"`
	ActiveUserPercentage float64 `json:"active_user_percentage"`
}

// Rollup is the two-level branch → section summary
type Rollup struct {
	TotalActiveUsers int                                 `json:"total_active_users"`
	Summary          map[string]map[string]*GroupSummary `json:"summary"`
}

// Report bundles everything one ingestion run produces
type Report struct {
	RunID          string                   `json:"run_id"`
	StartedAt      time.Time                `json:"started_at"`
	FinishedAt     time.Time                `json:"finished_at"`
	Window         []string                 `json:"window"`
	Roster         []RosterEntry            `json:"roster"`
	CommitCounts   map[string]int           `json:"commit_counts"`
	Histograms     map[string][]DailyBucket `json:"histograms"`
	InvalidEntries []InvalidEntry           `json:"invalid_entries"`
	Rollup         Rollup                   `json:"rollup"`
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
