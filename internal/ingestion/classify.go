package ingestion

import (
	"github.com/rohankatakam/rosterpulse/internal/models"
)

// Classification splits a run's outcomes into reachable and unreachable entries
type Classification struct {
	// CommitCounts holds one entry per successful identity, including zeros
	CommitCounts   map[string]int
	Successes      []models.FetchOutcome
	InvalidEntries []models.InvalidEntry
}

// Classify folds outcomes into commit counts and invalid entries.
// Failures never contribute a count.
func Classify(outcomes []models.FetchOutcome) Classification {
	c := Classification{
		CommitCounts:   make(map[string]int, len(outcomes)),
		Successes:      make([]models.FetchOutcome, 0, len(outcomes)),
		InvalidEntries: []models.InvalidEntry{},
	}

	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			c.CommitCounts[outcome.Entry.Identity] = len(outcome.Commits)
			c.Successes = append(c.Successes, outcome)
			continue
		}
		c.InvalidEntries = append(c.InvalidEntries, invalidEntry(outcome))
	}

	return c
}

func invalidEntry(outcome models.FetchOutcome) models.InvalidEntry {
	e := outcome.Entry
	return models.InvalidEntry{
		Identity: e.Identity,
		Repo:     e.Repo,
		Error:    outcome.Err.Error(),
		Name:     e.Name,
		RollNo:   e.RollNo,
		Branch:   e.Branch,
		Section:  e.Section,
	}
}
