package ingestion

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
	"github.com/rohankatakam/rosterpulse/internal/roster"
	"github.com/rohankatakam/rosterpulse/internal/temporal"
)

func commitOn(day string) models.CommitRecord {
	t, err := time.Parse(time.RFC3339, day+"T08:00:00Z")
	if err != nil {
		panic(err)
	}
	return models.CommitRecord{SHA: day, CommittedAt: t}
}

func classRoster() []models.RosterEntry {
	return []models.RosterEntry{
		{Identity: "alice", Name: "Alice", RollNo: "1", Branch: "CSE", Section: "A", Repo: "default-repo"},
		{Identity: "bob", Name: "Bob", RollNo: "2", Branch: "CSE", Section: "A", Repo: "default-repo"},
		{Identity: "carol", Name: "Carol", RollNo: "3", Branch: "ECE", Section: "B", Repo: "default-repo"},
		{Identity: "dave", Name: "Dave", RollNo: "4", Branch: "ECE", Section: "B", Repo: "project"},
	}
}

func classSource() *fakeSource {
	return &fakeSource{
		commits: map[string][]models.CommitRecord{
			"alice": {
				commitOn("2024-01-01"), commitOn("2024-01-02"), commitOn("2024-01-03"),
				commitOn("2024-01-04"), commitOn("2024-01-05"),
			},
			// only older activity: reachable but inactive
			"bob":   {commitOn("2023-12-20"), commitOn("2023-12-21")},
			"carol": {commitOn("2024-01-05"), commitOn("2024-01-05")},
		},
		errs: map[string]error{
			"dave": errors.HTTPStatus("dave/project", 404, "Not Found"),
		},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC) }
}

func testPipelineConfig() PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.Scheduler.InterBatchDelay = 0
	cfg.Scheduler.BatchSize = 3
	return cfg
}

func TestPipeline_Run(t *testing.T) {
	p, err := NewPipeline(classSource(), testPipelineConfig(), quietLogger(), WithClock(fixedClock()))
	require.NoError(t, err)

	report, err := p.Run(context.Background(), classRoster())
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05", "2024-01-04", "2024-01-03", "2024-01-02", "2024-01-01"}, report.Window)

	assert.Equal(t, map[string]int{"alice": 5, "bob": 2, "carol": 2}, report.CommitCounts)
	require.Len(t, report.InvalidEntries, 1)
	assert.Equal(t, models.InvalidEntry{
		Identity: "dave",
		Repo:     "project",
		Error:    "failed to fetch dave/project: Not Found (status: 404)",
		Name:     "Dave",
		RollNo:   "4",
		Branch:   "ECE",
		Section:  "B",
	}, report.InvalidEntries[0])

	// histograms exist for reachable identities only
	assert.Len(t, report.Histograms, 3)
	assert.NotContains(t, report.Histograms, "dave")
	for _, b := range report.Histograms["alice"] {
		assert.Equal(t, 1, b.Count, b.Date)
	}
	assert.Equal(t, 0, temporal.WindowTotal(report.Histograms["bob"]))
	assert.Equal(t, 2, report.Histograms["carol"][0].Count)

	assert.Equal(t, 2, report.Rollup.TotalActiveUsers)
	cseA := report.Rollup.Summary["CSE"]["A"]
	assert.Equal(t, 7, cseA.TotalCommits)
	assert.Equal(t, 2, cseA.TotalUsers)
	assert.Equal(t, 1, cseA.ActiveUsers)
	assert.InDelta(t, 50.0, cseA.ActiveUserPercentage, 1e-9)

	eceB := report.Rollup.Summary["ECE"]["B"]
	assert.Equal(t, 2, eceB.TotalCommits)
	assert.Equal(t, 2, eceB.TotalUsers)
	assert.Equal(t, 1, eceB.ActiveUsers)
}

func TestPipeline_OutcomeIdentitiesMatchRoster(t *testing.T) {
	p, err := NewPipeline(classSource(), testPipelineConfig(), quietLogger(), WithClock(fixedClock()))
	require.NoError(t, err)

	report, err := p.Run(context.Background(), classRoster())
	require.NoError(t, err)

	seen := map[string]int{}
	for id := range report.CommitCounts {
		seen[id]++
	}
	for _, inv := range report.InvalidEntries {
		seen[inv.Identity]++
	}
	require.Len(t, seen, len(classRoster()))
	for _, e := range classRoster() {
		assert.Equal(t, 1, seen[e.Identity], e.Identity)
	}
}

func TestPipeline_RejectsInvalidRoster(t *testing.T) {
	p, err := NewPipeline(classSource(), testPipelineConfig(), quietLogger())
	require.NoError(t, err)

	dup := []models.RosterEntry{
		{Identity: "alice", Repo: "r"},
		{Identity: "Alice", Repo: "r"},
	}
	_, err = p.Run(context.Background(), dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate identity")

	_, err = p.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewPipeline_RejectsBadWindow(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.WindowSize = 0

	_, err := NewPipeline(classSource(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestBuildReport_Idempotent(t *testing.T) {
	s := newTestScheduler(t, classSource(), SchedulerConfig{BatchSize: 10}, nil)
	outcomes := s.Run(context.Background(), classRoster())
	window, err := temporal.NewWindow(5, fixedClock()(), time.UTC)
	require.NoError(t, err)

	first, err := json.Marshal(BuildReport(classRoster(), outcomes, window))
	require.NoError(t, err)
	second, err := json.Marshal(BuildReport(classRoster(), outcomes, window))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, string(first), string(second))
}

func TestNarrow(t *testing.T) {
	p, err := NewPipeline(classSource(), testPipelineConfig(), quietLogger(), WithClock(fixedClock()))
	require.NoError(t, err)
	report, err := p.Run(context.Background(), classRoster())
	require.NoError(t, err)

	narrowed := Narrow(report, roster.Filter{Branch: "ece"})

	assert.Len(t, narrowed.Roster, 2)
	assert.Equal(t, map[string]int{"carol": 2}, narrowed.CommitCounts)
	assert.Len(t, narrowed.InvalidEntries, 1)
	assert.NotContains(t, narrowed.Rollup.Summary, "CSE")
	assert.Equal(t, 1, narrowed.Rollup.TotalActiveUsers)
	assert.Equal(t, report.RunID, narrowed.RunID)

	// original untouched
	assert.Len(t, report.Roster, 4)
	assert.Contains(t, report.Rollup.Summary, "CSE")

	assert.Same(t, report, Narrow(report, roster.Filter{}))
}

func TestPipeline_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	p, err := NewPipeline(classSource(), testPipelineConfig(), quietLogger(),
		WithClock(fixedClock()), WithMetrics(m))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), classRoster())
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.fetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("http_status")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.batches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeUsers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidRepos))
}
