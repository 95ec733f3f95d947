package metrics

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

func buckets(counts ...int) []models.DailyBucket {
	out := make([]models.DailyBucket, len(counts))
	for i, c := range counts {
		out[i] = models.DailyBucket{Date: fmt.Sprintf("2024-01-%02d", 5-i), Count: c}
	}
	return out
}

func sampleRoster() []models.RosterEntry {
	return []models.RosterEntry{
		{Identity: "alice", Branch: "CSE", Section: "A"},
		{Identity: "bob", Branch: "CSE", Section: "A"},
		{Identity: "carol", Branch: "CSE", Section: "B"},
		{Identity: "dave", Branch: "ECE", Section: "A"},
		{Identity: "erin", Branch: "ECE", Section: "A"},
	}
}

func TestAggregate(t *testing.T) {
	counts := map[string]int{"alice": 12, "bob": 3, "carol": 0, "dave": 7}
	histograms := map[string][]models.DailyBucket{
		"alice": buckets(1, 0, 0, 2, 0),
		"bob":   buckets(0, 0, 0, 0, 0),
		"carol": buckets(0, 0, 0, 0, 0),
		"dave":  buckets(0, 0, 0, 0, 4),
		// erin failed: no count, no histogram
	}

	rollup := Aggregate(sampleRoster(), counts, histograms)

	assert.Equal(t, 2, rollup.TotalActiveUsers)
	require.Len(t, rollup.Summary, 2)

	cseA := rollup.Summary["CSE"]["A"]
	require.NotNil(t, cseA)
	assert.Equal(t, 15, cseA.TotalCommits)
	assert.Equal(t, 2, cseA.TotalUsers)
	assert.Equal(t, 1, cseA.ActiveUsers)
	assert.InDelta(t, 50.0, cseA.ActiveUserPercentage, 1e-9)

	cseB := rollup.Summary["CSE"]["B"]
	assert.Equal(t, 0, cseB.TotalCommits)
	assert.Equal(t, 1, cseB.TotalUsers)
	assert.Equal(t, 0.0, cseB.ActiveUserPercentage)

	eceA := rollup.Summary["ECE"]["A"]
	assert.Equal(t, 7, eceA.TotalCommits)
	assert.Equal(t, 2, eceA.TotalUsers)
	assert.Equal(t, 1, eceA.ActiveUsers)
	assert.InDelta(t, 50.0, eceA.ActiveUserPercentage, 1e-9)
}

func TestAggregate_PercentageBounds(t *testing.T) {
	counts := map[string]int{"alice": 1, "bob": 1, "carol": 1, "dave": 1, "erin": 1}
	histograms := map[string][]models.DailyBucket{}
	for id := range counts {
		histograms[id] = buckets(1)
	}

	rollup := Aggregate(sampleRoster(), counts, histograms)
	for _, g := range SortedGroups(rollup) {
		assert.GreaterOrEqual(t, g.ActiveUserPercentage, 0.0)
		assert.LessOrEqual(t, g.ActiveUserPercentage, 100.0)
		assert.Equal(t, 100.0, g.ActiveUserPercentage, "%s/%s", g.Branch, g.Section)
	}
	assert.Equal(t, 5, rollup.TotalActiveUsers)
}

func TestAggregate_EmptyRoster(t *testing.T) {
	rollup := Aggregate(nil, nil, nil)

	assert.Equal(t, 0, rollup.TotalActiveUsers)
	assert.Empty(t, rollup.Summary)
	assert.Equal(t, 0.0, Totals(rollup).ActiveUserPercentage)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(3, 0))
	assert.Equal(t, 100.0, Percentage(4, 4))
	assert.InDelta(t, 33.333, Percentage(1, 3), 0.001)
}

func TestAggregate_Idempotent(t *testing.T) {
	counts := map[string]int{"alice": 12, "dave": 7}
	histograms := map[string][]models.DailyBucket{
		"alice": buckets(1, 0),
		"dave":  buckets(0, 3),
	}

	first, err := json.Marshal(Aggregate(sampleRoster(), counts, histograms))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(sampleRoster(), counts, histograms))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestAggregate_OrderIndependent(t *testing.T) {
	counts := map[string]int{"alice": 2, "carol": 5, "erin": 1}
	histograms := map[string][]models.DailyBucket{"carol": buckets(1), "erin": buckets(1)}

	forward := sampleRoster()
	reversed := make([]models.RosterEntry, len(forward))
	for i, e := range forward {
		reversed[len(forward)-1-i] = e
	}

	assert.Equal(t, SortedGroups(Aggregate(forward, counts, histograms)),
		SortedGroups(Aggregate(reversed, counts, histograms)))
}

func TestSortedGroupsAndTotals(t *testing.T) {
	rollup := Aggregate(sampleRoster(), map[string]int{"alice": 1, "dave": 2}, map[string][]models.DailyBucket{
		"alice": buckets(1),
	})

	groups := SortedGroups(rollup)
	require.Len(t, groups, 3)
	assert.Equal(t, [2]string{"CSE", "A"}, [2]string{groups[0].Branch, groups[0].Section})
	assert.Equal(t, [2]string{"CSE", "B"}, [2]string{groups[1].Branch, groups[1].Section})
	assert.Equal(t, [2]string{"ECE", "A"}, [2]string{groups[2].Branch, groups[2].Section})

	total := Totals(rollup)
	assert.Equal(t, 3, total.TotalCommits)
	assert.Equal(t, 5, total.TotalUsers)
	assert.Equal(t, 1, total.ActiveUsers)
	assert.InDelta(t, 20.0, total.ActiveUserPercentage, 1e-9)
}
