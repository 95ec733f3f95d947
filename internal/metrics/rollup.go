package metrics

import (
	"sort"

	"github.com/rohankatakam/rosterpulse/internal/models"
	"github.com/rohankatakam/rosterpulse/internal/temporal"
)

// Aggregate folds per-identity totals and daily activity into the
// branch → section rollup.
//
// Groups are created lazily on first sight. Percentages are computed in a
// second pass once every group's totals are final.
func Aggregate(
	roster []models.RosterEntry,
	commitCounts map[string]int,
	histograms map[string][]models.DailyBucket,
) models.Rollup {
	summary := make(map[string]map[string]*models.GroupSummary)
	active := make(map[string]struct{})

	for _, entry := range roster {
		sections, ok := summary[entry.Branch]
		if !ok {
			sections = make(map[string]*models.GroupSummary)
			summary[entry.Branch] = sections
		}

		group, ok := sections[entry.Section]
		if !ok {
			group = &models.GroupSummary{Branch: entry.Branch, Section: entry.Section}
			sections[entry.Section] = group
		}

		group.TotalCommits += commitCounts[entry.Identity]
		group.TotalUsers++

		if temporal.IsActive(histograms[entry.Identity]) {
			group.ActiveUsers++
			active[entry.Identity] = struct{}{}
		}
	}

	for _, sections := range summary {
		for _, group := range sections {
			group.ActiveUserPercentage = Percentage(group.ActiveUsers, group.TotalUsers)
		}
	}

	return models.Rollup{
		TotalActiveUsers: len(active),
		Summary:          summary,
	}
}

// Percentage returns part/total*100, or 0 when total is 0
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// SortedGroups flattens a rollup in (branch, section) order
func SortedGroups(rollup models.Rollup) []models.GroupSummary {
	var groups []models.GroupSummary
	for _, sections := range rollup.Summary {
		for _, group := range sections {
			groups = append(groups, *group)
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Branch != groups[j].Branch {
			return groups[i].Branch < groups[j].Branch
		}
		return groups[i].Section < groups[j].Section
	})
	return groups
}

// Totals sums every group in a rollup
func Totals(rollup models.Rollup) models.GroupSummary {
	var total models.GroupSummary
	for _, sections := range rollup.Summary {
		for _, group := range sections {
			total.TotalCommits += group.TotalCommits
			total.ActiveUsers += group.ActiveUsers
			total.TotalUsers += group.TotalUsers
		}
	}
	total.ActiveUserPercentage = Percentage(total.ActiveUsers, total.TotalUsers)
	return total
}
