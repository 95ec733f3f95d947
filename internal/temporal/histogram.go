package temporal

import (
	"time"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// Histogram returns one bucket per window date counting the commits whose
// committed-at calendar day (in loc) equals that date. Bucket order follows
// the window.
func Histogram(commits []models.CommitRecord, window []string, loc *time.Location) []models.DailyBucket {
	if loc == nil {
		loc = time.UTC
	}

	counts := make(map[string]int, len(window))
	for _, date := range window {
		counts[date] = 0
	}
	for _, c := range commits {
		key := DayKey(c.CommittedAt, loc)
		if _, inWindow := counts[key]; inWindow {
			counts[key]++
		}
	}

	buckets := make([]models.DailyBucket, len(window))
	for i, date := range window {
		buckets[i] = models.DailyBucket{Date: date, Count: counts[date]}
	}
	return buckets
}

// IsActive reports whether any bucket has at least one commit
func IsActive(buckets []models.DailyBucket) bool {
	for _, b := range buckets {
		if b.Count > 0 {
			return true
		}
	}
	return false
}

// WindowTotal sums the bucket counts
func WindowTotal(buckets []models.DailyBucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	return total
}
