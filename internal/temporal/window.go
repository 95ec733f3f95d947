package temporal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohankatakam/rosterpulse/internal/models"
)

// DateLayout is the calendar-day key used for window dates
const DateLayout = "2006-01-02"

// DefaultWindowSize is the number of trailing days bucketed per identity
const DefaultWindowSize = 5

// Window is a trailing sequence of calendar days, most recent first
type Window struct {
	Dates    []string
	Location *time.Location
}

// ResolveLocation maps a timezone policy name to a location.
// "" and "UTC" mean UTC, "Local" the host zone, anything else an IANA name.
func ResolveLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "UTC", "utc":
		return time.UTC, nil
	case "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// BuildWindow returns size calendar dates walking backward from the anchor's
// day in loc. Day 0 is the anchor day.
func BuildWindow(size int, anchor time.Time, loc *time.Location) []string {
	if size <= 0 {
		return []string{}
	}
	if loc == nil {
		loc = time.UTC
	}

	a := anchor.In(loc)
	dates := make([]string, size)
	for i := 0; i < size; i++ {
		// time.Date normalizes day underflow across month and year bounds
		day := time.Date(a.Year(), a.Month(), a.Day()-i, 12, 0, 0, 0, loc)
		dates[i] = day.Format(DateLayout)
	}
	return dates
}

// NewWindow builds a Window anchored at the given instant
func NewWindow(size int, anchor time.Time, loc *time.Location) (Window, error) {
	if size <= 0 {
		return Window{}, fmt.Errorf("window size must be positive, got %d", size)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Window{Dates: BuildWindow(size, anchor, loc), Location: loc}, nil
}

// DayKey returns the calendar day t falls on in loc
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Histogram counts commits per window date, in window order
func (w Window) Histogram(commits []models.CommitRecord) []models.DailyBucket {
	return Histogram(commits, w.Dates, w.Location)
}
