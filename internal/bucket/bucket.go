// Package bucket sorts bulletin events into the today / this week / this
// month display groups relative to a reference time.
package bucket

import (
	"fmt"
	"sort"
	"time"

	"ms-bulletin/internal/models"
)

type Bucket int

const (
	None Bucket = iota
	Today
	ThisWeek
	ThisMonth
)

func (b Bucket) String() string {
	switch b {
	case Today:
		return "today"
	case ThisWeek:
		return "week"
	case ThisMonth:
		return "month"
	default:
		return "none"
	}
}

// Warner receives the skip notices for events with unusable timestamps.
// *logger.Logger satisfies it.
type Warner interface {
	Warn(category, message string)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekBounds returns the Monday midnight starting now's week and the
// Monday midnight that ends it. The end is exclusive.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	today0 := StartOfDay(now)
	offset := (int(today0.Weekday()) + 6) % 7
	y, m, d := today0.Date()
	monday := time.Date(y, m, d-offset, 0, 0, 0, 0, today0.Location())
	end := time.Date(y, m, d-offset+7, 0, 0, 0, 0, today0.Location())
	return monday, end
}

// Classify places ts into exactly one bucket relative to now's calendar day.
// Comparisons happen in now's location. The checks run in order and the
// first match wins.
func Classify(ts, now time.Time) Bucket {
	ts = ts.In(now.Location())
	today0 := StartOfDay(now)

	ny, nm, nd := now.Date()
	ey, em, ed := ts.Date()
	if ey == ny && em == nm && ed == nd {
		return Today
	}

	if !ts.After(today0) {
		return None
	}

	_, weekEnd := WeekBounds(now)
	if ts.Before(weekEnd) {
		return ThisWeek
	}

	if ey == ny && em == nm {
		return ThisMonth
	}

	return None
}

// Valid reports whether ts is a usable instant. Repositories hand back the
// zero time for timestamps they could not parse.
func Valid(ts time.Time) bool {
	return !ts.IsZero()
}

// SortByTimestamp returns a copy of events in ascending timestamp order.
// Ties keep their input order.
func SortByTimestamp(events []models.Event) []models.Event {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Group sorts events and distributes them into the display buckets.
// Events with invalid timestamps are dropped with a warning; events outside
// every window are dropped silently. The second return value counts the
// invalid ones.
func Group(events []models.Event, now time.Time, warn Warner) (models.UpcomingEvents, int) {
	out := models.UpcomingEvents{
		Today: []models.Event{},
		Week:  []models.Event{},
		Month: []models.Event{},
	}
	skipped := 0

	for _, ev := range SortByTimestamp(events) {
		if !Valid(ev.Timestamp) {
			skipped++
			if warn != nil {
				warn.Warn("BUCKET", fmt.Sprintf("Invalid date for event %q (%s). Skipping.", ev.Title, ev.ID))
			}
			continue
		}

		switch Classify(ev.Timestamp, now) {
		case Today:
			out.Today = append(out.Today, ev)
		case ThisWeek:
			out.Week = append(out.Week, ev)
		case ThisMonth:
			out.Month = append(out.Month, ev)
		}
	}

	return out, skipped
}

// ParseTimestamp accepts the timestamp encodings found in stored documents:
// RFC 3339 with or without fractional seconds, and a bare local
// "2006-01-02T15:04" form interpreted in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}
