package entity

import (
	"slices"
	"time"
)

// ClickDateLayout is the layout of ClickDate.Date.
const ClickDateLayout = "2006-01-02"

// ClickEvent is a single redirect, partitioned by the short code it hit.
type ClickEvent struct {
	PartitionKey string    // PartitionKey is the owning short code.
	EventID      string    // EventID is the unique row key of the event.
	OccurredAt   time.Time // OccurredAt is the click time, truncated to the minute.
}

// NewClickEvent creates an event for shortCode at minute precision.
func NewClickEvent(shortCode, eventID string, at time.Time) ClickEvent {
	return ClickEvent{
		PartitionKey: shortCode,
		EventID:      eventID,
		OccurredAt:   at.UTC().Truncate(time.Minute),
	}
}

// ClickDate is the number of clicks on one calendar day.
type ClickDate struct {
	Date  string
	Count int64
}

// ClickStats is the per-day click history of a short code.
type ClickStats struct {
	ShortCode string
	Items     []ClickDate
}

// AggregateByDay groups events by the calendar date of OccurredAt and
// returns the counts in ascending date order.
func AggregateByDay(events []ClickEvent) []ClickDate {
	counts := make(map[time.Time]int64)
	for _, e := range events {
		y, m, d := e.OccurredAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		counts[day]++
	}

	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int {
		return a.Compare(b)
	})

	items := make([]ClickDate, 0, len(days))
	for _, day := range days {
		items = append(items, ClickDate{
			Date:  day.Format(ClickDateLayout),
			Count: counts[day],
		})
	}

	return items
}
