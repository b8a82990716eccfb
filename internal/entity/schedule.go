package entity

import (
	"fmt"
	"slices"
	"time"
)

// Schedule redirects to AlternativeURL while the current time is strictly
// between Start and End.
type Schedule struct {
	Start          time.Time `json:"Start" validate:"required"`
	End            time.Time `json:"End" validate:"required,gtfield=Start"`
	AlternativeURL string    `json:"AlternativeUrl" validate:"required,url"`
}

// Validate reports whether the schedule window and target are well formed.
func (s Schedule) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: schedule: %w", ErrInvalidInput, err)
	}
	return nil
}

// ValidateSchedules validates every schedule in order.
func ValidateSchedules(schedules []Schedule) error {
	for i, s := range schedules {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
	}
	return nil
}

func (s Schedule) contains(t time.Time) bool {
	return s.Start.Before(t) && s.End.After(t)
}

// IsActive reports whether the schedule applies at t. Boundary instants are
// not active.
func (s Schedule) IsActive(t time.Time) bool {
	return s.contains(t)
}

// ResolveActiveURL returns the URL a redirect should use at now: the
// alternative of the earliest-starting active schedule, or TargetURL.
// Schedules sharing a start keep their stored order.
func ResolveActiveURL(u *ShortURL, now time.Time) string {
	var candidates []Schedule
	for _, s := range u.Schedules {
		if s.contains(now) {
			candidates = append(candidates, s)
		}
	}

	slices.SortStableFunc(candidates, func(a, b Schedule) int {
		return a.Start.Compare(b.Start)
	})

	for _, s := range candidates {
		if s.IsActive(now) {
			return s.AlternativeURL
		}
	}

	return u.TargetURL
}
