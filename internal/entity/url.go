// Package entity defines the entities and errors used in the application.
// It includes the ShortURL record with its schedule overrides, click events
// and the counter used to allocate short codes, together with the pure
// functions that resolve the active target and aggregate click statistics.
package entity

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrInvalidInput is returned when a record or schedule violates a field invariant.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable wraps failures of the underlying table store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDataCorruption is returned when a stored record cannot be decoded.
	ErrDataCorruption = errors.New("data corruption")
	// ErrVersionConflict is returned when a record kept changing concurrently
	// and the optimistic write could not be applied.
	ErrVersionConflict = errors.New("version conflict")
	// ErrClickTracking marks a click whose event or counter write failed.
	ErrClickTracking = errors.New("click tracking incomplete")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ShortURL represents a shortened URL stored in the urls table.
type ShortURL struct {
	PartitionKey string     // PartitionKey is the first character of ShortCode.
	ShortCode    string     // ShortCode is the row key, either a vanity or a generated code.
	TargetURL    string     // TargetURL is the default destination.
	Title        string     // Title is an optional display label.
	Clicks       int64      // Clicks is the number of redirects served.
	IsArchived   bool       // IsArchived hides the record from listings.
	Schedules    []Schedule // Schedules are time-bounded alternative targets.
	ETag         string     // ETag is the version token read from the store.
	UpdatedAt    time.Time  // UpdatedAt is the store timestamp of the last write.
}

type shortURLFields struct {
	ShortCode string `validate:"required"`
	TargetURL string `validate:"required,url"`
}

// URLChanges holds the fields an update may replace.
type URLChanges struct {
	TargetURL string
	Title     string
	Schedules []Schedule
}

// PartitionKeyFor derives the partition key of a short code.
func PartitionKeyFor(shortCode string) string {
	r, size := utf8.DecodeRuneInString(shortCode)
	if size == 0 {
		return ""
	}
	return string(r)
}

// NewShortURL builds a record with a derived partition key after checking
// the field invariants.
func NewShortURL(shortCode, targetURL, title string, schedules []Schedule) (*ShortURL, error) {
	if err := validate.Struct(shortURLFields{ShortCode: shortCode, TargetURL: targetURL}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := ValidateSchedules(schedules); err != nil {
		return nil, err
	}

	return &ShortURL{
		PartitionKey: PartitionKeyFor(shortCode),
		ShortCode:    shortCode,
		TargetURL:    targetURL,
		Title:        title,
		Schedules:    schedules,
	}, nil
}

// Validate checks the changes before they are applied to a stored record.
func (c URLChanges) Validate() error {
	if err := validate.Var(c.TargetURL, "required,url"); err != nil {
		return fmt.Errorf("%w: target url: %w", ErrInvalidInput, err)
	}
	return ValidateSchedules(c.Schedules)
}

// Apply copies the changes onto u.
func (c URLChanges) Apply(u *ShortURL) {
	u.TargetURL = c.TargetURL
	u.Title = c.Title
	u.Schedules = c.Schedules
}

// Counter is the singleton record that holds the last allocated identifier.
type Counter struct {
	Value int64
	ETag  string
}
