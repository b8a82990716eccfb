package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartitionKeyFor(t *testing.T) {
	tests := []struct {
		name      string
		shortCode string
		want      string
	}{
		{name: "ascii", shortCode: "azFunc", want: "a"},
		{name: "single character", shortCode: "Z", want: "Z"},
		{name: "digits", shortCode: "1025", want: "1"},
		{name: "multibyte", shortCode: "äpfel", want: "ä"},
		{name: "empty", shortCode: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartitionKeyFor(tt.shortCode))
		})
	}
}

func TestNewShortURL(t *testing.T) {
	start := time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty short code", func(t *testing.T) {
		u, err := NewShortURL("", "https://example.com", "", nil)

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, u)
	})

	t.Run("invalid target url", func(t *testing.T) {
		u, err := NewShortURL("abc", "not a url", "", nil)

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, u)
	})

	t.Run("schedule ends before it starts", func(t *testing.T) {
		schedules := []Schedule{{Start: start, End: start.Add(-time.Hour), AlternativeURL: "https://alt.example.com"}}

		u, err := NewShortURL("abc", "https://example.com", "", schedules)

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, u)
	})

	t.Run("schedule with empty window", func(t *testing.T) {
		schedules := []Schedule{{Start: start, End: start, AlternativeURL: "https://alt.example.com"}}

		_, err := NewShortURL("abc", "https://example.com", "", schedules)

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("schedule without alternative url", func(t *testing.T) {
		schedules := []Schedule{{Start: start, End: start.Add(time.Hour)}}

		_, err := NewShortURL("abc", "https://example.com", "", schedules)

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("success", func(t *testing.T) {
		schedules := []Schedule{{Start: start, End: start.Add(time.Hour), AlternativeURL: "https://alt.example.com"}}

		u, err := NewShortURL("azFunc", "https://example.com/a", "Docs", schedules)

		assert.NoError(t, err)
		assert.Equal(t, &ShortURL{
			PartitionKey: "a",
			ShortCode:    "azFunc",
			TargetURL:    "https://example.com/a",
			Title:        "Docs",
			Schedules:    schedules,
		}, u)
	})
}

func TestURLChanges(t *testing.T) {
	t.Run("invalid target url", func(t *testing.T) {
		err := URLChanges{TargetURL: ""}.Validate()

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("apply", func(t *testing.T) {
		u := &ShortURL{ShortCode: "abc", TargetURL: "https://old.example.com", Clicks: 7}
		changes := URLChanges{TargetURL: "https://new.example.com", Title: "New"}

		assert.NoError(t, changes.Validate())
		changes.Apply(u)

		assert.Equal(t, "https://new.example.com", u.TargetURL)
		assert.Equal(t, "New", u.Title)
		assert.Equal(t, int64(7), u.Clicks)
	})
}
