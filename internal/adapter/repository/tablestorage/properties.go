package tablestorage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/tables"
)

const clickDatetimeLayout = "2006-01-02 15:04"

type urlProperties struct {
	URL                  string `json:"Url"`
	Title                string `json:"Title"`
	Clicks               int64  `json:"Clicks"`
	IsArchived           bool   `json:"IsArchived"`
	SchedulesPropertyRaw string `json:"SchedulesPropertyRaw,omitempty"`
}

type clickProperties struct {
	Datetime string `json:"Datetime"`
}

type counterProperties struct {
	ID int64 `json:"Id"`
}

func encodeURL(u *entity.ShortURL) (tables.Entity, error) {
	props := urlProperties{
		URL:        u.TargetURL,
		Title:      u.Title,
		Clicks:     u.Clicks,
		IsArchived: u.IsArchived,
	}

	if len(u.Schedules) > 0 {
		raw, err := json.Marshal(u.Schedules)
		if err != nil {
			return tables.Entity{}, fmt.Errorf("failed to encode schedules: %w", err)
		}
		props.SchedulesPropertyRaw = string(raw)
	}

	data, err := json.Marshal(props)
	if err != nil {
		return tables.Entity{}, fmt.Errorf("failed to encode url properties: %w", err)
	}

	return tables.Entity{
		PartitionKey: entity.PartitionKeyFor(u.ShortCode),
		RowKey:       u.ShortCode,
		Properties:   data,
	}, nil
}

func decodeURL(e *tables.Entity) (*entity.ShortURL, error) {
	var props urlProperties
	if err := json.Unmarshal(e.Properties, &props); err != nil {
		return nil, fmt.Errorf("%w: url %q: %w", entity.ErrDataCorruption, e.RowKey, err)
	}

	var schedules []entity.Schedule
	if props.SchedulesPropertyRaw != "" {
		if err := json.Unmarshal([]byte(props.SchedulesPropertyRaw), &schedules); err != nil {
			return nil, fmt.Errorf("%w: schedules of %q: %w", entity.ErrDataCorruption, e.RowKey, err)
		}
	}

	return &entity.ShortURL{
		PartitionKey: e.PartitionKey,
		ShortCode:    e.RowKey,
		TargetURL:    props.URL,
		Title:        props.Title,
		Clicks:       props.Clicks,
		IsArchived:   props.IsArchived,
		Schedules:    schedules,
		ETag:         e.ETag,
		UpdatedAt:    e.Timestamp,
	}, nil
}

func encodeClick(ev entity.ClickEvent) (tables.Entity, error) {
	data, err := json.Marshal(clickProperties{Datetime: ev.OccurredAt.Format(clickDatetimeLayout)})
	if err != nil {
		return tables.Entity{}, fmt.Errorf("failed to encode click properties: %w", err)
	}

	return tables.Entity{
		PartitionKey: ev.PartitionKey,
		RowKey:       ev.EventID,
		Properties:   data,
	}, nil
}

func decodeClick(e *tables.Entity) (entity.ClickEvent, error) {
	var props clickProperties
	if err := json.Unmarshal(e.Properties, &props); err != nil {
		return entity.ClickEvent{}, fmt.Errorf("%w: click %q: %w", entity.ErrDataCorruption, e.RowKey, err)
	}

	at, err := time.Parse(clickDatetimeLayout, props.Datetime)
	if err != nil {
		return entity.ClickEvent{}, fmt.Errorf("%w: click %q: %w", entity.ErrDataCorruption, e.RowKey, err)
	}

	return entity.ClickEvent{
		PartitionKey: e.PartitionKey,
		EventID:      e.RowKey,
		OccurredAt:   at,
	}, nil
}

func encodeCounter(value int64) (tables.Entity, error) {
	data, err := json.Marshal(counterProperties{ID: value})
	if err != nil {
		return tables.Entity{}, fmt.Errorf("failed to encode counter properties: %w", err)
	}

	return tables.Entity{
		PartitionKey: counterPartitionKey,
		RowKey:       counterRowKey,
		Properties:   data,
	}, nil
}

func decodeCounter(e *tables.Entity) (*entity.Counter, error) {
	var props counterProperties
	if err := json.Unmarshal(e.Properties, &props); err != nil {
		return nil, fmt.Errorf("%w: counter: %w", entity.ErrDataCorruption, err)
	}

	return &entity.Counter{Value: props.ID, ETag: e.ETag}, nil
}
