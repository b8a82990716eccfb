package tablestorage

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/tables"
)

// RecordClick appends a click event for shortCode stamped with the current
// minute. Events are never updated.
func (s *Storage) RecordClick(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.tablestorage.Storage.RecordClick"

	if shortCode == "" {
		return fmt.Errorf("%s: %w: short code is required", op, entity.ErrInvalidInput)
	}

	e, err := encodeClick(entity.NewClickEvent(shortCode, s.newEventID(), s.now()))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.client.Insert(ctx, clicksTable, e); err != nil {
		return storeError(op, err)
	}

	return nil
}

// QueryClicksByShortCode returns every click event recorded for shortCode.
func (s *Storage) QueryClicksByShortCode(ctx context.Context, shortCode string) ([]entity.ClickEvent, error) {
	const op = "adapter.repository.tablestorage.Storage.QueryClicksByShortCode"

	if shortCode == "" {
		return []entity.ClickEvent{}, nil
	}

	entities, err := s.client.Query(ctx, clicksTable, tables.Filter{PartitionKey: shortCode})
	if err != nil {
		return nil, storeError(op, err)
	}

	events := make([]entity.ClickEvent, 0, len(entities))

	for i := range entities {
		ev, err := decodeClick(&entities[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, ev)
	}

	return events, nil
}
