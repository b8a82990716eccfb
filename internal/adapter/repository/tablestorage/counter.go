package tablestorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/scheduled-shortener/internal/allocator"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/internal/occ"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/tables"
)

// counterStore keeps the allocator's counter in the urls table.
type counterStore struct {
	client tables.Client
}

var _ allocator.CounterStore = counterStore{}

func (c counterStore) LoadCounter(ctx context.Context) (*entity.Counter, error) {
	const op = "adapter.repository.tablestorage.counterStore.LoadCounter"

	e, err := c.client.Get(ctx, urlsTable, counterPartitionKey, counterRowKey)
	if err != nil {
		if errors.Is(err, tables.ErrEntityNotFound) {
			return nil, fmt.Errorf("%s: %w", op, allocator.ErrCounterNotFound)
		}

		return nil, storeError(op, err)
	}

	counter, err := decodeCounter(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counter, nil
}

func (c counterStore) CreateCounter(ctx context.Context, value int64) (*entity.Counter, error) {
	const op = "adapter.repository.tablestorage.counterStore.CreateCounter"

	return c.write(ctx, op, value, func(e tables.Entity) (*tables.Entity, error) {
		saved, err := c.client.Insert(ctx, urlsTable, e)
		if errors.Is(err, tables.ErrEntityExists) {
			return nil, occ.ErrConflict
		}
		return saved, err
	})
}

func (c counterStore) ReplaceCounter(ctx context.Context, value int64, ifMatch string) (*entity.Counter, error) {
	const op = "adapter.repository.tablestorage.counterStore.ReplaceCounter"

	return c.write(ctx, op, value, func(e tables.Entity) (*tables.Entity, error) {
		saved, err := c.client.Replace(ctx, urlsTable, e, ifMatch)
		if errors.Is(err, tables.ErrPreconditionFailed) {
			return nil, occ.ErrConflict
		}
		return saved, err
	})
}

func (c counterStore) UpsertCounter(ctx context.Context, value int64) (*entity.Counter, error) {
	const op = "adapter.repository.tablestorage.counterStore.UpsertCounter"

	return c.write(ctx, op, value, func(e tables.Entity) (*tables.Entity, error) {
		return c.client.Upsert(ctx, urlsTable, e)
	})
}

func (c counterStore) write(ctx context.Context, op string, value int64, save func(tables.Entity) (*tables.Entity, error)) (*entity.Counter, error) {
	e, err := encodeCounter(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := save(e)
	if err != nil {
		if errors.Is(err, occ.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, storeError(op, err)
	}

	counter, err := decodeCounter(saved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counter, nil
}
