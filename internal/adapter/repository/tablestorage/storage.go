// Package tablestorage persists short URLs, click events and the identifier
// counter in a partitioned table store. It is the only package that talks to
// the store; every call is a single attempt and store failures are reported
// as entity.ErrStoreUnavailable with the cause attached.
package tablestorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/scheduled-shortener/internal/allocator"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/internal/occ"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/tables"
)

const (
	urlsTable   = "urls_details"
	clicksTable = "click_stats"

	// The counter shares the urls table under a reserved key.
	counterPartitionKey = "1"
	counterRowKey       = "KEY"
)

var counterKey = tables.Key{PartitionKey: counterPartitionKey, RowKey: counterRowKey}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
}

// Storage is the storage gateway.
type Storage struct {
	client      tables.Client
	consistency entity.Consistency
	policy      occ.Policy
	now         func() time.Time
	newEventID  func() string
	ids         *allocator.Allocator
}

type Option func(*Storage)

// WithConsistency selects how fetch-modify-write operations and the
// identifier allocator handle concurrent writers.
func WithConsistency(c entity.Consistency) Option {
	return func(s *Storage) {
		if c.Valid() {
			s.consistency = c
		}
	}
}

func WithRetryPolicy(p occ.Policy) Option {
	return func(s *Storage) {
		s.policy = p
	}
}

// WithClock replaces the clock used to stamp click events.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

func WithEventIDFunc(f func() string) Option {
	return func(s *Storage) {
		s.newEventID = f
	}
}

func New(client tables.Client, opts ...Option) *Storage {
	s := &Storage{
		client:      client,
		consistency: entity.ConsistencyOptimistic,
		policy:      occ.DefaultPolicy,
		now:         time.Now,
		newEventID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.ids = allocator.New(counterStore{client: client}, s.consistency, s.policy)

	return s
}

func (s *Storage) GetByShortCode(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.GetByShortCode"

	if shortCode == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	e, err := s.client.Get(ctx, urlsTable, entity.PartitionKeyFor(shortCode), shortCode)
	if err != nil {
		if errors.Is(err, tables.ErrEntityNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, storeError(op, err)
	}

	u, err := decodeURL(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// ListAll returns every stored URL, archived ones included, ordered by short
// code within each partition.
func (s *Storage) ListAll(ctx context.Context) ([]entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.ListAll"

	entities, err := s.client.Query(ctx, urlsTable, tables.Filter{Exclude: &counterKey})
	if err != nil {
		return nil, storeError(op, err)
	}

	urls := make([]entity.ShortURL, 0, len(entities))

	for i := range entities {
		u, err := decodeURL(&entities[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		urls = append(urls, *u)
	}

	return urls, nil
}

func (s *Storage) Exists(ctx context.Context, shortCode string) (bool, error) {
	const op = "adapter.repository.tablestorage.Storage.Exists"

	_, err := s.GetByShortCode(ctx, shortCode)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, entity.ErrURLNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", op, err)
	}
}

// Upsert writes u whether or not its short code is taken. The partition key
// is always derived from the short code.
func (s *Storage) Upsert(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.Upsert"

	e, err := s.encode(u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.client.Upsert(ctx, urlsTable, e)
	if err != nil {
		return nil, storeError(op, err)
	}

	return s.decode(op, saved)
}

// Insert writes u only if its short code is free and returns
// entity.ErrShortCodeExists otherwise.
func (s *Storage) Insert(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.Insert"

	e, err := s.encode(u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.client.Insert(ctx, urlsTable, e)
	if err != nil {
		if errors.Is(err, tables.ErrEntityExists) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, storeError(op, err)
	}

	return s.decode(op, saved)
}

// Update replaces the target, title and schedules of a stored URL.
func (s *Storage) Update(ctx context.Context, shortCode string, changes entity.URLChanges) (*entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.Update"

	if err := changes.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.modify(ctx, shortCode, changes.Apply)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Storage) Archive(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.Archive"

	u, err := s.modify(ctx, shortCode, func(u *entity.ShortURL) {
		u.IsArchived = true
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Storage) IncrementClicks(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	const op = "adapter.repository.tablestorage.Storage.IncrementClicks"

	u, err := s.modify(ctx, shortCode, func(u *entity.ShortURL) {
		u.Clicks++
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// NextCounterValue returns the next identifier for generated short codes.
func (s *Storage) NextCounterValue(ctx context.Context) (int64, error) {
	const op = "adapter.repository.tablestorage.Storage.NextCounterValue"

	id, err := s.ids.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// modify reads the record, applies mutate and writes it back. In optimistic
// mode the write is conditional on the ETag that was read and the sequence is
// repeated on conflict; in last-write-wins mode the write is unconditional.
func (s *Storage) modify(ctx context.Context, shortCode string, mutate func(*entity.ShortURL)) (*entity.ShortURL, error) {
	if s.consistency == entity.ConsistencyLastWriteWins {
		u, err := s.GetByShortCode(ctx, shortCode)
		if err != nil {
			return nil, err
		}

		mutate(u)

		return s.Upsert(ctx, u)
	}

	const op = "adapter.repository.tablestorage.Storage.modify"

	var updated *entity.ShortURL

	err := occ.Retry(ctx, s.policy, func() error {
		u, err := s.GetByShortCode(ctx, shortCode)
		if err != nil {
			return err
		}

		mutate(u)

		e, err := s.encode(u)
		if err != nil {
			return err
		}

		saved, err := s.client.Replace(ctx, urlsTable, e, u.ETag)
		if err != nil {
			if errors.Is(err, tables.ErrPreconditionFailed) {
				return fmt.Errorf("%s: %q: %w", op, shortCode, occ.ErrConflict)
			}

			return storeError(op, err)
		}

		updated, err = s.decode(op, saved)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Storage) encode(u *entity.ShortURL) (tables.Entity, error) {
	if u == nil || u.ShortCode == "" {
		return tables.Entity{}, fmt.Errorf("%w: short code is required", entity.ErrInvalidInput)
	}

	return encodeURL(u)
}

func (s *Storage) decode(op string, e *tables.Entity) (*entity.ShortURL, error) {
	u, err := decodeURL(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
