// Package allocator hands out monotonically increasing identifiers backed by
// a single counter record. Generated short codes are the base62 encoding of
// these identifiers.
package allocator

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/internal/occ"
)

// DefaultSeed is the counter value assumed when no counter record exists.
// The first identifier handed out is DefaultSeed+1.
const DefaultSeed int64 = 1024

// ErrCounterNotFound is returned by a CounterStore when the counter record
// has not been created yet.
var ErrCounterNotFound = errors.New("counter not found")

// CounterStore persists the counter record. Conditional operations report a
// lost race with occ.ErrConflict.
type CounterStore interface {
	LoadCounter(ctx context.Context) (*entity.Counter, error)
	CreateCounter(ctx context.Context, value int64) (*entity.Counter, error)
	ReplaceCounter(ctx context.Context, value int64, ifMatch string) (*entity.Counter, error)
	UpsertCounter(ctx context.Context, value int64) (*entity.Counter, error)
}

// Allocator increments the counter record.
type Allocator struct {
	store       CounterStore
	consistency entity.Consistency
	policy      occ.Policy
	seed        int64
}

// New returns an allocator over store. Unknown consistency modes fall back
// to optimistic.
func New(store CounterStore, consistency entity.Consistency, policy occ.Policy) *Allocator {
	if !consistency.Valid() {
		consistency = entity.ConsistencyOptimistic
	}

	return &Allocator{
		store:       store,
		consistency: consistency,
		policy:      policy,
		seed:        DefaultSeed,
	}
}

// NextID returns the next identifier.
//
// In optimistic mode no two successful calls return the same value. In
// last-write-wins mode concurrent callers may receive duplicates.
func (a *Allocator) NextID(ctx context.Context) (int64, error) {
	if a.consistency == entity.ConsistencyLastWriteWins {
		return a.nextLastWriteWins(ctx)
	}
	return a.nextOptimistic(ctx)
}

func (a *Allocator) nextOptimistic(ctx context.Context) (int64, error) {
	const op = "allocator.Allocator.nextOptimistic"

	var next int64

	err := occ.Retry(ctx, a.policy, func() error {
		c, err := a.store.LoadCounter(ctx)
		if errors.Is(err, ErrCounterNotFound) {
			next = a.seed + 1
			_, err = a.store.CreateCounter(ctx, next)
			return err
		}
		if err != nil {
			return err
		}

		next = c.Value + 1
		_, err = a.store.ReplaceCounter(ctx, next, c.ETag)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return next, nil
}

func (a *Allocator) nextLastWriteWins(ctx context.Context) (int64, error) {
	const op = "allocator.Allocator.nextLastWriteWins"

	value := a.seed

	c, err := a.store.LoadCounter(ctx)
	switch {
	case err == nil:
		value = c.Value
	case errors.Is(err, ErrCounterNotFound):
	default:
		return 0, fmt.Errorf("%s: failed to load counter: %w", op, err)
	}

	value++

	if _, err := a.store.UpsertCounter(ctx, value); err != nil {
		return 0, fmt.Errorf("%s: failed to save counter: %w", op, err)
	}

	return value, nil
}
