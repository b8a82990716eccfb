// Package occ runs optimistic-concurrency write sequences: read a row, build
// the new value, write it conditioned on the version that was read, and
// start over when another writer got there first.
package occ

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
)

// ErrConflict is returned by a sequence whose conditional write lost.
var ErrConflict = errors.New("write conflict")

// Policy bounds the retries of a conflicting sequence.
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is used when no policy is configured.
var DefaultPolicy = Policy{
	MaxRetries:      5,
	InitialInterval: 10 * time.Millisecond,
	MaxInterval:     200 * time.Millisecond,
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// Retry runs fn until it succeeds, fails with an error other than
// ErrConflict, the policy is exhausted or ctx is done. Only conflicts are
// retried. Exhaustion is reported as entity.ErrVersionConflict.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	op := func() error {
		err := fn()
		if err == nil || errors.Is(err, ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, p.backOff(ctx))
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w after %d retries: %w", entity.ErrVersionConflict, p.MaxRetries, err)
	}

	return err
}
