// Package redis allocates short code identifiers from a Redis counter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/vadimbarashkov/scheduled-shortener/internal/allocator"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the key of the counter when none is configured.
const DefaultKey = "shortener:counter"

// Client is the subset of the go-redis client used by Sequence.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
}

// Sequence hands out identifiers with INCR. The counter starts from the same
// seed as the table store allocator so both backends produce codes of the
// same shape.
type Sequence struct {
	client Client
	key    string
	seed   int64
}

func NewSequence(client Client, key string) *Sequence {
	if key == "" {
		key = DefaultKey
	}

	return &Sequence{
		client: client,
		key:    key,
		seed:   allocator.DefaultSeed,
	}
}

// NextID returns the next identifier. INCR is atomic, so concurrent callers
// never receive the same value.
func (s *Sequence) NextID(ctx context.Context) (int64, error) {
	const op = "adapter.repository.redis.Sequence.NextID"

	if err := s.client.SetNX(ctx, s.key, s.seed, 0).Err(); err != nil {
		return 0, fmt.Errorf("%s: failed to seed counter: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	id, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to increment counter: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return id, nil
}
