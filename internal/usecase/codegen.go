package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/scheduled-shortener/pkg/base62"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrInvalidID = errors.New("identifier must be positive")

// CodeGenerator produces candidate short codes. A candidate may already be
// taken; the caller retries.
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// NextIDFunc returns the next value of an identifier sequence.
type NextIDFunc func(ctx context.Context) (int64, error)

// CounterCodes encodes sequence identifiers in base62.
type CounterCodes struct {
	next NextIDFunc
}

func NewCounterCodes(next NextIDFunc) *CounterCodes {
	return &CounterCodes{next: next}
}

func (g *CounterCodes) Generate(ctx context.Context) (string, error) {
	const op = "usecase.CounterCodes.Generate"

	id, err := g.next(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: failed to allocate identifier: %w", op, err)
	}
	if id <= 0 {
		return "", fmt.Errorf("%s: %w: %d", op, ErrInvalidID, id)
	}

	return base62.Encode(uint64(id)), nil
}

// RandomCodes draws nanoid codes of a fixed length.
type RandomCodes struct {
	length int
}

func NewRandomCodes(length int) *RandomCodes {
	return &RandomCodes{length: length}
}

func (g *RandomCodes) Generate(context.Context) (string, error) {
	const op = "usecase.RandomCodes.Generate"

	code, err := gonanoid.New(g.length)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return code, nil
}
