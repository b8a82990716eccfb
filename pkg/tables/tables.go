// Package tables provides a partitioned key-value table store. Entities are
// addressed by a partition key and a row key, carry a JSON object of
// properties and an ETag that changes on every write. Writes can be made
// conditional on the ETag read earlier, which gives callers per-row
// optimistic concurrency.
package tables

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEntityNotFound is returned when no entity has the requested keys.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrEntityExists is returned by Insert when the keys are taken.
	ErrEntityExists = errors.New("entity already exists")
	// ErrPreconditionFailed is returned by Replace when the stored ETag
	// differs from the one presented.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrInvalidTable is returned for table names that are not plain identifiers.
	ErrInvalidTable = errors.New("invalid table name")
)

// Key addresses a single entity.
type Key struct {
	PartitionKey string
	RowKey       string
}

// Entity is a row of a table.
type Entity struct {
	PartitionKey string
	RowKey       string
	Properties   []byte    // Properties is a JSON object.
	ETag         string    // ETag is assigned by the store on every write.
	Timestamp    time.Time // Timestamp is the time of the last write.
}

// Key returns the entity's address.
func (e Entity) Key() Key {
	return Key{PartitionKey: e.PartitionKey, RowKey: e.RowKey}
}

// Filter restricts a Query. The zero value matches every entity.
type Filter struct {
	PartitionKey string // PartitionKey limits the scan to one partition when set.
	Exclude      *Key   // Exclude skips a single reserved entity.
}

func (f Filter) match(e Entity) bool {
	if f.PartitionKey != "" && e.PartitionKey != f.PartitionKey {
		return false
	}
	if f.Exclude != nil && e.Key() == *f.Exclude {
		return false
	}
	return true
}

// Client is implemented by table store backends. Every call is a single
// attempt; failures are returned to the caller.
type Client interface {
	// Get returns the entity or ErrEntityNotFound.
	Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error)

	// Insert creates the entity or fails with ErrEntityExists.
	Insert(ctx context.Context, table string, e Entity) (*Entity, error)

	// Upsert creates the entity or replaces the stored one regardless of its ETag.
	Upsert(ctx context.Context, table string, e Entity) (*Entity, error)

	// Replace overwrites the stored entity only when its ETag equals ifMatch.
	// It returns ErrPreconditionFailed otherwise, including when the entity
	// no longer exists.
	Replace(ctx context.Context, table string, e Entity, ifMatch string) (*Entity, error)

	// Query returns the matching entities ordered by partition and row key.
	Query(ctx context.Context, table string, f Filter) ([]Entity, error)
}
