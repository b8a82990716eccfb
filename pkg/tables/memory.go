package tables

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryClient implements Client with in-memory storage.
// It is safe for concurrent use.
type MemoryClient struct {
	mu      sync.RWMutex
	tables  map[string]map[Key]Entity
	version int64
	now     func() time.Time
}

// NewMemoryClient creates an empty in-memory table store.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		tables: make(map[string]map[Key]Entity),
		now:    time.Now,
	}
}

func (c *MemoryClient) Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.tables[table][Key{PartitionKey: partitionKey, RowKey: rowKey}]
	if !ok {
		return nil, ErrEntityNotFound
	}

	return cloneEntity(e), nil
}

func (c *MemoryClient) Insert(ctx context.Context, table string, e Entity) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[table][e.Key()]; ok {
		return nil, ErrEntityExists
	}

	return c.store(table, e), nil
}

func (c *MemoryClient) Upsert(ctx context.Context, table string, e Entity) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store(table, e), nil
}

func (c *MemoryClient) Replace(ctx context.Context, table string, e Entity, ifMatch string) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.tables[table][e.Key()]
	if !ok || stored.ETag != ifMatch {
		return nil, ErrPreconditionFailed
	}

	return c.store(table, e), nil
}

func (c *MemoryClient) Query(ctx context.Context, table string, f Filter) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entities := make([]Entity, 0)
	for _, e := range c.tables[table] {
		if f.match(e) {
			entities = append(entities, *cloneEntity(e))
		}
	}

	slices.SortFunc(entities, func(a, b Entity) int {
		if n := strings.Compare(a.PartitionKey, b.PartitionKey); n != 0 {
			return n
		}
		return strings.Compare(a.RowKey, b.RowKey)
	})

	return entities, nil
}

// store must be called with the write lock held.
func (c *MemoryClient) store(table string, e Entity) *Entity {
	rows, ok := c.tables[table]
	if !ok {
		rows = make(map[Key]Entity)
		c.tables[table] = rows
	}

	c.version++
	e.ETag = "W/" + strconv.FormatInt(c.version, 10)
	e.Timestamp = c.now().UTC()
	e.Properties = slices.Clone(e.Properties)
	rows[e.Key()] = e

	return cloneEntity(e)
}

func cloneEntity(e Entity) *Entity {
	e.Properties = slices.Clone(e.Properties)
	return &e
}
