package entity

// Consistency selects how fetch-modify-write sequences behave when several
// writers touch the same row.
type Consistency string

const (
	// ConsistencyOptimistic writes conditionally on the ETag that was read
	// and retries the whole sequence on conflict.
	ConsistencyOptimistic Consistency = "optimistic"
	// ConsistencyLastWriteWins writes unconditionally; concurrent updates
	// may be lost.
	ConsistencyLastWriteWins Consistency = "last_write_wins"
)

// Valid reports whether c is a known mode.
func (c Consistency) Valid() bool {
	return c == ConsistencyOptimistic || c == ConsistencyLastWriteWins
}
