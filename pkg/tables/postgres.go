package tables

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolationErrCode = "23505"

const returningColumns = `partition_key, row_key, properties, etag, updated_at`

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type entityRow struct {
	PartitionKey string    `db:"partition_key"`
	RowKey       string    `db:"row_key"`
	Properties   []byte    `db:"properties"`
	ETag         int64     `db:"etag"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *entityRow) toEntity() *Entity {
	return &Entity{
		PartitionKey: r.PartitionKey,
		RowKey:       r.RowKey,
		Properties:   r.Properties,
		ETag:         strconv.FormatInt(r.ETag, 10),
		Timestamp:    r.UpdatedAt,
	}
}

// PostgresClient implements Client on PostgreSQL. Each logical table is a
// relation keyed by (partition_key, row_key) with a JSONB properties column
// and a bigint etag bumped on every write.
type PostgresClient struct {
	db *sqlx.DB
}

// NewPostgresClient creates a client on top of an open connection pool.
func NewPostgresClient(db *sqlx.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

func checkTable(table string) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}

func (c *PostgresClient) Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error) {
	const op = "tables.PostgresClient.Get"

	if err := checkTable(table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE partition_key = $1 AND row_key = $2`, returningColumns, table)

	var row entityRow

	if err := c.db.GetContext(ctx, &row, query, partitionKey, rowKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrEntityNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from %s table: %w", op, table, err)
	}

	return row.toEntity(), nil
}

func (c *PostgresClient) Insert(ctx context.Context, table string, e Entity) (*Entity, error) {
	const op = "tables.PostgresClient.Insert"

	if err := checkTable(table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s(partition_key, row_key, properties)
		VALUES ($1, $2, $3)
		RETURNING %s`, table, returningColumns)

	var row entityRow

	if err := c.db.GetContext(ctx, &row, query, e.PartitionKey, e.RowKey, string(e.Properties)); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrEntityExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into %s table: %w", op, table, err)
	}

	return row.toEntity(), nil
}

func (c *PostgresClient) Upsert(ctx context.Context, table string, e Entity) (*Entity, error) {
	const op = "tables.PostgresClient.Upsert"

	if err := checkTable(table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s AS t (partition_key, row_key, properties)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition_key, row_key) DO UPDATE
		SET properties = EXCLUDED.properties, etag = t.etag + 1, updated_at = NOW()
		RETURNING %s`, table, returningColumns)

	var row entityRow

	if err := c.db.GetContext(ctx, &row, query, e.PartitionKey, e.RowKey, string(e.Properties)); err != nil {
		return nil, fmt.Errorf("%s: failed to upsert into %s table: %w", op, table, err)
	}

	return row.toEntity(), nil
}

func (c *PostgresClient) Replace(ctx context.Context, table string, e Entity, ifMatch string) (*Entity, error) {
	const op = "tables.PostgresClient.Replace"

	if err := checkTable(table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	etag, err := strconv.ParseInt(ifMatch, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed etag %q: %w", op, ifMatch, ErrPreconditionFailed)
	}

	query := fmt.Sprintf(`UPDATE %s
		SET properties = $1, etag = etag + 1, updated_at = NOW()
		WHERE partition_key = $2 AND row_key = $3 AND etag = $4
		RETURNING %s`, table, returningColumns)

	var row entityRow

	if err := c.db.GetContext(ctx, &row, query, string(e.Properties), e.PartitionKey, e.RowKey, etag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPreconditionFailed)
		}

		return nil, fmt.Errorf("%s: failed to update %s table row: %w", op, table, err)
	}

	return row.toEntity(), nil
}

func (c *PostgresClient) Query(ctx context.Context, table string, f Filter) ([]Entity, error) {
	const op = "tables.PostgresClient.Query"

	if err := checkTable(table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		conds []string
		args  []any
	)

	if f.PartitionKey != "" {
		args = append(args, f.PartitionKey)
		conds = append(conds, fmt.Sprintf("partition_key = $%d", len(args)))
	}
	if f.Exclude != nil {
		args = append(args, f.Exclude.PartitionKey, f.Exclude.RowKey)
		conds = append(conds, fmt.Sprintf("NOT (partition_key = $%d AND row_key = $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, returningColumns, table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY partition_key, row_key"

	var rows []entityRow

	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to query %s table: %w", op, table, err)
	}

	entities := make([]Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, *row.toEntity())
	}

	return entities, nil
}
