package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite" // Register sqlite as database/sql driver
)

// Conn owns a single lazily opened handle to one SQLite database file.
// Nothing touches the file until the first statement runs. A Conn is not
// shared or pooled; each instance holds exactly one handle.
type Conn struct {
	path    string
	dialect Dialect
	logger  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewConn creates a connection wrapper for the given database file.
// Use ":memory:" for an in-memory database. A nil logger falls back to
// slog.Default().
func NewConn(path string, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{path: path, dialect: &SQLiteDialect{}, logger: logger}
}

// Dialect returns the SQL dialect backing this connection.
func (c *Conn) Dialect() Dialect { return c.dialect }

// Placeholder returns the dialect's positional parameter marker for the
// given 1-based index.
func (c *Conn) Placeholder(index int) string { return c.dialect.Placeholder(index) }

// ParamBuilder returns a fresh dialect-aware parameter builder.
func (c *Conn) ParamBuilder() ParamBuilder { return c.dialect.NewParamBuilder() }

// database returns the handle, opening it on first use.
func (c *Conn) database(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	db, err := sql.Open(c.dialect.DriverName(), c.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite: single writer, WAL mode for concurrent reads
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	c.logger.Debug("opened database", "path", c.path)
	c.db = db
	return db, nil
}

// Execute runs one parameterized statement. Backend errors propagate
// unmodified; there is no retry.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := c.database(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("executing query", "query", query, "params", args)
	return db.ExecContext(ctx, query, args...)
}

// ExecuteMany runs the statement once per parameter tuple inside a single
// transaction, committed at the end.
func (c *Conn) ExecuteMany(ctx context.Context, query string, batch [][]any) error {
	db, err := c.database(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("executing batch", "query", query, "count", len(batch))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, args := range batch {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	return tx.Commit()
}

// FetchOneRecord returns the first row of the query as an ordered value
// slice, or nil when the query yields no rows.
func (c *Conn) FetchOneRecord(ctx context.Context, query string, args ...any) ([]any, error) {
	db, err := c.database(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("executing query", "query", query, "params", args)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	for i, v := range values {
		values[i] = normalizeValue(v)
	}
	return values, rows.Err()
}

// FetchScalar returns the first column of the first row, or nil when the
// query yields no rows.
func (c *Conn) FetchScalar(ctx context.Context, query string, args ...any) (any, error) {
	row, err := c.FetchOneRecord(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return row[0], nil
}

// Close releases the handle. Idempotent; safe before the first open.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// normalizeValue converts driver-level types to plain Go values.
// database/sql may return []byte for TEXT columns.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
