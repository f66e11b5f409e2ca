package record

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"recordbase/internal/store"
)

// Mapper binds one entity descriptor to its table. It derives the table
// name, creates the table on first use, and constructs Record instances
// in either "new" or "loaded" state.
type Mapper struct {
	conn    *store.Conn
	desc    *Descriptor
	idField string
	logger  *slog.Logger

	tableName string
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithIDField overrides the surrogate id column name (default "id").
func WithIDField(name string) Option {
	return func(m *Mapper) { m.idField = name }
}

// WithLogger overrides the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) { m.logger = logger }
}

// NewMapper validates the descriptor, derives the table name, and ensures
// the table exists.
func NewMapper(ctx context.Context, conn *store.Conn, desc *Descriptor, opts ...Option) (*Mapper, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	m := &Mapper{conn: conn, desc: desc, idField: "id", logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.tableName = deriveTableName(desc.Name)

	if err := m.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// TableName returns the table mapped by this entity type.
func (m *Mapper) TableName() string { return m.tableName }

// Descriptor returns the entity descriptor backing this mapper.
func (m *Mapper) Descriptor() *Descriptor { return m.desc }

// deriveTableName lower-cases the entity name, pluralizes it unless it
// already ends in "s", and applies the namespace prefix.
func deriveTableName(name string) string {
	n := strings.ToLower(name)
	if !strings.HasSuffix(n, "s") {
		n += "s"
	}
	return "tbl_" + n
}

// EnsureTable creates the entity's table if the catalog doesn't list it
// yet. Idempotent. The probe-then-create sequence is not atomic, so a
// concurrent first use from another process can race; SQLite's own file
// locking is the only protection.
func (m *Mapper) EnsureTable(ctx context.Context) error {
	dialect := m.conn.Dialect()

	name, err := m.conn.FetchScalar(ctx, dialect.TableExistsQuery(), m.tableName)
	if err != nil {
		return fmt.Errorf("check table %s: %w", m.tableName, err)
	}
	if name != nil {
		m.logger.Debug("table already exists", "table", m.tableName)
		return nil
	}

	columns := []string{fmt.Sprintf("%s integer primary key", m.idField)}
	for _, f := range m.desc.Fields {
		columnType, ok := dialect.ColumnType(string(f.Type))
		if !ok {
			return &SchemaError{Entity: m.desc.Name, Field: f.Name, Type: f.Type}
		}
		columns = append(columns, fmt.Sprintf("%s %s", f.Name, columnType))
	}

	m.logger.Info("creating table", "table", m.tableName)
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", m.tableName, strings.Join(columns, ", "))
	if _, err := m.conn.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", m.tableName, err)
	}
	return nil
}
