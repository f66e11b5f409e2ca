package store

import "fmt"

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) ColumnType(fieldType string) (string, bool) {
	switch fieldType {
	case "string":
		return "text", true
	case "date":
		return "date", true
	default:
		return "", false
	}
}

func (d *SQLiteDialect) TableExistsQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table' AND name=?1"
}

func (d *SQLiteDialect) LastInsertIDQuery() string {
	return "SELECT last_insert_rowid()"
}

type sqliteParamBuilder struct {
	params []any
	n      int
}

func (p *sqliteParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("?%d", p.n)
}

func (p *sqliteParamBuilder) Params() []any { return p.params }
func (p *sqliteParamBuilder) Count() int    { return p.n }

// Compile-time check
var _ Dialect = (*SQLiteDialect)(nil)
