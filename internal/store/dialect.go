package store

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns the dialect name, e.g. "sqlite".
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// ColumnType maps a semantic field type to the database DDL type.
	// The second return value is false for unrecognized field types.
	ColumnType(fieldType string) (string, bool)

	// TableExistsQuery returns the catalog query probing for a table by name.
	// The query takes the table name as its single bound parameter and
	// yields the name when the table exists, no rows otherwise.
	TableExistsQuery() string

	// LastInsertIDQuery returns the query for the most recently
	// auto-assigned row id on this connection.
	LastInsertIDQuery() string
}

// ParamBuilder accumulates query parameters and generates dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any

	// Count returns the number of parameters added so far.
	Count() int
}
