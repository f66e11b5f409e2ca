package record

import (
	"context"
	"fmt"
	"strings"
)

// Record is one entity instance mapped to a table row: an optional
// surrogate id plus one value per declared field, in declared order.
// The id, once assigned, never changes for the instance's life.
type Record struct {
	mapper  *Mapper
	values  []any
	id      int64
	hasID   bool
	deleted bool
}

// New constructs an entity in "new" state. Every declared field is set
// from the supplied values (nil when absent); the id is left unassigned
// until Save. Keys that don't match a declared field are rejected.
func (m *Mapper) New(values map[string]any) (*Record, error) {
	for name := range values {
		if !m.desc.HasField(name) {
			return nil, fmt.Errorf("unknown field %s for entity %s", name, m.desc.Name)
		}
	}

	r := &Record{mapper: m, values: make([]any, len(m.desc.Fields))}
	for i, f := range m.desc.Fields {
		r.values[i] = values[f.Name]
	}

	m.normalize(r)
	return r, nil
}

// Load constructs an entity in "loaded" state from the row with the
// given surrogate id. A missing row fails with ErrNotFound.
func (m *Mapper) Load(ctx context.Context, id int64) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(m.desc.FieldNames(), ", "),
		m.tableName,
		m.idField,
		m.conn.Placeholder(1))

	row, err := m.conn.FetchOneRecord(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: no %s with %s = %d", ErrNotFound, m.desc.Name, m.idField, id)
	}

	r := &Record{mapper: m, values: row, id: id, hasID: true}
	m.normalize(r)
	return r, nil
}

// ID returns the surrogate id and whether it has been assigned yet.
func (r *Record) ID() (int64, bool) { return r.id, r.hasID }

// TableName returns the table this record maps to.
func (r *Record) TableName() string { return r.mapper.tableName }

// Get returns the value of the named field. The second return value is
// false when the field isn't declared.
func (r *Record) Get(name string) (any, bool) {
	i := r.mapper.desc.fieldIndex(name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// Set assigns the named field. Returns false when the field isn't declared.
func (r *Record) Set(name string, value any) bool {
	i := r.mapper.desc.fieldIndex(name)
	if i < 0 {
		return false
	}
	r.values[i] = value
	return true
}

// Save writes the record to its table: an UPDATE of every field column
// when the id is assigned, otherwise an INSERT followed by reading back
// the auto-assigned id. All columns are always rewritten from current
// in-memory values; there is no dirty tracking.
func (r *Record) Save(ctx context.Context) error {
	if r.deleted {
		return fmt.Errorf("%w: record was deleted", ErrInvalidState)
	}
	if r.hasID {
		return r.update(ctx)
	}
	return r.insert(ctx)
}

func (r *Record) insert(ctx context.Context) error {
	m := r.mapper
	m.logger.Info("storing record", "entity", m.desc.Name)

	pb := m.conn.ParamBuilder()
	placeholders := make([]string, len(r.values))
	for i, v := range r.values {
		placeholders[i] = pb.Add(v)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.tableName,
		strings.Join(m.desc.FieldNames(), ", "),
		strings.Join(placeholders, ", "))
	if _, err := m.conn.Execute(ctx, query, pb.Params()...); err != nil {
		return err
	}

	id, err := m.conn.FetchScalar(ctx, m.conn.Dialect().LastInsertIDQuery())
	if err != nil {
		return fmt.Errorf("fetch inserted %s: %w", m.idField, err)
	}
	n, ok := id.(int64)
	if !ok {
		return fmt.Errorf("unexpected %s value %v (%T)", m.idField, id, id)
	}
	r.id, r.hasID = n, true
	return nil
}

func (r *Record) update(ctx context.Context) error {
	m := r.mapper
	m.logger.Info("updating record", "entity", m.desc.Name, m.idField, r.id)

	pb := m.conn.ParamBuilder()
	assignments := make([]string, len(m.desc.Fields))
	for i, f := range m.desc.Fields {
		assignments[i] = fmt.Sprintf("%s = %s", f.Name, pb.Add(r.values[i]))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		m.tableName,
		strings.Join(assignments, ", "),
		m.idField,
		pb.Add(r.id))
	_, err := m.conn.Execute(ctx, query, pb.Params()...)
	return err
}

// Delete removes the record's row. Requires an assigned id. The in-memory
// instance remains but refuses further Save calls.
func (r *Record) Delete(ctx context.Context) error {
	m := r.mapper
	if !r.hasID {
		return fmt.Errorf("%w: record has no %s", ErrInvalidState, m.idField)
	}
	if r.deleted {
		return fmt.Errorf("%w: record already deleted", ErrInvalidState)
	}

	m.logger.Info("deleting record", "entity", m.desc.Name, m.idField, r.id)
	pb := m.conn.ParamBuilder()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", m.tableName, m.idField, pb.Add(r.id))
	if _, err := m.conn.Execute(ctx, query, pb.Params()...); err != nil {
		return err
	}
	r.deleted = true
	return nil
}

// Equal reports whether every declared field value matches. The surrogate
// id is not part of equality. Field values are scalars, so direct
// comparison is safe.
func (r *Record) Equal(other *Record) bool {
	if other == nil || len(r.values) != len(other.values) {
		return false
	}
	for i := range r.values {
		if r.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// String renders ordered "field: value" pairs joined with ", ".
func (r *Record) String() string {
	parts := make([]string, len(r.values))
	for i, f := range r.mapper.desc.Fields {
		parts[i] = fmt.Sprintf("%s: %v", f.Name, r.values[i])
	}
	return strings.Join(parts, ", ")
}
