package record

import (
	"context"
	"fmt"
)

// Collection is a thin query helper over all rows of one entity type.
type Collection struct {
	mapper *Mapper
}

// NewCollection creates a collection helper for the mapper's entity type.
func NewCollection(m *Mapper) *Collection {
	return &Collection{mapper: m}
}

// GetMostRecent returns the entity with the highest surrogate id, loaded
// through the normal load path (normalization included), or nil when the
// table is empty.
func (c *Collection) GetMostRecent(ctx context.Context) (*Record, error) {
	m := c.mapper
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC LIMIT 1",
		m.idField, m.tableName, m.idField)

	latest, err := m.conn.FetchScalar(ctx, query)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	id, ok := latest.(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected %s value %v (%T)", m.idField, latest, latest)
	}
	return m.Load(ctx, id)
}
