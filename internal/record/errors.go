package record

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")
var ErrNoFields = errors.New("invalid entity descriptor")
var ErrInvalidState = errors.New("invalid record state")

// SchemaError reports a semantic field type the dialect cannot translate
// to a column type.
type SchemaError struct {
	Entity string
	Field  string
	Type   Kind
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("entity %s: field %s has invalid type %q", e.Entity, e.Field, e.Type)
}
