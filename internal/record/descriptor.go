package record

import "fmt"

// Kind is the semantic type of a mapped field.
type Kind string

const (
	KindString Kind = "string"
	KindDate   Kind = "date"
)

// Field describes one mapped column: its name and semantic type.
type Field struct {
	Name string
	Type Kind
}

// Normalizer adjusts a record's field values after population. Hooks are
// registered on the Descriptor and run once per construction; a failing
// hook is logged and skipped, never surfaced to the caller.
type Normalizer func(r *Record) error

// Descriptor declares an entity type: its base name, its ordered field
// list, and its normalization hooks. Declared once per type, never
// mutated. The relative order of Normalizers is preserved but callers
// must not rely on it.
type Descriptor struct {
	Name        string
	Fields      []Field
	Normalizers []Normalizer
}

// Validate checks that the descriptor can be mapped to a table.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: descriptor has no name", ErrNoFields)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: entity type %s declares no fields", ErrNoFields, d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: entity type %s declares an unnamed field", ErrNoFields, d.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: entity type %s declares field %s twice", ErrNoFields, d.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// HasField returns true if the descriptor declares a field with the given name.
func (d *Descriptor) HasField(name string) bool {
	return d.fieldIndex(name) >= 0
}

// FieldNames returns all field names in declared order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// fieldIndex returns the declared position of the field, or -1.
func (d *Descriptor) fieldIndex(name string) int {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return i
		}
	}
	return -1
}
