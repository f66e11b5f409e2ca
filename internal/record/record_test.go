package record

import (
	"context"
	"errors"
	"strings"
	"testing"

	"recordbase/internal/store"
)

func noteDescriptor() *Descriptor {
	return &Descriptor{
		Name: "Note",
		Fields: []Field{
			{Name: "title", Type: KindString},
			{Name: "created", Type: KindDate},
		},
	}
}

func testMapper(t *testing.T, desc *Descriptor, opts ...Option) *Mapper {
	t.Helper()
	conn := store.NewConn(":memory:", nil)
	t.Cleanup(func() { conn.Close() })

	m, err := NewMapper(context.Background(), conn, desc, opts...)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	return m
}

func TestNewMapperRejectsEmptyFieldList(t *testing.T) {
	conn := store.NewConn(":memory:", nil)
	t.Cleanup(func() { conn.Close() })

	_, err := NewMapper(context.Background(), conn, &Descriptor{Name: "Note"})
	if !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
}

func TestNewMapperRejectsUnknownFieldType(t *testing.T) {
	conn := store.NewConn(":memory:", nil)
	t.Cleanup(func() { conn.Close() })

	desc := &Descriptor{
		Name:   "Note",
		Fields: []Field{{Name: "payload", Type: Kind("blob")}},
	}
	_, err := NewMapper(context.Background(), conn, desc)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if schemaErr.Field != "payload" || schemaErr.Type != Kind("blob") {
		t.Fatalf("unexpected schema error: %+v", schemaErr)
	}
}

func TestSaveAssignsIDAndLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	m := testMapper(t, noteDescriptor())

	r, err := m.New(map[string]any{"title": "a", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := r.ID(); ok {
		t.Fatal("fresh record should have no id")
	}

	if err := r.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	id, ok := r.ID()
	if !ok {
		t.Fatal("save did not assign an id")
	}
	if id != 1 {
		t.Fatalf("expected first id to be 1, got %d", id)
	}

	loaded, err := m.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if title, _ := loaded.Get("title"); title != "a" {
		t.Fatalf("expected title a, got %v", title)
	}
	if created, _ := loaded.Get("created"); created != "2024-01-01" {
		t.Fatalf("expected created 2024-01-01, got %v", created)
	}
	if !r.Equal(loaded) {
		t.Fatalf("loaded record differs: %v vs %v", r, loaded)
	}
}

func TestLoadMissingRowFailsWithNotFound(t *testing.T) {
	m := testMapper(t, noteDescriptor())

	_, err := m.Load(context.Background(), 2)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveOnSavedRecordUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	m := testMapper(t, noteDescriptor())

	r, err := m.New(map[string]any{"title": "a", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.Save(ctx); err != nil {
		t.Fatalf("first save: %v", err)
	}
	firstID, _ := r.ID()

	r.Set("title", "b")
	if err := r.Save(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}
	secondID, _ := r.ID()
	if firstID != secondID {
		t.Fatalf("id changed on update: %d -> %d", firstID, secondID)
	}

	loaded, err := m.Load(ctx, firstID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if title, _ := loaded.Get("title"); title != "b" {
		t.Fatalf("expected updated title b, got %v", title)
	}

	count, err := countRows(ctx, m)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row after update, got %d", count)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	ctx := context.Background()
	m := testMapper(t, noteDescriptor())

	r, err := m.New(map[string]any{"title": "a", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	id, _ := r.ID()

	if err := r.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Load(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// The in-memory instance survives but refuses further writes.
	if err := r.Save(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on save after delete, got %v", err)
	}
	if err := r.Delete(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double delete, got %v", err)
	}
}

func TestDeleteWithoutIDFails(t *testing.T) {
	m := testMapper(t, noteDescriptor())

	r, err := m.New(map[string]any{"title": "a"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.Delete(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestNewRejectsUnknownField(t *testing.T) {
	m := testMapper(t, noteDescriptor())

	if _, err := m.New(map[string]any{"author": "x"}); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestNewDefaultsAbsentFieldsToNil(t *testing.T) {
	ctx := context.Background()
	m := testMapper(t, noteDescriptor())

	r, err := m.New(map[string]any{"title": "a"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if created, _ := r.Get("created"); created != nil {
		t.Fatalf("expected nil created, got %v", created)
	}

	if err := r.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	id, _ := r.ID()
	loaded, err := m.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created, _ := loaded.Get("created"); created != nil {
		t.Fatalf("expected nil created after reload, got %v", created)
	}
}

func TestEqualIgnoresID(t *testing.T) {
	ctx := context.Background()
	m := testMapper(t, noteDescriptor())

	a, err := m.New(map[string]any{"title": "a", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new a: %v", err)
	}
	b, err := m.New(map[string]any{"title": "a", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new b: %v", err)
	}
	if err := a.Save(ctx); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := b.Save(ctx); err != nil {
		t.Fatalf("save b: %v", err)
	}

	if !a.Equal(b) {
		t.Fatal("records with identical fields and different ids should be equal")
	}

	b.Set("title", "c")
	if a.Equal(b) {
		t.Fatal("records with differing fields should not be equal")
	}
	if a.Equal(nil) {
		t.Fatal("record should not equal nil")
	}
}

func TestStringFormat(t *testing.T) {
	m := testMapper(t, noteDescriptor())

	r, err := m.New(map[string]any{"title": "a", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := "title: a, created: 2024-01-01"
	if got := r.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetSetUnknownField(t *testing.T) {
	m := testMapper(t, noteDescriptor())

	r, err := m.New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := r.Get("author"); ok {
		t.Fatal("Get should reject undeclared field")
	}
	if r.Set("author", "x") {
		t.Fatal("Set should reject undeclared field")
	}
}

func TestNormalizersRunOncePerConstruction(t *testing.T) {
	ctx := context.Background()
	calls := 0
	desc := noteDescriptor()
	desc.Normalizers = []Normalizer{
		func(r *Record) error {
			calls++
			if v, ok := r.Get("title"); ok {
				if s, ok := v.(string); ok {
					r.Set("title", strings.TrimSpace(s))
				}
			}
			return nil
		},
	}
	m := testMapper(t, desc)

	r, err := m.New(map[string]any{"title": "  a  ", "created": "2024-01-01"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 normalizer call after New, got %d", calls)
	}
	if title, _ := r.Get("title"); title != "a" {
		t.Fatalf("expected trimmed title, got %q", title)
	}

	if err := r.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	id, _ := r.ID()
	if _, err := m.Load(ctx, id); err != nil {
		t.Fatalf("load: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected normalizer to run once per construction, got %d calls", calls)
	}
}

func TestFailingNormalizerIsIsolated(t *testing.T) {
	var ran []string
	desc := noteDescriptor()
	desc.Normalizers = []Normalizer{
		func(r *Record) error {
			ran = append(ran, "failing")
			return errors.New("boom")
		},
		func(r *Record) error {
			ran = append(ran, "panicking")
			panic("worse boom")
		},
		func(r *Record) error {
			ran = append(ran, "ok")
			return nil
		},
	}
	m := testMapper(t, desc)

	if _, err := m.New(map[string]any{"title": "a"}); err != nil {
		t.Fatalf("construction must not fail on normalizer errors: %v", err)
	}
	if len(ran) != 3 {
		t.Fatalf("expected all 3 normalizers to run, got %v", ran)
	}
}

func countRows(ctx context.Context, m *Mapper) (int64, error) {
	v, err := m.conn.FetchScalar(ctx, "SELECT COUNT(*) FROM "+m.tableName)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int64)
	return n, nil
}
