package record

import "fmt"

// normalize runs the descriptor's hooks exactly once, right after the
// record's fields are populated. A failing hook is logged and skipped so
// bad per-field adjustment logic can't block construction; the remaining
// hooks still run.
func (m *Mapper) normalize(r *Record) {
	if len(m.desc.Normalizers) == 0 {
		return
	}
	m.logger.Debug("normalizing fields", "entity", m.desc.Name)
	for i, hook := range m.desc.Normalizers {
		if err := runNormalizer(hook, r); err != nil {
			m.logger.Error("normalizer failed", "entity", m.desc.Name, "index", i, "error", err)
		}
	}
}

// runNormalizer invokes one hook, converting a panic into an error.
func runNormalizer(hook Normalizer, r *Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return hook(r)
}
