package engine

import (
	"fmt"

	"github.com/samber/lo"
)

// ============================================================================
// FILTERS — Row Selection
// ============================================================================
// Single pass per filter. Each returns a new table (rows copied via Take) and
// never mutates its input.
// ============================================================================

// FilterEntities keeps rows whose entity column exactly matches one of the
// allowed names. An empty allow-list keeps nothing.
func FilterEntities(t *Table, entityKey string, allowed []string) (*Table, error) {
	col, ok := t.Column(entityKey)
	if !ok {
		return nil, fmt.Errorf("filter entities: %w: %q", ErrMissingColumn, entityKey)
	}

	set := lo.SliceToMap(allowed, func(name string) (string, struct{}) {
		return name, struct{}{}
	})

	indices := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if _, ok := set[col.String(i)]; ok {
			indices = append(indices, i)
		}
	}
	return t.Take(indices), nil
}

// DropMissing removes rows where the given column is null.
func DropMissing(t *Table, key string) (*Table, error) {
	col, ok := t.Column(key)
	if !ok {
		return nil, fmt.Errorf("drop missing: %w: %q", ErrMissingColumn, key)
	}

	indices := lo.Filter(lo.Range(t.Len()), func(i int, _ int) bool {
		return !col.IsNull(i)
	})
	return t.Take(indices), nil
}
