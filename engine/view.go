package engine

import (
	"time"

	"github.com/samber/lo"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Row Access
// ============================================================================
// Figures are built per entity. Grouping produces SubViews (index lists into
// the parent table) so the cleaned table is never copied per curve.
//
// Implementations:
//   *Table   — the observation table itself
//   SubView  — a subset of rows (indices into parent, zero-copy)
// ============================================================================

// RecordView provides indexed access to observation rows.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) (float64, bool)
	Date(index int) (time.Time, bool)
}

var _ RecordView = (*Table)(nil)

// SubView is a subset of a parent RecordView.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) (float64, bool) {
	if i < 0 || i >= len(v.indices) {
		return 0, false
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) Date(i int) (time.Time, bool) {
	if i < 0 || i >= len(v.indices) {
		return time.Time{}, false
	}
	return v.parent.Date(v.indices[i])
}

// ============================================================================
// GROUPING
// ============================================================================

// Group is the set of rows sharing one dimension value.
type Group struct {
	Key  string
	View RecordView
}

// GroupBy partitions view by a dimension, returning groups in the order the
// keys are given. Keys with no rows still yield an empty group; rows whose
// value is not among keys are left out. Repeated keys are grouped once.
func GroupBy(view RecordView, dimension string, keys []string) []Group {
	keys = lo.Uniq(keys)
	grouped := make(map[string][]int, len(keys))
	for _, k := range keys {
		grouped[k] = nil
	}
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if _, wanted := grouped[val]; wanted {
			grouped[val] = append(grouped[val], i)
		}
	}

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k, View: newSubView(view, grouped[k])})
	}
	return groups
}
