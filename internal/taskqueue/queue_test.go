package taskqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFiltersDisabledAndSortsByIndex(t *testing.T) {
	named := map[string]Parameters{
		"Fight":  {Enable: true, Index: 1},
		"Mall":   {Enable: true, Index: 2},
		"Award":  {Enable: false, Index: 0},
		"Recruit": {Enable: true, Index: 1},
	}
	order := []string{"Fight", "Mall", "Award", "Recruit"}

	q := Build(named, order)
	entries := q.Entries()

	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, e.Parameters.Enable)
	}
	// Fight and Recruit share Index 1; insertion order (Fight before
	// Recruit in `order`) breaks the tie.
	assert.Equal(t, []string{"Fight", "Recruit", "Mall"}, names(entries))
}

func TestBuildNonDecreasingByIndex(t *testing.T) {
	named := map[string]Parameters{
		"A": {Enable: true, Index: 3},
		"B": {Enable: true, Index: 1},
		"C": {Enable: true, Index: 2},
	}
	q := Build(named, []string{"A", "B", "C"})
	entries := q.Entries()
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Parameters.Index, entries[i].Parameters.Index)
	}
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
