package ranker

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

func sizes(entries []types.FileCandidate) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.Size
	}
	return out
}

func TestCollectorInsert(t *testing.T) {
	tests := []struct {
		name   string
		top    int
		inputs []uint64
		want   []uint64
	}{
		{"empty", 3, nil, []uint64{}},
		{"under capacity", 5, []uint64{3, 9, 1}, []uint64{9, 3, 1}},
		{"exact capacity", 3, []uint64{2, 8, 5}, []uint64{8, 5, 2}},
		{"evicts smallest", 3, []uint64{4, 1, 7, 9, 2}, []uint64{9, 7, 4}},
		{"ascending input", 2, []uint64{1, 2, 3, 4}, []uint64{4, 3}},
		{"descending input", 2, []uint64{4, 3, 2, 1}, []uint64{4, 3}},
		{"duplicates", 3, []uint64{5, 5, 5, 5}, []uint64{5, 5, 5}},
		{"top one", 1, []uint64{6, 10, 2}, []uint64{10}},
		{"top zero", 0, []uint64{6, 10, 2}, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(tt.top)
			for _, s := range tt.inputs {
				c.Insert(types.FileCandidate{Path: "f", Size: s})
			}
			assert.Equal(t, tt.want, sizes(c.Entries()))
		})
	}
}

func TestCollectorInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, top := range []int{1, 4, 10, 64} {
		c := NewCollector(top)
		var all []uint64
		for range 500 {
			s := rng.Uint64N(1000)
			all = append(all, s)
			c.Insert(types.FileCandidate{Size: s})

			got := sizes(c.Entries())
			require.LessOrEqual(t, len(got), top)
			require.True(t, slices.IsSortedFunc(got, func(a, b uint64) int {
				switch {
				case a > b:
					return -1
				case a < b:
					return 1
				}
				return 0
			}), "entries not sorted descending: %v", got)
		}

		slices.Sort(all)
		slices.Reverse(all)
		assert.Equal(t, all[:top], sizes(c.Entries()), "top=%d", top)
	}
}

func TestCollectorTieOrder(t *testing.T) {
	c := NewCollector(3)
	c.Insert(types.FileCandidate{Path: "a", Size: 5})
	c.Insert(types.FileCandidate{Path: "b", Size: 5})
	c.Insert(types.FileCandidate{Path: "c", Size: 9})

	got := c.Entries()
	assert.Equal(t, "c", got[0].Path)
	assert.Equal(t, "a", got[1].Path)
	assert.Equal(t, "b", got[2].Path)
}

func TestCollectorFullAndLowest(t *testing.T) {
	c := NewCollector(2)
	assert.False(t, c.Full())
	assert.Equal(t, types.Unbounded, c.Lowest())

	c.Insert(types.FileCandidate{Size: 7})
	assert.False(t, c.Full())
	assert.Equal(t, uint64(7), c.Lowest())

	c.Insert(types.FileCandidate{Size: 3})
	assert.True(t, c.Full())
	assert.Equal(t, uint64(3), c.Lowest())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Top())
}

func TestCollectorZeroTop(t *testing.T) {
	c := NewCollector(0)
	assert.True(t, c.Full())
	assert.Equal(t, types.Unbounded, c.Lowest())

	neg := NewCollector(-5)
	assert.Equal(t, 0, neg.Top())
	neg.Insert(types.FileCandidate{Size: 1})
	assert.Zero(t, neg.Len())
}

func TestCollectorReserveIsCapped(t *testing.T) {
	c := NewCollector(1 << 30)
	assert.Equal(t, maxReserve, cap(c.entries))

	small := NewCollector(4)
	assert.Equal(t, 5, cap(small.entries))
}

func TestCollectorEntriesIsCopy(t *testing.T) {
	c := NewCollector(2)
	c.Insert(types.FileCandidate{Path: "x", Size: 1})

	got := c.Entries()
	got[0].Path = "mutated"

	assert.Equal(t, "x", c.Entries()[0].Path)
}
