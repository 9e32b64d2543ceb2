package ranker

import (
	"slices"
	"sort"

	"github.com/jamesainslie/fileutil/pkg/fileutil/types"
)

// maxReserve caps the up-front allocation so a huge top does not allocate
// memory for entries a scan may never find.
const maxReserve = 1 << 16

// Collector keeps the largest candidates seen so far, sorted by size
// descending. It holds at most top entries after every Insert.
//
// Collector is not safe for concurrent use.
type Collector struct {
	top     int
	entries []types.FileCandidate
}

// NewCollector creates a Collector that keeps at most top entries.
// A non-positive top keeps nothing.
func NewCollector(top int) *Collector {
	if top < 0 {
		top = 0
	}
	// One extra slot absorbs the transient overflow before eviction.
	reserve := min(top+1, maxReserve)
	return &Collector{
		top:     top,
		entries: make([]types.FileCandidate, 0, reserve),
	}
}

// Insert adds c at its ranked position and evicts the smallest entry when
// the collector overflows. Among equal sizes, a newer candidate is placed
// after the existing ones.
func (c *Collector) Insert(cand types.FileCandidate) {
	if c.top == 0 {
		return
	}

	// Binary search for the first entry strictly smaller than cand.
	i := sort.Search(len(c.entries), func(j int) bool {
		return c.entries[j].Size < cand.Size
	})
	c.entries = slices.Insert(c.entries, i, cand)

	if len(c.entries) > c.top {
		c.entries = c.entries[:c.top]
	}
}

// Full reports whether the collector holds top entries.
func (c *Collector) Full() bool {
	return len(c.entries) >= c.top
}

// Lowest returns the size of the lowest-ranked entry. An empty collector
// reports types.Unbounded, so a full empty collector (top 0) admits nothing.
func (c *Collector) Lowest() uint64 {
	if len(c.entries) == 0 {
		return types.Unbounded
	}
	return c.entries[len(c.entries)-1].Size
}

// Len returns the number of ranked entries.
func (c *Collector) Len() int {
	return len(c.entries)
}

// Top returns the capacity of the collector.
func (c *Collector) Top() int {
	return c.top
}

// Entries returns a copy of the ranked entries, largest first.
func (c *Collector) Entries() []types.FileCandidate {
	return slices.Clone(c.entries)
}
