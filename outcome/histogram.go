// ============================================================================
// OUTCOME HISTOGRAM
// ============================================================================
//
// Ordered mapping from an observed result pair to its occurrence count.
// Updated once per round by the driver only; read once for reporting.
// The key space is tiny (bounded by the experiment value domain), so a map
// plus a sort at read time beats any fixed-slot scheme in clarity.

package outcome

import (
	"fmt"
	"sort"
	"strings"
)

// Pair is one observed result tuple, in thread order.
type Pair struct {
	A, B uint64
}

func (p Pair) String() string { return fmt.Sprintf("(%d, %d)", p.A, p.B) }

// less orders pairs lexicographically.
func (p Pair) less(q Pair) bool {
	if p.A != q.A {
		return p.A < q.A
	}
	return p.B < q.B
}

// Histogram counts outcome pairs. The zero value is not usable; call
// NewHistogram.
type Histogram struct {
	counts map[Pair]uint64
	total  uint64
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{counts: make(map[Pair]uint64, 8)}
}

// Add records one occurrence of p.
func (h *Histogram) Add(p Pair) {
	h.counts[p]++
	h.total++
}

// AddN records n occurrences of p. Used when loading persisted buckets.
func (h *Histogram) AddN(p Pair, n uint64) {
	h.counts[p] += n
	h.total += n
}

// Count is the number of occurrences of p.
func (h *Histogram) Count(p Pair) uint64 { return h.counts[p] }

// Total is the sum of every bucket.
func (h *Histogram) Total() uint64 { return h.total }

// Len is the number of distinct outcomes observed.
func (h *Histogram) Len() int { return len(h.counts) }

// Keys returns the observed outcomes in ascending order.
func (h *Histogram) Keys() []Pair {
	keys := make([]Pair, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Each visits every bucket in key order.
func (h *Histogram) Each(fn func(Pair, uint64)) {
	for _, k := range h.Keys() {
		fn(k, h.counts[k])
	}
}

// Clone returns an independent copy.
func (h *Histogram) Clone() *Histogram {
	c := &Histogram{counts: make(map[Pair]uint64, len(h.counts)), total: h.total}
	for k, v := range h.counts {
		c.counts[k] = v
	}
	return c
}

// String renders one "a b: count" line per bucket.
func (h *Histogram) String() string {
	var sb strings.Builder
	h.Each(func(p Pair, n uint64) {
		fmt.Fprintf(&sb, "%d %d: %d\n", p.A, p.B, n)
	})
	return sb.String()
}
