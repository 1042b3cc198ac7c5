// ============================================================================
// CONTEXT ARENA LAYOUT CONTROLLER
// ============================================================================
//
// Places a fixed header and a small number of fixed-size records inside one
// contiguous, cache-line-aligned byte block. The layout decides whether the
// records sit back to back or are separated by opaque padding.
//
// Layout variants:
//   - Packed:   header and records adjacent; neighbours share cache lines
//   - Isolated: constants.IsolationLines cache lines of padding before every
//     record, so no two records (nor header and record) share a line
//
// Memory model:
//   - One allocation per arena; addresses are stable for the arena lifetime
//   - Padding bytes are never read or written by this package or its users
//   - Record offsets are multiples of 8 so records can hold 64-bit atomics
//
// Ownership:
//   - An arena belongs to exactly one experiment run and is never reused

package layout

import (
	"errors"
	"strings"
	"unsafe"

	"memlab/constants"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the cache line size of the build target.
const CacheLineSize = int(unsafe.Sizeof(cpu.CacheLinePad{}))

// Layout selects how records are spaced inside an arena.
type Layout uint8

const (
	Packed Layout = iota
	Isolated
)

// layoutTable is the behaviour table for the closed layout set.
var layoutTable = [...]struct {
	name string
	gap  int
}{
	Packed:   {"packed", 0},
	Isolated: {"isolated", constants.IsolationLines * CacheLineSize},
}

// ErrUnknownLayout is returned by Parse for names outside the layout set.
var ErrUnknownLayout = errors.New("layout: unknown layout")

// All returns both layouts, Packed first.
func All() []Layout { return []Layout{Packed, Isolated} }

// Gap is the padding inserted before each record.
func (l Layout) Gap() int { return layoutTable[l].gap }

func (l Layout) String() string {
	if int(l) < len(layoutTable) {
		return layoutTable[l].name
	}
	return "layout?"
}

// Parse resolves a layout by name, case-insensitively.
func Parse(name string) (Layout, error) {
	for i := range layoutTable {
		if strings.EqualFold(layoutTable[i].name, name) {
			return Layout(i), nil
		}
	}
	return 0, ErrUnknownLayout
}

// ============================================================================
// ARENA
// ============================================================================

// Arena is one contiguous block holding a header followed by records.
//
// Block layout (Isolated):
//
//	| header | gap | record 0 | gap | record 1 | ... | gap | record n-1 |
//
// Packed is the same with every gap removed.
type Arena struct {
	buf     []byte // line-aligned view of the allocation
	layout  Layout
	header  int
	record  int
	offsets []int
}

// align8 rounds n up to a multiple of 8.
func align8(n int) int { return (n + 7) &^ 7 }

// New builds an arena for records records of recordSize bytes after a header
// of headerSize bytes. It panics on sizes that cannot hold a 64-bit word
// layout; those are programmer errors, not runtime conditions.
func New(l Layout, headerSize, records, recordSize int) *Arena {
	if int(l) >= len(layoutTable) {
		panic("layout: unknown layout")
	}
	if headerSize < 0 || records <= 0 || recordSize <= 0 {
		panic("layout: header must be >=0, records and recordSize >0")
	}

	a := &Arena{
		layout:  l,
		header:  align8(headerSize),
		record:  align8(recordSize),
		offsets: make([]int, records),
	}

	off := a.header
	for i := range a.offsets {
		off += l.Gap()
		a.offsets[i] = off
		off += a.record
	}

	// Over-allocate by one line, then slice from the first line boundary so
	// that placement relative to cache lines is deterministic.
	raw := make([]byte, off+CacheLineSize)
	base := uintptr(unsafe.Pointer(&raw[0]))
	shift := 0
	if mod := int(base % uintptr(CacheLineSize)); mod != 0 {
		shift = CacheLineSize - mod
	}
	a.buf = raw[shift : shift+off : shift+off]
	return a
}

// Layout reports the layout the arena was built with.
func (a *Arena) Layout() Layout { return a.layout }

// Records is the number of records in the arena.
func (a *Arena) Records() int { return len(a.offsets) }

// Size is the byte length of the block, padding included.
func (a *Arena) Size() int { return len(a.buf) }

// Base is the address of the first header byte.
func (a *Arena) Base() uintptr { return uintptr(unsafe.Pointer(&a.buf[0])) }

// Header returns a pointer to the start of the header region.
func (a *Arena) Header() unsafe.Pointer { return unsafe.Pointer(&a.buf[0]) }

// Record returns a pointer to the start of record i.
func (a *Arena) Record(i int) unsafe.Pointer {
	return unsafe.Pointer(&a.buf[a.offsets[i]])
}

// Word returns a pointer to the w-th 64-bit word of record i.
func (a *Arena) Word(i, w int) unsafe.Pointer {
	if w < 0 || (w+1)*constants.WordSize > a.record {
		panic("layout: word outside record")
	}
	return unsafe.Pointer(&a.buf[a.offsets[i]+w*constants.WordSize])
}

// Offset is the byte distance of record i from the block base.
func (a *Arena) Offset(i int) int { return a.offsets[i] }

// SameLine reports whether records i and j start on the same cache line.
func (a *Arena) SameLine(i, j int) bool {
	return a.offsets[i]/CacheLineSize == a.offsets[j]/CacheLineSize
}

// Padding returns the padding regions as [start, end) byte offsets. Empty
// for Packed arenas.
func (a *Arena) Padding() [][2]int {
	gap := a.layout.Gap()
	if gap == 0 {
		return nil
	}
	spans := make([][2]int, 0, len(a.offsets))
	for _, off := range a.offsets {
		spans = append(spans, [2]int{off - gap, off})
	}
	return spans
}
