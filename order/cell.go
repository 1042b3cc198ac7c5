package order

import (
	"sync/atomic"
	"unsafe"
)

// Cell is a view of one 64-bit word inside a context arena. The word is
// owned by the arena; Cell only decides how it is accessed.
type Cell struct {
	p *uint64
}

// CellAt wraps the word at ptr. ptr must be 8-byte aligned.
func CellAt(ptr unsafe.Pointer) Cell {
	if uintptr(ptr)&7 != 0 {
		panic("order: misaligned cell")
	}
	return Cell{p: (*uint64)(ptr)}
}

// Load reads the cell at level l.
//
//go:nosplit
func (c Cell) Load(l Level) uint64 {
	switch l {
	case Relaxed:
		return loadRelaxed(c.p)
	case AcquireRelease:
		return loadAcquire(c.p)
	default:
		return atomic.LoadUint64(c.p)
	}
}

// Store writes v to the cell at level l.
//
//go:nosplit
func (c Cell) Store(l Level, v uint64) {
	switch l {
	case Relaxed:
		storeRelaxed(c.p, v)
	case AcquireRelease:
		storeRelease(c.p, v)
	default:
		atomic.StoreUint64(c.p, v)
	}
}

// Reset puts the cell back to its zero baseline with a seq-cst store so the
// baseline is visible to every worker before the next round is armed.
func (c Cell) Reset() { atomic.StoreUint64(c.p, 0) }

// Value reads the cell seq-cst. Drivers use it to inspect results after
// every worker has reported done.
func (c Cell) Value() uint64 { return atomic.LoadUint64(c.p) }

// Addr exposes the cell address for layout diagnostics.
func (c Cell) Addr() uintptr { return uintptr(unsafe.Pointer(c.p)) }
