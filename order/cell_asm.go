//go:build (amd64 || arm64) && !noasm

// cell_asm.go
//
// Declarations for the non-seq-cst cell accessors. Bodies live in
// cell_amd64.s and cell_arm64.s. Being real calls, every accessor is also a
// compiler barrier: the Go compiler cannot fold, hoist or reorder the access
// across surrounding memory operations, so the only reordering left is the
// hardware's.

package order

// loadRelaxed is a plain 64-bit load.
//
//go:noescape
//go:nosplit
func loadRelaxed(p *uint64) uint64

// loadAcquire is a 64-bit load with acquire ordering.
//
//go:noescape
//go:nosplit
func loadAcquire(p *uint64) uint64

// storeRelaxed is a plain 64-bit store.
//
//go:noescape
//go:nosplit
func storeRelaxed(p *uint64, v uint64)

// storeRelease is a 64-bit store with release ordering.
//
//go:noescape
//go:nosplit
func storeRelease(p *uint64, v uint64)
