//go:build (!amd64 && !arm64) || noasm

// cell_fallback.go
//
// Portable accessors for targets without assembly bodies. Seq-cst is a
// conservative superset of every weaker level, so experiments still run but
// cannot expose anomalies that need a weaker access.

package order

import "sync/atomic"

func loadRelaxed(p *uint64) uint64 { return atomic.LoadUint64(p) }

func loadAcquire(p *uint64) uint64 { return atomic.LoadUint64(p) }

func storeRelaxed(p *uint64, v uint64) { atomic.StoreUint64(p, v) }

func storeRelease(p *uint64, v uint64) { atomic.StoreUint64(p, v) }
