//go:build !linux

// setaffinity_stub.go
//
// No-op CPU affinity for platforms without sched_setaffinity(2). Threads are
// still locked to their goroutine; only the core binding is lost.

package handshake

func setAffinity(cpu int) {}
