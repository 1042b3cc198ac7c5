//go:build !linux

// yield_stub.go
//
// Platforms without a sched_yield binding fall back to the Go scheduler
// yield alone.

package handshake

func osYield() {}
