// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - ARM64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: ARM64 Spin-Wait Hint
//
// Description:
//   Declaration for cpuRelax on arm64. The body lives in relax_arm64.s and
//   emits a single YIELD.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build arm64 && !noasm

package handshake

// cpuRelax executes the ARM64 YIELD instruction.
//
//go:noescape
//go:nosplit
func cpuRelax()
