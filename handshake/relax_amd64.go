// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Relaxation - AMD64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: x86-64 Spin-Wait Hint
//
// Description:
//   Declaration for cpuRelax on amd64. The body lives in relax_amd64.s and
//   emits a single PAUSE so handshake spin loops stay in userspace while
//   leaving pipeline resources to the sibling hyperthread.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

//go:build amd64 && !noasm

package handshake

// cpuRelax executes the x86-64 PAUSE instruction.
//
//go:noescape
//go:nosplit
func cpuRelax()
