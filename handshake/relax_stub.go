// relax_stub.go — Fallback no-op for cpuRelax on targets without a hint
//
// Keeps spin loops compiling on RISC-V, s390x, WASM and noasm builds. The
// loop still spins at full speed; only the hint is lost.

//go:build (!amd64 && !arm64) || noasm

package handshake

//go:nosplit
func cpuRelax() {}
