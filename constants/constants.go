// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Experiment tunables & IPC names
//
// Purpose:
//   - Round counts for the ordering and contention experiments.
//   - Padding multipliers used by the layout controller.
//   - Names and buffer sizes for the round-trip benchmarks.
//
// Notes:
//   - Round counts are large on purpose: anomaly buckets are rare events and
//     timing deltas only stabilise after millions of hand-offs.
//   - Tests never use these counts directly; they pass small values.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Round counts ───────────────────────────────

const (
	// OrderingRounds is the number of synchronized rounds per (shape, policy)
	// run of the ordering experiments.
	OrderingRounds = 10_000_000

	// ContentionSteps is the number of values each producer hands to its
	// consumer in the false-sharing experiment.
	ContentionSteps = 10_000_000

	// PingPongMessages is the number of round trips the client performs.
	PingPongMessages = 1_000_000
)

// ───────────────────────────── Layout ─────────────────────────────────────

const (
	// IsolationLines is the number of cache lines inserted between cells in
	// the Isolated layout. Two lines keep the adjacent-line prefetcher from
	// pairing neighbouring cells.
	IsolationLines = 2

	// WordSize is the byte width of one atomic cell.
	WordSize = 8

	// MaxCells bounds the number of cells a single context holds.
	MaxCells = 4
)

// ───────────────────────────── Workers ────────────────────────────────────

const (
	// MaxWorkers bounds the handshake fan-out of one synchronizer.
	MaxWorkers = 4

	// ContentionPairs is the number of producer/consumer pairs sharing one
	// arena in the false-sharing experiment.
	ContentionPairs = 4
)

// ───────────────────────────── Round-trip IPC ─────────────────────────────

const (
	// LegacyQueue is removed by cleanup mode alongside the live queues.
	LegacyQueue = "/practice"

	// UpQueue carries client → server pings.
	UpQueue = "/practice_up"

	// DownQueue carries server → client pongs.
	DownQueue = "/practice_down"

	// RegionName names the shared-memory ping-pong region.
	RegionName = "/practice_shm"

	// MessageBufferSize bounds one message; it matches the kernel default
	// mq_msgsize so receive never fails with EMSGSIZE.
	MessageBufferSize = 8 << 10

	// RegionSize is the mapped length of the shared-memory region.
	RegionSize = 4 << 10
)
