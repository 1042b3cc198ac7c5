// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ LOCK-STEP HANDSHAKE SYNCHRONIZER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Driver ↔ Worker Round Rendezvous
//
// Description:
//   Drives one driver and up to four workers through synchronized rounds using
//   only atomic flags and busy-waiting. No channel, mutex or condition variable
//   appears between Start and Join, so OS scheduling latency stays out of the
//   measured window.
//
// Round contract:
//     Driver                         Worker i
//     ------                         ----------------------------------
//     Arm(i): done[i]=0, go[i]=1 ─▶  Await(i): spin, swap go[i] 1→0
//                                    unit()
//     WaitAllDone(): spin ◀───────── Finish(i): done[i]=1
//
// Shutdown:
//   RequestStop() sets abort. Await checks abort before every poll of go and
//   again after consuming go, so abort always wins. Join then blocks until
//   every worker has returned; it is the only blocking call in the protocol.
//
// Limitation:
//   There is no timeout anywhere. A worker stuck inside its unit of work never
//   reaches the abort check, and Join never returns. A hung worker hangs the
//   experiment.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package handshake

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"memlab/constants"

	"golang.org/x/sync/errgroup"
)

// spinBudget is the number of hot polls before a spin loop starts issuing
// the CPU relax hint. Past that, every yieldMask+1 misses the loop yields
// its P to other goroutines and its OS thread to other threads, so a peer
// sharing the core gets to run.
const (
	spinBudget = 256
	yieldMask  = 1<<10 - 1
)

// backoff counts one failed poll and relaxes once the budget is spent.
func backoff(miss *int) {
	*miss++
	if *miss < spinBudget {
		return
	}
	cpuRelax()
	if *miss&yieldMask == 0 {
		runtime.Gosched()
		osYield()
	}
}

// ErrProtocolViolation marks a defect in the harness itself: a go signal
// consumed after abort, or a worker that completed a different number of
// rounds than the driver armed.
var ErrProtocolViolation = errors.New("handshake: protocol violation")

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SYNC FLAGS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Flags is the per-context handshake state. It holds no pointers so it can
// live inside a raw context arena.
type Flags struct {
	goFlag [constants.MaxWorkers]uint32 // driver → worker
	done   [constants.MaxWorkers]uint32 // worker → driver
	abort  uint32                       // driver → every worker, terminal
}

// FlagsSize is the number of header bytes a context must reserve for Flags.
const FlagsSize = int(unsafe.Sizeof(Flags{}))

// FlagsAt views the memory at p as a Flags block. p must be 4-byte aligned
// and hold FlagsSize zeroed bytes.
func FlagsAt(p unsafe.Pointer) *Flags {
	if uintptr(p)&3 != 0 {
		panic("handshake: misaligned flags")
	}
	return (*Flags)(p)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SYNCHRONIZER
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Sync runs the round protocol over one Flags block.
//
// Driver-side methods (Arm, ArmAll, WaitAllDone, RequestStop, Join) must be
// called from a single goroutine. Await and Finish belong to the worker that
// owns the id.
type Sync struct {
	flags   *Flags
	workers int
	group   errgroup.Group
	armed   [constants.MaxWorkers]uint64 // driver-owned
	rounds  [constants.MaxWorkers]uint64 // written once by each worker on exit
	started [constants.MaxWorkers]bool   // driver-owned
}

// New prepares a synchronizer for workers workers over flags. It panics if
// workers is outside 1..constants.MaxWorkers.
func New(flags *Flags, workers int) *Sync {
	if workers < 1 || workers > constants.MaxWorkers {
		panic("handshake: workers must be in 1..MaxWorkers")
	}
	return &Sync{flags: flags, workers: workers}
}

// Start launches worker id on its own locked OS thread, pinned to core when
// core >= 0. The worker runs unit once per armed round until abort.
func (s *Sync) Start(id, core int, unit func()) {
	if id < 0 || id >= s.workers {
		panic("handshake: worker id out of range")
	}
	if s.started[id] {
		panic("handshake: worker id started twice")
	}
	s.started[id] = true
	s.group.Go(Pinned(core, func() error {
		var n uint64
		defer func() { s.rounds[id] = n }()
		for {
			ok, err := s.Await(id)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			unit()
			n++
			s.Finish(id)
		}
	}))
}

// Arm releases worker id into its next round. The done flag of the previous
// round is cleared first, so WaitAllDone cannot see a stale completion.
//
//go:nosplit
func (s *Sync) Arm(id int) {
	atomic.StoreUint32(&s.flags.done[id], 0)
	atomic.StoreUint32(&s.flags.goFlag[id], 1)
	s.armed[id]++
}

// ArmAll arms every worker, lowest id first.
func (s *Sync) ArmAll() {
	for i := 0; i < s.workers; i++ {
		s.Arm(i)
	}
}

// WaitAllDone spins until every worker has finished the current round.
func (s *Sync) WaitAllDone() {
	miss := 0
	for i := 0; i < s.workers; {
		if atomic.LoadUint32(&s.flags.done[i]) != 0 {
			i++
			continue
		}
		backoff(&miss)
	}
}

// RequestStop raises the abort flag. Workers leave their wait loop at the
// next poll; a worker inside a unit finishes that unit first.
func (s *Sync) RequestStop() {
	atomic.StoreUint32(&s.flags.abort, 1)
}

// Join blocks until every started worker has returned, then checks that
// each completed exactly the rounds it was armed for.
func (s *Sync) Join() error {
	if err := s.group.Wait(); err != nil {
		return err
	}
	for i := 0; i < s.workers; i++ {
		if s.rounds[i] != s.armed[i] {
			return fmt.Errorf("%w: worker %d completed %d of %d rounds",
				ErrProtocolViolation, i, s.rounds[i], s.armed[i])
		}
	}
	return nil
}

// Await spins until worker id is armed or abort is raised. It returns true
// when the worker owns a fresh round, false on abort. Consuming go while
// abort is set is reported as ErrProtocolViolation: the driver never arms
// after stopping.
func (s *Sync) Await(id int) (bool, error) {
	f := s.flags
	miss := 0
	for {
		if atomic.LoadUint32(&f.abort) != 0 {
			return false, nil
		}
		if atomic.LoadUint32(&f.goFlag[id]) != 0 {
			if ok, err := s.take(id); ok || err != nil {
				return ok, err
			}
		}
		backoff(&miss)
	}
}

// take consumes go for worker id, then re-checks abort. It reports false
// with no error when go was already consumed.
func (s *Sync) take(id int) (bool, error) {
	f := s.flags
	if atomic.SwapUint32(&f.goFlag[id], 0) == 0 {
		return false, nil
	}
	if atomic.LoadUint32(&f.abort) != 0 {
		return false, fmt.Errorf("%w: worker %d consumed go after abort", ErrProtocolViolation, id)
	}
	return true, nil
}

// Finish reports the current round of worker id as complete.
//
//go:nosplit
func (s *Sync) Finish(id int) {
	atomic.StoreUint32(&s.flags.done[id], 1)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// THREAD PLACEMENT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Pinned wraps fn so it runs on a locked OS thread bound to core. A negative
// core locks the thread without binding it. The result plugs straight into
// errgroup.Group.Go.
func Pinned(core int, fn func() error) func() error {
	return func() error {
		runtime.LockOSThread()
		if core < 0 {
			defer runtime.UnlockOSThread()
		} else {
			// Left locked: the thread exits with the goroutine instead of
			// going back to the scheduler with a narrowed affinity mask.
			setAffinity(core)
		}
		return fn()
	}
}

// CoreFor picks the core for worker slot i, skipping core 0 which is left to
// the driver. It returns -1 when pinning is disabled.
func CoreFor(i int, pin bool) int {
	if !pin {
		return -1
	}
	n := runtime.NumCPU()
	if n < 2 {
		return 0
	}
	return 1 + i%(n-1)
}
