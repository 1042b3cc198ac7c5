// control.go — Process-wide stop flag for long experiment matrices
// ============================================================================
// SYSTEM CONTROL ORCHESTRATION
// ============================================================================
//
// A matrix can run for minutes. The signal handler raises the stop flag; the
// matrix driver polls it between runs and never inside one, so a run that has
// started always completes and reports.
//
// Threading model:
//   • Signal goroutine calls Shutdown()
//   • Driver polls Stopping() between runs
//   • ShutdownWG tracks sink writes (results store, JSON export) in flight;
//     a second signal waits on it before exiting so no write is cut short

package control

import (
	"sync"
	"sync/atomic"
)

var (
	stop uint32 // 1 = finish the current run, then stop

	// ShutdownWG counts subsystems that must flush before exit.
	ShutdownWG sync.WaitGroup
)

// Shutdown asks the driver to stop after the run in flight.
//
//go:nosplit
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopping reports whether Shutdown has been called.
//
//go:nosplit
func Stopping() bool {
	return atomic.LoadUint32(&stop) != 0
}

// Reset clears the stop flag. Only tests and the start of a fresh matrix use it.
func Reset() {
	atomic.StoreUint32(&stop, 0)
}

// Flush runs fn as a tracked sink write.
func Flush(fn func() error) error {
	ShutdownWG.Add(1)
	defer ShutdownWG.Done()
	return fn()
}
