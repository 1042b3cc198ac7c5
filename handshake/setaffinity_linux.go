//go:build linux

// setaffinity_linux.go
//
// Linux binding for sched_setaffinity(2) that pins the calling OS thread to
// one logical CPU. Callers must hold runtime.LockOSThread first, otherwise
// the goroutine may migrate away from the pinned thread.
//
// Errors are swallowed: inside containers or restricted cgroups the call can
// fail with EPERM/EINVAL and the experiment simply runs unpinned.

package handshake

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to cpu (0-based). Negative or
// out-of-range indices are ignored.
func setAffinity(cpu int) {
	if cpu < 0 || cpu >= 1024 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set) // pid 0 → current thread
}
