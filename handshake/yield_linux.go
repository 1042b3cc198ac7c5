//go:build linux

// yield_linux.go
//
// sched_yield(2) for spin loops that have outlived their budget. Gives the
// core to another runnable thread without blocking this one; when nothing
// else is runnable it returns at once.

package handshake

import "golang.org/x/sys/unix"

func osYield() {
	unix.Syscall(unix.SYS_SCHED_YIELD, 0, 0, 0)
}
