// queue_linux.go — POSIX message queues through raw mq_* syscalls
//
// The kernel interface takes the queue name without its leading slash (libc
// strips it before the syscall). Queues are created with an explicit
// attribute block so the message size matches the receive buffer.

//go:build linux

package ipc

import (
	"fmt"
	"strings"
	"unsafe"

	"memlab/constants"

	"golang.org/x/sys/unix"
)

// mq_attr; every field is a C long.
type mqAttr struct {
	Flags   int
	Maxmsg  int
	Msgsize int
	Curmsgs int
	_       [4]int
}

const queueDepth = 10

// Queue is an open POSIX message queue descriptor.
type Queue struct {
	name string
	fd   int
	buf  []byte
}

func kernelName(name string) (*byte, error) {
	if !strings.HasPrefix(name, "/") || len(name) < 2 || strings.Contains(name[1:], "/") {
		return nil, fmt.Errorf("%w: queue name %q must be /name", ErrSetup, name)
	}
	return unix.BytePtrFromString(name[1:])
}

// OpenQueue opens name read-write, creating it if it does not exist.
func OpenQueue(name string) (*Queue, error) {
	p, err := kernelName(name)
	if err != nil {
		return nil, err
	}
	attr := mqAttr{Maxmsg: queueDepth, Msgsize: constants.MessageBufferSize}
	fd, _, errno := unix.Syscall6(unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(p)),
		uintptr(unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC),
		0o600,
		uintptr(unsafe.Pointer(&attr)),
		0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("%w: mq_open %s: %w", ErrSetup, name, errno)
	}

	// An existing queue keeps its own attributes.
	var cur mqAttr
	if _, _, errno := unix.Syscall(unix.SYS_MQ_GETSETATTR, fd, 0, uintptr(unsafe.Pointer(&cur))); errno != 0 {
		unix.Close(int(fd))
		return nil, fmt.Errorf("%w: mq_getattr %s: %w", ErrSetup, name, errno)
	}
	if cur.Msgsize > constants.MessageBufferSize {
		unix.Close(int(fd))
		return nil, fmt.Errorf("%w: %s message size %d exceeds %d", ErrSetup, name, cur.Msgsize, constants.MessageBufferSize)
	}
	return &Queue{name: name, fd: int(fd), buf: make([]byte, constants.MessageBufferSize)}, nil
}

// Send enqueues msg, blocking while the queue is full.
func (q *Queue) Send(msg []byte) error {
	var p unsafe.Pointer
	if len(msg) > 0 {
		p = unsafe.Pointer(&msg[0])
	}
	for {
		_, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDSEND, uintptr(q.fd), uintptr(p), uintptr(len(msg)), 0, 0, 0)
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		}
		return fmt.Errorf("%w: mq_send %s: %w", ErrTransport, q.name, errno)
	}
}

// Receive dequeues the oldest message, blocking while the queue is empty.
func (q *Queue) Receive() ([]byte, error) {
	for {
		n, _, errno := unix.Syscall6(unix.SYS_MQ_TIMEDRECEIVE, uintptr(q.fd),
			uintptr(unsafe.Pointer(&q.buf[0])), uintptr(len(q.buf)), 0, 0, 0)
		switch errno {
		case 0:
			return q.buf[:n], nil
		case unix.EINTR:
			continue
		}
		return nil, fmt.Errorf("%w: mq_receive %s: %w", ErrTransport, q.name, errno)
	}
}

// Close releases the descriptor. The queue itself survives until unlinked.
func (q *Queue) Close() error {
	if q.fd < 0 {
		return nil
	}
	err := unix.Close(q.fd)
	q.fd = -1
	return err
}

// UnlinkQueue removes the queue name. Open descriptors stay usable.
func UnlinkQueue(name string) error {
	p, err := kernelName(name)
	if err != nil {
		return err
	}
	if _, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(p)), 0, 0); errno != 0 {
		return fmt.Errorf("ipc: mq_unlink %s: %w", name, errno)
	}
	return nil
}
