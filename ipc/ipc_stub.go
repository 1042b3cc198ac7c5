//go:build !linux

package ipc

import (
	"errors"
	"fmt"
)

var errUnsupported = errors.New("POSIX message queues and /dev/shm need linux")

// Queue is unavailable on this platform.
type Queue struct{}

func OpenQueue(name string) (*Queue, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrSetup, name, errUnsupported)
}

func (q *Queue) Send([]byte) error        { return fmt.Errorf("%w: %w", ErrTransport, errUnsupported) }
func (q *Queue) Receive() ([]byte, error) { return nil, fmt.Errorf("%w: %w", ErrTransport, errUnsupported) }
func (q *Queue) Close() error             { return nil }

func UnlinkQueue(name string) error { return errUnsupported }

// Region is unavailable on this platform.
type Region struct{}

func OpenRegion(name string, length int) (*Region, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrSetup, name, errUnsupported)
}

func (r *Region) Bytes() []byte { return nil }
func (r *Region) Close() error  { return nil }

func UnlinkRegion(name string) error { return errUnsupported }
