//go:build linux

package ipc

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// shmDir is where glibc's shm_open places named objects.
const shmDir = "/dev/shm"

// Region is a named shared-memory object mapped read-write.
type Region struct {
	name string
	data []byte
}

func regionPath(name string) (string, error) {
	if !strings.HasPrefix(name, "/") || len(name) < 2 || strings.Contains(name[1:], "/") {
		return "", fmt.Errorf("%w: region name %q must be /name", ErrSetup, name)
	}
	return filepath.Join(shmDir, name[1:]), nil
}

// OpenRegion opens or creates name, sizes it to length bytes and maps it
// shared.
func OpenRegion(name string, length int) (*Region, error) {
	path, err := regionPath(name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC|unix.O_NOFOLLOW, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: shm_open %s: %w", ErrSetup, name, err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(length)); err != nil {
		return nil, fmt.Errorf("%w: ftruncate %s: %w", ErrSetup, name, err)
	}
	data, err := unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %w", ErrSetup, name, err)
	}
	return &Region{name: name, data: data}, nil
}

// Bytes is the mapped memory. Invalid after Close.
func (r *Region) Bytes() []byte { return r.data }

// Close unmaps the region. The object survives until unlinked.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}

// UnlinkRegion removes the object name.
func UnlinkRegion(name string) error {
	path, err := regionPath(name)
	if err != nil {
		return err
	}
	if err := unix.Unlink(path); err != nil {
		return fmt.Errorf("ipc: shm_unlink %s: %w", name, err)
	}
	return nil
}
