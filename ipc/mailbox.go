package ipc

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Mailbox is a single-slot message box inside shared memory, written by one
// process and read by another. Both sides poll the state word.
//
//	| state uint32 | length uint32 | payload ... |
//
// state is 0 while empty and 1 while a message waits. The writer fills
// length and payload before publishing state=1; the reader copies them out
// before releasing state=0.
type Mailbox struct {
	state   *uint32
	length  *uint32
	payload []byte
}

const (
	mailboxEmpty = 0
	mailboxFull  = 1
	mailboxHead  = 8

	spinBudget = 1 << 10
)

// Mailboxes splits a region into two equal mailboxes, up then down. The
// region must be 8-byte aligned and larger than two headers.
func Mailboxes(region []byte) (up, down Mailbox) {
	half := len(region) / 2 &^ 7
	if half <= mailboxHead || uintptr(unsafe.Pointer(&region[0]))&7 != 0 {
		panic("ipc: region too small or misaligned for mailboxes")
	}
	return mailboxAt(region[:half]), mailboxAt(region[half : 2*half])
}

func mailboxAt(b []byte) Mailbox {
	return Mailbox{
		state:   (*uint32)(unsafe.Pointer(&b[0])),
		length:  (*uint32)(unsafe.Pointer(&b[4])),
		payload: b[mailboxHead:],
	}
}

// Capacity is the largest message the mailbox holds.
func (m Mailbox) Capacity() int { return len(m.payload) }

// Put waits for the box to empty, then stores msg.
func (m Mailbox) Put(msg []byte) error {
	if len(msg) > len(m.payload) {
		return fmt.Errorf("%w: message of %d bytes exceeds mailbox of %d", ErrTransport, len(msg), len(m.payload))
	}
	wait(m.state, mailboxEmpty)
	copy(m.payload, msg)
	atomic.StoreUint32(m.length, uint32(len(msg)))
	atomic.StoreUint32(m.state, mailboxFull)
	return nil
}

// Take waits for a message and copies it into dst, returning its length.
func (m Mailbox) Take(dst []byte) (int, error) {
	wait(m.state, mailboxFull)
	n := int(atomic.LoadUint32(m.length))
	if n > len(m.payload) || n > len(dst) {
		atomic.StoreUint32(m.state, mailboxEmpty)
		return 0, fmt.Errorf("%w: corrupt mailbox length %d", ErrTransport, n)
	}
	copy(dst, m.payload[:n])
	atomic.StoreUint32(m.state, mailboxEmpty)
	return n, nil
}

// wait spins until *p == want, yielding after the spin budget so a peer on
// the same core can run.
func wait(p *uint32, want uint32) {
	for miss := 0; atomic.LoadUint32(p) != want; miss++ {
		if miss >= spinBudget {
			runtime.Gosched()
		}
	}
}
