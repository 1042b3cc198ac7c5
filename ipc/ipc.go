// ════════════════════════════════════════════════════════════════════════════════════════════════
// Inter-Process Ping-Pong Channels
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Named Message Queues, Shared-Memory Mailboxes & Round-Trip Driver
//
// Description:
//   Two processes bounce a small message back and forth to measure the cost
//   of a round trip through the kernel (POSIX message queues, blocking) and
//   through a mapped page (shared memory, spin-polled). Both transports sit
//   behind Endpoint so the ping-pong driver does not care which one is used.
//
// Names:
//   mq:  constants.UpQueue (client → server), constants.DownQueue (server → client)
//   shm: constants.RegionName, two mailboxes in one page
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"memlab/constants"
)

var (
	// ErrSetup marks a queue or region that could not be opened or mapped.
	ErrSetup = errors.New("ipc: setup failed")
	// ErrTransport marks a send or receive that failed after setup, or a
	// reply that did not match.
	ErrTransport = errors.New("ipc: transport failed")
)

// Wire messages of the ping-pong protocol.
var (
	Ping = []byte("ping")
	Pong = []byte("pong")
	Quit = []byte("quit")
)

// Endpoint is one side of a bidirectional channel.
type Endpoint interface {
	Send(msg []byte) error
	// Receive blocks until a message arrives. The returned slice is valid
	// until the next Receive.
	Receive() ([]byte, error)
	Close() error
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// TRANSPORT SELECTION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Kind selects the transport.
type Kind uint8

const (
	MessageQueue Kind = iota
	SharedMemory
)

func (k Kind) String() string {
	switch k {
	case MessageQueue:
		return "mq"
	case SharedMemory:
		return "shm"
	}
	return "kind?"
}

// ParseKind resolves "mq" or "shm".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "mq":
		return MessageQueue, nil
	case "shm":
		return SharedMemory, nil
	}
	return 0, fmt.Errorf("ipc: unknown transport %q", name)
}

// Role decides which direction an endpoint sends in.
type Role uint8

const (
	Client Role = iota
	Server
)

// Names bundles the kernel object names a channel uses.
type Names struct {
	Up, Down string // queue names
	Region   string // shared-memory object name
}

// DefaultNames are the names used by the pingpong binary.
var DefaultNames = Names{
	Up:     constants.UpQueue,
	Down:   constants.DownQueue,
	Region: constants.RegionName,
}

// Dial opens the role's side of a kind channel over names.
func Dial(kind Kind, role Role, names Names) (Endpoint, error) {
	switch kind {
	case MessageQueue:
		return dialQueues(role, names)
	case SharedMemory:
		return dialRegion(role, names)
	}
	return nil, fmt.Errorf("%w: transport %v", ErrSetup, kind)
}

func dialQueues(role Role, names Names) (Endpoint, error) {
	up, err := OpenQueue(names.Up)
	if err != nil {
		return nil, err
	}
	down, err := OpenQueue(names.Down)
	if err != nil {
		up.Close()
		return nil, err
	}
	if role == Client {
		return &queuePair{tx: up, rx: down}, nil
	}
	return &queuePair{tx: down, rx: up}, nil
}

func dialRegion(role Role, names Names) (Endpoint, error) {
	r, err := OpenRegion(names.Region, constants.RegionSize)
	if err != nil {
		return nil, err
	}
	up, down := Mailboxes(r.Bytes())
	if role == Client {
		return &mailboxPair{region: r, tx: up, rx: down}, nil
	}
	return &mailboxPair{region: r, tx: down, rx: up}, nil
}

// Cleanup unlinks every name the pingpong binary may have created, plus the
// legacy single queue. Missing names are not an error.
func Cleanup(names Names) error {
	var errs []error
	for _, q := range []string{constants.LegacyQueue, names.Up, names.Down} {
		if err := UnlinkQueue(q); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := UnlinkRegion(names.Region); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PING-PONG DRIVER
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// PingPong sends n pings over e and checks every reply is a pong. It stops at
// the first failure; a wrong reply is reported with its index.
func PingPong(e Endpoint, n int) error {
	for i := 0; i < n; i++ {
		if err := e.Send(Ping); err != nil {
			return err
		}
		reply, err := e.Receive()
		if err != nil {
			return err
		}
		if !bytes.Equal(reply, Pong) {
			return fmt.Errorf("%w: reply %d is %q", ErrTransport, i, reply)
		}
	}
	return nil
}

// Serve answers every ping on e with a pong until it receives Quit. Other
// messages are ignored.
func Serve(e Endpoint) error {
	for {
		msg, err := e.Receive()
		if err != nil {
			return err
		}
		switch {
		case bytes.Equal(msg, Ping):
			if err := e.Send(Pong); err != nil {
				return err
			}
		case bytes.Equal(msg, Quit):
			return nil
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ENDPOINTS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type queuePair struct {
	tx, rx *Queue
}

func (p *queuePair) Send(msg []byte) error    { return p.tx.Send(msg) }
func (p *queuePair) Receive() ([]byte, error) { return p.rx.Receive() }

func (p *queuePair) Close() error {
	return errors.Join(p.tx.Close(), p.rx.Close())
}

type mailboxPair struct {
	region *Region
	tx, rx Mailbox
	buf    [constants.RegionSize / 2]byte
}

func (p *mailboxPair) Send(msg []byte) error { return p.tx.Put(msg) }

func (p *mailboxPair) Receive() ([]byte, error) {
	n, err := p.rx.Take(p.buf[:])
	return p.buf[:n], err
}

func (p *mailboxPair) Close() error { return p.region.Close() }
