// ============================================================================
// IPC CHANNEL VALIDATION SUITE
// ============================================================================
//
// Test categories:
//   - Mailbox: single-slot hand-off between goroutines over a plain buffer
//   - Driver: ping-pong and serve over an in-process endpoint
//   - Kernel objects: mq and shm round trips (skipped where unavailable)

package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
	"unsafe"
)

// ============================================================================
// TEST UTILITIES AND HELPERS
// ============================================================================

// alignedBuffer returns n bytes starting on an 8-byte boundary.
func alignedBuffer(n int) []byte {
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
}

// memPair is an in-process endpoint pair over two mailboxes.
func memPair() (client, server Endpoint) {
	up, down := Mailboxes(alignedBuffer(4096))
	return &memEndpoint{tx: up, rx: down}, &memEndpoint{tx: down, rx: up}
}

type memEndpoint struct {
	tx, rx Mailbox
	buf    [2048]byte
}

func (e *memEndpoint) Send(msg []byte) error { return e.tx.Put(msg) }
func (e *memEndpoint) Receive() ([]byte, error) {
	n, err := e.rx.Take(e.buf[:])
	return e.buf[:n], err
}
func (e *memEndpoint) Close() error { return nil }

// testNames gives each test its own kernel object names.
func testNames(t *testing.T) Names {
	base := fmt.Sprintf("/memlab_test_%d_%d", os.Getpid(), time.Now().UnixNano())
	n := Names{Up: base + "_up", Down: base + "_down", Region: base + "_shm"}
	t.Cleanup(func() {
		UnlinkQueue(n.Up)
		UnlinkQueue(n.Down)
		UnlinkRegion(n.Region)
	})
	return n
}

// roundTrip serves on one endpoint and pings on the other.
func roundTrip(t *testing.T, client, server Endpoint, n int) {
	t.Helper()
	served := make(chan error, 1)
	go func() { served <- Serve(server) }()

	if err := PingPong(client, n); err != nil {
		t.Fatalf("PingPong: %v", err)
	}
	if err := client.Send(Quit); err != nil {
		t.Fatalf("send quit: %v", err)
	}
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop on quit")
	}
}

// ============================================================================
// MAILBOX
// ============================================================================

func TestMailboxHandOff(t *testing.T) {
	up, down := Mailboxes(alignedBuffer(4096))
	if up.Capacity() != 2048-mailboxHead || down.Capacity() != up.Capacity() {
		t.Fatalf("capacities %d/%d", up.Capacity(), down.Capacity())
	}

	const n = 5000
	go func() {
		for i := 0; i < n; i++ {
			up.Put([]byte(fmt.Sprint(i)))
		}
	}()
	buf := make([]byte, up.Capacity())
	for i := 0; i < n; i++ {
		m, err := up.Take(buf)
		if err != nil {
			t.Fatal(err)
		}
		if got := string(buf[:m]); got != fmt.Sprint(i) {
			t.Fatalf("message %d = %q", i, got)
		}
	}
}

func TestMailboxRejectsOversize(t *testing.T) {
	up, _ := Mailboxes(alignedBuffer(256))
	err := up.Put(make([]byte, up.Capacity()+1))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Put oversize = %v", err)
	}
	if err := up.Put(make([]byte, up.Capacity())); err != nil {
		t.Fatalf("Put at capacity = %v", err)
	}
}

func TestMailboxesPanicOnTinyRegion(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Mailboxes on 16 bytes did not panic")
		}
	}()
	Mailboxes(alignedBuffer(16))
}

// ============================================================================
// PING-PONG DRIVER
// ============================================================================

func TestPingPongInProcess(t *testing.T) {
	client, server := memPair()
	roundTrip(t, client, server, 10000)
}

func TestPingPongDetectsMismatch(t *testing.T) {
	client, server := memPair()
	go func() {
		server.Receive()
		server.Send([]byte("pang"))
	}()
	err := PingPong(client, 1)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("PingPong = %v, want ErrTransport", err)
	}
}

func TestServeIgnoresUnknown(t *testing.T) {
	client, server := memPair()
	done := make(chan error, 1)
	go func() { done <- Serve(server) }()

	client.Send([]byte("hello"))
	client.Send(Ping)
	reply, err := client.Receive()
	if err != nil || !bytes.Equal(reply, Pong) {
		t.Fatalf("reply = %q, %v", reply, err)
	}
	client.Send(Quit)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{MessageQueue, SharedMemory} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("pipe"); err == nil {
		t.Error("ParseKind(pipe) accepted")
	}
}

// ============================================================================
// KERNEL OBJECTS
// ============================================================================

func TestQueueRoundTrip(t *testing.T) {
	names := testNames(t)
	client, err := Dial(MessageQueue, Client, names)
	if err != nil {
		t.Skipf("message queues unavailable: %v", err)
	}
	defer client.Close()
	server, err := Dial(MessageQueue, Server, names)
	if err != nil {
		t.Fatalf("server Dial: %v", err)
	}
	defer server.Close()

	roundTrip(t, client, server, 2000)
}

func TestRegionRoundTrip(t *testing.T) {
	names := testNames(t)
	client, err := Dial(SharedMemory, Client, names)
	if err != nil {
		t.Skipf("shared memory unavailable: %v", err)
	}
	defer client.Close()
	server, err := Dial(SharedMemory, Server, names)
	if err != nil {
		t.Fatalf("server Dial: %v", err)
	}
	defer server.Close()

	roundTrip(t, client, server, 2000)
}

func TestNamesMustBeRooted(t *testing.T) {
	if _, err := OpenQueue("practice"); !errors.Is(err, ErrSetup) {
		t.Errorf("OpenQueue without slash = %v", err)
	}
	if _, err := OpenRegion("a/b", 64); !errors.Is(err, ErrSetup) {
		t.Errorf("OpenRegion with slash = %v", err)
	}
}

func TestCleanupMissingNames(t *testing.T) {
	names := testNames(t)
	q, err := OpenQueue(names.Up)
	if err != nil {
		t.Skipf("message queues unavailable: %v", err)
	}
	q.Close()
	if err := Cleanup(names); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if err := Cleanup(names); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
}
