// turn.go
//
// Three-state alternating flag shared by one producer and one consumer.
// Stricter than go/done: ownership of the paired value cell alternates on
// every hand-off, and the producer can close the exchange.
//
//     Producer                         Consumer
//     --------                         --------------------------------
//     AwaitProducer(): ReadyForProducer
//     write value
//     Publish(): ValueReady  ───────▶  AwaitValue(): !ReadyForProducer
//                                      read value
//     AwaitProducer() ◀──────────────  Consumed(): ReadyForProducer
//     ...
//     Close(): waits for the last hand-off, then ProducerFinished
//
// The state word lives inside the same context record as the value cell, so
// it takes part in whatever cache-line contention the layout creates.

package handshake

import (
	"sync/atomic"
	"unsafe"
)

// State is the value of a Turn word.
type State uint32

const (
	// ReadyForProducer: the consumer has taken the last value (or none was
	// written yet); the producer may write.
	ReadyForProducer State = iota + 1
	// ValueReady: a fresh value waits for the consumer.
	ValueReady
	// ProducerFinished: no more values will be written.
	ProducerFinished
)

func (s State) String() string {
	switch s {
	case ReadyForProducer:
		return "ready-for-producer"
	case ValueReady:
		return "value-ready"
	case ProducerFinished:
		return "producer-finished"
	}
	return "state?"
}

// Turn is a view of one 32-bit state word.
type Turn struct {
	p *uint32
}

// TurnAt views the word at p as a Turn. p must be 4-byte aligned.
func TurnAt(p unsafe.Pointer) Turn {
	if uintptr(p)&3 != 0 {
		panic("handshake: misaligned turn")
	}
	return Turn{p: (*uint32)(p)}
}

// Reset hands the turn to the producer. Called by the driver before either
// side starts.
func (t Turn) Reset() { atomic.StoreUint32(t.p, uint32(ReadyForProducer)) }

// State reads the current state.
func (t Turn) State() State { return State(atomic.LoadUint32(t.p)) }

// AwaitProducer spins until the producer owns the value cell.
func (t Turn) AwaitProducer() {
	miss := 0
	for State(atomic.LoadUint32(t.p)) != ReadyForProducer {
		backoff(&miss)
	}
}

// Publish hands a freshly written value to the consumer.
//
//go:nosplit
func (t Turn) Publish() { atomic.StoreUint32(t.p, uint32(ValueReady)) }

// Close waits for the consumer to take the last value, then marks the
// exchange finished.
func (t Turn) Close() {
	t.AwaitProducer()
	atomic.StoreUint32(t.p, uint32(ProducerFinished))
}

// AwaitValue spins until a value is published or the producer finished. It
// returns false once the exchange is closed.
func (t Turn) AwaitValue() bool {
	miss := 0
	for {
		switch State(atomic.LoadUint32(t.p)) {
		case ValueReady:
			return true
		case ProducerFinished:
			return false
		}
		backoff(&miss)
	}
}

// Consumed returns ownership of the value cell to the producer.
//
//go:nosplit
func (t Turn) Consumed() { atomic.StoreUint32(t.p, uint32(ReadyForProducer)) }
