package experiment

import (
	"errors"
	"strings"
)

// Sequence selects the value stream a contention producer emits. Each stream
// is monotonic in its own state and has a closed-form sum, so consumers can
// verify every value arrived exactly once.
type Sequence uint8

const (
	Integers Sequence = iota // 1, 2, 3, ...
	Evens                    // 2, 4, 6, ...
	Odds                     // 1, 3, 5, ...
	Bits                     // 0, 1, 0, 1, ...
)

var sequenceTable = [...]struct {
	name  string
	first uint64
	sum   func(n uint64) uint64
}{
	Integers: {"integers", 0, func(n uint64) uint64 { return n * (n + 1) / 2 }},
	Evens:    {"evens", 0, func(n uint64) uint64 { return n * (n + 1) }},
	Odds:     {"odds", 1, func(n uint64) uint64 { return n * n }},
	Bits:     {"bits", 1, func(n uint64) uint64 { return n / 2 }},
}

// ErrUnknownSequence is returned by ParseSequence.
var ErrUnknownSequence = errors.New("experiment: unknown sequence")

// Sequences returns every sequence in producer order.
func Sequences() []Sequence { return []Sequence{Integers, Evens, Odds, Bits} }

func (s Sequence) String() string {
	if int(s) < len(sequenceTable) {
		return sequenceTable[s].name
	}
	return "sequence?"
}

// Sum is the total of the first n values of s.
func (s Sequence) Sum(n uint64) uint64 { return sequenceTable[s].sum(n) }

// ParseSequence resolves a sequence by name.
func ParseSequence(name string) (Sequence, error) {
	for i := range sequenceTable {
		if strings.EqualFold(sequenceTable[i].name, name) {
			return Sequence(i), nil
		}
	}
	return 0, ErrUnknownSequence
}

// Generator produces the values of one sequence. Owned by a single producer.
type Generator struct {
	seq  Sequence
	next uint64
}

// NewGenerator starts s from its first value.
func NewGenerator(s Sequence) Generator {
	return Generator{seq: s, next: sequenceTable[s].first}
}

// Next returns the following value of the stream.
func (g *Generator) Next() uint64 {
	switch g.seq {
	case Integers:
		g.next++
		return g.next
	case Evens:
		g.next += 2
		return g.next
	case Odds:
		v := g.next
		g.next += 2
		return v
	default:
		g.next ^= 1
		return g.next
	}
}
