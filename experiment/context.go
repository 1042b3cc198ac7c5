package experiment

import (
	"fmt"

	"memlab/constants"
	"memlab/handshake"
	"memlab/layout"
	"memlab/order"
)

// ErrProtocolViolation is the handshake sentinel, re-exported so callers of
// the driver can match every harness defect with one errors.Is.
var ErrProtocolViolation = handshake.ErrProtocolViolation

// Context is the shared memory of one run: a SyncFlags header followed by
// records of one or more cells, all in a single arena. A Context is built
// fresh for every run and handed by pointer to that run's workers only.
type Context struct {
	arena *layout.Arena
	flags *handshake.Flags
	words int
	cells []order.Cell
}

// NewContext builds a context with records records of words cells each.
func NewContext(l layout.Layout, records, words int) *Context {
	if records < 1 || records > constants.MaxCells {
		panic("experiment: records must be in 1..MaxCells")
	}
	if words < 1 {
		panic("experiment: records need at least one word")
	}
	a := layout.New(l, handshake.FlagsSize, records, words*constants.WordSize)
	c := &Context{
		arena: a,
		flags: handshake.FlagsAt(a.Header()),
		words: words,
		cells: make([]order.Cell, 0, records*words),
	}
	for i := 0; i < records; i++ {
		for w := 0; w < words; w++ {
			c.cells = append(c.cells, order.CellAt(a.Word(i, w)))
		}
	}
	return c
}

// Arena exposes the backing block for layout diagnostics.
func (c *Context) Arena() *layout.Arena { return c.arena }

// Flags is the handshake header of the context.
func (c *Context) Flags() *handshake.Flags { return c.flags }

// Cell returns word 0 of record i.
func (c *Context) Cell(i int) order.Cell { return c.cells[i*c.words] }

// Word returns word w of record i.
func (c *Context) Word(i, w int) order.Cell { return c.cells[i*c.words+w] }

// Reset puts every cell back to zero.
func (c *Context) Reset() {
	for _, cell := range c.cells {
		cell.Reset()
	}
}

// Baseline verifies every cell reads zero. Drivers call it after Reset and
// before arming; a non-zero value means a worker wrote outside its round.
func (c *Context) Baseline() error {
	for i, cell := range c.cells {
		if v := cell.Value(); v != 0 {
			return fmt.Errorf("%w: cell %d reads %d after reset", ErrProtocolViolation, i, v)
		}
	}
	return nil
}

// Turn views word 0 of record i as a producer/consumer turn flag.
func (c *Context) Turn(i int) handshake.Turn {
	return handshake.TurnAt(c.arena.Word(i, 0))
}
