// ════════════════════════════════════════════════════════════════════════════════════════════════
// Ordering-Anomaly Experiments
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Two-Thread Litmus Driver
//
// Description:
//   Two workers run a fixed cross-read/cross-write body once per round over
//   four cells (x, y, r1, r2). The driver resets every cell, checks the zero
//   baseline, arms both workers, waits for both, and files the (r1, r2)
//   result pair in a histogram.
//
// Shapes and their anomaly bucket:
//   - load-buffering:            T1 r1=y; x=r1    T2 r2=x; y=42      (42, 42)
//   - message-passing:           T1 x=1; y=2      T2 r1=x; r2=y      (0, 2)
//   - message-passing-reversed:  T1 x=1; y=2      T2 r2=y; r1=x      (0, 2)
//   - store-buffering:           T1 x=1; r1=y     T2 y=1; r2=x       (0, 0)
//
// In message-passing the (0, 2) bucket is reachable by plain interleaving
// (T2 loads x, T1 stores both, T2 loads y). Reversing T2's loads removes
// that interleaving: (0, 2) then needs the hardware to reorder T1's stores
// or T2's loads.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package experiment

import (
	"errors"
	"fmt"
	"strings"

	"memlab/handshake"
	"memlab/layout"
	"memlab/order"
	"memlab/outcome"
	"memlab/timing"
)

// Cell slots shared by every shape.
const (
	cellX = iota
	cellY
	cellR1
	cellR2
	orderingCells
)

// Shape selects the litmus body of an ordering run.
type Shape uint8

const (
	LoadBuffering Shape = iota
	MessagePassing
	MessagePassingReversed
	StoreBuffering
)

type body func(c *Context, p order.Policy)

var shapeTable = [...]struct {
	name    string
	anomaly outcome.Pair
	t1, t2  body
}{
	LoadBuffering: {
		name:    "load-buffering",
		anomaly: outcome.Pair{A: 42, B: 42},
		t1: func(c *Context, p order.Policy) {
			v := c.Cell(cellY).Load(p.Load())
			c.Cell(cellX).Store(p.Store(), v)
			c.Cell(cellR1).Store(p.Store(), v)
		},
		t2: func(c *Context, p order.Policy) {
			v := c.Cell(cellX).Load(p.Load())
			c.Cell(cellY).Store(p.Store(), 42)
			c.Cell(cellR2).Store(p.Store(), v)
		},
	},
	MessagePassing: {
		name:    "message-passing",
		anomaly: outcome.Pair{A: 0, B: 2},
		t1:      writeXThenY,
		t2: func(c *Context, p order.Policy) {
			x := c.Cell(cellX).Load(p.Load())
			y := c.Cell(cellY).Load(p.Load())
			c.Cell(cellR1).Store(p.Store(), x)
			c.Cell(cellR2).Store(p.Store(), y)
		},
	},
	MessagePassingReversed: {
		name:    "message-passing-reversed",
		anomaly: outcome.Pair{A: 0, B: 2},
		t1:      writeXThenY,
		t2: func(c *Context, p order.Policy) {
			y := c.Cell(cellY).Load(p.Load())
			x := c.Cell(cellX).Load(p.Load())
			c.Cell(cellR1).Store(p.Store(), x)
			c.Cell(cellR2).Store(p.Store(), y)
		},
	},
	StoreBuffering: {
		name:    "store-buffering",
		anomaly: outcome.Pair{A: 0, B: 0},
		t1: func(c *Context, p order.Policy) {
			c.Cell(cellX).Store(p.Store(), 1)
			v := c.Cell(cellY).Load(p.Load())
			c.Cell(cellR1).Store(p.Store(), v)
		},
		t2: func(c *Context, p order.Policy) {
			c.Cell(cellY).Store(p.Store(), 1)
			v := c.Cell(cellX).Load(p.Load())
			c.Cell(cellR2).Store(p.Store(), v)
		},
	},
}

func writeXThenY(c *Context, p order.Policy) {
	c.Cell(cellX).Store(p.Store(), 1)
	c.Cell(cellY).Store(p.Store(), 2)
}

// ErrUnknownShape is returned by ParseShape.
var ErrUnknownShape = errors.New("experiment: unknown shape")

// Shapes returns every ordering shape.
func Shapes() []Shape {
	return []Shape{LoadBuffering, MessagePassing, MessagePassingReversed, StoreBuffering}
}

func (s Shape) String() string {
	if int(s) < len(shapeTable) {
		return shapeTable[s].name
	}
	return "shape?"
}

// Anomaly is the outcome pair classified as anomalous for s.
func (s Shape) Anomaly() outcome.Pair { return shapeTable[s].anomaly }

// ParseShape resolves a shape by name.
func ParseShape(name string) (Shape, error) {
	for i := range shapeTable {
		if strings.EqualFold(shapeTable[i].name, name) {
			return Shape(i), nil
		}
	}
	return 0, ErrUnknownShape
}

// OrderingConfig parameterises one ordering run.
type OrderingConfig struct {
	Shape  Shape
	Policy order.Policy
	Layout layout.Layout
	Rounds uint64
	Pin    bool
}

// RunOrdering executes cfg.Rounds synchronized rounds of cfg.Shape and
// returns the outcome histogram. A fresh context and a fresh pair of worker
// threads are used for every call.
func RunOrdering(cfg OrderingConfig) (outcome.Report, error) {
	if int(cfg.Shape) >= len(shapeTable) {
		return outcome.Report{}, ErrUnknownShape
	}
	ctx := NewContext(cfg.Layout, orderingCells, 1)
	return runOrdering(ctx, cfg, (*Context).Reset)
}

// runOrdering is the driver loop. reset prepares the cells before every
// round; the baseline readback that follows it is what catches a worker
// writing outside its round.
func runOrdering(ctx *Context, cfg OrderingConfig, reset func(*Context)) (outcome.Report, error) {
	shape := shapeTable[cfg.Shape]
	hs := handshake.New(ctx.Flags(), 2)

	p := cfg.Policy
	hs.Start(0, handshake.CoreFor(0, cfg.Pin), func() { shape.t1(ctx, p) })
	hs.Start(1, handshake.CoreFor(1, cfg.Pin), func() { shape.t2(ctx, p) })

	hist := outcome.NewHistogram()
	r1, r2 := ctx.Cell(cellR1), ctx.Cell(cellR2)

	var err error
	tm := timing.Start()
	for round := uint64(0); round < cfg.Rounds; round++ {
		reset(ctx)
		if err = ctx.Baseline(); err != nil {
			err = fmt.Errorf("round %d: %w", round, err)
			break
		}
		hs.ArmAll()
		hs.WaitAllDone()
		hist.Add(outcome.Pair{A: r1.Value(), B: r2.Value()})
	}
	elapsed := tm.Duration()

	hs.RequestStop()
	if jerr := hs.Join(); err == nil {
		err = jerr
	}
	if err != nil {
		return outcome.Report{}, fmt.Errorf("%s/%s: %w", cfg.Shape, p, err)
	}
	if hist.Total() != cfg.Rounds {
		return outcome.Report{}, fmt.Errorf("%w: %s/%s filed %d of %d rounds",
			ErrProtocolViolation, cfg.Shape, p, hist.Total(), cfg.Rounds)
	}

	return outcome.NewReport(cfg.Shape.String(), p, cfg.Layout, cfg.Rounds, elapsed).
		WithHistogram(hist, shape.anomaly), nil
}
