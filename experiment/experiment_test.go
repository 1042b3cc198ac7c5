// ============================================================================
// EXPERIMENT DRIVER VALIDATION SUITE
// ============================================================================
//
// Test categories:
//   - Context: baseline readback, record placement per layout
//   - Generators: closed-form sums and parsing
//   - Ordering: histogram conservation, forbidden outcomes per policy
//   - Contention: consumer sums, timing, producer stats
//   - Matrix: run count, stop polling, emit errors

package experiment

import (
	"errors"
	"math"
	"runtime"
	"strings"
	"testing"

	"memlab/layout"
	"memlab/order"
	"memlab/outcome"
)

// ============================================================================
// TEST UTILITIES AND HELPERS
// ============================================================================

// Spinning threads per run: the driver and two workers for ordering runs,
// four producer/consumer pairs for contention runs.
const (
	orderingThreads   = 3
	contentionThreads = 2 * 4
)

// scaled returns n when every spinning thread can have its own CPU, and a
// short run otherwise. Spinning peers that share a core only progress at
// scheduler-slice granularity.
func scaled(threads int, n uint64) uint64 {
	if runtime.NumCPU() >= threads {
		return n
	}
	if short := n / 100; short > 20 {
		return short
	}
	return 20
}

// pairs builds an outcome set from flattened (a, b) values.
func pairs(ab ...uint64) map[outcome.Pair]bool {
	set := make(map[outcome.Pair]bool, len(ab)/2)
	for i := 0; i+1 < len(ab); i += 2 {
		set[outcome.Pair{A: ab[i], B: ab[i+1]}] = true
	}
	return set
}

func orderingRun(t *testing.T, shape Shape, p order.Policy, rounds uint64) outcome.Report {
	t.Helper()
	r, err := RunOrdering(OrderingConfig{Shape: shape, Policy: p, Layout: layout.Isolated, Rounds: rounds})
	if err != nil {
		t.Fatalf("RunOrdering(%v, %v): %v", shape, p, err)
	}
	return r
}

// ============================================================================
// CONTEXT
// ============================================================================

func TestContextBaseline(t *testing.T) {
	for _, l := range layout.All() {
		ctx := NewContext(l, 4, 2)
		if err := ctx.Baseline(); err != nil {
			t.Fatalf("%v fresh context: %v", l, err)
		}
		ctx.Word(3, 1).Store(order.Sequential, 7)
		if err := ctx.Baseline(); !errors.Is(err, ErrProtocolViolation) {
			t.Fatalf("%v dirty baseline = %v", l, err)
		}
		ctx.Reset()
		if err := ctx.Baseline(); err != nil {
			t.Fatalf("%v after Reset: %v", l, err)
		}
	}
}

func TestContextPlacement(t *testing.T) {
	packed := NewContext(layout.Packed, 4, 1)
	isolated := NewContext(layout.Isolated, 4, 1)
	if !packed.Arena().SameLine(0, 1) {
		t.Error("packed cells 0 and 1 on different lines")
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if isolated.Arena().SameLine(i, j) {
				t.Errorf("isolated cells %d and %d share a line", i, j)
			}
		}
	}
}

func TestNewContextPanicsOnTooManyRecords(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewContext with 5 records did not panic")
		}
	}()
	NewContext(layout.Packed, 5, 1)
}

// ============================================================================
// GENERATORS
// ============================================================================

func TestGeneratorSums(t *testing.T) {
	for _, n := range []uint64{0, 1, 2, 7, 1000} {
		for _, s := range Sequences() {
			g := NewGenerator(s)
			var sum uint64
			for i := uint64(0); i < n; i++ {
				sum += g.Next()
			}
			if sum != s.Sum(n) {
				t.Errorf("%v: sum of %d values = %d, closed form %d", s, n, sum, s.Sum(n))
			}
		}
	}
}

func TestParseNames(t *testing.T) {
	for _, s := range Sequences() {
		if got, err := ParseSequence(s.String()); err != nil || got != s {
			t.Errorf("ParseSequence(%q) = %v, %v", s, got, err)
		}
	}
	for _, s := range Shapes() {
		if got, err := ParseShape(s.String()); err != nil || got != s {
			t.Errorf("ParseShape(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseShape("iriw"); err != ErrUnknownShape {
		t.Errorf("ParseShape(iriw) err = %v", err)
	}
	if _, err := ParseSequence("primes"); err != ErrUnknownSequence {
		t.Errorf("ParseSequence(primes) err = %v", err)
	}
}

// ============================================================================
// ORDERING
// ============================================================================

func TestOrderingHistogramTotals(t *testing.T) {
	rounds := scaled(orderingThreads, 2000)
	for _, shape := range Shapes() {
		for _, p := range order.All() {
			r := orderingRun(t, shape, p, rounds)
			if r.Histogram.Total() != rounds {
				t.Errorf("%v/%v: total %d, want %d", shape, p, r.Histogram.Total(), rounds)
			}
			if r.Anomaly != shape.Anomaly() || r.Anomalies != r.Histogram.Count(shape.Anomaly()) {
				t.Errorf("%v/%v: anomaly %v x%d inconsistent with histogram", shape, p, r.Anomaly, r.Anomalies)
			}
			if r.Elapsed <= 0 {
				t.Errorf("%v/%v: elapsed %v", shape, p, r.Elapsed)
			}
		}
	}
}

func TestOrderingOutcomesInRange(t *testing.T) {
	allowed := map[Shape]map[outcome.Pair]bool{
		LoadBuffering:          pairs(0, 0, 0, 42, 42, 0, 42, 42),
		MessagePassing:         pairs(0, 0, 0, 2, 1, 0, 1, 2),
		MessagePassingReversed: pairs(0, 0, 0, 2, 1, 0, 1, 2),
		StoreBuffering:         pairs(0, 0, 0, 1, 1, 0, 1, 1),
	}
	for _, shape := range Shapes() {
		r := orderingRun(t, shape, order.Strong, scaled(orderingThreads, 2000))
		for _, p := range r.Histogram.Keys() {
			if !allowed[shape][p] {
				t.Errorf("%v produced impossible pair %v", shape, p)
			}
		}
	}
}

func TestStoreBufferingStrongNeverBothZero(t *testing.T) {
	r := orderingRun(t, StoreBuffering, order.Strong, scaled(orderingThreads, 20000))
	if r.Anomalies != 0 {
		t.Fatalf("seq-cst store-buffering observed (0, 0) %d times", r.Anomalies)
	}
}

func TestReversedMessagePassingOrdered(t *testing.T) {
	policies := []order.Policy{order.Intermediate, order.Strong}
	if runtime.GOARCH == "amd64" {
		// Total store order keeps plain stores and loads in program order.
		policies = append(policies, order.Weak)
	}
	for _, p := range policies {
		r := orderingRun(t, MessagePassingReversed, p, scaled(orderingThreads, 20000))
		if r.Anomalies != 0 {
			t.Errorf("%v: reversed message-passing observed (0, 2) %d times", p, r.Anomalies)
		}
	}
}

func TestLoadBufferingStrongNeverBoth42(t *testing.T) {
	r := orderingRun(t, LoadBuffering, order.Strong, scaled(orderingThreads, 20000))
	if r.Anomalies != 0 {
		t.Fatalf("seq-cst load-buffering observed (42, 42) %d times", r.Anomalies)
	}
}

func TestOrderingCatchesWriteOutsideRound(t *testing.T) {
	const stray = 3
	cfg := OrderingConfig{Shape: MessagePassing, Policy: order.Strong, Layout: layout.Packed, Rounds: 10}
	ctx := NewContext(cfg.Layout, orderingCells, 1)

	// A late store from the previous round lands after the driver's reset.
	resets := 0
	_, err := runOrdering(ctx, cfg, func(c *Context) {
		c.Reset()
		if resets++; resets == stray {
			c.Cell(cellR2).Store(order.Sequential, 2)
		}
	})
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("runOrdering = %v, want ErrProtocolViolation", err)
	}
	if !strings.Contains(err.Error(), "round 2") {
		t.Errorf("error does not name the round: %v", err)
	}
	if resets != stray {
		t.Errorf("driver kept going for %d resets after the violation", resets-stray)
	}
}

func TestRunOrderingUnknownShape(t *testing.T) {
	_, err := RunOrdering(OrderingConfig{Shape: Shape(99), Rounds: 1})
	if err != ErrUnknownShape {
		t.Fatalf("err = %v, want ErrUnknownShape", err)
	}
}

// ============================================================================
// CONTENTION
// ============================================================================

func TestContentionSums(t *testing.T) {
	steps := scaled(contentionThreads, 20000)
	for _, l := range layout.All() {
		for _, p := range order.All() {
			r, err := RunContention(ContentionConfig{Policy: p, Layout: l, Steps: steps})
			if err != nil {
				t.Fatalf("%v/%v: %v", p, l, err)
			}
			secs := r.Elapsed.Seconds()
			if secs <= 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
				t.Errorf("%v/%v: elapsed %v", p, l, secs)
			}
			if len(r.Producers) != len(Sequences()) {
				t.Fatalf("%v/%v: %d producer stats", p, l, len(r.Producers))
			}
			for i, s := range r.Producers {
				if s.Sequence != Sequences()[i].String() {
					t.Errorf("producer %d sequence %q", i, s.Sequence)
				}
				if s.Sum != s.Expected || s.Expected != Sequences()[i].Sum(steps) {
					t.Errorf("%v/%v %s: sum %d, want %d", p, l, s.Sequence, s.Sum, s.Expected)
				}
			}
			if r.Experiment != ContentionName || r.Histogram != nil {
				t.Errorf("unexpected report shape: %+v", r)
			}
		}
	}
}

// ============================================================================
// MATRIX
// ============================================================================

func TestMatrixRunsEveryCell(t *testing.T) {
	plan := Plan{
		Shapes:         []Shape{MessagePassing, StoreBuffering},
		Policies:       []order.Policy{order.Weak, order.Strong},
		OrderingLayout: layout.Isolated,
		Rounds:         scaled(orderingThreads, 200),
		Layouts:        layout.All(),
		Steps:          scaled(contentionThreads, 500),
	}
	var got []string
	err := Run(plan, func() bool { return false }, func(r outcome.Report) error {
		got = append(got, r.Title())
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != plan.Runs() || plan.Runs() != 8 {
		t.Fatalf("emitted %d reports, plan says %d", len(got), plan.Runs())
	}
	if got[0] != "message-passing weak isolated" || got[len(got)-1] != "false-sharing strong isolated" {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestMatrixStopsBetweenRuns(t *testing.T) {
	plan := Plan{
		Shapes:   Shapes(),
		Policies: order.All(),
		Rounds:   100,
		Layouts:  layout.All(),
		Steps:    100,
	}
	polls, emitted := 0, 0
	err := Run(plan, func() bool { polls++; return polls > 2 }, func(outcome.Report) error {
		emitted++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if emitted != 2 {
		t.Errorf("emitted %d reports before stop, want 2", emitted)
	}
}

func TestMatrixEmitErrorEnds(t *testing.T) {
	sentinel := errors.New("sink full")
	plan := Plan{Shapes: Shapes(), Policies: order.All(), Rounds: 50}
	calls := 0
	err := Run(plan, func() bool { return false }, func(outcome.Report) error {
		calls++
		return sentinel
	})
	if err != sentinel || calls != 1 {
		t.Fatalf("Run = %v after %d emits", err, calls)
	}
}
