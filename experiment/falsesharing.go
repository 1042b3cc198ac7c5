// ════════════════════════════════════════════════════════════════════════════════════════════════
// Throughput Under Contention
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: False-Sharing Driver
//
// Description:
//   Four producer/consumer pairs share one context. Record i holds the turn
//   word and the value cell of pair i. Producers emit independent sequences
//   (integers, evens, odds, bits); consumers sum what they read. The only
//   thing that differs between a Packed and an Isolated run is the distance
//   between records, so the elapsed-time delta is the cost of the pairs
//   invalidating each other's cache lines.
//
//   Record layout: | turn (word 0) | value (word 1) |
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package experiment

import (
	"fmt"

	"memlab/constants"
	"memlab/handshake"
	"memlab/layout"
	"memlab/order"
	"memlab/outcome"
	"memlab/timing"

	"golang.org/x/sync/errgroup"
)

// ContentionName is the experiment name recorded in contention reports.
const ContentionName = "false-sharing"

// ContentionConfig parameterises one contention run.
type ContentionConfig struct {
	Policy order.Policy
	Layout layout.Layout
	Steps  uint64
	Pin    bool
}

// RunContention hands cfg.Steps values from every producer to its consumer
// and reports total and per-producer elapsed time. Consumer sums are checked
// against the closed form of each sequence.
func RunContention(cfg ContentionConfig) (outcome.Report, error) {
	ctx := NewContext(cfg.Layout, constants.ContentionPairs, 2)
	stats := make([]outcome.ProducerStat, constants.ContentionPairs)
	p := cfg.Policy

	for i, seq := range Sequences() {
		ctx.Turn(i).Reset()
		stats[i].Sequence = seq.String()
		stats[i].Expected = seq.Sum(cfg.Steps)
	}

	var g errgroup.Group
	tm := timing.Start()
	for i, seq := range Sequences() {
		i, seq := i, seq
		turn, value := ctx.Turn(i), ctx.Word(i, 1)

		g.Go(handshake.Pinned(handshake.CoreFor(2*i, cfg.Pin), func() error {
			pt := timing.Start()
			gen := NewGenerator(seq)
			for n := uint64(0); n < cfg.Steps; n++ {
				turn.AwaitProducer()
				value.Store(p.Store(), gen.Next())
				turn.Publish()
			}
			stats[i].Elapsed = pt.Duration()
			turn.Close()
			return nil
		}))

		g.Go(handshake.Pinned(handshake.CoreFor(2*i+1, cfg.Pin), func() error {
			var sum uint64
			for turn.AwaitValue() {
				sum += value.Load(p.Load())
				turn.Consumed()
			}
			stats[i].Sum = sum
			if sum != stats[i].Expected {
				return fmt.Errorf("%w: %s consumer summed %d, want %d",
					ErrProtocolViolation, seq, sum, stats[i].Expected)
			}
			return nil
		}))
	}
	err := g.Wait()
	elapsed := tm.Duration()
	if err != nil {
		return outcome.Report{}, fmt.Errorf("%s/%s/%s: %w", ContentionName, p, cfg.Layout, err)
	}

	r := outcome.NewReport(ContentionName, p, cfg.Layout, cfg.Steps, elapsed)
	r.Producers = stats
	return r, nil
}
