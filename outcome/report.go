package outcome

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"memlab/layout"
	"memlab/order"
)

// ProducerStat is the per-pair result of a contention run.
type ProducerStat struct {
	Sequence string        // generator name
	Elapsed  time.Duration // producer wall time
	Sum      uint64        // consumer sum
	Expected uint64        // closed-form sum of the generator stream
}

// Report is the summary of one experiment run. It is built once by the
// driver; the histogram is a private copy, so a Report never changes after
// it is returned.
type Report struct {
	Experiment string
	Policy     order.Policy
	Layout     layout.Layout
	Arch       string
	Rounds     uint64
	Elapsed    time.Duration

	// Ordering runs.
	Anomaly   Pair   // outcome classified as anomalous for this shape
	Anomalies uint64 // Histogram.Count(Anomaly)
	Histogram *Histogram

	// Contention runs.
	Producers []ProducerStat
}

// NewReport fills the fields every run shares.
func NewReport(experiment string, p order.Policy, l layout.Layout, rounds uint64, elapsed time.Duration) Report {
	return Report{
		Experiment: experiment,
		Policy:     p,
		Layout:     l,
		Arch:       runtime.GOARCH,
		Rounds:     rounds,
		Elapsed:    elapsed,
	}
}

// WithHistogram attaches a copy of h and classifies anomaly against it.
func (r Report) WithHistogram(h *Histogram, anomaly Pair) Report {
	r.Histogram = h.Clone()
	r.Anomaly = anomaly
	r.Anomalies = h.Count(anomaly)
	return r
}

// Title is the one-line heading used in logs and exports.
func (r Report) Title() string {
	return r.Experiment + " " + r.Policy.String() + " " + r.Layout.String()
}

// WriteText prints r in the operator-facing format.
func WriteText(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "%s [%s] rounds=%d elapsed=%.3fs\n",
		r.Title(), r.Arch, r.Rounds, r.Elapsed.Seconds()); err != nil {
		return err
	}
	for _, p := range r.Producers {
		if _, err := fmt.Fprintf(w, "  producer %-8s done in %.3fs, consumer sum = %d\n",
			p.Sequence, p.Elapsed.Seconds(), p.Sum); err != nil {
			return err
		}
	}
	if r.Histogram == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "  anomalies %s: %d\n  counts:\n", r.Anomaly, r.Anomalies); err != nil {
		return err
	}
	var err error
	r.Histogram.Each(func(p Pair, n uint64) {
		if err == nil {
			_, err = fmt.Fprintf(w, "  %d %d: %d\n", p.A, p.B, n)
		}
	})
	return err
}
