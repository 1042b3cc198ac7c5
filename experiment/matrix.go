package experiment

import (
	"memlab/layout"
	"memlab/order"
	"memlab/outcome"
)

// Plan lists the runs of one comparison matrix.
type Plan struct {
	Shapes         []Shape         // ordering shapes, each run once per policy
	Policies       []order.Policy  // policies under test
	OrderingLayout layout.Layout   // layout of ordering contexts
	Rounds         uint64          // rounds per ordering run
	Layouts        []layout.Layout // contention layouts, each run once per policy
	Steps          uint64          // values per producer in contention runs
	Pin            bool            // pin workers to cores
}

// Runs is the number of runs the plan expands to.
func (p Plan) Runs() int {
	return len(p.Shapes)*len(p.Policies) + len(p.Layouts)*len(p.Policies)
}

// Run executes every run of plan in sequence, handing each report to emit as
// soon as it is ready. stopping is polled between runs only; a run in flight
// always completes. The first error from a run or from emit ends the matrix.
func Run(plan Plan, stopping func() bool, emit func(outcome.Report) error) error {
	for _, shape := range plan.Shapes {
		for _, p := range plan.Policies {
			if stopping() {
				return nil
			}
			r, err := RunOrdering(OrderingConfig{
				Shape:  shape,
				Policy: p,
				Layout: plan.OrderingLayout,
				Rounds: plan.Rounds,
				Pin:    plan.Pin,
			})
			if err != nil {
				return err
			}
			if err := emit(r); err != nil {
				return err
			}
		}
	}

	for _, p := range plan.Policies {
		for _, l := range plan.Layouts {
			if stopping() {
				return nil
			}
			r, err := RunContention(ContentionConfig{
				Policy: p,
				Layout: l,
				Steps:  plan.Steps,
				Pin:    plan.Pin,
			})
			if err != nil {
				return err
			}
			if err := emit(r); err != nil {
				return err
			}
		}
	}
	return nil
}
