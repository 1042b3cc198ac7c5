// ════════════════════════════════════════════════════════════════════════════════════════════════
// Run Configuration
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Matrix Configuration Loading & Validation
//
// Description:
//   Runtime knobs of the memlab matrix. Defaults come from constants, an
//   optional JSON file overrides them, and command-line flags override the
//   file. Validate turns the names into a runnable experiment.Plan.
//
// File format:
//   {
//     "rounds": 10000000, "steps": 10000000, "pin": true,
//     "shapes": ["store-buffering"], "policies": ["weak", "strong"],
//     "layouts": ["packed", "isolated"], "ordering_layout": "isolated",
//     "db": "memlab.db", "json": "memlab.json"
//   }
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"memlab/constants"
	"memlab/experiment"
	"memlab/layout"
	"memlab/order"

	"github.com/sugawarayuuta/sonnet"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the decoded form of a configuration file.
type Config struct {
	Rounds         uint64   `json:"rounds"`
	Steps          uint64   `json:"steps"`
	Pin            bool     `json:"pin"`
	Shapes         []string `json:"shapes"`
	Policies       []string `json:"policies"`
	Layouts        []string `json:"layouts"`
	OrderingLayout string   `json:"ordering_layout"`
	DB             string   `json:"db"`   // sqlite results path, empty disables
	JSON           string   `json:"json"` // report export path, empty disables
	Gops           bool     `json:"gops"` // start the diagnostics agent
}

// Default runs the full matrix at full size with no persistence.
func Default() Config {
	c := Config{
		Rounds:         constants.OrderingRounds,
		Steps:          constants.ContentionSteps,
		Pin:            true,
		OrderingLayout: layout.Isolated.String(),
	}
	for _, s := range experiment.Shapes() {
		c.Shapes = append(c.Shapes, s.String())
	}
	for _, p := range order.All() {
		c.Policies = append(c.Policies, p.String())
	}
	for _, l := range layout.All() {
		c.Layouts = append(c.Layouts, l.String())
	}
	return c
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := sonnet.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// Marshal encodes c in the file format.
func (c Config) Marshal() ([]byte, error) {
	return sonnet.Marshal(c)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// FLAGS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// list is a comma-separated flag value.
type list struct{ dst *[]string }

func (l list) String() string {
	if l.dst == nil {
		return ""
	}
	return strings.Join(*l.dst, ",")
}

func (l list) Set(v string) error {
	*l.dst = nil
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l.dst = append(*l.dst, s)
		}
	}
	return nil
}

// Bind registers one flag per field on fs, with the current values of c as
// defaults. Parsing fs then overrides c in place.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.Uint64Var(&c.Rounds, "rounds", c.Rounds, "rounds per ordering run")
	fs.Uint64Var(&c.Steps, "steps", c.Steps, "values per producer in contention runs")
	fs.BoolVar(&c.Pin, "pin", c.Pin, "pin workers to cores")
	fs.Var(list{&c.Shapes}, "shapes", "comma-separated ordering shapes (empty skips ordering)")
	fs.Var(list{&c.Policies}, "policies", "comma-separated memory-order policies")
	fs.Var(list{&c.Layouts}, "layouts", "comma-separated contention layouts (empty skips contention)")
	fs.StringVar(&c.OrderingLayout, "ordering-layout", c.OrderingLayout, "layout of ordering contexts")
	fs.StringVar(&c.DB, "db", c.DB, "sqlite results database")
	fs.StringVar(&c.JSON, "json", c.JSON, "write reports as JSON to this file")
	fs.BoolVar(&c.Gops, "gops", c.Gops, "start the gops diagnostics agent")
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Validate resolves every name and returns the plan c describes.
func (c Config) Validate() (experiment.Plan, error) {
	var plan experiment.Plan
	if c.Rounds == 0 && len(c.Shapes) > 0 {
		return plan, fmt.Errorf("%w: rounds must be positive", ErrInvalid)
	}
	if c.Steps == 0 && len(c.Layouts) > 0 {
		return plan, fmt.Errorf("%w: steps must be positive", ErrInvalid)
	}
	if len(c.Policies) == 0 {
		return plan, fmt.Errorf("%w: no policies", ErrInvalid)
	}

	for _, name := range c.Shapes {
		s, err := experiment.ParseShape(name)
		if err != nil {
			return plan, fmt.Errorf("%w: shape %q", ErrInvalid, name)
		}
		plan.Shapes = append(plan.Shapes, s)
	}
	for _, name := range c.Policies {
		p, err := order.Parse(name)
		if err != nil {
			return plan, fmt.Errorf("%w: policy %q", ErrInvalid, name)
		}
		plan.Policies = append(plan.Policies, p)
	}
	for _, name := range c.Layouts {
		l, err := layout.Parse(name)
		if err != nil {
			return plan, fmt.Errorf("%w: layout %q", ErrInvalid, name)
		}
		plan.Layouts = append(plan.Layouts, l)
	}
	l, err := layout.Parse(c.OrderingLayout)
	if err != nil {
		return plan, fmt.Errorf("%w: ordering layout %q", ErrInvalid, c.OrderingLayout)
	}

	plan.OrderingLayout = l
	plan.Rounds = c.Rounds
	plan.Steps = c.Steps
	plan.Pin = c.Pin
	return plan, nil
}
