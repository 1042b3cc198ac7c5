package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"memlab/constants"
	"memlab/experiment"
	"memlab/layout"
	"memlab/order"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memlab.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsFullMatrix(t *testing.T) {
	plan, err := Default().Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(plan.Shapes) != len(experiment.Shapes()) ||
		len(plan.Policies) != len(order.All()) ||
		len(plan.Layouts) != len(layout.All()) {
		t.Fatalf("default plan incomplete: %+v", plan)
	}
	if plan.Rounds != constants.OrderingRounds || plan.Steps != constants.ContentionSteps {
		t.Errorf("rounds/steps = %d/%d", plan.Rounds, plan.Steps)
	}
	if plan.OrderingLayout != layout.Isolated || !plan.Pin {
		t.Errorf("ordering layout %v pin %v", plan.OrderingLayout, plan.Pin)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `{"rounds": 5000, "policies": ["STRONG"], "shapes": ["store-buffering"], "db": "x.db"}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Rounds != 5000 || c.DB != "x.db" {
		t.Errorf("file values not applied: %+v", c)
	}
	if c.Steps != constants.ContentionSteps || len(c.Layouts) != 2 {
		t.Errorf("missing keys lost their defaults: %+v", c)
	}
	plan, err := c.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(plan.Policies) != 1 || plan.Policies[0] != order.Strong {
		t.Errorf("policies = %v", plan.Policies)
	}
	if len(plan.Shapes) != 1 || plan.Shapes[0] != experiment.StoreBuffering {
		t.Errorf("shapes = %v", plan.Shapes)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := Load(writeFile(t, `{"rounds": "many"`)); err == nil {
		t.Error("malformed file accepted")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := Default()
	want.JSON = "out.json"
	raw, err := want.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Load(writeFile(t, string(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if got.JSON != want.JSON || got.Rounds != want.Rounds || len(got.Shapes) != len(want.Shapes) {
		t.Errorf("round trip changed config: %+v", got)
	}
}

func TestFlagsOverride(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("memlab", flag.ContinueOnError)
	c.Bind(fs)
	err := fs.Parse([]string{"-rounds", "100", "-pin=false", "-policies", "weak, intermediate", "-layouts", ""})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := c.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if plan.Rounds != 100 || plan.Pin {
		t.Errorf("rounds %d pin %v", plan.Rounds, plan.Pin)
	}
	if len(plan.Policies) != 2 || plan.Policies[1] != order.Intermediate {
		t.Errorf("policies = %v", plan.Policies)
	}
	if len(plan.Layouts) != 0 {
		t.Errorf("empty -layouts kept %v", plan.Layouts)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero rounds":     func(c *Config) { c.Rounds = 0 },
		"zero steps":      func(c *Config) { c.Steps = 0 },
		"no policies":     func(c *Config) { c.Policies = nil },
		"bad shape":       func(c *Config) { c.Shapes = []string{"iriw"} },
		"bad policy":      func(c *Config) { c.Policies = []string{"consume"} },
		"bad layout":      func(c *Config) { c.Layouts = []string{"striped"} },
		"bad ordering lo": func(c *Config) { c.OrderingLayout = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			if _, err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate = %v, want ErrInvalid", err)
			}
		})
	}
}
