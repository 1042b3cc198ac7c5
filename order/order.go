// ════════════════════════════════════════════════════════════════════════════════════════════════
// Memory-Order Policies
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: memlab
// Component: Consistency Level Strategy
//
// Description:
//   Closed set of load/store consistency policies used to parameterise every
//   ordering experiment. Each policy pairs one load level with one store
//   level; worker bodies never pick a level themselves.
//
// Level realisation:
//   - Sequential:      sync/atomic (XCHG store on amd64, LDAR/STLR on arm64)
//   - AcquireRelease:  assembly MOV / LDAR+STLR, compiler barrier, no full fence
//   - Relaxed:         assembly plain MOV, compiler barrier only
//   - Other targets:   sync/atomic for every level (see cell_fallback.go)
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package order

import (
	"errors"
	"strings"
)

// Level is the ordering guarantee attached to one atomic access.
type Level uint8

const (
	Relaxed Level = iota
	AcquireRelease
	Sequential
)

var levelNames = [...]string{
	Relaxed:        "relaxed",
	AcquireRelease: "acquire-release",
	Sequential:     "seq-cst",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "level?"
}

// Policy selects the load and store levels used by experiment workers.
type Policy uint8

const (
	// Weak performs every access relaxed.
	Weak Policy = iota
	// Intermediate pairs acquire loads with release stores.
	Intermediate
	// Strong performs every access sequentially consistent.
	Strong
)

// policyTable is the behaviour table for the closed policy set.
var policyTable = [...]struct {
	name  string
	load  Level
	store Level
}{
	Weak:         {"weak", Relaxed, Relaxed},
	Intermediate: {"intermediate", AcquireRelease, AcquireRelease},
	Strong:       {"strong", Sequential, Sequential},
}

// ErrUnknownPolicy is returned by Parse for names outside the policy set.
var ErrUnknownPolicy = errors.New("order: unknown policy")

// All returns every policy in comparison order.
func All() []Policy {
	return []Policy{Weak, Intermediate, Strong}
}

// Load returns the level used for loads under p.
func (p Policy) Load() Level { return policyTable[p].load }

// Store returns the level used for stores under p.
func (p Policy) Store() Level { return policyTable[p].store }

func (p Policy) String() string {
	if int(p) < len(policyTable) {
		return policyTable[p].name
	}
	return "policy?"
}

// Parse resolves a policy by name, case-insensitively.
func Parse(name string) (Policy, error) {
	for i := range policyTable {
		if strings.EqualFold(policyTable[i].name, name) {
			return Policy(i), nil
		}
	}
	return 0, ErrUnknownPolicy
}
