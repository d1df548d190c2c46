// Package solver adapts the external mechanical solver: it serializes a
// geometry snapshot to the solver input format, invokes the executable and
// parses the quantities the optimizer needs from the results file.
package solver

import (
	"context"
	"errors"

	"github.com/fracsim-lab/growth-core/internal/geom"
)

// ErrInfrastructure marks solver-invocation failures that are not specific to
// one trial (missing executable, unwritable work directory). These propagate
// to the top of the run; everything else is absorbed per trial.
var ErrInfrastructure = errors.New("solver infrastructure failure")

// ElementStatus is the per-element state in the final loading step
type ElementStatus struct {
	Index   int
	Slipped bool
	Opened  bool
	Shear   float64
	Normal  float64
}

// Result holds what the optimizer reads from one solver run
type Result struct {
	// Work is the external work of the final loading step. Zero and
	// negative values are legitimate.
	Work float64
	// ConditionNumber is a numerical-conditioning diagnostic used only for
	// filtering, not physics.
	ConditionNumber float64
	Elements        []ElementStatus
}

// Activated reports whether the element at the given serialized index slipped
// or opened in the final loading step
func (r *Result) Activated(idx int) bool {
	for _, e := range r.Elements {
		if e.Index == idx {
			return e.Slipped || e.Opened
		}
	}
	return false
}

// Status returns the per-element status for the given serialized index
func (r *Result) Status(idx int) (ElementStatus, bool) {
	for _, e := range r.Elements {
		if e.Index == idx {
			return e, true
		}
	}
	return ElementStatus{}, false
}

// Solver evaluates one geometry snapshot
type Solver interface {
	Evaluate(ctx context.Context, snap *geom.Snapshot, mode string) (*Result, error)
}
