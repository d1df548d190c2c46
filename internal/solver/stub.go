package solver

import (
	"context"
	"fmt"

	"github.com/fracsim-lab/growth-core/internal/geom"
)

// StubFunc computes a stub result for one snapshot
type StubFunc func(ctx context.Context, snap *geom.Snapshot, mode string) (*Result, error)

// StubSolver satisfies Solver with a caller-supplied function. It backs the
// debug-stub run mode and tests.
type StubSolver struct {
	Func StubFunc
}

// Evaluate calls the stub function
func (s *StubSolver) Evaluate(ctx context.Context, snap *geom.Snapshot, mode string) (*Result, error) {
	if s.Func == nil {
		return nil, fmt.Errorf("stub solver has no function")
	}
	return s.Func(ctx, snap, mode)
}

// AllSlippedStub returns a stub that reports the given work and condition
// number with every element slipped. Useful as a debug-stub default.
func AllSlippedStub(work, cond float64) *StubSolver {
	return &StubSolver{Func: func(_ context.Context, snap *geom.Snapshot, _ string) (*Result, error) {
		res := &Result{Work: work, ConditionNumber: cond}
		n := snap.FractureElementCount()
		for i := 0; i < n; i++ {
			res.Elements = append(res.Elements, ElementStatus{Index: i, Slipped: true})
		}
		return res, nil
	}}
}
