package evaluate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/internal/scenario"
	"github.com/fracsim-lab/growth-core/internal/solver"
	"github.com/fracsim-lab/growth-core/pkg/config"
)

func trialWithFracture(name string) *scenario.Trial {
	return &scenario.Trial{
		ID: "trial-" + name,
		Snapshot: &geom.Snapshot{Fractures: []*geom.Fracture{{
			Name: name,
			Segments: []geom.Segment{
				{Head: geom.Point{X: 0, Y: 0}, Tail: geom.Point{X: 1, Y: 0}, Elements: 1},
			},
		}}},
		NewElements: []int{0},
	}
}

func TestEvaluateAllCollectsInOrder(t *testing.T) {
	stub := &solver.StubSolver{Func: func(_ context.Context, snap *geom.Snapshot, _ string) (*solver.Result, error) {
		return &solver.Result{
			Work:            float64(len(snap.Fractures[0].Name)),
			ConditionNumber: 1,
		}, nil
	}}
	e := New(stub, 2, 2)

	trials := []*scenario.Trial{
		trialWithFracture("a"),
		trialWithFracture("bb"),
		trialWithFracture("ccc"),
		trialWithFracture("dddd"),
		trialWithFracture("eeeee"),
	}
	evals, err := e.EvaluateAll(context.Background(), trials, config.ModeStub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evals) != len(trials) {
		t.Fatalf("expected %d evaluations, got %d", len(trials), len(evals))
	}
	for i, ev := range evals {
		if ev == nil || ev.Result == nil {
			t.Fatalf("evaluation %d missing", i)
		}
		if ev.Trial != trials[i] {
			t.Fatalf("evaluation %d out of order", i)
		}
		if ev.Result.Work != float64(i+1) {
			t.Fatalf("evaluation %d: expected work %d, got %g", i, i+1, ev.Result.Work)
		}
	}
}

func TestEvaluateAllRecordsPerTrialFailure(t *testing.T) {
	stub := &solver.StubSolver{Func: func(_ context.Context, snap *geom.Snapshot, _ string) (*solver.Result, error) {
		if snap.Fractures[0].Name == "bad" {
			return nil, errors.New("solver diverged")
		}
		return &solver.Result{Work: 1, ConditionNumber: 1}, nil
	}}
	e := New(stub, 4, 4)

	trials := []*scenario.Trial{
		trialWithFracture("good"),
		trialWithFracture("bad"),
		trialWithFracture("fine"),
	}
	evals, err := e.EvaluateAll(context.Background(), trials, config.ModeStub)
	if err != nil {
		t.Fatalf("per-trial failures must not abort the sweep: %v", err)
	}
	if evals[1].Err == nil || evals[1].Result != nil {
		t.Fatalf("failed trial must carry its error and no result")
	}
	if evals[0].Result == nil || evals[2].Result == nil {
		t.Fatalf("sibling trials must still be evaluated")
	}
}

func TestEvaluateAllInfrastructureAborts(t *testing.T) {
	stub := &solver.StubSolver{Func: func(_ context.Context, _ *geom.Snapshot, _ string) (*solver.Result, error) {
		return nil, fmt.Errorf("missing executable: %w", solver.ErrInfrastructure)
	}}
	e := New(stub, 4, 4)

	_, err := e.EvaluateAll(context.Background(), []*scenario.Trial{trialWithFracture("a")}, config.ModeStub)
	if !errors.Is(err, solver.ErrInfrastructure) {
		t.Fatalf("expected infrastructure failure to propagate, got %v", err)
	}
}

func TestEvaluateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &solver.StubSolver{Func: func(ctx context.Context, _ *geom.Snapshot, _ string) (*solver.Result, error) {
		return nil, ctx.Err()
	}}
	e := New(stub, 4, 4)

	_, err := e.EvaluateAll(ctx, []*scenario.Trial{trialWithFracture("a")}, config.ModeStub)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation to propagate, got %v", err)
	}
}

func TestNewElementActivated(t *testing.T) {
	trial := trialWithFracture("a")
	trial.NewElements = []int{0, 3}

	ev := &Evaluation{Trial: trial, Result: &solver.Result{Elements: []solver.ElementStatus{
		{Index: 0, Slipped: true},
		{Index: 3, Opened: true},
	}}}
	if !ev.NewElementActivated() {
		t.Fatalf("all new elements slipped or opened, expected activated")
	}

	ev.Result.Elements[1].Opened = false
	if ev.NewElementActivated() {
		t.Fatalf("a stuck new element must not count as activated")
	}

	ev.Result = nil
	if ev.NewElementActivated() {
		t.Fatalf("missing result must not count as activated")
	}
}
