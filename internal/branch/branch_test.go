package branch

import (
	"testing"

	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/internal/solver"
	"github.com/fracsim-lab/growth-core/pkg/config"
)

func branchConfig() config.BranchConfig {
	return config.BranchConfig{
		Enabled:     true,
		MinElements: 5,
		ShearCoeff:  0.2,
		NormalCoeff: 0.023,
		S0:          1,
	}
}

// fiveElementFracture is a straight horizontal chain (0,0)..(5,0)
func fiveElementFracture() *geom.Fracture {
	f := &geom.Fracture{Name: "f", GrowHead: true, GrowTail: true}
	for i := 0; i < 5; i++ {
		f.Segments = append(f.Segments, geom.Segment{
			Head:     geom.Point{X: float64(i), Y: 0},
			Tail:     geom.Point{X: float64(i + 1), Y: 0},
			Elements: 1,
		})
	}
	return f
}

// shearJumpResult puts a large shear discontinuity between elements 2 and 3,
// exceeding S0 at the node (3,0)
func shearJumpResult() *solver.Result {
	res := &solver.Result{Work: 1, ConditionNumber: 1}
	for i := 0; i < 5; i++ {
		shear := 0.0
		if i == 3 {
			shear = 10
		}
		res.Elements = append(res.Elements, solver.ElementStatus{Index: i, Slipped: true, Shear: shear})
	}
	return res
}

func TestApplySplitsAtMaxCoulombNode(t *testing.T) {
	e := New(branchConfig())
	snap := &geom.Snapshot{Fractures: []*geom.Fracture{fiveElementFracture()}}

	out, splits, err := e.Apply(snap, shearJumpResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(splits) != 1 {
		t.Fatalf("expected one split, got %d", len(splits))
	}
	sp := splits[0]
	if sp.Parent != "f" {
		t.Fatalf("unexpected parent %s", sp.Parent)
	}
	if !sp.At.Equal(geom.Point{X: 3, Y: 0}) {
		t.Fatalf("expected split at (3,0), got (%g,%g)", sp.At.X, sp.At.Y)
	}

	a := out.FractureByName("f-a")
	b := out.FractureByName("f-b")
	if a == nil || b == nil {
		t.Fatalf("expected children f-a and f-b")
	}
	if a.ElementCount() != 3 || b.ElementCount() != 2 {
		t.Fatalf("expected 3+2 element split, got %d+%d", a.ElementCount(), b.ElementCount())
	}

	// Outer tips keep the parent's growth permissions; the new inner tips
	// are fixed.
	if !a.GrowHead || a.GrowTail {
		t.Fatalf("child a growth flags wrong: head=%v tail=%v", a.GrowHead, a.GrowTail)
	}
	if b.GrowHead || !b.GrowTail {
		t.Fatalf("child b growth flags wrong: head=%v tail=%v", b.GrowHead, b.GrowTail)
	}

	// Both children remember the split point.
	if !a.WasBranchedAt(sp.At) || !b.WasBranchedAt(sp.At) {
		t.Fatalf("children must record the branch point")
	}

	if err := out.Validate(); err != nil {
		t.Fatalf("branched snapshot failed validation: %v", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := New(branchConfig())
	snap := &geom.Snapshot{Fractures: []*geom.Fracture{fiveElementFracture()}}

	if _, _, err := e.Apply(snap, shearJumpResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Fractures) != 1 || snap.Fractures[0].Name != "f" {
		t.Fatalf("input snapshot was mutated")
	}
}

func TestApplyBelowThresholdNoSplit(t *testing.T) {
	e := New(branchConfig())
	snap := &geom.Snapshot{Fractures: []*geom.Fracture{fiveElementFracture()}}
	res := &solver.Result{Work: 1, ConditionNumber: 1}
	for i := 0; i < 5; i++ {
		res.Elements = append(res.Elements, solver.ElementStatus{Index: i, Slipped: true, Shear: 0.1})
	}

	_, splits, err := e.Apply(snap, res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(splits) != 0 {
		t.Fatalf("expected no split below S0, got %d", len(splits))
	}
}

func TestApplySkipsShortFractures(t *testing.T) {
	e := New(branchConfig())
	f := fiveElementFracture()
	f.Segments = f.Segments[:3]
	snap := &geom.Snapshot{Fractures: []*geom.Fracture{f}}

	_, splits, err := e.Apply(snap, shearJumpResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(splits) != 0 {
		t.Fatalf("fractures below min_elements must not split, got %d", len(splits))
	}
}

func TestApplyDisabledPassesThrough(t *testing.T) {
	cfg := branchConfig()
	cfg.Enabled = false
	e := New(cfg)
	snap := &geom.Snapshot{Fractures: []*geom.Fracture{fiveElementFracture()}}

	out, splits, err := e.Apply(snap, shearJumpResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != snap || splits != nil {
		t.Fatalf("disabled evaluator must pass the snapshot through")
	}
}
