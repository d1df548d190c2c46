// Package branch applies the post-hoc Coulomb-stress branching rule: a grown
// fault whose interior loading gradient exceeds the material strength S0 at
// some node is split there into two independently tracked fractures.
package branch

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/internal/solver"
	"github.com/fracsim-lab/growth-core/pkg/config"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

// Evaluator scans committed snapshots for branch points
type Evaluator struct {
	cfg    config.BranchConfig
	logger *slog.Logger
}

// New creates a branch evaluator
func New(cfg config.BranchConfig) *Evaluator {
	return &Evaluator{cfg: cfg, logger: logger.Default}
}

// SetLogger sets the evaluator's logger
func (e *Evaluator) SetLogger(l *slog.Logger) {
	e.logger = l
}

// Split records one applied branch
type Split struct {
	Parent   string
	Children [2]string
	At       geom.Point
}

// Apply scans every fracture of the snapshot and splits at most one node per
// fracture: the node with the largest Coulomb stress difference, provided it
// exceeds S0. A new snapshot is returned; the input is not mutated.
func (e *Evaluator) Apply(snap *geom.Snapshot, res *solver.Result) (*geom.Snapshot, []Split, error) {
	if !e.cfg.Enabled {
		return snap, nil, nil
	}

	out := snap.Clone()
	var splits []Split
	// Iterate the original fracture list; splits append to out.Fractures
	// and must not be re-scanned within the same pass.
	nOrig := len(out.Fractures)
	for fi := 0; fi < nOrig; fi++ {
		f := out.Fractures[fi]
		if f.ElementCount() < e.cfg.MinElements {
			continue
		}
		nodeIdx, excess, err := e.maxCoulombNode(snap, f, res)
		if err != nil {
			return nil, nil, err
		}
		if nodeIdx < 0 || excess <= e.cfg.S0 {
			continue
		}
		a, b := splitFracture(f, nodeIdx)
		out.Fractures[fi] = a
		out.Fractures = append(out.Fractures, b)
		splits = append(splits, Split{
			Parent:   f.Name,
			Children: [2]string{a.Name, b.Name},
			At:       f.Segments[nodeIdx].Tail,
		})
		e.logger.Info("fracture branched",
			"fracture", f.Name,
			"node", nodeIdx,
			"coulomb_excess", excess,
			"children", []string{a.Name, b.Name})
	}
	return out, splits, nil
}

// maxCoulombNode returns the interior node index (the node between elements
// nodeIdx and nodeIdx+1) carrying the largest Coulomb stress difference, and
// that value. Nodes recorded as previous branch points are skipped. Returns
// -1 when no candidate node exists.
func (e *Evaluator) maxCoulombNode(snap *geom.Snapshot, f *geom.Fracture, res *solver.Result) (int, float64, error) {
	bestIdx := -1
	bestVal := math.Inf(-1)
	for i := 0; i+1 < len(f.Segments); i++ {
		node := f.Segments[i].Tail
		if f.WasBranchedAt(node) {
			continue
		}
		gi, err := snap.GlobalElementIndex(f.Name, i)
		if err != nil {
			return 0, 0, err
		}
		stA, okA := res.Status(gi)
		stB, okB := res.Status(gi + 1)
		if !okA || !okB {
			return 0, 0, fmt.Errorf("fracture %s: solver result missing stresses for elements %d..%d", f.Name, gi, gi+1)
		}
		cs := e.coulomb(stA, stB)
		if cs > bestVal {
			bestVal = cs
			bestIdx = i
		}
	}
	return bestIdx, bestVal, nil
}

// coulomb is the Coulomb stress difference across a node, formed from the
// adjacent elements' shear and normal loading gradients. The coefficients
// are case-specific material constants supplied by configuration.
func (e *Evaluator) coulomb(a, b solver.ElementStatus) float64 {
	dShear := math.Abs(b.Shear - a.Shear)
	dNormal := b.Normal - a.Normal
	return e.cfg.ShearCoeff*dShear - e.cfg.NormalCoeff*dNormal
}

// splitFracture cuts f at the node between elements nodeIdx and nodeIdx+1.
// The outer tips keep the parent's growth permissions; the new inner tips are
// fixed. Both children record the split point so it is never split again.
func splitFracture(f *geom.Fracture, nodeIdx int) (*geom.Fracture, *geom.Fracture) {
	node := f.Segments[nodeIdx].Tail

	a := &geom.Fracture{
		Name:     f.Name + "-a",
		Segments: append([]geom.Segment(nil), f.Segments[:nodeIdx+1]...),
		GrowHead: f.GrowHead,
		GrowTail: false,
		Seeded:   f.Seeded,
	}
	b := &geom.Fracture{
		Name:     f.Name + "-b",
		Segments: append([]geom.Segment(nil), f.Segments[nodeIdx+1:]...),
		GrowHead: false,
		GrowTail: f.GrowTail,
		Seeded:   f.Seeded,
	}
	a.BranchedAt = append(append([]geom.Point(nil), f.BranchedAt...), node)
	b.BranchedAt = append(append([]geom.Point(nil), f.BranchedAt...), node)
	return a, b
}
