// Package scenario enumerates candidate growth scenarios: for each growing
// fracture tip and each candidate angle it derives one trial snapshot from a
// base snapshot by appending a single new element at that tip.
package scenario

import (
	"fmt"
	"math"

	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/pkg/utils"
)

// AngleRange is a half-open sweep [Start, End) sampled every Inc degrees
type AngleRange struct {
	Start float64
	End   float64
	Inc   float64
}

// Angles returns exactly ceil((End-Start)/Inc) values, each in [Start, End),
// in ascending order
func (r AngleRange) Angles() []float64 {
	if r.Inc <= 0 || r.End <= r.Start {
		return nil
	}
	// The small bias keeps an evenly dividing range from picking up an extra
	// value through float rounding.
	n := int(math.Ceil((r.End-r.Start)/r.Inc - geom.Eps))
	angles := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		angles = append(angles, r.Start+float64(i)*r.Inc)
	}
	return angles
}

// Scenario maps each grown tip to its proposed growth angle in degrees,
// measured in the global frame
type Scenario map[geom.TipKey]float64

// Trial is one candidate geometry derived from a base snapshot
type Trial struct {
	ID          string
	Scenario    Scenario
	Snapshot    *geom.Snapshot
	GrownTips   []geom.TipKey
	NewElements []int // global element indices of the newly added elements
	AddedLength float64
	// PrimaryTip and Angle identify the candidate axis of this trial; ties in
	// the selector break by Angle ascending.
	PrimaryTip geom.TipKey
	Angle      float64
}

// Generator builds trial snapshots. SeedLength sets the new-element length
// for point-seeded cracks; every other fracture inherits the preceding
// element's length.
type Generator struct {
	SeedLength float64
}

// growthOffset converts a global-frame angle and length to a coordinate
// offset. The vertical cases carry an infinite slope and are handled
// explicitly so the x offset is exactly zero.
func growthOffset(angleDeg, length float64) geom.Point {
	a := math.Mod(angleDeg, 360)
	if a < 0 {
		a += 360
	}
	switch a {
	case 90:
		return geom.Point{X: 0, Y: length}
	case 270:
		return geom.Point{X: 0, Y: -length}
	}
	rad := a * math.Pi / 180
	return geom.Point{X: length * math.Cos(rad), Y: length * math.Sin(rad)}
}

// BuildTrial derives one trial snapshot by growing every tip named in sc by
// one element at its proposed angle. The base snapshot is never mutated.
func (g *Generator) BuildTrial(base *geom.Snapshot, sc Scenario, primary geom.TipKey) (*Trial, error) {
	if len(sc) == 0 {
		return nil, fmt.Errorf("empty scenario")
	}
	if _, ok := sc[primary]; !ok {
		return nil, fmt.Errorf("primary tip %s not in scenario", primary)
	}

	snap := base.Clone()
	trial := &Trial{
		ID:         utils.GenerateTrialID(),
		Scenario:   sc,
		Snapshot:   snap,
		PrimaryTip: primary,
		Angle:      sc[primary],
	}

	// Grow tips in snapshot fracture order so trial construction is
	// deterministic regardless of map iteration.
	for _, tip := range base.GrowingTips() {
		angle, ok := sc[tip]
		if !ok {
			continue
		}
		f := snap.FractureByName(tip.Fracture)
		if f == nil {
			return nil, fmt.Errorf("scenario references unknown fracture %s", tip.Fracture)
		}
		if !f.Growing(tip.End) {
			return nil, fmt.Errorf("tip %s is not growing", tip)
		}

		prev := f.TipSegment(tip.End)
		length := prev.Length()
		if g.SeedLength > 0 && f.Seeded {
			length = g.SeedLength
		}

		tipPt := f.TipPoint(tip.End)
		far := tipPt.Add(growthOffset(angle, length))

		seg := geom.Segment{
			Elements: prev.Elements,
			Friction: prev.Friction,
			Cohesion: prev.Cohesion,
		}
		if tip.End == geom.TipHead {
			seg.Head = far
			seg.Tail = tipPt
		} else {
			seg.Head = tipPt
			seg.Tail = far
		}
		if err := f.Grow(tip.End, seg); err != nil {
			return nil, err
		}
		trial.GrownTips = append(trial.GrownTips, tip)
		trial.AddedLength += seg.Length()
	}

	// Element indices are assigned only after all tips have grown: a head
	// prepend shifts every later index within the fracture.
	for _, tip := range trial.GrownTips {
		f := snap.FractureByName(tip.Fracture)
		idx, err := snap.GlobalElementIndex(tip.Fracture, f.TipSegmentIndex(tip.End))
		if err != nil {
			return nil, err
		}
		trial.NewElements = append(trial.NewElements, idx)
	}

	// Verify the grown tips did not violate scenario coverage.
	if len(trial.GrownTips) != len(sc) {
		return nil, fmt.Errorf("scenario names %d tips but %d grew; a named tip is unknown or fixed", len(sc), len(trial.GrownTips))
	}

	return trial, nil
}

// Trials enumerates single-tip trials: one per (tip, angle) pair, tips in
// snapshot order, angles ascending
func (g *Generator) Trials(base *geom.Snapshot, ranges map[geom.TipKey]AngleRange) ([]*Trial, error) {
	var trials []*Trial
	for _, tip := range base.GrowingTips() {
		r, ok := ranges[tip]
		if !ok {
			continue
		}
		for _, angle := range r.Angles() {
			t, err := g.BuildTrial(base, Scenario{tip: angle}, tip)
			if err != nil {
				return nil, fmt.Errorf("tip %s angle %.2f: %w", tip, angle, err)
			}
			trials = append(trials, t)
		}
	}
	return trials, nil
}
