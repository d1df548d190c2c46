// Package selection picks the energetically optimal scenario from one batch
// of evaluations: it discards non-slipping candidates, filters statistical
// outliers in solver condition number and external work, then minimizes or
// maximizes normalized work depending on the loading type.
package selection

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fracsim-lab/growth-core/internal/evaluate"
	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/pkg/utils"
)

// Criterion is the optimization direction, fixed for a whole run by the
// loading type
type Criterion int

const (
	// Minimize normalized work (displacement-driven loading)
	Minimize Criterion = iota
	// Maximize normalized work (stress-driven loading)
	Maximize
)

// Stall sentinels. These are normal termination signals for the driving
// loop, not process failures.
var (
	// ErrNoCandidates means no scenario survived evaluation and filtering
	ErrNoCandidates = errors.New("no productive scenario")
	// ErrNoSlip means candidates were evaluated but none activated its new
	// element
	ErrNoSlip = errors.New("no candidate slipped")
	// ErrAllSelfIntersect means every candidate was rejected by the
	// intersection corrector
	ErrAllSelfIntersect = errors.New("all candidates intersect self")
)

// Baseline carries the previous increment's committed work and total
// fracture length for normalization
type Baseline struct {
	Work   float64
	Length float64
}

// Forecast configures the interpolated-angle mode that replaces the
// absolute-optimum pick
type Forecast struct {
	PeakFraction float64
}

// Options configures one selection pass
type Options struct {
	Criterion             Criterion
	ConditionMedianFactor float64
	WorkMedianFactor      float64
	SkipSlipCheck         bool
	Forecast              *Forecast
}

// Picked is the selected scenario
type Picked struct {
	Eval           *evaluate.Evaluation
	NormalizedWork float64
	// Angle is the selected growth angle. In forecast mode it may fall
	// between two sampled angles; Interpolated is set in that case and
	// Eval is the nearer bracketing sample.
	Angle        float64
	Interpolated bool
}

// Pick selects the optimal scenario from one batch of evaluations.
// The stall sentinels distinguish "everything self-intersected" from "nothing
// slipped" from "nothing survived filtering".
func Pick(evals []*evaluate.Evaluation, base Baseline, opts Options) (*Picked, error) {
	if len(evals) == 0 {
		return nil, ErrNoCandidates
	}

	valid := make([]*evaluate.Evaluation, 0, len(evals))
	selfIntersected := 0
	for _, ev := range evals {
		if ev == nil {
			continue
		}
		if ev.SelfIntersected {
			selfIntersected++
			continue
		}
		if ev.Err != nil || ev.Result == nil {
			continue
		}
		valid = append(valid, ev)
	}
	if len(valid) == 0 {
		if selfIntersected == countNonNil(evals) {
			return nil, ErrAllSelfIntersect
		}
		return nil, ErrNoCandidates
	}

	// Step 1: non-slipping candidates are not productive growth.
	if !opts.SkipSlipCheck {
		slipping := valid[:0]
		for _, ev := range valid {
			if ev.NewElementActivated() {
				slipping = append(slipping, ev)
			}
		}
		if len(slipping) == 0 {
			return nil, ErrNoSlip
		}
		valid = slipping
	}

	// Step 3: numerically unstable solves, judged against the batch median
	// condition number.
	conds := make([]float64, len(valid))
	for i, ev := range valid {
		conds[i] = ev.Result.ConditionNumber
	}
	condMedian := utils.Median(conds)
	stable := valid[:0]
	for _, ev := range valid {
		if ev.Result.ConditionNumber <= opts.ConditionMedianFactor*condMedian {
			stable = append(stable, ev)
		}
	}
	valid = stable
	if len(valid) == 0 {
		return nil, ErrNoCandidates
	}

	// Step 4: work outliers and negative work.
	works := make([]float64, len(valid))
	for i, ev := range valid {
		works[i] = ev.Result.Work
	}
	workMedian := utils.Median(works)
	kept := valid[:0]
	for _, ev := range valid {
		w := ev.Result.Work
		if w < 0 || w > opts.WorkMedianFactor*workMedian {
			continue
		}
		kept = append(kept, ev)
	}
	valid = kept
	if len(valid) == 0 {
		return nil, ErrNoCandidates
	}

	// Deterministic ordering: ties in normalized work break by candidate
	// angle ascending.
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Trial.Angle < valid[j].Trial.Angle
	})

	norms := make([]float64, len(valid))
	for i, ev := range valid {
		norms[i] = NormalizedWork(ev, base)
	}

	if opts.Forecast != nil {
		return forecastPick(valid, norms, opts)
	}

	bestIdx := 0
	for i := 1; i < len(valid); i++ {
		if better(norms[i], norms[bestIdx], opts.Criterion) {
			bestIdx = i
		}
	}
	return &Picked{
		Eval:           valid[bestIdx],
		NormalizedWork: norms[bestIdx],
		Angle:          valid[bestIdx].Trial.Angle,
	}, nil
}

// NormalizedWork is the work delta per unit newly added fracture length.
// When the length delta vanishes the area normalization is undefined and the
// raw work delta is used instead.
func NormalizedWork(ev *evaluate.Evaluation, base Baseline) float64 {
	dW := ev.Result.Work - base.Work
	dL := ev.Trial.Snapshot.TotalFractureLength() - base.Length
	if math.Abs(dL) < geom.Eps {
		return dW
	}
	return dW / dL
}

func better(a, b float64, c Criterion) bool {
	if c == Maximize {
		return a > b
	}
	return a < b
}

// forecastPick replaces the absolute-optimum pick with a linear
// interpolation of the angle at PeakFraction of the peak normalized work,
// between the two bracketing sampled angles. Candidates must already be
// sorted by angle.
func forecastPick(valid []*evaluate.Evaluation, norms []float64, opts Options) (*Picked, error) {
	if len(valid) == 1 {
		return &Picked{Eval: valid[0], NormalizedWork: norms[0], Angle: valid[0].Trial.Angle}, nil
	}

	peakIdx := 0
	for i := 1; i < len(norms); i++ {
		if better(norms[i], norms[peakIdx], opts.Criterion) {
			peakIdx = i
		}
	}
	target := norms[peakIdx] * opts.Forecast.PeakFraction

	for i := 0; i+1 < len(norms); i++ {
		lo, hi := norms[i], norms[i+1]
		if (target-lo)*(target-hi) > 0 {
			continue
		}
		if math.Abs(hi-lo) < geom.Eps {
			continue
		}
		t := (target - lo) / (hi - lo)
		angle := valid[i].Trial.Angle + t*(valid[i+1].Trial.Angle-valid[i].Trial.Angle)
		nearer := i
		if t > 0.5 {
			nearer = i + 1
		}
		return &Picked{
			Eval:           valid[nearer],
			NormalizedWork: target,
			Angle:          angle,
			Interpolated:   true,
		}, nil
	}

	// No bracketing pair: fall back to the peak sample itself.
	return &Picked{
		Eval:           valid[peakIdx],
		NormalizedWork: norms[peakIdx],
		Angle:          valid[peakIdx].Trial.Angle,
	}, nil
}

func countNonNil(evals []*evaluate.Evaluation) int {
	n := 0
	for _, ev := range evals {
		if ev != nil {
			n++
		}
	}
	return n
}

// Describe formats a stall sentinel for reporting
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrAllSelfIntersect):
		return "stalled: all candidates intersect self"
	case errors.Is(err, ErrNoSlip):
		return "stalled: no candidate slipped"
	case errors.Is(err, ErrNoCandidates):
		return "stalled: no productive scenario"
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
