// Package tuner refines a coarse optimum: for each tip it re-runs the
// generate-correct-evaluate-select pipeline on a narrow 3-point angle band
// around the tip's coarse optimum, holding every other tip fixed.
package tuner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fracsim-lab/growth-core/internal/correct"
	"github.com/fracsim-lab/growth-core/internal/evaluate"
	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/internal/scenario"
	"github.com/fracsim-lab/growth-core/internal/selection"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

// Tuner refines per-tip growth angles around a coarse optimum
type Tuner struct {
	gen    *scenario.Generator
	corr   *correct.Corrector
	eval   *evaluate.Evaluator
	mode   string
	logger *slog.Logger
}

// New creates a tuner sharing the driver's pipeline components
func New(gen *scenario.Generator, corr *correct.Corrector, eval *evaluate.Evaluator, mode string) *Tuner {
	return &Tuner{
		gen:    gen,
		corr:   corr,
		eval:   eval,
		mode:   mode,
		logger: logger.Default,
	}
}

// SetLogger sets the tuner's logger
func (t *Tuner) SetLogger(l *slog.Logger) {
	t.logger = l
}

// Result is the tuned scenario and the evaluation backing it. Best is nil
// when no tuning band improved on the coarse optimum.
type Result struct {
	Scenario scenario.Scenario
	Best     *selection.Picked
	Improved bool
}

// Refine tunes each tip of the coarse scenario in turn. base is the
// pre-growth snapshot; cache maps scenario signatures to already-evaluated
// coarse candidates so the band's center point is never re-run; coarseInc is
// the coarse sweep increment (the band half-width is half of it); coarseBest
// is the normalized work of the committed coarse optimum.
func (t *Tuner) Refine(ctx context.Context, base *geom.Snapshot, coarse scenario.Scenario, cache map[string]*evaluate.Evaluation, coarseInc float64, baseStats selection.Baseline, opts selection.Options, coarseBest float64) (*Result, error) {
	delta := coarseInc / 2
	final := coarse.Clone()
	var best *selection.Picked
	bestNorm := coarseBest
	improved := false

	for _, tip := range base.GrowingTips() {
		center, ok := final[tip]
		if !ok {
			continue
		}

		var evals []*evaluate.Evaluation
		var toRun []*scenario.Trial
		for _, angle := range []float64{center - delta, center, center + delta} {
			sc := final.Clone()
			sc[tip] = angle
			if cached, ok := cache[sc.Signature()]; ok {
				evals = append(evals, cached)
				continue
			}
			trial, err := t.gen.BuildTrial(base, sc, tip)
			if err != nil {
				return nil, err
			}
			toRun = append(toRun, trial)
		}

		okTrials, _, rejected, err := evaluate.Screen(t.corr, toRun)
		if err != nil {
			return nil, err
		}
		evals = append(evals, rejected...)

		run, err := t.eval.EvaluateAll(ctx, okTrials, t.mode)
		if err != nil {
			return nil, err
		}
		for _, ev := range run {
			if ev != nil {
				cache[ev.Trial.Scenario.Signature()] = ev
			}
		}
		evals = append(evals, run...)

		pick, err := selection.Pick(evals, baseStats, opts)
		if err != nil {
			// A stalled tuning band leaves the coarse optimum standing.
			if errors.Is(err, selection.ErrNoCandidates) ||
				errors.Is(err, selection.ErrNoSlip) ||
				errors.Is(err, selection.ErrAllSelfIntersect) {
				t.logger.Debug("tuning band stalled, keeping coarse optimum",
					"tip", tip.String(), "reason", selection.Describe(err))
				continue
			}
			return nil, err
		}

		// Replace the coarse angle only on strict improvement.
		if strictlyBetter(pick.NormalizedWork, bestNorm, opts.Criterion) {
			final[tip] = pick.Angle
			best = pick
			bestNorm = pick.NormalizedWork
			improved = true
			t.logger.Info("tuned tip",
				"tip", tip.String(),
				"angle", pick.Angle,
				"normalized_work", pick.NormalizedWork)
		}
	}

	return &Result{Scenario: final, Best: best, Improved: improved}, nil
}

func strictlyBetter(a, b float64, c selection.Criterion) bool {
	if c == selection.Maximize {
		return a > b
	}
	return a < b
}
