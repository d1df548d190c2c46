// Package evaluate runs solver evaluations for batches of trial snapshots on
// a bounded worker pool. Results are collected only after a whole batch has
// finished; a failed worker is recorded as a missing result and never cancels
// its siblings.
package evaluate

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fracsim-lab/growth-core/internal/scenario"
	"github.com/fracsim-lab/growth-core/internal/solver"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

// Evaluation pairs one trial with its solver result. Err is set for trials
// the solver failed on; SelfIntersected marks trials the corrector rejected
// before they ever reached the solver.
type Evaluation struct {
	Trial           *scenario.Trial
	Result          *solver.Result
	Err             error
	SelfIntersected bool
}

// NewElementActivated reports whether every newly added element of the trial
// slipped or opened in the final loading step
func (e *Evaluation) NewElementActivated() bool {
	if e.Result == nil {
		return false
	}
	for _, idx := range e.Trial.NewElements {
		if !e.Result.Activated(idx) {
			return false
		}
	}
	return true
}

// Evaluator dispatches trials to the solver in bounded batches
type Evaluator struct {
	solver    solver.Solver
	batchSize int
	workers   int
	logger    *slog.Logger
}

// New creates an evaluator. batchSize defaults to 16 and workers to the
// batch size when non-positive.
func New(s solver.Solver, batchSize, workers int) *Evaluator {
	if batchSize <= 0 {
		batchSize = 16
	}
	if workers <= 0 {
		workers = batchSize
	}
	return &Evaluator{
		solver:    s,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger.Default,
	}
}

// SetLogger sets the evaluator's logger
func (e *Evaluator) SetLogger(l *slog.Logger) {
	e.logger = l
}

// EvaluateAll evaluates every trial, batch by batch, waiting for each batch
// to drain before starting the next. Only infrastructure failures and context
// cancellation abort the sweep.
func (e *Evaluator) EvaluateAll(ctx context.Context, trials []*scenario.Trial, mode string) ([]*Evaluation, error) {
	evals := make([]*Evaluation, len(trials))
	for start := 0; start < len(trials); start += e.batchSize {
		end := start + e.batchSize
		if end > len(trials) {
			end = len(trials)
		}
		if err := e.evaluateBatch(ctx, trials[start:end], evals[start:end], mode); err != nil {
			return nil, err
		}
	}
	return evals, nil
}

// evaluateBatch runs one batch through the worker pool and waits for all
// workers before returning
func (e *Evaluator) evaluateBatch(ctx context.Context, trials []*scenario.Trial, out []*Evaluation, mode string) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, trial := range trials {
		i, trial := i, trial
		g.Go(func() error {
			res, err := e.solver.Evaluate(gCtx, trial.Snapshot, mode)
			if err != nil {
				// Infrastructure failures abort the whole run; a
				// per-trial failure is just a missing result.
				if errors.Is(err, solver.ErrInfrastructure) {
					return err
				}
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				e.logger.Warn("trial evaluation failed",
					"trial", trial.ID,
					"tip", trial.PrimaryTip.String(),
					"angle", trial.Angle,
					"error", err)
				out[i] = &Evaluation{Trial: trial, Err: err}
				return nil
			}
			out[i] = &Evaluation{Trial: trial, Result: res}
			return nil
		})
	}

	// Barrier: partial-batch results are never consumed.
	return g.Wait()
}
