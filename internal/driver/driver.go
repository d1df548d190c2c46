// Package driver runs the growth loop: per increment it generates candidate
// scenarios, screens them through the intersection corrector, evaluates the
// survivors concurrently, selects the optimum, refines it, applies the
// branching rule and commits the new best snapshot.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fracsim-lab/growth-core/internal/branch"
	"github.com/fracsim-lab/growth-core/internal/correct"
	"github.com/fracsim-lab/growth-core/internal/evaluate"
	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/internal/report"
	"github.com/fracsim-lab/growth-core/internal/scenario"
	"github.com/fracsim-lab/growth-core/internal/selection"
	"github.com/fracsim-lab/growth-core/internal/solver"
	"github.com/fracsim-lab/growth-core/internal/tuner"
	"github.com/fracsim-lab/growth-core/pkg/config"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

// Driver owns the current best snapshot and advances it monotonically,
// increment by increment
type Driver struct {
	cfg      *config.Config
	gen      *scenario.Generator
	corr     *correct.Corrector
	eval     *evaluate.Evaluator
	tuner    *tuner.Tuner
	brancher *branch.Evaluator
	topo     TopographyUpdater
	rep      *report.Report
	logger   *slog.Logger

	best       *geom.Snapshot
	baseline   selection.Baseline
	lastResult *solver.Result
	stalled    map[geom.TipKey]bool
	topoFile   string
	increment  int
	state      State
}

// Summary is the outcome of a completed run
type Summary struct {
	RunID      string
	Increments int
	FinalState State
	FinalWork  float64
	Length     float64
	Fractures  int
}

// New builds a driver from configuration, an initial snapshot and a solver
func New(cfg *config.Config, initial *geom.Snapshot, sol solver.Solver, rep *report.Report) (*Driver, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("invalid initial geometry: %w", err)
	}

	gen := &scenario.Generator{}
	if cfg.Run.Mode == config.ModePointSeed {
		gen.SeedLength = cfg.Run.SeedLength
	}
	corr := correct.New(cfg.Correction)
	eval := evaluate.New(sol, cfg.Search.BatchSize, cfg.Search.Workers)

	return &Driver{
		cfg:      cfg,
		gen:      gen,
		corr:     corr,
		eval:     eval,
		tuner:    tuner.New(gen, corr, eval, cfg.Run.Mode),
		brancher: branch.New(cfg.Branching),
		topo:     NoopTopography{},
		rep:      rep,
		logger:   logger.Default,
		best:     initial,
		stalled:  make(map[geom.TipKey]bool),
		topoFile: cfg.Topography.File,
	}, nil
}

// SetLogger sets the driver's logger and propagates it to the pipeline
func (d *Driver) SetLogger(l *slog.Logger) {
	d.logger = l
	d.corr.SetLogger(l)
	d.eval.SetLogger(l)
	d.tuner.SetLogger(l)
	d.brancher.SetLogger(l)
}

// SetTopographyUpdater replaces the no-op topography collaborator
func (d *Driver) SetTopographyUpdater(t TopographyUpdater) {
	d.topo = t
}

// Best returns the current best snapshot
func (d *Driver) Best() *geom.Snapshot {
	return d.best
}

// State returns the driver's current state
func (d *Driver) State() State {
	return d.state
}

func (d *Driver) setState(s State) {
	d.state = s
	d.logger.Debug("state transition", "increment", d.increment, "state", s.String())
}

func (d *Driver) selectionOptions() selection.Options {
	opts := selection.Options{
		Criterion:             selection.Minimize,
		ConditionMedianFactor: d.cfg.Filters.ConditionMedianFactor,
		WorkMedianFactor:      d.cfg.Filters.WorkMedianFactor,
		SkipSlipCheck:         d.cfg.Filters.DisableSlipCheck,
	}
	if d.cfg.Run.Loading == config.LoadingStress {
		opts.Criterion = selection.Maximize
	}
	if f := d.cfg.Run.Forecast; f != nil && f.Enabled {
		opts.Forecast = &selection.Forecast{PeakFraction: f.PeakFraction}
	}
	return opts
}

// Run executes increments until a terminal state or context cancellation
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	d.rep.Header(d.cfg.Run.Loading, d.cfg.Run.Mode, len(d.best.Fractures))

	for d.increment = 1; d.increment <= d.cfg.Run.MaxIncrements; d.increment++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		state, err := d.runIncrement(ctx)
		if err != nil {
			return nil, fmt.Errorf("increment %d: %w", d.increment, err)
		}
		if ferr := d.rep.Flush(); ferr != nil {
			d.logger.Warn("report flush failed", "error", ferr)
		}
		if state.Terminal() {
			d.setState(state)
			return d.summary(), nil
		}
	}

	d.increment = d.cfg.Run.MaxIncrements
	d.setState(StateMaxIncrements)
	return d.summary(), nil
}

func (d *Driver) summary() *Summary {
	return &Summary{
		RunID:      d.rep.RunID(),
		Increments: d.increment,
		FinalState: d.state,
		FinalWork:  d.baseline.Work,
		Length:     d.best.TotalFractureLength(),
		Fractures:  len(d.best.Fractures),
	}
}

// runIncrement advances the search by one growth increment
func (d *Driver) runIncrement(ctx context.Context) (State, error) {
	d.maybeRecheckStalled()

	tips := d.searchTips()
	if len(tips) == 0 {
		if len(d.best.GrowingTips()) == 0 {
			return StateStoppedNoGrowingTips, nil
		}
		// Every remaining tip is outside the restricted search set; treat
		// as a no-slip stall for this run.
		return StateStalledNoSlip, nil
	}

	d.setState(StatePropagating)
	base := d.best
	opts := d.selectionOptions()

	coarse := scenario.Scenario{}
	cache := make(map[string]*evaluate.Evaluation)
	stalls := make(map[geom.TipKey]error)
	var coarsePick *selection.Picked

	if d.cfg.Run.TipOrdering == config.TipOrderSerial {
		// Serial policy: one tip at a time, each sweep evaluated on its
		// own batch, in fracture order.
		for _, tip := range tips {
			pick, err := d.sweepTips(ctx, base, []geom.TipKey{tip}, cache, stalls, coarse, opts)
			if err != nil {
				return 0, err
			}
			if pick != nil && (coarsePick == nil || strictlyBetter(pick.NormalizedWork, coarsePick.NormalizedWork, opts.Criterion)) {
				coarsePick = pick
			}
		}
	} else {
		pick, err := d.sweepTips(ctx, base, tips, cache, stalls, coarse, opts)
		if err != nil {
			return 0, err
		}
		coarsePick = pick
	}

	d.setState(StateSelecting)
	if len(coarse) == 0 {
		return d.stallState(stalls), nil
	}

	// Commit the coarse optimum.
	committedSnap, committedRes, coarseNorm, err := d.commit(ctx, base, coarse, coarsePick, cache)
	if err != nil {
		return 0, err
	}

	// Tuning pass around the coarse optimum.
	d.setState(StateTuning)
	tuned, err := d.tuner.Refine(ctx, base, coarse, cache, d.cfg.Search.IncrementAngle, d.baseline, opts, coarseNorm)
	if err != nil {
		return 0, err
	}
	if tuned.Improved {
		snap, res, norm, err := d.commit(ctx, base, tuned.Scenario, tuned.Best, cache)
		if err != nil {
			return 0, err
		}
		committedSnap, committedRes, coarseNorm = snap, res, norm
	}

	// Branching pass on the committed geometry.
	d.setState(StateBranching)
	branched, splits, err := d.brancher.Apply(committedSnap, committedRes)
	if err != nil {
		return 0, err
	}
	if len(splits) > 0 {
		for _, sp := range splits {
			d.rep.Branch(d.increment, sp.Parent, sp.Children[:])
		}
		committedSnap = branched
	}

	// Commit the increment atomically: best, baseline and last result
	// advance together.
	prev := d.best
	d.best = committedSnap

	// Tips that produced no productive scenario stop growing; they may be
	// rechecked later. The flags are cleared on the committed snapshot so
	// the trial pipeline never saw a mutated base.
	for tip, serr := range stalls {
		if isStall(serr) {
			if f := d.best.FractureByName(tip.Fracture); f != nil {
				f.SetGrowing(tip.End, false)
			}
			d.stalled[tip] = true
			d.logger.Info("tip stalled", "tip", tip.String(), "reason", selection.Describe(serr))
		}
	}
	d.baseline = selection.Baseline{
		Work:   committedRes.Work,
		Length: committedSnap.TotalFractureLength(),
	}
	d.lastResult = committedRes

	if d.cfg.Topography.Enabled {
		updated, terr := d.topo.Update(ctx, prev, d.best, d.topoFile)
		if terr != nil {
			return 0, fmt.Errorf("topography update failed: %w", terr)
		}
		d.topoFile = updated
	}

	d.rep.Increment(d.increment, StatePropagating.String(), d.baseline.Work, d.baseline.Length, len(d.best.GrowingTips()))
	d.logger.Info("increment committed",
		"increment", d.increment,
		"work", d.baseline.Work,
		"normalized_work", coarseNorm,
		"length", d.baseline.Length,
		"growing_tips", len(d.best.GrowingTips()))

	if len(d.best.GrowingTips()) == 0 && len(d.stalled) == 0 {
		return StateStoppedNoGrowingTips, nil
	}
	return StatePropagating, nil
}

// sweepTips runs the coarse angle sweep for the given tips against base.
// Picks are written into coarse; stalls into stalls. Returns the best pick
// across the swept tips.
func (d *Driver) sweepTips(ctx context.Context, base *geom.Snapshot, tips []geom.TipKey, cache map[string]*evaluate.Evaluation, stalls map[geom.TipKey]error, coarse scenario.Scenario, opts selection.Options) (*selection.Picked, error) {
	ranges := make(map[geom.TipKey]scenario.AngleRange, len(tips))
	for _, tip := range tips {
		ranges[tip] = scenario.AngleRange{
			Start: d.cfg.Search.StartAngle,
			End:   d.cfg.Search.EndAngle,
			Inc:   d.cfg.Search.IncrementAngle,
		}
	}

	trials, err := d.gen.Trials(base, ranges)
	if err != nil {
		return nil, err
	}

	okTrials, corrections, rejected, err := evaluate.Screen(d.corr, trials)
	if err != nil {
		return nil, err
	}
	for _, res := range corrections {
		for _, rec := range res.Records {
			d.rep.Correction(d.increment, rec)
		}
	}
	for _, ev := range rejected {
		d.rep.Discard(d.increment, ev.Trial.PrimaryTip.String(), ev.Trial.Angle, "self_intersection")
	}

	d.setState(StateEvaluating)
	evals, err := d.eval.EvaluateAll(ctx, okTrials, d.cfg.Run.Mode)
	if err != nil {
		return nil, err
	}
	for _, ev := range evals {
		if ev != nil {
			cache[ev.Trial.Scenario.Signature()] = ev
		}
	}
	if ferr := d.rep.Flush(); ferr != nil {
		d.logger.Warn("report flush failed", "error", ferr)
	}

	all := append(append([]*evaluate.Evaluation{}, rejected...), evals...)

	var best *selection.Picked
	for _, tip := range tips {
		subset := filterByTip(all, tip)
		d.reportSweep(tip, subset)
		pick, perr := selection.Pick(subset, d.baseline, opts)
		if perr != nil {
			if isStall(perr) {
				stalls[tip] = perr
				continue
			}
			return nil, perr
		}
		coarse[tip] = pick.Angle
		if best == nil || strictlyBetter(pick.NormalizedWork, best.NormalizedWork, opts.Criterion) {
			best = pick
		}
	}
	return best, nil
}

// commit turns a selected scenario into the evaluated snapshot that becomes
// the next baseline. A pick or cached evaluation carrying this exact scenario
// is reused; anything else rebuilds the combined geometry, runs the solver
// once and caches the evaluation so the tuning bands never re-run it.
func (d *Driver) commit(ctx context.Context, base *geom.Snapshot, sc scenario.Scenario, pick *selection.Picked, cache map[string]*evaluate.Evaluation) (*geom.Snapshot, *solver.Result, float64, error) {
	sig := sc.Signature()
	if pick != nil && !pick.Interpolated && pick.Eval.Trial.Scenario.Signature() == sig {
		return pick.Eval.Trial.Snapshot, pick.Eval.Result, pick.NormalizedWork, nil
	}
	if ev, ok := cache[sig]; ok && ev.Err == nil && ev.Result != nil {
		return ev.Trial.Snapshot, ev.Result, selection.NormalizedWork(ev, d.baseline), nil
	}

	var primary geom.TipKey
	for tip := range sc {
		primary = tip
		break
	}
	trial, err := d.gen.BuildTrial(base, sc, primary)
	if err != nil {
		return nil, nil, 0, err
	}
	okTrials, _, _, err := evaluate.Screen(d.corr, []*scenario.Trial{trial})
	if err != nil {
		return nil, nil, 0, err
	}
	if len(okTrials) == 0 {
		return nil, nil, 0, fmt.Errorf("committed scenario became unresolvable after correction")
	}
	evals, err := d.eval.EvaluateAll(ctx, okTrials, d.cfg.Run.Mode)
	if err != nil {
		return nil, nil, 0, err
	}
	ev := evals[0]
	if ev == nil || ev.Err != nil {
		return nil, nil, 0, fmt.Errorf("failed to evaluate committed scenario: %v", evalErr(ev))
	}
	cache[sig] = ev
	norm := selection.NormalizedWork(ev, d.baseline)
	return ev.Trial.Snapshot, ev.Result, norm, nil
}

func evalErr(ev *evaluate.Evaluation) error {
	if ev == nil {
		return fmt.Errorf("missing evaluation")
	}
	return ev.Err
}

// reportSweep writes the per-trial report lines and the optional profile
// plot for one tip's sweep
func (d *Driver) reportSweep(tip geom.TipKey, evals []*evaluate.Evaluation) {
	type sample struct {
		angle float64
		norm  float64
	}
	var samples []sample
	for _, ev := range evals {
		if ev == nil || ev.Trial == nil {
			continue
		}
		if ev.Result == nil {
			continue
		}
		norm := selection.NormalizedWork(ev, d.baseline)
		note := ""
		if !ev.NewElementActivated() {
			note = "no_slip"
		}
		d.rep.Trial(d.increment, tip.String(), ev.Trial.Angle, ev.Result.Work, norm, ev.Result.ConditionNumber, note)
		samples = append(samples, sample{angle: ev.Trial.Angle, norm: norm})
	}
	if len(samples) > 1 {
		sort.Slice(samples, func(i, j int) bool { return samples[i].angle < samples[j].angle })
		angles := make([]float64, len(samples))
		norms := make([]float64, len(samples))
		for i, s := range samples {
			angles[i] = s.angle
			norms[i] = s.norm
		}
		if err := d.rep.Profile(d.increment, tip.String(), angles, norms); err != nil {
			d.logger.Warn("profile plot failed", "tip", tip.String(), "error", err)
		}
	}
}

// searchTips returns the tips to sweep this increment, honoring the
// high-stress restriction when enabled
func (d *Driver) searchTips() []geom.TipKey {
	tips := d.best.GrowingTips()
	if !d.cfg.Run.HighStressTipsOnly || d.lastResult == nil {
		return tips
	}
	var out []geom.TipKey
	for _, tip := range tips {
		f := d.best.FractureByName(tip.Fracture)
		idx, err := d.best.GlobalElementIndex(tip.Fracture, f.TipSegmentIndex(tip.End))
		if err != nil {
			continue
		}
		if d.lastResult.Activated(idx) {
			out = append(out, tip)
		}
	}
	return out
}

// maybeRecheckStalled re-enables previously stalled tips on the configured
// cadence
func (d *Driver) maybeRecheckStalled() {
	every := d.cfg.Run.RecheckStalledEvery
	if every <= 0 || len(d.stalled) == 0 || d.increment%every != 0 {
		return
	}
	for tip := range d.stalled {
		if f := d.best.FractureByName(tip.Fracture); f != nil {
			f.SetGrowing(tip.End, true)
			d.logger.Info("rechecking stalled tip", "tip", tip.String())
		}
		delete(d.stalled, tip)
	}
}

// stallState maps an all-tips-stalled increment to its terminal state
func (d *Driver) stallState(stalls map[geom.TipKey]error) State {
	if len(stalls) == 0 {
		return StateStoppedNoGrowingTips
	}
	allSelf := true
	for _, err := range stalls {
		if !errors.Is(err, selection.ErrAllSelfIntersect) {
			allSelf = false
			break
		}
	}
	if allSelf {
		d.rep.Increment(d.increment, StateStalledSelfIntersection.String(), WorkSentinelSelfIntersect, d.baseline.Length, 0)
		return StateStalledSelfIntersection
	}
	d.rep.Increment(d.increment, StateStalledNoSlip.String(), WorkSentinelNoSlip, d.baseline.Length, 0)
	return StateStalledNoSlip
}

// filterByTip keeps the evaluations whose trial extends the given tip
func filterByTip(evals []*evaluate.Evaluation, tip geom.TipKey) []*evaluate.Evaluation {
	var out []*evaluate.Evaluation
	for _, ev := range evals {
		if ev != nil && ev.Trial != nil && ev.Trial.PrimaryTip == tip {
			out = append(out, ev)
		}
	}
	return out
}

func isStall(err error) bool {
	return errors.Is(err, selection.ErrNoCandidates) ||
		errors.Is(err, selection.ErrNoSlip) ||
		errors.Is(err, selection.ErrAllSelfIntersect)
}

func strictlyBetter(a, b float64, c selection.Criterion) bool {
	if c == selection.Maximize {
		return a > b
	}
	return a < b
}
