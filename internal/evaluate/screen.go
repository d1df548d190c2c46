package evaluate

import (
	"github.com/fracsim-lab/growth-core/internal/correct"
	"github.com/fracsim-lab/growth-core/internal/scenario"
)

// Screen runs the intersection corrector over every grown tip of every trial
// before evaluation. Trials with fatal or unresolvable geometry come back as
// rejected evaluations so the selector can distinguish an all-self-intersect
// stall; surviving trials carry their (possibly rewritten) snapshots.
// Corrections are returned keyed by trial ID.
func Screen(corr *correct.Corrector, trials []*scenario.Trial) (ok []*scenario.Trial, corrections map[string]*correct.Result, rejected []*Evaluation, err error) {
	corrections = make(map[string]*correct.Result)
	for _, trial := range trials {
		fatal := false
		for _, tip := range trial.GrownTips {
			res, cerr := corr.Check(trial.Snapshot, tip)
			if cerr != nil {
				return nil, nil, nil, cerr
			}
			switch res.Outcome {
			case correct.SelfIntersection, correct.Unresolvable:
				rejected = append(rejected, &Evaluation{Trial: trial, SelfIntersected: true})
				fatal = true
			case correct.Corrected:
				corrections[trial.ID] = res
			}
			if fatal {
				break
			}
		}
		if !fatal {
			ok = append(ok, trial)
		}
	}
	return ok, corrections, rejected, nil
}
