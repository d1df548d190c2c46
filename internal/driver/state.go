package driver

import "fmt"

// State is the driver's position in the per-increment cycle, or a terminal
// exit
type State int

const (
	StatePropagating State = iota
	StateEvaluating
	StateSelecting
	StateTuning
	StateBranching
	// StateStalledSelfIntersection: every remaining candidate
	// self-intersected (work sentinel 0)
	StateStalledSelfIntersection
	// StateStalledNoSlip: no candidate activated its new element (work
	// sentinel -1)
	StateStalledNoSlip
	// StateStoppedNoGrowingTips: no tip may extend any further
	StateStoppedNoGrowingTips
	// StateMaxIncrements: the configured increment budget ran out
	StateMaxIncrements
)

func (s State) String() string {
	switch s {
	case StatePropagating:
		return "propagating"
	case StateEvaluating:
		return "evaluating"
	case StateSelecting:
		return "selecting"
	case StateTuning:
		return "tuning"
	case StateBranching:
		return "branching"
	case StateStalledSelfIntersection:
		return "stalled_self_intersection"
	case StateStalledNoSlip:
		return "stalled_no_slip"
	case StateStoppedNoGrowingTips:
		return "stopped_no_growing_tips"
	case StateMaxIncrements:
		return "stopped_max_increments"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether the state ends the run
func (s State) Terminal() bool {
	switch s {
	case StateStalledSelfIntersection, StateStalledNoSlip, StateStoppedNoGrowingTips, StateMaxIncrements:
		return true
	default:
		return false
	}
}

// Work sentinels recorded in the report for stalled increments, kept for
// compatibility with downstream tooling that reads them.
const (
	WorkSentinelSelfIntersect = 0.0
	WorkSentinelNoSlip        = -1.0
)
