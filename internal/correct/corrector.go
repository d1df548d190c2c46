// Package correct detects and resolves intersections created by growing one
// fracture tip: self-intersection, fracture-fracture crossing and
// fracture-boundary crossing. Corrections are applied one at a time and the
// whole check re-runs after each, under an attempt budget, because fixing one
// intersection can reveal or create another.
package correct

import (
	"fmt"
	"log/slog"

	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/pkg/config"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

// Kind classifies which two structures meet
type Kind int

const (
	KindNone Kind = iota
	KindSelf
	KindFracture
	KindBoundary
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSelf:
		return "self"
	case KindFracture:
		return "fracture"
	case KindBoundary:
		return "boundary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Record identifies one applied correction
type Record struct {
	Kind    Kind
	At      geom.Point
	Growing string // growing fracture
	Through string // through-going structure
}

// Outcome is the corrector's verdict for one trial
type Outcome int

const (
	// NoIntersection means the trial is clean as-is
	NoIntersection Outcome = iota
	// SelfIntersection marks a fatal, uncorrectable trial
	SelfIntersection
	// Corrected means one or more corrections were applied and the trial is
	// now clean
	Corrected
	// Unresolvable means the correction-attempt budget was exhausted
	Unresolvable
)

func (o Outcome) String() string {
	switch o {
	case NoIntersection:
		return "no_intersection"
	case SelfIntersection:
		return "self_intersection"
	case Corrected:
		return "corrected"
	case Unresolvable:
		return "unresolvable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result reports the outcome of a correction pass
type Result struct {
	Outcome     Outcome
	Corrections int
	Records     []Record
	// TipStopped is set when a boundary correction cleared the tip's
	// growing flag.
	TipStopped bool
	// Reason describes why a fatal outcome invalidates the trial.
	Reason string
}

// Corrector applies the bounded detect-and-rewrite loop
type Corrector struct {
	minInteriorAngle float64
	minSeparation    int
	snapFactor       float64
	maxAttempts      int
	logger           *slog.Logger
}

// New creates a corrector from configuration
func New(cfg config.CorrectionConfig) *Corrector {
	return &Corrector{
		minInteriorAngle: cfg.MinInteriorAngleDeg,
		minSeparation:    cfg.SelfTestMinSeparation,
		snapFactor:       cfg.SnapDistanceFactor,
		maxAttempts:      cfg.MaxAttempts,
		logger:           logger.Default,
	}
}

// SetLogger sets the corrector's logger
func (c *Corrector) SetLogger(l *slog.Logger) {
	c.logger = l
}

// checkStatus is the verdict of a single pass over the trial
type checkStatus struct {
	fatal      bool
	reason     string
	correction *Record
	tipStopped bool
}

// Check runs the full correction loop on a trial snapshot for the tip that
// was just grown. The snapshot is rewritten in place; the base snapshot the
// trial was derived from is untouched by construction.
func (c *Corrector) Check(snap *geom.Snapshot, tip geom.TipKey) (*Result, error) {
	f := snap.FractureByName(tip.Fracture)
	if f == nil {
		return nil, fmt.Errorf("unknown fracture %s", tip.Fracture)
	}

	budget := 2*len(snap.Fractures) + len(snap.Boundaries)
	if c.maxAttempts > 0 {
		budget = c.maxAttempts
	}
	res := &Result{}

	for attempt := 0; ; attempt++ {
		if attempt >= budget {
			res.Outcome = Unresolvable
			res.Reason = fmt.Sprintf("correction budget %d exhausted", budget)
			return res, nil
		}

		st := c.checkOnce(snap, f, tip.End)
		if st.fatal {
			res.Outcome = SelfIntersection
			res.Reason = st.reason
			return res, nil
		}
		if st.correction == nil {
			if res.Corrections > 0 {
				res.Outcome = Corrected
			} else {
				res.Outcome = NoIntersection
			}
			return res, nil
		}

		res.Corrections++
		res.Records = append(res.Records, *st.correction)
		if st.tipStopped {
			res.TipStopped = true
		}
		c.logger.Debug("intersection corrected",
			"tip", tip.String(),
			"kind", st.correction.Kind.String(),
			"through", st.correction.Through,
			"attempt", attempt)
	}
}

// checkOnce runs one pass: degeneracy pre-checks, self-intersection test,
// then fracture and boundary correction in that order. At most one
// correction is applied per pass.
func (c *Corrector) checkOnce(snap *geom.Snapshot, f *geom.Fracture, end geom.TipEnd) checkStatus {
	tipIdx := f.TipSegmentIndex(end)
	tipSeg := f.TipSegment(end)
	tipPt := f.TipPoint(end)

	// Step 1: uncorrectable degeneracies.
	if tipSeg.Degenerate() {
		return checkStatus{fatal: true, reason: "grown element has zero length"}
	}
	if len(f.Segments) > 1 {
		var neighbor geom.Segment
		if end == geom.TipHead {
			neighbor = f.Segments[1]
		} else {
			neighbor = f.Segments[len(f.Segments)-2]
		}
		if a := geom.InteriorAngleDeg(tipSeg, neighbor); a < c.minInteriorAngle {
			return checkStatus{fatal: true, reason: fmt.Sprintf("interior angle %.2f below minimum %.2f", a, c.minInteriorAngle)}
		}
	}
	if name, overlap := c.findOverlap(snap, f, tipIdx, tipSeg); overlap {
		return checkStatus{fatal: true, reason: "grown element overlaps element of " + name}
	}

	// Step 2: self-intersection against elements of the same fracture far
	// enough from the tip that chain adjacency cannot trigger a false
	// positive.
	for i, e := range f.Segments {
		if absInt(i-tipIdx) < c.minSeparation {
			continue
		}
		if _, ok := geom.SegmentIntersection(tipSeg, e); ok {
			return checkStatus{fatal: true, reason: fmt.Sprintf("grown element intersects element %d of the same fracture", i)}
		}
	}

	// A tip endpoint landing exactly on a node of another structure is a
	// connection, not an intersection.
	if snap.NodeOfAnyStructure(tipPt, f.Name) {
		return checkStatus{}
	}

	maxDist := c.snapFactor * snap.AverageElementLength()

	// Step 3: fracture-fracture.
	if rec := c.findFractureCorrection(snap, f, tipSeg, tipPt, maxDist); rec != nil {
		f.SetTipPoint(end, rec.At)
		if st := c.postCorrectionCheck(snap, f, end); st.fatal {
			return st
		}
		return checkStatus{correction: rec}
	}

	// Step 4: fracture-boundary. A tip that reaches the boundary stops
	// growing.
	if rec := c.findBoundaryCorrection(snap, tipSeg, tipPt, maxDist); rec != nil {
		rec.Growing = f.Name
		f.SetTipPoint(end, rec.At)
		f.SetGrowing(end, false)
		return checkStatus{correction: rec, tipStopped: true}
	}

	return checkStatus{}
}

// findOverlap looks for an exact collinear overlap between the grown element
// and any other element of the snapshot
func (c *Corrector) findOverlap(snap *geom.Snapshot, grown *geom.Fracture, tipIdx int, tipSeg geom.Segment) (string, bool) {
	for _, f := range snap.Fractures {
		for i, e := range f.Segments {
			if f.Name == grown.Name && i == tipIdx {
				continue
			}
			if geom.Overlaps(tipSeg, e) {
				return f.Name, true
			}
		}
	}
	for _, b := range snap.Boundaries {
		for _, e := range b.Segments {
			if geom.Overlaps(tipSeg, e) {
				return b.Name, true
			}
		}
	}
	return "", false
}

// findFractureCorrection picks the single closest intersection between the
// grown element and another fracture's elements lying within maxDist of the
// growing tip. The corrected coordinate snaps to the nearest node of the
// through-going element.
func (c *Corrector) findFractureCorrection(snap *geom.Snapshot, grown *geom.Fracture, tipSeg geom.Segment, tipPt geom.Point, maxDist float64) *Record {
	var best *Record
	bestDist := maxDist
	for _, other := range snap.Fractures {
		if other.Name == grown.Name {
			continue
		}
		for _, e := range other.Segments {
			p, ok := geom.SegmentIntersection(tipSeg, e)
			if !ok {
				continue
			}
			if geom.DistToSegment(tipPt, e) >= maxDist {
				continue
			}
			d := tipPt.Dist(p)
			if best == nil || d < bestDist {
				bestDist = d
				best = &Record{
					Kind:    KindFracture,
					At:      e.NearestNode(p),
					Growing: grown.Name,
					Through: other.Name,
				}
			}
		}
	}
	return best
}

// findBoundaryCorrection is the boundary analogue of findFractureCorrection
func (c *Corrector) findBoundaryCorrection(snap *geom.Snapshot, tipSeg geom.Segment, tipPt geom.Point, maxDist float64) *Record {
	var best *Record
	bestDist := maxDist
	for _, b := range snap.Boundaries {
		for _, e := range b.Segments {
			p, ok := geom.SegmentIntersection(tipSeg, e)
			if !ok {
				continue
			}
			if geom.DistToSegment(tipPt, e) >= maxDist {
				continue
			}
			d := tipPt.Dist(p)
			if best == nil || d < bestDist {
				bestDist = d
				best = &Record{
					Kind:    KindBoundary,
					At:      e.NearestNode(p),
					Through: b.Name,
				}
			}
		}
	}
	return best
}

// postCorrectionCheck rejects a fracture-fracture snap that left the trial
// degenerate: a zero-length grown element, a new exact overlap, or a
// degenerate triangle of three mutually connected elements spanning more than
// one fracture.
func (c *Corrector) postCorrectionCheck(snap *geom.Snapshot, f *geom.Fracture, end geom.TipEnd) checkStatus {
	tipIdx := f.TipSegmentIndex(end)
	tipSeg := f.TipSegment(end)
	if tipSeg.Degenerate() {
		return checkStatus{fatal: true, reason: "correction collapsed grown element to zero length"}
	}
	if name, overlap := c.findOverlap(snap, f, tipIdx, tipSeg); overlap {
		return checkStatus{fatal: true, reason: "correction created overlap with element of " + name}
	}
	if c.formsDegenerateTriangle(snap, f, tipSeg) {
		return checkStatus{fatal: true, reason: "correction created a degenerate triangle"}
	}
	return checkStatus{}
}

// formsDegenerateTriangle reports whether the grown element closes a
// three-element cycle with elements of other structures: one element incident
// to each endpoint of the grown element, sharing their remaining node.
func (c *Corrector) formsDegenerateTriangle(snap *geom.Snapshot, grown *geom.Fracture, tipSeg geom.Segment) bool {
	atHead := incidentElements(snap, grown.Name, tipSeg.Head)
	if len(atHead) == 0 {
		return false
	}
	atTail := incidentElements(snap, grown.Name, tipSeg.Tail)
	for _, ea := range atHead {
		oa := otherNode(ea, tipSeg.Head)
		for _, eb := range atTail {
			if oa.Equal(otherNode(eb, tipSeg.Tail)) {
				return true
			}
		}
	}
	return false
}

// incidentElements returns elements of structures other than excludeFracture
// that have a node at p
func incidentElements(snap *geom.Snapshot, excludeFracture string, p geom.Point) []geom.Segment {
	var out []geom.Segment
	for _, f := range snap.Fractures {
		if f.Name == excludeFracture {
			continue
		}
		for _, e := range f.Segments {
			if e.HasNode(p) {
				out = append(out, e)
			}
		}
	}
	for _, b := range snap.Boundaries {
		for _, e := range b.Segments {
			if e.HasNode(p) {
				out = append(out, e)
			}
		}
	}
	return out
}

func otherNode(s geom.Segment, p geom.Point) geom.Point {
	if s.Head.Equal(p) {
		return s.Tail
	}
	return s.Head
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
