package geom

import "fmt"

// TipEnd identifies one of the two ends of a fracture
type TipEnd int

const (
	// TipHead is the end at Segments[0].Head
	TipHead TipEnd = iota
	// TipTail is the end at Segments[len-1].Tail
	TipTail
)

func (e TipEnd) String() string {
	switch e {
	case TipHead:
		return "head"
	case TipTail:
		return "tail"
	default:
		return fmt.Sprintf("TipEnd(%d)", int(e))
	}
}

// TipKey identifies a single fracture tip. It replaces string-encoded
// "name end" composite keys and is usable directly as a map key.
type TipKey struct {
	Fracture string
	End      TipEnd
}

func (k TipKey) String() string {
	return k.Fracture + "/" + k.End.String()
}

// Fracture is a named chain of segments with two independently growing tips.
// Chain connectivity invariant: Segments[i+1].Head == Segments[i].Tail.
type Fracture struct {
	Name     string
	Segments []Segment
	GrowHead bool
	GrowTail bool
	// Seeded marks a crack nucleated from a point; new elements take the
	// configured seed length instead of inheriting the tip element's.
	Seeded bool
	// BranchedAt records nodes where this fracture (or an ancestor) was
	// split, so the branch evaluator never splits the same node twice.
	BranchedAt []Point
}

// Clone returns a deep copy of the fracture
func (f *Fracture) Clone() *Fracture {
	c := &Fracture{
		Name:     f.Name,
		Segments: make([]Segment, len(f.Segments)),
		GrowHead: f.GrowHead,
		GrowTail: f.GrowTail,
		Seeded:   f.Seeded,
	}
	copy(c.Segments, f.Segments)
	if len(f.BranchedAt) > 0 {
		c.BranchedAt = make([]Point, len(f.BranchedAt))
		copy(c.BranchedAt, f.BranchedAt)
	}
	return c
}

// TipPoint returns the coordinate of the given end
func (f *Fracture) TipPoint(end TipEnd) Point {
	if end == TipHead {
		return f.Segments[0].Head
	}
	return f.Segments[len(f.Segments)-1].Tail
}

// TipSegment returns the leading element at the given end
func (f *Fracture) TipSegment(end TipEnd) Segment {
	if end == TipHead {
		return f.Segments[0]
	}
	return f.Segments[len(f.Segments)-1]
}

// TipSegmentIndex returns the index of the leading element at the given end
func (f *Fracture) TipSegmentIndex(end TipEnd) int {
	if end == TipHead {
		return 0
	}
	return len(f.Segments) - 1
}

// Growing reports whether the given end may still extend
func (f *Fracture) Growing(end TipEnd) bool {
	if end == TipHead {
		return f.GrowHead
	}
	return f.GrowTail
}

// SetGrowing sets the growing flag for the given end
func (f *Fracture) SetGrowing(end TipEnd, growing bool) {
	if end == TipHead {
		f.GrowHead = growing
	} else {
		f.GrowTail = growing
	}
}

// Grow extends the fracture by one segment at the given end. The segment must
// chain onto the existing tip node and must not be degenerate.
func (f *Fracture) Grow(end TipEnd, seg Segment) error {
	if seg.Degenerate() {
		return fmt.Errorf("fracture %s: cannot grow with degenerate segment", f.Name)
	}
	tip := f.TipPoint(end)
	if end == TipHead {
		if !seg.Tail.Equal(tip) {
			return fmt.Errorf("fracture %s: head growth segment tail does not meet tip", f.Name)
		}
		f.Segments = append([]Segment{seg}, f.Segments...)
	} else {
		if !seg.Head.Equal(tip) {
			return fmt.Errorf("fracture %s: tail growth segment head does not meet tip", f.Name)
		}
		f.Segments = append(f.Segments, seg)
	}
	return nil
}

// SetTipPoint rewrites the coordinate of the given end without changing the
// element count. Used by intersection correction when snapping a grown tip.
func (f *Fracture) SetTipPoint(end TipEnd, p Point) {
	if end == TipHead {
		f.Segments[0].Head = p
	} else {
		f.Segments[len(f.Segments)-1].Tail = p
	}
}

// ElementCount returns the number of elements in the chain
func (f *Fracture) ElementCount() int {
	return len(f.Segments)
}

// TotalLength returns the summed length of all elements
func (f *Fracture) TotalLength() float64 {
	total := 0.0
	for _, s := range f.Segments {
		total += s.Length()
	}
	return total
}

// Validate checks the chain connectivity and degeneracy invariants
func (f *Fracture) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("fracture name cannot be empty")
	}
	if len(f.Segments) == 0 {
		return fmt.Errorf("fracture %s has no segments", f.Name)
	}
	for i, s := range f.Segments {
		if s.Degenerate() {
			return fmt.Errorf("fracture %s: segment %d is degenerate", f.Name, i)
		}
		if i > 0 && !s.Head.Equal(f.Segments[i-1].Tail) {
			return fmt.Errorf("fracture %s: segments %d and %d are not connected", f.Name, i-1, i)
		}
	}
	return nil
}

// WasBranchedAt reports whether p is a recorded branch point
func (f *Fracture) WasBranchedAt(p Point) bool {
	for _, b := range f.BranchedAt {
		if b.Equal(p) {
			return true
		}
	}
	return false
}
