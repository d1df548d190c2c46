package geom

import "fmt"

// Snapshot is a complete, self-consistent set of fractures and boundaries at
// one point in the search. A snapshot is never mutated once evaluated; every
// growth or tuning step derives a new one via Clone.
type Snapshot struct {
	Fractures  []*Fracture
	Boundaries []*Boundary
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Fractures:  make([]*Fracture, len(s.Fractures)),
		Boundaries: make([]*Boundary, len(s.Boundaries)),
	}
	for i, f := range s.Fractures {
		c.Fractures[i] = f.Clone()
	}
	for i, b := range s.Boundaries {
		c.Boundaries[i] = b.Clone()
	}
	return c
}

// FractureByName returns the named fracture, or nil
func (s *Snapshot) FractureByName(name string) *Fracture {
	for _, f := range s.Fractures {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TotalFractureLength returns the summed length of all fracture elements
func (s *Snapshot) TotalFractureLength() float64 {
	total := 0.0
	for _, f := range s.Fractures {
		total += f.TotalLength()
	}
	return total
}

// FractureElementCount returns the number of fracture elements
func (s *Snapshot) FractureElementCount() int {
	n := 0
	for _, f := range s.Fractures {
		n += f.ElementCount()
	}
	return n
}

// AverageElementLength returns the mean fracture element length, or zero for
// an empty snapshot
func (s *Snapshot) AverageElementLength() float64 {
	n := s.FractureElementCount()
	if n == 0 {
		return 0
	}
	return s.TotalFractureLength() / float64(n)
}

// GrowingTips returns all tips still permitted to extend, in fracture order
// (head before tail within a fracture) for deterministic iteration
func (s *Snapshot) GrowingTips() []TipKey {
	var tips []TipKey
	for _, f := range s.Fractures {
		if f.GrowHead {
			tips = append(tips, TipKey{Fracture: f.Name, End: TipHead})
		}
		if f.GrowTail {
			tips = append(tips, TipKey{Fracture: f.Name, End: TipTail})
		}
	}
	return tips
}

// GlobalElementIndex returns the serialized element index of segment segIdx of
// the named fracture. Fracture elements are numbered first, in fracture order,
// followed by boundary elements; the solver reports slip per this numbering.
func (s *Snapshot) GlobalElementIndex(fracture string, segIdx int) (int, error) {
	idx := 0
	for _, f := range s.Fractures {
		if f.Name == fracture {
			if segIdx < 0 || segIdx >= len(f.Segments) {
				return 0, fmt.Errorf("fracture %s: segment index %d out of range", fracture, segIdx)
			}
			return idx + segIdx, nil
		}
		idx += len(f.Segments)
	}
	return 0, fmt.Errorf("fracture %s not found", fracture)
}

// NodeOfAnyStructure reports whether p coincides with a node of any fracture
// or boundary element, excluding the named fracture
func (s *Snapshot) NodeOfAnyStructure(p Point, excludeFracture string) bool {
	for _, f := range s.Fractures {
		if f.Name == excludeFracture {
			continue
		}
		for _, seg := range f.Segments {
			if seg.HasNode(p) {
				return true
			}
		}
	}
	for _, b := range s.Boundaries {
		for _, seg := range b.Segments {
			if seg.HasNode(p) {
				return true
			}
		}
	}
	return false
}

// Validate checks every structure's invariants
func (s *Snapshot) Validate() error {
	if len(s.Fractures) == 0 {
		return fmt.Errorf("snapshot has no fractures")
	}
	names := make(map[string]bool)
	for _, f := range s.Fractures {
		if err := f.Validate(); err != nil {
			return err
		}
		if names[f.Name] {
			return fmt.Errorf("duplicate fracture name: %s", f.Name)
		}
		names[f.Name] = true
	}
	for _, b := range s.Boundaries {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}
