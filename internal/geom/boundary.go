package geom

import "fmt"

// Boundary is a named chain of segments representing a domain edge. It never
// grows; an external topography update may displace it between increments.
type Boundary struct {
	Name     string
	Segments []Segment
	Closed   bool
}

// Clone returns a deep copy of the boundary
func (b *Boundary) Clone() *Boundary {
	c := &Boundary{
		Name:     b.Name,
		Segments: make([]Segment, len(b.Segments)),
		Closed:   b.Closed,
	}
	copy(c.Segments, b.Segments)
	return c
}

// ElementCount returns the number of elements in the chain
func (b *Boundary) ElementCount() int {
	return len(b.Segments)
}

// Validate checks chain connectivity and degeneracy, and closure when Closed
func (b *Boundary) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("boundary name cannot be empty")
	}
	if len(b.Segments) == 0 {
		return fmt.Errorf("boundary %s has no segments", b.Name)
	}
	for i, s := range b.Segments {
		if s.Degenerate() {
			return fmt.Errorf("boundary %s: segment %d is degenerate", b.Name, i)
		}
		if i > 0 && !s.Head.Equal(b.Segments[i-1].Tail) {
			return fmt.Errorf("boundary %s: segments %d and %d are not connected", b.Name, i-1, i)
		}
	}
	if b.Closed {
		last := b.Segments[len(b.Segments)-1]
		if !last.Tail.Equal(b.Segments[0].Head) {
			return fmt.Errorf("boundary %s: marked closed but ends do not meet", b.Name)
		}
	}
	return nil
}
