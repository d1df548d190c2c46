package geom

import "testing"

func twoFractureSnapshot() *Snapshot {
	return &Snapshot{
		Fractures: []*Fracture{
			{
				Name: "a",
				Segments: []Segment{
					{Head: Point{X: 0, Y: 0}, Tail: Point{X: 1, Y: 0}, Elements: 1},
					{Head: Point{X: 1, Y: 0}, Tail: Point{X: 2, Y: 0}, Elements: 1},
				},
				GrowHead: true,
				GrowTail: true,
			},
			{
				Name: "b",
				Segments: []Segment{
					{Head: Point{X: 0, Y: 5}, Tail: Point{X: 2, Y: 5}, Elements: 1},
				},
				GrowTail: true,
			},
		},
		Boundaries: []*Boundary{
			{
				Name: "box",
				Segments: []Segment{
					{Head: Point{X: -10, Y: -10}, Tail: Point{X: 10, Y: -10}, Elements: 1},
				},
			},
		},
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := twoFractureSnapshot()
	c := s.Clone()
	c.Fractures[0].Segments[0].Head = Point{X: 9, Y: 9}
	c.Boundaries[0].Segments[0].Head = Point{X: 9, Y: 9}

	if !s.Fractures[0].Segments[0].Head.Equal(Point{X: 0, Y: 0}) {
		t.Fatalf("fracture mutation leaked into original")
	}
	if !s.Boundaries[0].Segments[0].Head.Equal(Point{X: -10, Y: -10}) {
		t.Fatalf("boundary mutation leaked into original")
	}
}

func TestGrowingTipsOrder(t *testing.T) {
	s := twoFractureSnapshot()
	tips := s.GrowingTips()

	want := []TipKey{
		{Fracture: "a", End: TipHead},
		{Fracture: "a", End: TipTail},
		{Fracture: "b", End: TipTail},
	}
	if len(tips) != len(want) {
		t.Fatalf("expected %d tips, got %d", len(want), len(tips))
	}
	for i := range want {
		if tips[i] != want[i] {
			t.Fatalf("tip %d: expected %s, got %s", i, want[i], tips[i])
		}
	}
}

func TestGlobalElementIndex(t *testing.T) {
	s := twoFractureSnapshot()

	// Fracture elements are numbered first, in fracture order.
	idx, err := s.GlobalElementIndex("a", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1 for a[1], got %d", idx)
	}

	idx, err = s.GlobalElementIndex("b", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Fatalf("expected index 2 for b[0], got %d", idx)
	}

	if _, err := s.GlobalElementIndex("b", 5); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if _, err := s.GlobalElementIndex("missing", 0); err == nil {
		t.Fatalf("expected unknown-fracture error")
	}
}

func TestAverageElementLength(t *testing.T) {
	s := twoFractureSnapshot()
	// Three fracture elements of total length 4; boundaries do not count.
	if got := s.AverageElementLength(); got != 4.0/3.0 {
		t.Fatalf("expected average %g, got %g", 4.0/3.0, got)
	}
}

func TestNodeOfAnyStructure(t *testing.T) {
	s := twoFractureSnapshot()

	if !s.NodeOfAnyStructure(Point{X: 2, Y: 5}, "a") {
		t.Fatalf("expected node of fracture b to be found")
	}
	if s.NodeOfAnyStructure(Point{X: 1, Y: 0}, "a") {
		t.Fatalf("nodes of the excluded fracture must not count")
	}
	if !s.NodeOfAnyStructure(Point{X: 10, Y: -10}, "") {
		t.Fatalf("expected boundary node to be found")
	}
}

func TestSnapshotValidateRejectsDuplicateNames(t *testing.T) {
	s := twoFractureSnapshot()
	s.Fractures[1].Name = "a"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected duplicate-name validation error")
	}
}
