package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fracsim-lab/growth-core/internal/geom"
)

// WriteInput serializes a snapshot to the solver input format. Only the
// fields the optimizer patches are written: structure headers, element
// coordinates, discretization counts and friction properties. Element order
// matches Snapshot.GlobalElementIndex.
func WriteInput(w io.Writer, snap *geom.Snapshot, mode string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*MODE %s\n", mode)
	fmt.Fprintln(bw, "*GEOMETRY")
	for _, f := range snap.Fractures {
		fmt.Fprintf(bw, "fault %s %s %s\n", f.Name, yesNo(f.GrowHead), yesNo(f.GrowTail))
		for _, s := range f.Segments {
			writeElem(bw, s)
		}
	}
	for _, b := range snap.Boundaries {
		fmt.Fprintf(bw, "boundary %s %s\n", b.Name, yesNo(b.Closed))
		for _, s := range b.Segments {
			writeElem(bw, s)
		}
	}
	fmt.Fprintln(bw, "*END")
	return bw.Flush()
}

func writeElem(w io.Writer, s geom.Segment) {
	fmt.Fprintf(w, "elem %d %.9g %.9g %.9g %.9g %.9g %.9g\n",
		s.Elements, s.Head.X, s.Head.Y, s.Tail.X, s.Tail.Y, s.Friction, s.Cohesion)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// ReadGeometry parses the initial geometry from a solver input file
func ReadGeometry(path string) (*geom.Snapshot, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geometry file %s: %w", path, err)
	}
	defer fh.Close()
	snap, err := ParseGeometry(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geometry file %s: %w", path, err)
	}
	return snap, nil
}

// ParseGeometry parses the geometry section of a solver input stream
func ParseGeometry(r io.Reader) (*geom.Snapshot, error) {
	snap := &geom.Snapshot{}
	var curFault *geom.Fracture
	var curBoundary *geom.Boundary

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "*MODE", "*GEOMETRY":
			continue
		case "*END":
			return finishGeometry(snap)
		case "fault":
			if len(fields) != 4 && !(len(fields) == 5 && fields[4] == "seeded") {
				return nil, fmt.Errorf("line %d: fault header needs name, two grow flags and an optional seeded marker", line)
			}
			curBoundary = nil
			curFault = &geom.Fracture{
				Name:     fields[1],
				GrowHead: fields[2] == "yes",
				GrowTail: fields[3] == "yes",
				Seeded:   len(fields) == 5,
			}
			snap.Fractures = append(snap.Fractures, curFault)
		case "boundary":
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: boundary header needs name and closed flag", line)
			}
			curFault = nil
			curBoundary = &geom.Boundary{
				Name:   fields[1],
				Closed: fields[2] == "yes",
			}
			snap.Boundaries = append(snap.Boundaries, curBoundary)
		case "elem":
			seg, err := parseElem(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			// Zero-length elements are degenerate and dropped at load.
			if seg.Degenerate() {
				continue
			}
			switch {
			case curFault != nil:
				curFault.Segments = append(curFault.Segments, seg)
			case curBoundary != nil:
				curBoundary.Segments = append(curBoundary.Segments, seg)
			default:
				return nil, fmt.Errorf("line %d: element outside fault or boundary block", line)
			}
		default:
			return nil, fmt.Errorf("line %d: unknown directive %q", line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return finishGeometry(snap)
}

func finishGeometry(snap *geom.Snapshot) (*geom.Snapshot, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func parseElem(fields []string) (geom.Segment, error) {
	if len(fields) != 8 {
		return geom.Segment{}, fmt.Errorf("elem line needs count, four coordinates, friction and cohesion")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 {
		return geom.Segment{}, fmt.Errorf("invalid element count %q", fields[1])
	}
	vals := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(fields[i+2], 64)
		if err != nil {
			return geom.Segment{}, fmt.Errorf("invalid number %q", fields[i+2])
		}
		vals[i] = v
	}
	return geom.Segment{
		Elements: n,
		Head:     geom.Point{X: vals[0], Y: vals[1]},
		Tail:     geom.Point{X: vals[2], Y: vals[3]},
		Friction: vals[4],
		Cohesion: vals[5],
	}, nil
}

// ParseResults extracts external work, condition number and per-element
// status from a solver results stream. Results files may contain several
// loading steps; only the final step counts, so each step header resets the
// accumulated values.
func ParseResults(r io.Reader) (*Result, error) {
	res := &Result{Work: math.NaN(), ConditionNumber: math.NaN()}
	haveWork := false
	haveCond := false

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		switch {
		case fields[0] == "step":
			res.Elements = nil
			haveWork = false
			haveCond = false
		case strings.HasPrefix(text, "external work"):
			v, err := parseAssignedValue(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if math.IsNaN(v) {
				// NaN work signals corrupt input geometry, not a
				// skippable sample.
				return nil, fmt.Errorf("line %d: solver reported non-numeric external work", line)
			}
			res.Work = v
			haveWork = true
		case strings.HasPrefix(text, "condition number"):
			v, err := parseAssignedValue(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			res.ConditionNumber = v
			haveCond = true
		case fields[0] == "elem":
			st, err := parseElementStatus(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			res.Elements = append(res.Elements, st)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !haveWork {
		return nil, fmt.Errorf("results contain no external work value")
	}
	if !haveCond {
		return nil, fmt.Errorf("results contain no condition number")
	}
	return res, nil
}

func parseAssignedValue(text string) (float64, error) {
	i := strings.LastIndex(text, "=")
	if i < 0 {
		return 0, fmt.Errorf("missing '=' in %q", text)
	}
	tok := strings.TrimSpace(text[i+1:])
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", tok)
	}
	return v, nil
}

// parseElementStatus parses "elem <index> <state> <shear> <normal>" where
// state is slipped, opened or stuck
func parseElementStatus(fields []string) (ElementStatus, error) {
	if len(fields) != 5 {
		return ElementStatus{}, fmt.Errorf("elem status line needs index, state, shear and normal stress")
	}
	idx, err := strconv.Atoi(fields[1])
	if err != nil || idx < 0 {
		return ElementStatus{}, fmt.Errorf("invalid element index %q", fields[1])
	}
	st := ElementStatus{Index: idx}
	switch fields[2] {
	case "slipped":
		st.Slipped = true
	case "opened":
		st.Opened = true
	case "stuck":
	default:
		return ElementStatus{}, fmt.Errorf("unknown element state %q", fields[2])
	}
	if st.Shear, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return ElementStatus{}, fmt.Errorf("invalid shear stress %q", fields[3])
	}
	if st.Normal, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return ElementStatus{}, fmt.Errorf("invalid normal stress %q", fields[4])
	}
	return st, nil
}
