package solver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fracsim-lab/growth-core/internal/geom"
)

func execSnapshot() *geom.Snapshot {
	return &geom.Snapshot{Fractures: []*geom.Fracture{{
		Name: "f",
		Segments: []geom.Segment{
			{Head: geom.Point{X: 0, Y: 0}, Tail: geom.Point{X: 1, Y: 0}, Elements: 1},
		},
		GrowTail: true,
	}}}
}

// fakeSolver writes a shell script that copies canned results to the output
// path the adapter passes as its second argument
func fakeSolver(t *testing.T, results string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fake solver")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "solver.sh")
	body := "#!/bin/sh\ncat > \"$2\" <<'EOF'\n" + results + "\nEOF\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write fake solver: %v", err)
	}
	return script
}

func TestExecSolverEvaluate(t *testing.T) {
	script := fakeSolver(t, "external work = 2.5\ncondition number = 8\nelem 0 slipped 1 0")
	s := NewExecSolver(script, t.TempDir(), 10*time.Second)

	res, err := s.Evaluate(context.Background(), execSnapshot(), "normal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Work != 2.5 || res.ConditionNumber != 8 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.Activated(0) {
		t.Fatalf("element status not parsed")
	}
}

func TestExecSolverMissingExecutableIsInfrastructure(t *testing.T) {
	// A bare name fails path lookup, the failure mode that marks the whole
	// run broken rather than one trial.
	s := NewExecSolver("definitely-not-a-solver", t.TempDir(), time.Second)

	_, err := s.Evaluate(context.Background(), execSnapshot(), "normal")
	if !errors.Is(err, ErrInfrastructure) {
		t.Fatalf("expected infrastructure failure, got %v", err)
	}
}

func TestExecSolverMalformedOutputIsPerTrial(t *testing.T) {
	script := fakeSolver(t, "external work = NaN\ncondition number = 1")
	s := NewExecSolver(script, t.TempDir(), 10*time.Second)

	_, err := s.Evaluate(context.Background(), execSnapshot(), "normal")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if errors.Is(err, ErrInfrastructure) {
		t.Fatalf("a malformed results file is a per-trial failure, got %v", err)
	}
}
