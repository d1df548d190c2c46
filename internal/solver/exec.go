package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/pkg/logger"
)

// ExecSolver runs the external mechanical solver executable. Every
// evaluation gets its own work directory so concurrent trials never share
// files.
type ExecSolver struct {
	executable string
	workDir    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewExecSolver creates an exec-based solver adapter
func NewExecSolver(executable, workDir string, timeout time.Duration) *ExecSolver {
	return &ExecSolver{
		executable: executable,
		workDir:    workDir,
		timeout:    timeout,
		logger:     logger.Default,
	}
}

// SetLogger sets the solver's logger
func (s *ExecSolver) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Evaluate serializes the snapshot, runs the solver and parses its results
// file. Per-trial failures (crash, missing or malformed output, NaN work)
// return ordinary errors; failures to start the solver at all wrap
// ErrInfrastructure.
func (s *ExecSolver) Evaluate(ctx context.Context, snap *geom.Snapshot, mode string) (*Result, error) {
	dir := filepath.Join(s.workDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create work dir: %v", ErrInfrastructure, err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.dat")
	outputPath := filepath.Join(dir, "output.dat")

	in, err := os.Create(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create input file: %v", ErrInfrastructure, err)
	}
	if err := WriteInput(in, snap, mode); err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to write solver input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("failed to write solver input: %w", err)
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(runCtx, s.executable, inputPath, outputPath)
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %v", ErrInfrastructure, err)
		}
		return nil, fmt.Errorf("solver run failed: %w", err)
	}
	s.logger.Debug("solver run completed",
		"dir", dir,
		"elapsed", time.Since(start))

	out, err := os.Open(outputPath)
	if err != nil {
		return nil, fmt.Errorf("solver produced no output: %w", err)
	}
	defer out.Close()

	res, err := ParseResults(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse solver results: %w", err)
	}
	return res, nil
}
