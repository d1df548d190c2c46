// Package report accumulates the run report: per-trial lines, correction
// records and per-increment summaries. The report is an explicit object
// passed through the pipeline, appended under a single writer lock and
// flushed at defined checkpoints (end of batch, end of increment).
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fracsim-lab/growth-core/internal/correct"
	"github.com/fracsim-lab/growth-core/pkg/config"
	"github.com/fracsim-lab/growth-core/pkg/utils"
)

// Report is an append-only run report. Safe for concurrent appenders; writes
// to the underlying writer are serialized.
type Report struct {
	mu    sync.Mutex
	w     io.Writer
	lines []string
	runID string

	plotProfiles bool
	plotDir      string
}

// New creates a report writing to w
func New(w io.Writer, cfg config.ReportConfig) *Report {
	return &Report{
		w:            w,
		runID:        utils.GenerateRunID(),
		plotProfiles: cfg.PlotProfiles,
		plotDir:      cfg.PlotDir,
	}
}

// RunID returns the unique ID of this run
func (r *Report) RunID() string {
	return r.runID
}

func (r *Report) append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Header records the run preamble
func (r *Report) Header(loading, mode string, fractures int) {
	r.append(fmt.Sprintf("run %s loading=%s mode=%s fractures=%d", r.runID, loading, mode, fractures))
}

// Trial records one evaluated candidate. note carries the filtered-out
// reason, or empty for survivors.
func (r *Report) Trial(increment int, tip string, angle, work, norm, cond float64, note string) {
	line := fmt.Sprintf("inc %d trial tip=%s angle=%.3f work=%.6g norm=%.6g cond=%.4g", increment, tip, angle, work, norm, cond)
	if note != "" {
		line += " note=" + note
	}
	r.append(line)
}

// Discard records a candidate rejected before evaluation
func (r *Report) Discard(increment int, tip string, angle float64, reason string) {
	r.append(fmt.Sprintf("inc %d discard tip=%s angle=%.3f reason=%s", increment, tip, angle, reason))
}

// Correction records one applied intersection correction
func (r *Report) Correction(increment int, rec correct.Record) {
	r.append(fmt.Sprintf("inc %d correction kind=%s growing=%s through=%s at=(%.6g,%.6g)",
		increment, rec.Kind, rec.Growing, rec.Through, rec.At.X, rec.At.Y))
}

// Increment records the end-of-increment summary
func (r *Report) Increment(increment int, state string, work, length float64, growingTips int) {
	r.append(fmt.Sprintf("inc %d done state=%s work=%.6g length=%.6g growing_tips=%d",
		increment, state, work, length, growingTips))
}

// Branch records a fracture split
func (r *Report) Branch(increment int, fracture string, children []string) {
	r.append(fmt.Sprintf("inc %d branch fracture=%s children=%v", increment, fracture, children))
}

// Flush writes all buffered lines to the underlying writer and clears the
// buffer. Called at end of batch and end of increment.
func (r *Report) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		r.lines = nil
		return nil
	}
	for _, line := range r.lines {
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return fmt.Errorf("report flush failed: %w", err)
		}
	}
	r.lines = nil
	return nil
}

// Pending returns the number of buffered, unflushed lines
func (r *Report) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}
