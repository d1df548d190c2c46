package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Profile renders the normalized-work-vs-angle curve of one increment's
// sweep for one tip. A no-op unless profile plotting is enabled.
func (r *Report) Profile(increment int, tip string, angles, norms []float64) error {
	if !r.plotProfiles {
		return nil
	}
	if len(angles) != len(norms) || len(angles) == 0 {
		return fmt.Errorf("profile needs matching non-empty angle and work series")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("increment %d, tip %s", increment, tip)
	p.X.Label.Text = "candidate angle (deg)"
	p.Y.Label.Text = "normalized work"

	pts := make(plotter.XYs, len(angles))
	for i := range angles {
		pts[i].X = angles[i]
		pts[i].Y = norms[i]
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("failed to build profile plot: %w", err)
	}
	p.Add(line, points)

	if err := os.MkdirAll(r.plotDir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}
	name := filepath.Join(r.plotDir, fmt.Sprintf("profile-inc%03d-%s.png", increment, sanitize(tip)))
	if err := p.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
		return fmt.Errorf("failed to save profile plot: %w", err)
	}
	return nil
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
