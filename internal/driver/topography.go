package driver

import (
	"context"

	"github.com/fracsim-lab/growth-core/internal/geom"
)

// TopographyUpdater adjusts the domain topography between increments. Given
// the prior and posterior snapshots and the current topography file, it
// returns the updated file name, or the original when nothing changed.
type TopographyUpdater interface {
	Update(ctx context.Context, prev, next *geom.Snapshot, topoFile string) (string, error)
}

// NoopTopography leaves the topography untouched
type NoopTopography struct{}

// Update returns the input file name unchanged
func (NoopTopography) Update(_ context.Context, _, _ *geom.Snapshot, topoFile string) (string, error) {
	return topoFile, nil
}
