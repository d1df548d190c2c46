package evaluate

import (
	"testing"

	"github.com/fracsim-lab/growth-core/internal/correct"
	"github.com/fracsim-lab/growth-core/internal/geom"
	"github.com/fracsim-lab/growth-core/internal/scenario"
	"github.com/fracsim-lab/growth-core/pkg/config"
)

func screenCorrector() *correct.Corrector {
	return correct.New(config.CorrectionConfig{
		MinInteriorAngleDeg:   20,
		SelfTestMinSeparation: 4,
		SnapDistanceFactor:    0.5,
	})
}

// overlapTrial grows a tip straight back over an element of another fracture,
// which the corrector treats as fatal.
func overlapTrial() *scenario.Trial {
	return &scenario.Trial{
		ID: "trial-overlap",
		Snapshot: &geom.Snapshot{Fractures: []*geom.Fracture{
			{
				Name: "a",
				Segments: []geom.Segment{
					{Head: geom.Point{X: 0, Y: 0}, Tail: geom.Point{X: 1, Y: 0}, Elements: 1},
					{Head: geom.Point{X: 1, Y: 0}, Tail: geom.Point{X: 2, Y: 0}, Elements: 1},
				},
				GrowTail: true,
			},
			{
				Name: "b",
				Segments: []geom.Segment{
					{Head: geom.Point{X: 1.5, Y: 0}, Tail: geom.Point{X: 3, Y: 0}, Elements: 1},
				},
			},
		}},
		GrownTips: []geom.TipKey{{Fracture: "a", End: geom.TipTail}},
	}
}

func cleanTrial() *scenario.Trial {
	return &scenario.Trial{
		ID: "trial-clean",
		Snapshot: &geom.Snapshot{Fractures: []*geom.Fracture{{
			Name: "a",
			Segments: []geom.Segment{
				{Head: geom.Point{X: 0, Y: 0}, Tail: geom.Point{X: 1, Y: 0}, Elements: 1},
				{Head: geom.Point{X: 1, Y: 0}, Tail: geom.Point{X: 2, Y: 0}, Elements: 1},
			},
			GrowTail: true,
		}}},
		GrownTips: []geom.TipKey{{Fracture: "a", End: geom.TipTail}},
	}
}

func TestScreenSeparatesFatalTrials(t *testing.T) {
	ok, corrections, rejected, err := Screen(screenCorrector(), []*scenario.Trial{
		cleanTrial(),
		overlapTrial(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ok) != 1 || ok[0].ID != "trial-clean" {
		t.Fatalf("expected only the clean trial to survive, got %d", len(ok))
	}
	if len(rejected) != 1 || !rejected[0].SelfIntersected {
		t.Fatalf("expected the overlapping trial rejected as self-intersected")
	}
	if rejected[0].Trial.ID != "trial-overlap" {
		t.Fatalf("wrong trial rejected: %s", rejected[0].Trial.ID)
	}
	if len(corrections) != 0 {
		t.Fatalf("no corrections expected, got %d", len(corrections))
	}
}

func TestScreenRecordsCorrections(t *testing.T) {
	trial := cleanTrial()
	// A crossing fracture within snap distance of the grown tip.
	trial.Snapshot.Fractures = append(trial.Snapshot.Fractures, &geom.Fracture{
		Name: "b",
		Segments: []geom.Segment{
			{Head: geom.Point{X: 1.5, Y: -0.5}, Tail: geom.Point{X: 1.5, Y: 2}, Elements: 1},
		},
	})

	ok, corrections, rejected, err := Screen(screenCorrector(), []*scenario.Trial{trial})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ok) != 1 || len(rejected) != 0 {
		t.Fatalf("corrected trial must survive screening")
	}
	res, found := corrections[trial.ID]
	if !found {
		t.Fatalf("expected a correction record for the trial")
	}
	if res.Outcome != correct.Corrected || res.Corrections != 1 {
		t.Fatalf("unexpected correction result %+v", res)
	}
}
