package config

import (
	"strings"
	"testing"
)

const minimalYAML = `
solver:
  executable: /opt/solver/bin/solve
  geometry_file: geometry.dat
`

func TestParseConfigYAMLDefaults(t *testing.T) {
	cfg, err := ParseConfigYAMLString(minimalYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.Run.Mode != ModeNormal || cfg.Run.Loading != LoadingDisplacement {
		t.Fatalf("unexpected run defaults: %+v", cfg.Run)
	}
	if cfg.Run.TipOrdering != TipOrderSequential {
		t.Fatalf("expected sequential tip ordering, got %s", cfg.Run.TipOrdering)
	}
	if cfg.Run.MaxIncrements != 100 {
		t.Fatalf("expected 100 max increments, got %d", cfg.Run.MaxIncrements)
	}
	if cfg.Solver.TimeoutSeconds != 600 {
		t.Fatalf("expected 600s solver timeout, got %d", cfg.Solver.TimeoutSeconds)
	}
	if cfg.Search.StartAngle != 0 || cfg.Search.EndAngle != 360 || cfg.Search.IncrementAngle != 45 {
		t.Fatalf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Search.BatchSize != 16 || cfg.Search.Workers != 16 {
		t.Fatalf("unexpected batch defaults: %+v", cfg.Search)
	}
	if cfg.Filters.ConditionMedianFactor != 5 || cfg.Filters.WorkMedianFactor != 10 {
		t.Fatalf("unexpected filter defaults: %+v", cfg.Filters)
	}
	if cfg.Correction.MinInteriorAngleDeg != 20 || cfg.Correction.SelfTestMinSeparation != 4 || cfg.Correction.SnapDistanceFactor != 0.5 {
		t.Fatalf("unexpected correction defaults: %+v", cfg.Correction)
	}
	if cfg.Branching.Enabled {
		t.Fatalf("branching must be off by default")
	}
}

func TestParseConfigYAMLOverrides(t *testing.T) {
	yaml := `
log_level: debug
run:
  mode: stub
  loading: stress
  tip_ordering: serial
  max_increments: 5
search:
  start_angle: 90
  end_angle: 270
  increment_angle: 15
  batch_size: 4
solver:
  geometry_file: geometry.dat
`
	cfg, err := ParseConfigYAMLString(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Run.Mode != ModeStub || cfg.Run.Loading != LoadingStress || cfg.Run.TipOrdering != TipOrderSerial {
		t.Fatalf("overrides not applied: %+v", cfg.Run)
	}
	if cfg.Search.StartAngle != 90 || cfg.Search.EndAngle != 270 || cfg.Search.IncrementAngle != 15 {
		t.Fatalf("search overrides not applied: %+v", cfg.Search)
	}
	if cfg.Search.Workers != 4 {
		t.Fatalf("workers must default to the batch size, got %d", cfg.Search.Workers)
	}
}

func TestStubModeNeedsNoExecutable(t *testing.T) {
	yaml := `
run:
  mode: stub
solver:
  geometry_file: geometry.dat
`
	if _, err := ParseConfigYAMLString(yaml); err != nil {
		t.Fatalf("stub mode must not require an executable: %v", err)
	}
}

func TestParseConfigYAMLInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing executable",
			"solver:\n  geometry_file: g.dat\nrun:\n  mode: normal\n",
			"",
		},
		{
			"bad mode",
			minimalYAML + "run:\n  mode: bogus\n",
			"invalid mode",
		},
		{
			"missing geometry",
			"solver:\n  executable: /bin/solve\n",
			"geometry_file",
		},
		{
			"reversed angle range",
			minimalYAML + "search:\n  start_angle: 180\n  end_angle: 90\n",
			"end_angle",
		},
		{
			"point-seeded without seed length",
			minimalYAML + "run:\n  mode: point-seeded\n",
			"seed_length",
		},
		{
			"branching without strength",
			minimalYAML + "branching:\n  enabled: true\n",
			"s0",
		},
		{
			"bad log level",
			minimalYAML + "log_level: loud\n",
			"log_level",
		},
	}
	for _, tt := range tests {
		_, err := ParseConfigYAMLString(tt.yaml)
		if err == nil {
			t.Fatalf("%s: expected an error", tt.name)
		}
		if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}
}
