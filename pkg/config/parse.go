package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseConfigYAML parses a Config from YAML bytes, applies defaults and
// validates it.
func ParseConfigYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ParseConfigYAMLString parses a Config from a YAML string and validates it.
func ParseConfigYAMLString(yamlText string) (*Config, error) {
	return ParseConfigYAML([]byte(yamlText))
}

// applyDefaults fills unset fields with the standard run constants
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Run.Mode == "" {
		cfg.Run.Mode = ModeNormal
	}
	if cfg.Run.Loading == "" {
		cfg.Run.Loading = LoadingDisplacement
	}
	if cfg.Run.TipOrdering == "" {
		cfg.Run.TipOrdering = TipOrderSequential
	}
	if cfg.Run.MaxIncrements == 0 {
		cfg.Run.MaxIncrements = 100
	}
	if cfg.Run.Forecast != nil && cfg.Run.Forecast.PeakFraction == 0 {
		cfg.Run.Forecast.PeakFraction = 0.9
	}
	if cfg.Solver.TimeoutSeconds == 0 {
		cfg.Solver.TimeoutSeconds = 600
	}
	if cfg.Search.BatchSize == 0 {
		cfg.Search.BatchSize = 16
	}
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = cfg.Search.BatchSize
	}
	if cfg.Search.IncrementAngle == 0 {
		cfg.Search.IncrementAngle = 45
	}
	if cfg.Search.EndAngle == 0 && cfg.Search.StartAngle == 0 {
		cfg.Search.EndAngle = 360
	}
	if cfg.Filters.ConditionMedianFactor == 0 {
		cfg.Filters.ConditionMedianFactor = 5
	}
	if cfg.Filters.WorkMedianFactor == 0 {
		cfg.Filters.WorkMedianFactor = 10
	}
	if cfg.Correction.MinInteriorAngleDeg == 0 {
		cfg.Correction.MinInteriorAngleDeg = 20
	}
	if cfg.Correction.SelfTestMinSeparation == 0 {
		cfg.Correction.SelfTestMinSeparation = 4
	}
	if cfg.Correction.SnapDistanceFactor == 0 {
		cfg.Correction.SnapDistanceFactor = 0.5
	}
	if cfg.Branching.MinElements == 0 {
		cfg.Branching.MinElements = 5
	}
	if cfg.Branching.ShearCoeff == 0 {
		cfg.Branching.ShearCoeff = 0.2
	}
	if cfg.Branching.NormalCoeff == 0 {
		cfg.Branching.NormalCoeff = 0.023
	}
}
