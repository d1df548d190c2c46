package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if err := validateRun(&cfg.Run); err != nil {
		return fmt.Errorf("run validation failed: %w", err)
	}
	if err := validateSolver(&cfg.Solver, cfg.Run.Mode); err != nil {
		return fmt.Errorf("solver validation failed: %w", err)
	}
	if err := validateSearch(&cfg.Search); err != nil {
		return fmt.Errorf("search validation failed: %w", err)
	}
	if err := validateFilters(&cfg.Filters); err != nil {
		return fmt.Errorf("filters validation failed: %w", err)
	}
	if err := validateCorrection(&cfg.Correction); err != nil {
		return fmt.Errorf("correction validation failed: %w", err)
	}
	if err := validateBranching(&cfg.Branching); err != nil {
		return fmt.Errorf("branching validation failed: %w", err)
	}

	return nil
}

func validateRun(r *RunConfig) error {
	validModes := map[string]bool{
		ModeNormal:    true,
		ModeStub:      true,
		ModePointSeed: true,
	}
	if !validModes[r.Mode] {
		return fmt.Errorf("invalid mode: %s (must be normal, stub, or point-seeded)", r.Mode)
	}

	if r.Loading != LoadingDisplacement && r.Loading != LoadingStress {
		return fmt.Errorf("invalid loading: %s (must be displacement or stress)", r.Loading)
	}

	if r.TipOrdering != TipOrderSequential && r.TipOrdering != TipOrderSerial {
		return fmt.Errorf("invalid tip_ordering: %s (must be sequential or serial)", r.TipOrdering)
	}

	if r.MaxIncrements <= 0 {
		return fmt.Errorf("max_increments must be positive, got %d", r.MaxIncrements)
	}

	if r.Mode == ModePointSeed && r.SeedLength <= 0 {
		return fmt.Errorf("seed_length must be positive in point-seeded mode, got %f", r.SeedLength)
	}

	if r.RecheckStalledEvery < 0 {
		return fmt.Errorf("recheck_stalled_every cannot be negative, got %d", r.RecheckStalledEvery)
	}

	if r.Forecast != nil && r.Forecast.Enabled {
		if r.Forecast.PeakFraction <= 0 || r.Forecast.PeakFraction > 1 {
			return fmt.Errorf("forecast peak_fraction must be in (0, 1], got %f", r.Forecast.PeakFraction)
		}
	}

	return nil
}

func validateSolver(s *SolverConfig, mode string) error {
	// The stub mode never shells out, so no executable is required.
	if mode != ModeStub && s.Executable == "" {
		return fmt.Errorf("executable is required in %s mode", mode)
	}
	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", s.TimeoutSeconds)
	}
	if s.GeometryFile == "" {
		return fmt.Errorf("geometry_file is required")
	}
	return nil
}

func validateSearch(s *SearchConfig) error {
	if s.StartAngle < 0 || s.StartAngle >= 360 {
		return fmt.Errorf("start_angle must be in [0, 360), got %f", s.StartAngle)
	}
	if s.EndAngle <= s.StartAngle || s.EndAngle > 360 {
		return fmt.Errorf("end_angle must be in (start_angle, 360], got %f", s.EndAngle)
	}
	if s.IncrementAngle <= 0 {
		return fmt.Errorf("increment_angle must be positive, got %f", s.IncrementAngle)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", s.BatchSize)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", s.Workers)
	}
	return nil
}

func validateFilters(f *FilterConfig) error {
	if f.ConditionMedianFactor <= 0 {
		return fmt.Errorf("condition_median_factor must be positive, got %f", f.ConditionMedianFactor)
	}
	if f.WorkMedianFactor <= 0 {
		return fmt.Errorf("work_median_factor must be positive, got %f", f.WorkMedianFactor)
	}
	return nil
}

func validateCorrection(c *CorrectionConfig) error {
	if c.MinInteriorAngleDeg <= 0 || c.MinInteriorAngleDeg >= 180 {
		return fmt.Errorf("min_interior_angle_deg must be in (0, 180), got %f", c.MinInteriorAngleDeg)
	}
	if c.SelfTestMinSeparation < 1 {
		return fmt.Errorf("self_test_min_separation must be at least 1, got %d", c.SelfTestMinSeparation)
	}
	if c.SnapDistanceFactor <= 0 {
		return fmt.Errorf("snap_distance_factor must be positive, got %f", c.SnapDistanceFactor)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts cannot be negative, got %d", c.MaxAttempts)
	}
	return nil
}

func validateBranching(b *BranchConfig) error {
	if !b.Enabled {
		return nil
	}
	if b.MinElements < 2 {
		return fmt.Errorf("min_elements must be at least 2, got %d", b.MinElements)
	}
	if b.S0 <= 0 {
		return fmt.Errorf("s0 must be positive when branching is enabled, got %f", b.S0)
	}
	return nil
}
