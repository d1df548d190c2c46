package config

// Loading types supported by the driver. Displacement-driven models minimize
// normalized external work, stress-driven models maximize it.
const (
	LoadingDisplacement = "displacement"
	LoadingStress       = "stress"
)

// Run modes.
const (
	ModeNormal    = "normal"
	ModeStub      = "stub"
	ModePointSeed = "point-seeded"
)

// Tip ordering policies.
const (
	TipOrderSequential = "sequential"
	TipOrderSerial     = "serial"
)

// Config represents the full run configuration
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Run        RunConfig        `yaml:"run"`
	Solver     SolverConfig     `yaml:"solver"`
	Search     SearchConfig     `yaml:"search"`
	Filters    FilterConfig     `yaml:"filters"`
	Correction CorrectionConfig `yaml:"correction"`
	Branching  BranchConfig     `yaml:"branching"`
	Topography TopoConfig       `yaml:"topography"`
	Report     ReportConfig     `yaml:"report"`
}

// RunConfig controls the driving loop
type RunConfig struct {
	Mode                string          `yaml:"mode"`         // normal, stub, point-seeded
	Loading             string          `yaml:"loading"`      // displacement or stress
	TipOrdering         string          `yaml:"tip_ordering"` // sequential or serial
	MaxIncrements       int             `yaml:"max_increments"`
	SeedLength          float64         `yaml:"seed_length"` // new element length for point-seeded cracks
	HighStressTipsOnly  bool            `yaml:"high_stress_tips_only"`
	RecheckStalledEvery int             `yaml:"recheck_stalled_every"` // 0 disables rechecking
	Forecast            *ForecastConfig `yaml:"forecast,omitempty"`
}

// ForecastConfig replaces the absolute-optimum pick with a linear interpolation
// of the angle at a target fraction of peak normalized work
type ForecastConfig struct {
	Enabled      bool    `yaml:"enabled"`
	PeakFraction float64 `yaml:"peak_fraction"`
}

// SolverConfig locates and bounds the external mechanical solver
type SolverConfig struct {
	Executable     string `yaml:"executable"`
	WorkDir        string `yaml:"work_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	GeometryFile   string `yaml:"geometry_file"`
}

// SearchConfig defines the coarse angle sweep and evaluation parallelism
type SearchConfig struct {
	StartAngle     float64 `yaml:"start_angle"`
	EndAngle       float64 `yaml:"end_angle"`
	IncrementAngle float64 `yaml:"increment_angle"`
	BatchSize      int     `yaml:"batch_size"`
	Workers        int     `yaml:"workers"`
}

// FilterConfig carries the outlier filter constants. The median multipliers are
// empirical and preserved as configuration rather than hard-coded.
type FilterConfig struct {
	ConditionMedianFactor float64 `yaml:"condition_median_factor"`
	WorkMedianFactor      float64 `yaml:"work_median_factor"`
	DisableSlipCheck      bool    `yaml:"disable_slip_check"`
}

// CorrectionConfig carries the intersection corrector constants
type CorrectionConfig struct {
	MinInteriorAngleDeg   float64 `yaml:"min_interior_angle_deg"`
	SelfTestMinSeparation int     `yaml:"self_test_min_separation"`
	SnapDistanceFactor    float64 `yaml:"snap_distance_factor"`
	// MaxAttempts bounds correction passes per trial; zero derives the
	// budget as 2x the fracture count plus the boundary count.
	MaxAttempts int `yaml:"max_attempts"`
}

// BranchConfig controls the Coulomb-stress branch evaluator. The shear and
// normal coefficients are case-specific material constants.
type BranchConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MinElements int     `yaml:"min_elements"`
	ShearCoeff  float64 `yaml:"shear_coeff"`
	NormalCoeff float64 `yaml:"normal_coeff"`
	S0          float64 `yaml:"s0"`
}

// TopoConfig enables the per-increment topography update
type TopoConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// ReportConfig controls report output
type ReportConfig struct {
	Path         string `yaml:"path"`
	PlotProfiles bool   `yaml:"plot_profiles"`
	PlotDir      string `yaml:"plot_dir"`
}
