package cpdtrack

// Config holds every tuning knob named in spec §6, with the defaults given
// throughout §4. Zero-value Config is NOT valid for direct use; call
// DefaultConfig() and override fields as needed.
type Config struct {
	// LLE precomputation (§4.1)
	LLENeighbors int     // k_lle, default 8
	LLEReg       float64 // reg, default 1e-3

	// CPD-LLE registration (§4.5)
	Alpha              float64 // membrane stiffness, default 3.0
	Beta               float64 // kernel width^2, default 1.0
	OutlierWeight      float64 // w, default 0.1
	InitialSigmaScale  float64 // default 1/8
	StartLambda        float64 // default 1.0
	AnnealingFactor    float64 // default 0.6
	Tolerance          float64 // default 1e-4
	MaxIterations      int     // default 100

	// Visibility prior (§4.4)
	VisibilityK float64 // default 10.0 (ambiguous in source; see DESIGN.md)

	// Free-space cost (§4.7)
	FreeSpaceK float64 // default 100.0

	// Voxel downsampler (§4.3)
	VoxelLeaf float64 // default 0.02 m

	// Bounding box (§3, §4.2)
	BoundingBoxMargin float64 // default 0.1 m

	// Post-optimizer (§4.6)
	EdgeLengthSlack float64 // eps, default 1.0 (i.e. 100% slack, source default)

	// Recovery controller (§4.9)
	UseRecovery            bool
	RecoveryThreshold      float64 // tau, default 0.5
	RecoveryK              int     // k_r, default 12
	TemplateMatcherCap     int     // C_h, default 1500
}

// DefaultConfig returns the configuration implied literally by spec §4 and
// §6: the original cdcpd.cpp member-initializer defaults.
func DefaultConfig() Config {
	return Config{
		LLENeighbors:       8,
		LLEReg:             1e-3,
		Alpha:              3.0,
		Beta:               1.0,
		OutlierWeight:      0.1,
		InitialSigmaScale:  1.0 / 8,
		StartLambda:        1.0,
		AnnealingFactor:    0.6,
		Tolerance:          1e-4,
		MaxIterations:      100,
		VisibilityK:        10.0,
		FreeSpaceK:         100.0,
		VoxelLeaf:          0.02,
		BoundingBoxMargin:  0.1,
		EdgeLengthSlack:    1.0,
		UseRecovery:        false,
		RecoveryThreshold:  0.5,
		RecoveryK:          12,
		TemplateMatcherCap: 1500,
	}
}
