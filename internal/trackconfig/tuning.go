// Package trackconfig loads cpdtrack tuning parameters from JSON, mirroring
// internal/config/tuning.go's TuningConfig: optional pointer fields that
// ToCoreConfig resolves, falling back to cpdtrack.DefaultConfig() for any
// unset field, and partial-override support for a caller-supplied JSON file.
package trackconfig

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ropetrack/cdcpd-go/internal/cpdtrack"
)

//go:embed defaults.json
var defaultsFS embed.FS

const defaultsFile = "defaults.json"

// TuningConfig is the JSON-overridable view of cpdtrack.Config. Unlike the
// teacher's on-disk search chain (MustLoadDefaultConfig walking relative
// paths up from the working directory), defaults here are embedded at
// build time via go:embed, so importing this package carries no
// working-directory dependency — see DESIGN.md.
type TuningConfig struct {
	LLENeighbors            *int     `json:"lle_neighbors,omitempty"`
	LLEReg                  *float64 `json:"lle_reg,omitempty"`
	Alpha                   *float64 `json:"alpha,omitempty"`
	Beta                    *float64 `json:"beta,omitempty"`
	OutlierWeight           *float64 `json:"outlier_weight,omitempty"`
	InitialSigmaScale       *float64 `json:"initial_sigma_scale,omitempty"`
	StartLambda             *float64 `json:"start_lambda,omitempty"`
	AnnealingFactor         *float64 `json:"annealing_factor,omitempty"`
	Tolerance               *float64 `json:"tolerance,omitempty"`
	MaxIterations           *int     `json:"max_iterations,omitempty"`
	VisibilityK             *float64 `json:"visibility_k,omitempty"`
	FreeSpaceK              *float64 `json:"free_space_k,omitempty"`
	VoxelLeaf               *float64 `json:"voxel_leaf,omitempty"`
	BoundingBoxMargin       *float64 `json:"bounding_box_margin,omitempty"`
	EdgeLengthSlack         *float64 `json:"edge_length_slack,omitempty"`
	RecoveryThreshold       *float64 `json:"recovery_threshold,omitempty"`
	RecoveryK               *int     `json:"recovery_k,omitempty"`
	TemplateMatcherCapacity *int     `json:"template_matcher_capacity,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil; its
// ToCoreConfig() is exactly cpdtrack.DefaultConfig().
func EmptyTuningConfig() *TuningConfig { return &TuningConfig{} }

// MustLoadDefaultConfig loads the embedded canonical defaults. Panics if
// the embedded file is somehow malformed — this would only happen if the
// module itself were built incorrectly, so it is appropriate to panic
// rather than propagate, matching internal/config/tuning.go's
// MustLoadDefaultConfig contract.
func MustLoadDefaultConfig() *TuningConfig {
	data, err := defaultsFS.ReadFile(defaultsFile)
	if err != nil {
		panic("trackconfig: cannot read embedded " + defaultsFile + ": " + err.Error())
	}
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		panic("trackconfig: cannot parse embedded " + defaultsFile + ": " + err.Error())
	}
	return cfg
}

// LoadConfig loads a TuningConfig from a JSON file on disk. Fields omitted
// from the file stay nil and ToCoreConfig() fills them from
// cpdtrack.DefaultConfig(), so partial configs are safe, like
// internal/config/tuning.go's LoadTuningConfig.
func LoadConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// ToCoreConfig converts the overlay into a fully-resolved cpdtrack.Config,
// falling back to cpdtrack.DefaultConfig()'s values for any unset field.
func (c *TuningConfig) ToCoreConfig() cpdtrack.Config {
	d := cpdtrack.DefaultConfig()
	return cpdtrack.Config{
		LLENeighbors:       intOr(c.LLENeighbors, d.LLENeighbors),
		LLEReg:             floatOr(c.LLEReg, d.LLEReg),
		Alpha:              floatOr(c.Alpha, d.Alpha),
		Beta:               floatOr(c.Beta, d.Beta),
		OutlierWeight:      floatOr(c.OutlierWeight, d.OutlierWeight),
		InitialSigmaScale:  floatOr(c.InitialSigmaScale, d.InitialSigmaScale),
		StartLambda:        floatOr(c.StartLambda, d.StartLambda),
		AnnealingFactor:    floatOr(c.AnnealingFactor, d.AnnealingFactor),
		Tolerance:          floatOr(c.Tolerance, d.Tolerance),
		MaxIterations:      intOr(c.MaxIterations, d.MaxIterations),
		VisibilityK:        floatOr(c.VisibilityK, d.VisibilityK),
		FreeSpaceK:         floatOr(c.FreeSpaceK, d.FreeSpaceK),
		VoxelLeaf:          floatOr(c.VoxelLeaf, d.VoxelLeaf),
		BoundingBoxMargin:  floatOr(c.BoundingBoxMargin, d.BoundingBoxMargin),
		EdgeLengthSlack:    floatOr(c.EdgeLengthSlack, d.EdgeLengthSlack),
		UseRecovery:        d.UseRecovery,
		RecoveryThreshold:  floatOr(c.RecoveryThreshold, d.RecoveryThreshold),
		RecoveryK:          intOr(c.RecoveryK, d.RecoveryK),
		TemplateMatcherCap: intOr(c.TemplateMatcherCapacity, d.TemplateMatcherCap),
	}
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
