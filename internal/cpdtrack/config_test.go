package cpdtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8, cfg.LLENeighbors)
	assert.Equal(t, 1e-3, cfg.LLEReg)
	assert.Equal(t, 3.0, cfg.Alpha)
	assert.Equal(t, 1.0, cfg.Beta)
	assert.Equal(t, 0.1, cfg.OutlierWeight)
	assert.Equal(t, 1.0/8, cfg.InitialSigmaScale)
	assert.Equal(t, 1.0, cfg.StartLambda)
	assert.Equal(t, 0.6, cfg.AnnealingFactor)
	assert.Equal(t, 1e-4, cfg.Tolerance)
	assert.Equal(t, 100, cfg.MaxIterations)
	assert.Equal(t, 10.0, cfg.VisibilityK)
	assert.Equal(t, 100.0, cfg.FreeSpaceK)
	assert.Equal(t, 0.02, cfg.VoxelLeaf)
	assert.Equal(t, 0.1, cfg.BoundingBoxMargin)
	assert.Equal(t, 1.0, cfg.EdgeLengthSlack)
	assert.False(t, cfg.UseRecovery)
	assert.Equal(t, 0.5, cfg.RecoveryThreshold)
	assert.Equal(t, 12, cfg.RecoveryK)
	assert.Equal(t, 1500, cfg.TemplateMatcherCap)
}
