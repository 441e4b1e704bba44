package cpdtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceTransformBackgroundPixelsAreZero(t *testing.T) {
	mask := []uint8{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}
	dist := distanceTransformL2(mask, 3, 3)
	for i, v := range mask {
		if v == 0 {
			assert.Equal(t, 0.0, dist[i])
		}
	}
}

func TestDistanceTransformIncreasesWithDistanceFromBackground(t *testing.T) {
	// A 1-row strip of object pixels bounded by background on both ends.
	mask := []uint8{0, 1, 1, 1, 0}
	dist := distanceTransformL2(mask, 5, 1)

	assert.Equal(t, 0.0, dist[0])
	assert.Equal(t, 0.0, dist[4])
	assert.InDelta(t, 1.0, dist[1], 1e-6)
	assert.InDelta(t, 1.0, dist[3], 1e-6)
	// Center pixel is farthest from both background ends.
	assert.True(t, dist[2] >= dist[1])
}

func TestDistanceTransformAllBackgroundIsZero(t *testing.T) {
	mask := make([]uint8, 9)
	dist := distanceTransformL2(mask, 3, 3)
	for _, v := range dist {
		assert.Equal(t, 0.0, v)
	}
}

func TestNormalizeMinMaxRescalesToUnitRange(t *testing.T) {
	vals := []float64{2, 4, 6, 8}
	normalizeMinMax(vals)
	assert.Equal(t, []float64{0, 2.0 / 6, 4.0 / 6, 1}, vals)
}

func TestNormalizeMinMaxConstantInputBecomesZero(t *testing.T) {
	vals := []float64{3, 3, 3}
	normalizeMinMax(vals)
	assert.Equal(t, []float64{0, 0, 0}, vals)
}

func TestNormalizeMinMaxEmptyIsNoop(t *testing.T) {
	var vals []float64
	normalizeMinMax(vals) // must not panic
	assert.Empty(t, vals)
}
