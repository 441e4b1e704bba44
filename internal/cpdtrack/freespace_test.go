package cpdtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeSpaceCostZeroWhenNoVertices(t *testing.T) {
	frame := Frame{Width: 4, Height: 4, RGB: make([]uint8, 48), Depth: make([]uint16, 16), Mask: make([]uint8, 16)}
	cost := freeSpaceCost(nil, testProjection(), frame, 100.0)
	assert.Equal(t, 0.0, cost)
}

func TestFreeSpaceCostSkipsInvalidDepthVertices(t *testing.T) {
	w, h := 8, 8
	frame := Frame{
		Width: w, Height: h,
		RGB:   make([]uint8, w*h*3),
		Depth: make([]uint16, w*h), // all zero = invalid
		Mask:  make([]uint8, w*h),
	}
	// All vertices land on invalid depth, so count stays 0 and the
	// average falls back to the zero default.
	verts := []Point3{{X: 0, Y: 0, Z: 1}, {X: 0.1, Y: 0.1, Z: 2}}
	cost := freeSpaceCost(verts, testProjection(), frame, 100.0)
	assert.Equal(t, 0.0, cost)
}

func TestFreeSpaceCostHigherWhenProjectedPixelIsDeeperInsideForegroundMask(t *testing.T) {
	// Principal point (cx, cy) = (50, 50) in testProjection; a vertex with
	// X=Y=0 always projects near pixel (50, 50) regardless of Z. Free-space
	// cost only accrues at pixels the mask marks foreground (distance to
	// background is 0 everywhere else); it grows with how deep inside the
	// foreground blob the projected pixel lands.
	w, h := 100, 100
	mkFrame := func(blobRadius int) Frame {
		frame := Frame{
			Width: w, Height: h,
			RGB:   make([]uint8, w*h*3),
			Depth: make([]uint16, w*h),
			Mask:  make([]uint8, w*h),
		}
		for i := range frame.Depth {
			frame.Depth[i] = 500 // 0.5m everywhere: a vertex in front of that has a positive delta
		}
		for y := 50 - blobRadius; y <= 50+blobRadius; y++ {
			for x := 50 - blobRadius; x <= 50+blobRadius; x++ {
				frame.Mask[y*w+x] = 1
			}
		}
		return frame
	}

	verts := []Point3{{X: 0, Y: 0, Z: 0.1}} // model in front of the 0.5m observed surface: positive delta

	shallowCost := freeSpaceCost(verts, testProjection(), mkFrame(1), 10.0)
	deepCost := freeSpaceCost(verts, testProjection(), mkFrame(10), 10.0)

	assert.True(t, deepCost > shallowCost, "expected cost to grow with depth inside the foreground blob, got shallow=%f deep=%f", shallowCost, deepCost)
}

func TestFreeSpaceCostZeroWhenProjectedPixelIsBackground(t *testing.T) {
	w, h := 20, 20
	frame := Frame{
		Width: w, Height: h,
		RGB:   make([]uint8, w*h*3),
		Depth: make([]uint16, w*h),
		Mask:  make([]uint8, w*h), // all background
	}
	for i := range frame.Depth {
		frame.Depth[i] = 500
	}
	verts := []Point3{{X: 0, Y: 0, Z: 5.0}}
	cost := freeSpaceCost(verts, testProjection(), frame, 10.0)
	assert.Equal(t, 0.0, cost)
}

func TestFreeSpaceCostUsesUnnormalizedDistanceImage(t *testing.T) {
	// With a fully-foreground mask, distanceTransformL2 leaves every pixel
	// at the large sentinel value (no background to propagate from); since
	// freeSpaceCost does NOT normalize, any positive depth delta saturates
	// exp(-k*score) near zero, driving prob toward 1 rather than the
	// normalized near-zero distances visibilityPrior would produce.
	w, h := 10, 10
	frame := Frame{
		Width: w, Height: h,
		RGB:   make([]uint8, w*h*3),
		Depth: make([]uint16, w*h),
		Mask:  make([]uint8, w*h),
	}
	for i := range frame.Mask {
		frame.Mask[i] = 1
		frame.Depth[i] = 1000 // 1.0m observed
	}
	verts := []Point3{{X: 0, Y: 0, Z: 0.1}} // model claims to be well in front of the observed surface
	cost := freeSpaceCost(verts, testProjection(), frame, 1.0)
	assert.InDelta(t, 1.0, cost, 1e-6)
}
