package cpdtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRecoveryCfg() Config {
	cfg := DefaultConfig()
	cfg.UseRecovery = true
	cfg.RecoveryThreshold = 0.5
	cfg.RecoveryK = 1
	cfg.FreeSpaceK = 10.0
	cfg.MaxIterations = 10
	return cfg
}

func fakeCtx(proj Projection, frame Frame, template []Point3) recoveryContext {
	mLLE := buildLLEOperator(template, 4, 1e-3)
	return recoveryContext{
		downsampled: PointCloud{Points: template},
		prior: func(y []Point3) []float64 {
			return uniformPrior(len(y))
		},
		mLLE:        mLLE,
		proj:        proj,
		frame:       frame,
		edges:       []Edge{{I: 0, J: 1}},
		restLengths: []float64{1.0},
		fixed:       nil,
	}
}

func emptyFrame(w, h int) Frame {
	return Frame{Width: w, Height: h, RGB: make([]uint8, w*h*3), Depth: make([]uint16, w*h), Mask: make([]uint8, w*h)}
}

func TestRecoveryControllerNoopWhenDisabled(t *testing.T) {
	cfg := baseRecoveryCfg()
	cfg.UseRecovery = false
	rc := newRecoveryController(5, NewDefaultOptimizer(), cfg)

	yOpt := []Point3{{X: 0}, {X: 1}}
	ctx := fakeCtx(testProjection(), emptyFrame(10, 10), yOpt)

	out := rc.evaluate(yOpt, ctx)
	assert.Equal(t, yOpt, out)
	assert.Equal(t, 0, rc.matcher.size(), "disabled recovery must not touch the matcher")
}

// Below-threshold cost should be accepted as-is and added to the matcher,
// regardless of how many templates are already stored.
func TestRecoveryControllerAcceptsLowCostAndLearnsTemplate(t *testing.T) {
	cfg := baseRecoveryCfg()
	cfg.RecoveryThreshold = 1e9 // unreachable, forces the accept path
	rc := newRecoveryController(5, NewDefaultOptimizer(), cfg)

	yOpt := []Point3{{X: 0}, {X: 1}}
	frame := emptyFrame(10, 10) // all background -> freeSpaceCost is 0
	ctx := fakeCtx(testProjection(), frame, yOpt)

	out := rc.evaluate(yOpt, ctx)
	assert.Equal(t, yOpt, out)
	require.Equal(t, 1, rc.matcher.size(), "accepted frames must be learned into the matcher")
}

// Recovery requires BOTH cost > threshold AND more than RecoveryK templates
// already stored; with an empty matcher it must fall through to accept.
func TestRecoveryControllerDoesNotFireWithTooFewTemplates(t *testing.T) {
	cfg := baseRecoveryCfg()
	cfg.RecoveryThreshold = -1.0 // any non-negative cost exceeds this
	rc := newRecoveryController(5, NewDefaultOptimizer(), cfg)

	yOpt := []Point3{{X: 0}, {X: 1}}
	frame := emptyFrame(10, 10)
	ctx := fakeCtx(testProjection(), frame, yOpt)

	out := rc.evaluate(yOpt, ctx)
	assert.Equal(t, yOpt, out, "with zero stored templates, recovery must not fire even when cost exceeds threshold")
	assert.Equal(t, 1, rc.matcher.size())
}

// Seed scenario 5 (Catastrophic loss -> recovery): once the matcher holds
// enough templates and the current estimate's free-space cost is high,
// recovery must rerun from past templates and keep whichever candidate
// (including the original) scores lowest, without learning this frame.
func TestRecoveryControllerFiresAndKeepsBestCandidate(t *testing.T) {
	cfg := baseRecoveryCfg()
	cfg.RecoveryThreshold = -1.0 // always exceeded
	cfg.RecoveryK = 1
	rc := newRecoveryController(5, NewDefaultOptimizer(), cfg)

	// The guard is size() > RecoveryK (strictly greater), so RecoveryK=1
	// needs 2 stored templates before the recovery branch fires at all.
	goodTemplate := []Point3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	rc.matcher.addTemplate(PointCloud{Points: goodTemplate}, goodTemplate)
	rc.matcher.addTemplate(PointCloud{Points: goodTemplate}, goodTemplate)
	require.Equal(t, 2, rc.matcher.size())

	yOpt := []Point3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	frame := emptyFrame(10, 10) // all-background: every candidate scores freeSpaceCost=0
	ctx := fakeCtx(testProjection(), frame, goodTemplate)

	out := rc.evaluate(yOpt, ctx)
	require.Len(t, out, 2)
	// Every candidate ties the original at cost 0 and only a strictly lower
	// cost replaces it, so the original Y_opt is the best and is kept.
	assert.Equal(t, yOpt, out)
	// The recovery path must not add this frame's estimate to the matcher.
	assert.Equal(t, 2, rc.matcher.size(), "a recovery-triggered frame must not be learned")
}
