package cpdtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint3Arithmetic(t *testing.T) {
	a := Point3{X: 3, Y: 4, Z: 0}
	b := Point3{X: 1, Y: 1, Z: 1}

	assert.Equal(t, Point3{X: 2, Y: 3, Z: -1}, a.Sub(b))
	assert.Equal(t, 3.0+4.0, a.Dot(b))
	assert.Equal(t, 25.0, a.Norm2())
}

func TestTemplateEdgeRestLengths(t *testing.T) {
	tpl := Template{
		Vertices: []Point3{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 4, Z: 0}, {X: 3, Y: 4, Z: 3}},
		Edges:    []Edge{{I: 0, J: 1}, {I: 1, J: 2}},
	}

	lengths := tpl.EdgeRestLengths()
	assert.InDelta(t, 5.0, lengths[0], 1e-9)
	assert.InDelta(t, 3.0, lengths[1], 1e-9)
	assert.Equal(t, 3, tpl.M())
}

func TestProjectionIntrinsicsAndK(t *testing.T) {
	p := Projection{M: [3][4]float64{
		{500, 0, 320, 0},
		{0, 500, 240, 0},
		{0, 0, 1, 0},
	}}

	fx, fy, cx, cy := p.Intrinsics()
	assert.Equal(t, 500.0, fx)
	assert.Equal(t, 500.0, fy)
	assert.Equal(t, 320.0, cx)
	assert.Equal(t, 240.0, cy)

	k := p.K()
	assert.Equal(t, [3][3]float64{{500, 0, 320}, {0, 500, 240}, {0, 0, 1}}, k)
}

func TestFrameAccessors(t *testing.T) {
	f := Frame{
		Width: 2, Height: 1,
		RGB:   []uint8{10, 20, 30, 40, 50, 60},
		Depth: []uint16{100, 200},
		Mask:  []uint8{0, 1},
	}

	assert.Equal(t, uint16(200), f.DepthAt(1, 0))
	assert.False(t, f.MaskAt(0, 0))
	assert.True(t, f.MaskAt(1, 0))

	r, g, b := f.RGBAt(1, 0)
	assert.Equal(t, uint8(40), r)
	assert.Equal(t, uint8(50), g)
	assert.Equal(t, uint8(60), b)
}

func TestSqrtClampsNegative(t *testing.T) {
	assert.Equal(t, 0.0, sqrt(-4.0))
	assert.Equal(t, 2.0, sqrt(4.0))
}
