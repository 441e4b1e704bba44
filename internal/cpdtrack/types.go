// Package cpdtrack tracks a deformable 1-D object (a rope or cable modeled
// as an ordered chain of 3D vertices and edges) through a stream of
// synchronized RGB, depth and mask frames using Coherent Point Drift with
// an LLE coherence regularizer.
package cpdtrack

import "math"

// Point3 is a point in camera-frame 3D space, meters, z forward.
type Point3 struct {
	X, Y, Z float64
}

// Sub returns p - q.
func (p Point3) Sub(q Point3) Point3 {
	return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Dot returns the Euclidean dot product of p and q.
func (p Point3) Dot(q Point3) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Norm2 returns the squared Euclidean norm of p.
func (p Point3) Norm2() float64 {
	return p.Dot(p)
}

// ColorPoint3 is a back-projected point carrying its source RGB color.
type ColorPoint3 struct {
	Point3
	R, G, B uint8
}

// PointCloud is an unordered collection of 3D points. N varies frame to
// frame; no point has a persistent identity across clouds.
type PointCloud struct {
	Points []Point3
}

// Len returns the number of points in the cloud.
func (c PointCloud) Len() int { return len(c.Points) }

// ColorPointCloud is a PointCloud whose points also carry color, used for
// the unfiltered organized cloud of the per-frame output bundle.
type ColorPointCloud struct {
	Points []ColorPoint3
}

// Edge is an undirected edge (i, j) between template vertex indices.
type Edge struct {
	I, J int
}

// FixedPoint is a hard equality constraint consumed only by the
// post-optimizer: vertex Index must land exactly at Target.
type FixedPoint struct {
	Index  int
	Target Point3
}

// Template is the ordered vertex set of the tracked object in its
// reference pose, together with its edge topology. Created once at
// tracker construction; never mutated afterward.
type Template struct {
	Vertices []Point3
	Edges    []Edge
}

// M is the number of vertices in the template.
func (t Template) M() int { return len(t.Vertices) }

// EdgeRestLengths returns, for each edge in order, ||T0[i] - T0[j]||.
func (t Template) EdgeRestLengths() []float64 {
	lengths := make([]float64, len(t.Edges))
	for k, e := range t.Edges {
		d := t.Vertices[e.I].Sub(t.Vertices[e.J])
		lengths[k] = sqrt(d.Norm2())
	}
	return lengths
}

// Projection is a 3x4 camera projection matrix. Intrinsics are its left
// 3x3 block K: fx=P[0][0], fy=P[1][1], cx=P[0][2], cy=P[1][2].
type Projection struct {
	// Row-major 3x4.
	M [3][4]float64
}

// Intrinsics returns (fx, fy, cx, cy) read from the left 3x3 block of P.
func (p Projection) Intrinsics() (fx, fy, cx, cy float64) {
	return p.M[0][0], p.M[1][1], p.M[0][2], p.M[1][2]
}

// K returns the left 3x3 intrinsics block of P.
func (p Projection) K() [3][3]float64 {
	return [3][3]float64{
		{p.M[0][0], p.M[0][1], p.M[0][2]},
		{p.M[1][0], p.M[1][1], p.M[1][2]},
		{p.M[2][0], p.M[2][1], p.M[2][2]},
	}
}

// Frame bundles the per-frame sensor inputs. Depth is in millimeters
// (0 = invalid); Mask is boolean-valued (nonzero = object); RGB is packed
// 8-bit per channel. All three share Width x Height.
type Frame struct {
	Width, Height int
	RGB           []uint8  // len = Width*Height*3
	Depth         []uint16 // len = Width*Height, millimeters
	Mask          []uint8  // len = Width*Height, nonzero = object
}

func (f Frame) at(u, v int) int { return v*f.Width + u }

// DepthAt returns the raw millimeter depth at pixel (u, v).
func (f Frame) DepthAt(u, v int) uint16 { return f.Depth[f.at(u, v)] }

// MaskAt reports whether pixel (u, v) is marked as object.
func (f Frame) MaskAt(u, v int) bool { return f.Mask[f.at(u, v)] != 0 }

// RGBAt returns the (r, g, b) triple at pixel (u, v).
func (f Frame) RGBAt(u, v int) (r, g, b uint8) {
	i := f.at(u, v) * 3
	return f.RGB[i], f.RGB[i+1], f.RGB[i+2]
}

// Output is the per-frame result bundle described in spec §6.
type Output struct {
	Unfiltered ColorPointCloud // organized, unfiltered back-projection
	Filtered   PointCloud      // masked, box-clipped candidate points
	Downsampled PointCloud     // voxel-downsampled Filtered
	Template   Template        // the input template for this frame
	Tracked    []Point3        // the new tracked vertex positions (Y_opt)
}

func sqrt(x float64) float64 {
	if x < 0 {
		x = 0
	}
	return math.Sqrt(x)
}
