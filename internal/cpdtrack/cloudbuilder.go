package cpdtrack

import "math"

// depthScale converts millimeters (the wire unit) to meters.
const depthScale = 1e-3

// bbox is an axis-aligned box expressed as componentwise (lo, hi).
type bbox struct {
	Lo, Hi Point3
}

// expand returns b grown by margin on every axis.
func (b bbox) expand(margin float64) bbox {
	m := Point3{margin, margin, margin}
	return bbox{
		Lo: Point3{b.Lo.X - m.X, b.Lo.Y - m.Y, b.Lo.Z - m.Z},
		Hi: Point3{b.Hi.X + m.X, b.Hi.Y + m.Y, b.Hi.Z + m.Z},
	}
}

func (b bbox) contains(p Point3) bool {
	return p.X >= b.Lo.X && p.X <= b.Hi.X &&
		p.Y >= b.Lo.Y && p.Y <= b.Hi.Y &&
		p.Z >= b.Lo.Z && p.Z <= b.Hi.Z
}

func defaultBBox() bbox {
	return bbox{Lo: Point3{-5, -5, -5}, Hi: Point3{5, 5, 5}}
}

// buildClouds back-projects depth+RGB+mask into an unfiltered organized
// cloud and a filtered, masked, box-clipped candidate cloud, per §4.2.
//
// Per pixel: depth==0 emits NaN into the organized output. Otherwise
// z = depth*s, x = (u-cx)*z/fx, y = (v-cy)*z/fy with s = 1e-3. A point is
// additionally emitted into the filtered cloud iff its mask is nonzero AND
// it falls inside box (componentwise, inclusive).
func buildClouds(f Frame, p Projection, box bbox) (unfiltered ColorPointCloud, filtered PointCloud) {
	fx, fy, cx, cy := p.Intrinsics()

	unfiltered.Points = make([]ColorPoint3, f.Width*f.Height)
	filtered.Points = make([]Point3, 0, f.Width*f.Height/8)

	nan := math.NaN()
	idx := 0
	for v := 0; v < f.Height; v++ {
		for u := 0; u < f.Width; u++ {
			d := f.DepthAt(u, v)
			r, g, b := f.RGBAt(u, v)

			if d == 0 {
				unfiltered.Points[idx] = ColorPoint3{Point3: Point3{nan, nan, nan}, R: r, G: g, B: b}
				idx++
				continue
			}

			z := float64(d) * depthScale
			x := (float64(u) - cx) * z / fx
			y := (float64(v) - cy) * z / fy
			pt := Point3{x, y, z}

			unfiltered.Points[idx] = ColorPoint3{Point3: pt, R: r, G: g, B: b}
			idx++

			if f.MaskAt(u, v) && box.contains(pt) {
				filtered.Points = append(filtered.Points, pt)
			}
			// Masked-but-out-of-box points are dropped silently, per §4.2.
		}
	}
	return unfiltered, filtered
}
