package cpdtrack

import "math"

// projectPixel projects a 3D point with the full 3x4 projection matrix P,
// clamping the continuous (u, v) to [0, W] x [0, H] and then the integer
// pixel coordinates to [0, W-1] x [1, H-1]. The vertical lower bound of 1
// (not 0) is intentional per §4.4/§9 and must be preserved.
func projectPixel(p Point3, proj Projection, w, h int) (u, v int) {
	row := func(r int) float64 {
		return proj.M[r][0]*p.X + proj.M[r][1]*p.Y + proj.M[r][2]*p.Z + proj.M[r][3]
	}
	xs, ys, zs := row(0), row(1), row(2)
	xs /= zs
	ys /= zs

	xs = clampF(xs, 0, float64(w))
	ys = clampF(ys, 0, float64(h))

	ui := int(xs)
	vi := int(ys)
	ui = clampI(ui, 0, w-1)
	vi = clampI(vi, 1, h-1)
	return ui, vi
}

// projectPixelK is projectPixel restricted to the 3x3 intrinsics block K,
// used only by the free-space cost (§4.7, §9 — the deliberate asymmetry
// with visibility's full 3x4 P).
func projectPixelK(p Point3, k [3][3]float64, w, h int) (u, v int) {
	row := func(r int) float64 {
		return k[r][0]*p.X + k[r][1]*p.Y + k[r][2]*p.Z
	}
	xs, ys, zs := row(0), row(1), row(2)
	xs /= zs
	ys /= zs

	xs = clampF(xs, 0, float64(w))
	ys = clampF(ys, 0, float64(h))

	ui := int(xs)
	vi := int(ys)
	ui = clampI(ui, 0, w-1)
	vi = clampI(vi, 1, h-1)
	return ui, vi
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// visibilityPrior assigns each template vertex a scalar weight in (0, 1]
// expressing how plausibly it could have generated any observed point,
// given depth ordering and distance-to-mask, per §4.4.
func visibilityPrior(verts []Point3, proj Projection, frame Frame, k float64) []float64 {
	w, h := frame.Width, frame.Height

	distImg := distanceTransformL2(frame.Mask, w, h)
	normalizeMinMax(distImg)

	prior := make([]float64, len(verts))
	for i, v := range verts {
		u, px := projectPixel(v, proj, w, h)

		rawDepth := frame.DepthAt(u, px)
		var delta float64
		if rawDepth != 0 {
			delta = v.Z - float64(rawDepth)*depthScale
		} else {
			delta = 0.02
		}
		if delta < 0 {
			delta = 0
		}

		dm := distImg[px*w+u]
		score := dm * delta
		prior[i] = math.Exp(-k * score)
	}
	return prior
}
