package cpdtrack

import "math"

// freeSpaceCost computes the smooth free-space cost used by the recovery
// controller (§4.7). It reuses the projection and distance-transform
// pipeline of visibilityPrior but deliberately differs in four ways,
// preserved per §9's Open Questions:
//   - the depth diff sign is flipped (d_raw*s - v.z, not v.z - d_raw*s)
//   - invalid depth yields NaN rather than the 0.02 numerical guard
//   - the distance-to-mask image is NOT normalized
//   - projection uses the 3x3 intrinsics K, not the full 3x4 P
func freeSpaceCost(verts []Point3, proj Projection, frame Frame, k float64) float64 {
	w, h := frame.Width, frame.Height
	intr := proj.K()

	distImg := distanceTransformL2(frame.Mask, w, h)

	sum := 0.0
	count := 0
	for _, v := range verts {
		u, px := projectPixelK(v, intr, w, h)

		rawDepth := frame.DepthAt(u, px)
		var delta float64
		if rawDepth != 0 {
			delta = float64(rawDepth)*depthScale - v.Z
		} else {
			delta = math.NaN()
		}
		if math.IsNaN(delta) {
			continue
		}
		if delta < 0 {
			delta = 0
		}

		dm := distImg[px*w+u]
		score := dm * delta
		prob := 1 - math.Exp(-k*score)

		sum += prob
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
