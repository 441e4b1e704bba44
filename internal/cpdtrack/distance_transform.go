package cpdtrack

import "math"

// distanceTransformL2 computes, for each pixel of an H x W mask (nonzero =
// object), the Euclidean distance to the nearest zero (background) pixel —
// the complement-mask distance transform used by §4.4 and §4.7
// (cv::distanceTransform(~mask, ..., DIST_L2, maskSize=5)).
//
// It uses the standard two-pass chamfer approximation: a forward pass
// propagating minimum distances from top-left, a backward pass from
// bottom-right, each considering the 5x5 neighborhood implied by maskSize=5
// (the immediate ring plus the knight's-move diagonals, the same
// neighborhood chamfer distance transforms commonly use to approximate
// true Euclidean distance). No ecosystem library in the retrieval pack
// performs distance transforms, so this kernel is implemented directly
// against the algorithm description rather than grounded on example code;
// see DESIGN.md.
func distanceTransformL2(mask []uint8, w, h int) []float64 {
	const inf = math.MaxFloat64 / 4

	dist := make([]float64, w*h)
	for i, v := range mask {
		if v != 0 {
			// Object pixel: distance to nearest background pixel starts
			// undetermined; zero pixels (background) start at 0.
			dist[i] = inf
		} else {
			dist[i] = 0
		}
	}

	// Chamfer offsets with their Euclidean weights, split by pass
	// direction so each pass only looks at already-visited neighbors.
	type off struct {
		dx, dy int
		w      float64
	}
	sqrt2 := math.Sqrt2
	sqrt5 := math.Sqrt(5)

	forward := []off{
		{-1, 0, 1}, {0, -1, 1}, {-1, -1, sqrt2}, {1, -1, sqrt2},
		{-2, -1, sqrt5}, {2, -1, sqrt5}, {-1, -2, sqrt5}, {1, -2, sqrt5},
	}
	backward := []off{
		{1, 0, 1}, {0, 1, 1}, {1, 1, sqrt2}, {-1, 1, sqrt2},
		{2, 1, sqrt5}, {-2, 1, sqrt5}, {1, 2, sqrt5}, {-1, 2, sqrt5},
	}

	at := func(x, y int) int { return y*w + x }
	inBounds := func(x, y int) bool { return x >= 0 && x < w && y >= 0 && y < h }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := at(x, y)
			if dist[idx] == 0 {
				continue
			}
			best := dist[idx]
			for _, o := range forward {
				nx, ny := x+o.dx, y+o.dy
				if inBounds(nx, ny) {
					if cand := dist[at(nx, ny)] + o.w; cand < best {
						best = cand
					}
				}
			}
			dist[idx] = best
		}
	}

	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			idx := at(x, y)
			if dist[idx] == 0 {
				continue
			}
			best := dist[idx]
			for _, o := range backward {
				nx, ny := x+o.dx, y+o.dy
				if inBounds(nx, ny) {
					if cand := dist[at(nx, ny)] + o.w; cand < best {
						best = cand
					}
				}
			}
			dist[idx] = best
		}
	}

	return dist
}

// normalizeMinMax rescales vals in place to [0, 1] using its own min/max,
// matching cv::normalize(..., 0.0, 1.0, NORM_MINMAX).
func normalizeMinMax(vals []float64) {
	if len(vals) == 0 {
		return
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		for i := range vals {
			vals[i] = 0
		}
		return
	}
	for i, v := range vals {
		vals[i] = (v - lo) / span
	}
}
