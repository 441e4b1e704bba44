package cpdtrack

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// buildLLEOperator computes M_lle = WᵀW - W - Wᵀ + I per §4.1, where W is
// the MxM row-stochastic barycentric-weights matrix derived from the
// reference template and a k_lle neighborhood size.
//
// The resulting matrix is symmetric positive semi-definite and generically
// rank-deficient; callers must not assume full rank (§4.1).
func buildLLEOperator(verts []Point3, kLLE int, reg float64) *matrix {
	m := len(verts)
	w := buildBarycentricWeights(verts, kLLE, reg)

	wt := mat.NewDense(m, m, nil)
	wt.CloneFrom(w.T())

	wtw := mat.NewDense(m, m, nil)
	wtw.Mul(wt, w)

	mLLE := mat.NewDense(m, m, nil)
	mLLE.Sub(wtw, w)
	mLLE.Sub(mLLE, wt)
	for i := 0; i < m; i++ {
		mLLE.Set(i, i, mLLE.At(i, i)+1)
	}
	return &matrix{d: mLLE, rows: m, cols: m}
}

// buildBarycentricWeights implements §4.1 steps 1-4 for every vertex.
func buildBarycentricWeights(verts []Point3, kLLE int, reg float64) *mat.Dense {
	m := len(verts)
	w := mat.NewDense(m, m, nil)
	if m == 0 || kLLE <= 0 {
		return w
	}
	k := kLLE
	if k > m-1 {
		k = m - 1
	}

	for i := range verts {
		neighbors := nearestNeighbors(verts, i, k)

		// C[j] = neighbor_j - vertex_i
		c := mat.NewDense(k, 3, nil)
		for j, nIdx := range neighbors {
			d := verts[nIdx].Sub(verts[i])
			c.Set(j, 0, d.X)
			c.Set(j, 1, d.Y)
			c.Set(j, 2, d.Z)
		}

		g := mat.NewDense(k, k, nil)
		g.Mul(c, c.T())

		trace := 0.0
		for d := 0; d < k; d++ {
			trace += g.At(d, d)
		}
		r := reg
		if trace > 0 {
			r *= trace
		}
		for d := 0; d < k; d++ {
			g.Set(d, d, g.At(d, d)+r)
		}

		ones := mat.NewDense(k, 1, onesSlice(k))
		var weights mat.Dense
		if err := weights.Solve(g, ones); err != nil {
			// Degenerate LLE (§7): rank-deficient even after regularization.
			// Fall back to uniform barycentric weights for this row.
			uniform := 1.0 / float64(k)
			for _, nIdx := range neighbors {
				w.Set(i, nIdx, uniform)
			}
			continue
		}

		sum := 0.0
		for d := 0; d < k; d++ {
			sum += weights.At(d, 0)
		}
		if sum == 0 {
			uniform := 1.0 / float64(k)
			for _, nIdx := range neighbors {
				w.Set(i, nIdx, uniform)
			}
			continue
		}
		for j, nIdx := range neighbors {
			w.Set(i, nIdx, weights.At(j, 0)/sum)
		}
	}
	return w
}

// nearestNeighbors returns the indices of the k nearest neighbors of
// verts[i] (Euclidean, excluding i), ties broken by ascending index.
func nearestNeighbors(verts []Point3, i, k int) []int {
	type cand struct {
		idx int
		d2  float64
	}
	cands := make([]cand, 0, len(verts)-1)
	for j := range verts {
		if j == i {
			continue
		}
		d := verts[j].Sub(verts[i])
		cands = append(cands, cand{j, d.Norm2()})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].d2 != cands[b].d2 {
			return cands[a].d2 < cands[b].d2
		}
		return cands[a].idx < cands[b].idx
	})
	if k > len(cands) {
		k = len(cands)
	}
	out := make([]int, k)
	for idx := 0; idx < k; idx++ {
		out[idx] = cands[idx].idx
	}
	return out
}

func onesSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}
