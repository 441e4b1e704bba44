package cpdtrack

import "math"

// cpdResult is the output of the CPD-LLE registration loop (§4.5): the
// deformed template TY, plus the σ² trajectory recorded for diagnostics
// and for the "σ² monotone in expectation" testable property.
type cpdResult struct {
	TY         []Point3
	SigmaTrace []float64
}

// runCPD iteratively deforms template points Y toward observed cloud X
// under a Gaussian mixture model with LLE coherence and the visibility
// prior, per §4.5. mLLE and gaussianKernel(Y) are both MxM; Y is the
// current template estimate (not necessarily the original T0 — recovery
// reruns this with candidate templates).
func runCPD(x []Point3, y []Point3, prior []float64, mLLE *matrix, cfg Config) cpdResult {
	n := len(x)
	m := len(y)
	d := 3.0

	g := gaussianKernel(y, cfg.Beta)
	ty := make([]Point3, m)
	copy(ty, y)

	sigma2 := initialSigma2(x, ty) * cfg.InitialSigmaScale
	if sigma2 <= 0 {
		sigma2 = cfg.Tolerance / 10
	}

	trace := make([]float64, 0, cfg.MaxIterations+1)
	trace = append(trace, sigma2)

	iterations := 0
	errVal := cfg.Tolerance + 1
	for iterations <= cfg.MaxIterations && errVal > cfg.Tolerance {
		qprev := sigma2

		// E-step.
		p := newMatrix(m, n)
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				diff := x[j].Sub(ty[i])
				p.set(i, j, math.Exp(-diff.Norm2()/(2*sigma2))*prior[i])
			}
		}
		c := math.Pow(2*math.Pi*sigma2, d/2) * (cfg.OutlierWeight / (1 - cfg.OutlierWeight)) * (float64(m) / float64(n))

		den := make([]float64, n)
		for j := 0; j < n; j++ {
			s := 0.0
			for i := 0; i < m; i++ {
				s += p.at(i, j)
			}
			den[j] = s + c
		}
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				denj := den[j]
				if denj == 0 || math.IsNaN(denj) {
					// NaN/zero denominator: row contributes zero (§7).
					p.set(i, j, 0)
					continue
				}
				p.set(i, j, p.at(i, j)/denj)
			}
		}

		// M-step.
		pt1 := make([]float64, n) // column sums
		p1 := make([]float64, m)  // row sums
		for j := 0; j < n; j++ {
			s := 0.0
			for i := 0; i < m; i++ {
				s += p.at(i, j)
			}
			pt1[j] = s
		}
		np := 0.0
		for i := 0; i < m; i++ {
			s := 0.0
			for j := 0; j < n; j++ {
				s += p.at(i, j)
			}
			p1[i] = s
			np += s
		}

		lambda := cfg.StartLambda * math.Pow(cfg.AnnealingFactor, float64(iterations+1))

		// A = diag(P1)*G + alpha*sigma2*I + sigma2*lambda*(M_lle*G)
		mLleG := mLLE.mul(g)
		a := newMatrix(m, m)
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				v := p1[i]*g.at(i, j) + sigma2*lambda*mLleG.at(i, j)
				if i == j {
					v += cfg.Alpha * sigma2
				}
				a.set(i, j, v)
			}
		}

		// B = P*X - (diag(P1) + sigma2*lambda*M_lle)*Y
		px := matMulPoints(p, x) // Mx3
		b := newMatrix(m, 3)
		for i := 0; i < m; i++ {
			// (diag(P1) + sigma2*lambda*M_lle) * Y, row i
			var rowX, rowY, rowZ float64
			for jj := 0; jj < m; jj++ {
				coeff := sigma2 * lambda * mLLE.at(i, jj)
				if i == jj {
					coeff += p1[i]
				}
				rowX += coeff * y[jj].X
				rowY += coeff * y[jj].Y
				rowZ += coeff * y[jj].Z
			}
			b.set(i, 0, px[i].X-rowX)
			b.set(i, 1, px[i].Y-rowY)
			b.set(i, 2, px[i].Z-rowZ)
		}

		w, ok := a.solve(b)
		if !ok {
			// Singular A: keep TY from the previous iteration and bail out
			// of the loop rather than propagate NaNs.
			break
		}

		// TY = Y + G*W
		gw := g.mul(w)
		newTY := make([]Point3, m)
		for i := 0; i < m; i++ {
			newTY[i] = Point3{
				X: y[i].X + gw.at(i, 0),
				Y: y[i].Y + gw.at(i, 1),
				Z: y[i].Z + gw.at(i, 2),
			}
		}
		ty = newTY

		// sigma2' = (xPx - 2*trPXY + yPy) / (Np*D)
		xPx := 0.0
		for j := 0; j < n; j++ {
			xPx += pt1[j] * x[j].Norm2()
		}
		yPy := 0.0
		for i := 0; i < m; i++ {
			yPy += p1[i] * ty[i].Norm2()
		}
		trPXY := 0.0
		for i := 0; i < m; i++ {
			trPXY += ty[i].Dot(px[i])
		}

		newSigma2 := (xPx - 2*trPXY + yPy) / (np * d)
		if newSigma2 <= 0 || math.IsNaN(newSigma2) {
			newSigma2 = cfg.Tolerance / 10
		}
		errVal = math.Abs(newSigma2 - qprev)
		sigma2 = newSigma2
		trace = append(trace, sigma2)

		iterations++
	}

	return cpdResult{TY: ty, SigmaTrace: trace}
}

// initialSigma2 computes (sum_ij ||X_i - Y_j||^2) / (N*M*D), per §4.5.
func initialSigma2(x, y []Point3) float64 {
	n, m := len(x), len(y)
	if n == 0 || m == 0 {
		return 0
	}
	total := 0.0
	for _, xi := range x {
		for _, yj := range y {
			total += xi.Sub(yj).Norm2()
		}
	}
	return total / float64(n*m*3)
}

// gaussianKernel computes G_ij = exp(-||Y_i - Y_j||^2 / (2*beta)).
func gaussianKernel(y []Point3, beta float64) *matrix {
	m := len(y)
	g := newMatrix(m, m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			d := y[i].Sub(y[j]).Norm2()
			g.set(i, j, math.Exp(-d/(2*beta)))
		}
	}
	return g
}

// matMulPoints computes P * X where P is MxN and X is Nx3, returning Mx3
// as a []Point3.
func matMulPoints(p *matrix, x []Point3) []Point3 {
	m, n := p.rows, p.cols
	out := make([]Point3, m)
	for i := 0; i < m; i++ {
		var sx, sy, sz float64
		for j := 0; j < n; j++ {
			pij := p.at(i, j)
			sx += pij * x[j].X
			sy += pij * x[j].Y
			sz += pij * x[j].Z
		}
		out[i] = Point3{sx, sy, sz}
	}
	return out
}
