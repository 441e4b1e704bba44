package cpdtrack

// recoveryController implements §4.9: after CPD+optimizer yields Y_opt, it
// scores the result by the smooth free-space cost. If tracking appears
// lost (cost exceeds tau and the matcher holds more than k_r templates),
// it retrieves the k_r nearest past templates, reruns CPD+optimization
// from each, and keeps the best (including the original in the
// comparison) — without adding anything to the matcher that frame.
// Otherwise it accepts Y_opt and appends it to the matcher.
type recoveryController struct {
	matcher *templateMatcher
	solver  EdgeConstraintSolver
	cfg     Config
}

func newRecoveryController(capacity int, solver EdgeConstraintSolver, cfg Config) *recoveryController {
	return &recoveryController{
		matcher: newTemplateMatcher(capacity),
		solver:  solver,
		cfg:     cfg,
	}
}

// recoveryContext bundles everything a rerun of CPD+optimizer needs, so
// the recovery controller doesn't need to know about Tracker internals.
type recoveryContext struct {
	downsampled PointCloud
	prior       func(y []Point3) []float64
	mLLE        *matrix
	proj        Projection
	frame       Frame
	edges       []Edge
	restLengths []float64
	fixed       []FixedPoint
}

// evaluate runs §4.9 given the already-computed Y_opt for this frame. It
// returns the final tracked result, which is Y_opt unless recovery fired
// and found a better candidate.
func (rc *recoveryController) evaluate(yOpt []Point3, ctx recoveryContext) []Point3 {
	if !rc.cfg.UseRecovery {
		return yOpt
	}

	cost := freeSpaceCost(yOpt, ctx.proj, ctx.frame, rc.cfg.FreeSpaceK)

	if cost > rc.cfg.RecoveryThreshold && rc.matcher.size() > rc.cfg.RecoveryK {
		best := yOpt
		bestCost := cost

		candidates := rc.matcher.queryTemplate(ctx.downsampled, rc.cfg.RecoveryK)
		for _, templ := range candidates {
			prior := ctx.prior(templ)
			result := runCPD(ctx.downsampled.Points, templ, prior, ctx.mLLE, rc.cfg)
			proposed, err := rc.solver.Solve(result.TY, ctx.edges, ctx.restLengths, rc.cfg.EdgeLengthSlack, ctx.fixed)
			if err != nil {
				continue
			}
			proposalCost := freeSpaceCost(proposed, ctx.proj, ctx.frame, rc.cfg.FreeSpaceK)
			if proposalCost < bestCost {
				best = proposed
				bestCost = proposalCost
			}
		}
		return best
	}

	rc.matcher.addTemplate(ctx.downsampled, yOpt)
	return yOpt
}
