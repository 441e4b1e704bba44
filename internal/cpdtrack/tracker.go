package cpdtrack

import "fmt"

// Tracker owns all state persistent across frames: the reference template
// T0, its edge rest-lengths L, the LLE operator M_lle, the projection
// matrix P, the template history H, and the bounding-box state (§3). It is
// not safe for concurrent calls; callers must serialize (§5).
type Tracker struct {
	cfg Config

	t0          Template
	restLengths []float64
	mLLE        *matrix
	proj        Projection

	box bbox

	solver   EdgeConstraintSolver
	recovery *recoveryController
	sink     DiagnosticSink

	// y is the most recent optimized output, between frames.
	y []Point3
}

// New constructs a Tracker from a reference template, a 3x4 projection
// matrix, and the use_recovery flag (§6). The LLE operator is precomputed
// once here (§4.1) and never recomputed.
func New(template Template, proj Projection, useRecovery bool, cfg Config) (*Tracker, error) {
	if err := validateTemplate(template); err != nil {
		return nil, err
	}
	cfg.UseRecovery = useRecovery

	mLLE := buildLLEOperator(template.Vertices, cfg.LLENeighbors, cfg.LLEReg)

	y := make([]Point3, len(template.Vertices))
	copy(y, template.Vertices)

	t := &Tracker{
		cfg:         cfg,
		t0:          template,
		restLengths: template.EdgeRestLengths(),
		mLLE:        mLLE,
		proj:        proj,
		box:         defaultBBox(),
		solver:      NewDefaultOptimizer(),
		sink:        NoopSink{},
		y:           y,
	}
	t.recovery = newRecoveryController(cfg.TemplateMatcherCap, t.solver, cfg)
	return t, nil
}

// WithSolver overrides the default EdgeConstraintSolver (§4.6).
func (t *Tracker) WithSolver(solver EdgeConstraintSolver) *Tracker {
	t.solver = solver
	t.recovery.solver = solver
	return t
}

// WithDiagnostics installs a DiagnosticSink (§7: never load-bearing).
func (t *Tracker) WithDiagnostics(sink DiagnosticSink) *Tracker {
	if sink == nil {
		sink = NoopSink{}
	}
	t.sink = sink
	return t
}

// Current returns the tracker's most recent optimized vertex estimate.
func (t *Tracker) Current() []Point3 {
	out := make([]Point3, len(t.y))
	copy(out, t.y)
	return out
}

func validateTemplate(template Template) error {
	if len(template.Vertices) == 0 {
		return shapeErrorf("template has zero vertices")
	}
	for _, e := range template.Edges {
		if e.I < 0 || e.I >= len(template.Vertices) || e.J < 0 || e.J >= len(template.Vertices) {
			return shapeErrorf("edge (%d,%d) out of range for %d-vertex template", e.I, e.J, len(template.Vertices))
		}
	}
	return nil
}

// restLengthsFor returns, for each edge, ||T0[i]-T0[j]|| (§3: L is
// derived from T0 and is immutable across the tracker's lifetime,
// regardless of which template/edge list a given frame happens to pass).
func (t *Tracker) restLengthsFor(edges []Edge) ([]float64, error) {
	out := make([]float64, len(edges))
	for k, e := range edges {
		if e.I < 0 || e.I >= len(t.t0.Vertices) || e.J < 0 || e.J >= len(t.t0.Vertices) {
			return nil, shapeErrorf("edge (%d,%d) out of range for %d-vertex reference template", e.I, e.J, len(t.t0.Vertices))
		}
		d := t.t0.Vertices[e.I].Sub(t.t0.Vertices[e.J])
		out[k] = sqrt(d.Norm2())
	}
	return out, nil
}

func validateFrame(f Frame) error {
	if f.Width <= 0 || f.Height <= 0 {
		return shapeErrorf("frame has non-positive dimensions %dx%d", f.Width, f.Height)
	}
	n := f.Width * f.Height
	if len(f.Depth) != n {
		return shapeErrorf("depth length %d, want %d", len(f.Depth), n)
	}
	if len(f.Mask) != n {
		return shapeErrorf("mask length %d, want %d", len(f.Mask), n)
	}
	if len(f.RGB) != n*3 {
		return shapeErrorf("rgb length %d, want %d", len(f.RGB), n*3)
	}
	return nil
}

// Step runs one blocking, synchronous tracking update (§5): builds the
// observed cloud from the frame, downsamples it, runs CPD-LLE registration
// against the supplied template, snaps the result onto the geometric
// constraints, and — if recovery is enabled — checks whether tracking
// appears lost and retries from past templates.
//
// template is the current template. It must have T0's vertex count, since
// the LLE operator is sized from T0, and its edges index into both template
// and T0 (rest lengths are always taken from T0).
// fixedPoints are consumed only by the post-optimizer.
func (t *Tracker) Step(frame Frame, template Template, fixedPoints []FixedPoint) (Output, error) {
	if err := validateFrame(frame); err != nil {
		return Output{}, err
	}
	if err := validateTemplate(template); err != nil {
		return Output{}, err
	}
	// L is fixed at construction time from T0 (§3: "Immutable"); the
	// per-frame edge list supplies topology only, never new rest lengths.
	restLengths, err := t.restLengthsFor(template.Edges)
	if err != nil {
		return Output{}, err
	}

	expanded := t.box.expand(t.cfg.BoundingBoxMargin)
	unfiltered, filtered := buildClouds(frame, t.proj, expanded)

	out := Output{
		Unfiltered: unfiltered,
		Template:   template,
	}

	if len(filtered.Points) == 0 {
		// Empty filtered cloud (§7): skip CPD, return previous Y
		// unchanged, reset the bounding box to the construction default.
		t.box = defaultBBox()
		out.Filtered = filtered
		out.Downsampled = PointCloud{}
		out.Tracked = t.Current()
		t.sink.OnStepComplete(out, nil)
		return out, nil
	}

	downsampled := voxelDownsample(filtered, t.cfg.VoxelLeaf)
	out.Filtered = filtered
	out.Downsampled = downsampled

	priorFn := func(y []Point3) []float64 {
		return visibilityPrior(y, t.proj, frame, t.cfg.VisibilityK)
	}

	prior := priorFn(template.Vertices)
	cpdOut := runCPD(downsampled.Points, template.Vertices, prior, t.mLLE, t.cfg)

	yOpt, err := t.solver.Solve(cpdOut.TY, template.Edges, restLengths, t.cfg.EdgeLengthSlack, fixedPoints)
	if err != nil {
		return Output{}, fmt.Errorf("post-optimizer: %w", err)
	}

	final := t.recovery.evaluate(yOpt, recoveryContext{
		downsampled: downsampled,
		prior:       priorFn,
		mLLE:        t.mLLE,
		proj:        t.proj,
		frame:       frame,
		edges:       template.Edges,
		restLengths: restLengths,
		fixed:       fixedPoints,
	})

	t.y = final
	t.box = boundingBoxOf(final)

	out.Tracked = append([]Point3(nil), final...)
	t.sink.OnStepComplete(out, cpdOut.SigmaTrace)
	return out, nil
}

// boundingBoxOf returns the componentwise min/max of points.
func boundingBoxOf(points []Point3) bbox {
	if len(points) == 0 {
		return defaultBBox()
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		if p.X < lo.X {
			lo.X = p.X
		}
		if p.Y < lo.Y {
			lo.Y = p.Y
		}
		if p.Z < lo.Z {
			lo.Z = p.Z
		}
		if p.X > hi.X {
			hi.X = p.X
		}
		if p.Y > hi.Y {
			hi.Y = p.Y
		}
		if p.Z > hi.Z {
			hi.Z = p.Z
		}
	}
	return bbox{Lo: lo, Hi: hi}
}
