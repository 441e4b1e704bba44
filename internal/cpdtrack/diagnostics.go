package cpdtrack

// DiagnosticSink is the out-of-scope "file-based diagnostic dumps"
// collaborator named in spec §1/§7 by interface only. Step never depends
// on a sink producing correct output — it is purely observational and
// must be a no-op by default (§7: "never load-bearing").
//
// See internal/cpdtrack/diagnostics for concrete, off-by-default
// implementations (gonum/plot convergence charts, go-echarts scene dumps).
type DiagnosticSink interface {
	// OnStepComplete is called, if non-nil, after Step finishes building
	// its Output, with the σ² trace from the CPD loop that produced it.
	OnStepComplete(out Output, sigmaTrace []float64)
}

// NoopSink is the default DiagnosticSink: it does nothing. Tracker uses
// this unless a caller supplies one via WithDiagnostics.
type NoopSink struct{}

// OnStepComplete implements DiagnosticSink and intentionally does nothing.
func (NoopSink) OnStepComplete(Output, []float64) {}
