// Package diagnostics holds off-by-default visualization helpers for a
// cpdtrack.Tracker: a gonum/plot convergence chart and a go-echarts HTML
// scene dump. Neither is on the hot per-frame path; both are wired through
// cpdtrack.DiagnosticSink so a Tracker can be run with zero dependency on
// this package (cpdtrack.NoopSink).
//
// Grounded on internal/lidar/monitor/gridplotter.go (gonum/plot line
// charts with a legend) and internal/lidar/monitor/echarts_handlers.go
// (go-echarts scatter charts), adapted from live HTTP handlers serving a
// monitoring dashboard into plain file-writing functions.
package diagnostics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotConvergence renders sigma^2 per CPD iteration to a PNG line chart at
// path, one line per call to runCPD (a tracker typically produces one
// sigma trace per Step).
func PlotConvergence(sigmaTrace []float64, path string) error {
	if len(sigmaTrace) == 0 {
		return fmt.Errorf("diagnostics: empty sigma trace")
	}

	p := plot.New()
	p.Title.Text = "CPD convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "sigma^2"

	pts := make(plotter.XYs, len(sigmaTrace))
	for i, v := range sigmaTrace {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("diagnostics: build line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("sigma^2", line)
	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("diagnostics: save convergence plot: %w", err)
	}
	return nil
}
