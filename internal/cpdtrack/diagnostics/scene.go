package diagnostics

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ropetrack/cdcpd-go/internal/cpdtrack"
)

// WriteSceneHTML renders one frame's downsampled observed cloud and
// tracked template vertices as an interactive 3D-projected (X vs Z)
// scatter chart and writes it to path.
func WriteSceneHTML(out cpdtrack.Output, path string) error {
	observed := make([]opts.ScatterData, len(out.Downsampled.Points))
	for i, p := range out.Downsampled.Points {
		observed[i] = opts.ScatterData{Value: []interface{}{p.X, p.Z}}
	}

	tracked := make([]opts.ScatterData, len(out.Tracked))
	for i, p := range out.Tracked {
		tracked[i] = opts.ScatterData{Value: []interface{}{p.X, p.Z}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "cdcpd-track scene", Theme: "dark", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tracked scene", Subtitle: fmt.Sprintf("observed=%d tracked=%d", len(observed), len(tracked))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Z (m)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("observed", observed, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	scatter.AddSeries("tracked", tracked, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("diagnostics: render scene: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("diagnostics: write scene html: %w", err)
	}
	return nil
}
