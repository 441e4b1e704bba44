// Command cdcpd-track replays a directory of pre-decoded RGB/depth/mask
// frames through a cpdtrack.Tracker and writes the per-frame tracked
// vertex positions to a CSV file. It is an offline harness for exercising
// the tracker, not a sensor-ingestion pipeline (see spec Non-goals).
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ropetrack/cdcpd-go/internal/cpdtrack"
	"github.com/ropetrack/cdcpd-go/internal/cpdtrack/diagnostics"
	"github.com/ropetrack/cdcpd-go/internal/trackconfig"
	"github.com/ropetrack/cdcpd-go/internal/trackstore"
)

func main() {
	var (
		framesDir    = flag.String("frames", "", "directory of per-frame JSON files (required)")
		templatePath = flag.String("template", "", "path to template JSON (required)")
		projPath     = flag.String("projection", "", "path to camera projection JSON (required)")
		configPath   = flag.String("config", "", "optional tuning config JSON overlay")
		outPath      = flag.String("out", "tracked.csv", "output CSV path")
		useRecovery  = flag.Bool("recovery", false, "enable template-history recovery")
		storePath    = flag.String("store", "", "optional sqlite path to persist template history")
		convergeDir  = flag.String("plot-convergence-dir", "", "optional directory to write per-frame sigma^2 convergence PNGs")
		sceneDir     = flag.String("scene-dir", "", "optional directory to write per-frame scene HTML dumps")
	)
	flag.Parse()

	if *framesDir == "" || *templatePath == "" || *projPath == "" {
		log.Fatalf("-frames, -template and -projection are required")
	}

	template, fixedPoints, err := loadTemplate(*templatePath)
	if err != nil {
		log.Fatalf("load template: %v", err)
	}
	proj, err := loadProjection(*projPath)
	if err != nil {
		log.Fatalf("load projection: %v", err)
	}

	cfg := trackconfig.MustLoadDefaultConfig().ToCoreConfig()
	if *configPath != "" {
		overlay, err := trackconfig.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = overlay.ToCoreConfig()
	}
	cfg.UseRecovery = *useRecovery

	tracker, err := cpdtrack.New(template, proj, *useRecovery, cfg)
	if err != nil {
		log.Fatalf("construct tracker: %v", err)
	}

	var store *trackstore.Store
	if *storePath != "" {
		store, err = trackstore.Open(*storePath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer store.Close()
	}

	if *convergeDir != "" || *sceneDir != "" {
		tracker.WithDiagnostics(&fileSink{convergeDir: *convergeDir, sceneDir: *sceneDir})
	}

	framePaths, err := listFrames(*framesDir)
	if err != nil {
		log.Fatalf("list frames: %v", err)
	}
	if len(framePaths) == 0 {
		log.Fatalf("no frame files found in %s", *framesDir)
	}

	outFile, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer outFile.Close()
	w := csv.NewWriter(outFile)
	defer w.Flush()

	log.Printf("replaying %d frames from %s", len(framePaths), *framesDir)

	for i, fp := range framePaths {
		frame, err := loadFrame(fp)
		if err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}

		out, err := tracker.Step(frame, template, fixedPoints)
		if err != nil {
			log.Fatalf("frame %d: step: %v", i, err)
		}

		if err := w.Write(trackedRow(i, out.Tracked)); err != nil {
			log.Fatalf("frame %d: write csv row: %v", i, err)
		}

		if store != nil {
			if _, err := store.Save(out.Downsampled.Points, out.Tracked, cfg.TemplateMatcherCap); err != nil {
				log.Printf("frame %d: store save failed: %v", i, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush csv: %v", err)
	}

	log.Printf("wrote %s", *outPath)
}

func trackedRow(frameIdx int, tracked []cpdtrack.Point3) []string {
	row := make([]string, 0, 1+len(tracked)*3)
	row = append(row, strconv.Itoa(frameIdx))
	for _, p := range tracked {
		row = append(row,
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
			strconv.FormatFloat(p.Z, 'f', -1, 64),
		)
	}
	return row
}

// fileSink writes convergence plots and scene dumps per step, named by a
// monotonically increasing call counter. Off by default; only constructed
// when the caller passes -plot-convergence-dir or -scene-dir.
type fileSink struct {
	convergeDir string
	sceneDir    string
	step        int
}

func (s *fileSink) OnStepComplete(out cpdtrack.Output, sigmaTrace []float64) {
	idx := s.step
	s.step++

	if s.convergeDir != "" {
		path := filepath.Join(s.convergeDir, fmt.Sprintf("step_%04d.png", idx))
		if err := diagnostics.PlotConvergence(sigmaTrace, path); err != nil {
			log.Printf("step %d: plot convergence: %v", idx, err)
		}
	}
	if s.sceneDir != "" {
		path := filepath.Join(s.sceneDir, fmt.Sprintf("step_%04d.html", idx))
		if err := diagnostics.WriteSceneHTML(out, path); err != nil {
			log.Printf("step %d: write scene html: %v", idx, err)
		}
	}
}
