package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ropetrack/cdcpd-go/internal/cpdtrack"
)

// templateFile is the on-disk JSON shape for the reference template and
// its fixed-point constraints; the Non-goal on camera/sensor ingestion
// means this tool takes already-decoded scene data, not raw device frames.
type templateFile struct {
	Vertices    []cpdtrack.Point3 `json:"vertices"`
	Edges       [][2]int          `json:"edges"`
	FixedPoints []struct {
		Index  int             `json:"index"`
		Target cpdtrack.Point3 `json:"target"`
	} `json:"fixed_points"`
}

func loadTemplate(path string) (cpdtrack.Template, []cpdtrack.FixedPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cpdtrack.Template{}, nil, fmt.Errorf("read template: %w", err)
	}
	var tf templateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return cpdtrack.Template{}, nil, fmt.Errorf("parse template: %w", err)
	}

	edges := make([]cpdtrack.Edge, len(tf.Edges))
	for i, e := range tf.Edges {
		edges[i] = cpdtrack.Edge{I: e[0], J: e[1]}
	}

	fixed := make([]cpdtrack.FixedPoint, len(tf.FixedPoints))
	for i, fp := range tf.FixedPoints {
		fixed[i] = cpdtrack.FixedPoint{Index: fp.Index, Target: fp.Target}
	}

	return cpdtrack.Template{Vertices: tf.Vertices, Edges: edges}, fixed, nil
}

type projectionFile struct {
	P [3][4]float64 `json:"p"`
}

func loadProjection(path string) (cpdtrack.Projection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cpdtrack.Projection{}, fmt.Errorf("read projection: %w", err)
	}
	var pf projectionFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return cpdtrack.Projection{}, fmt.Errorf("parse projection: %w", err)
	}
	return cpdtrack.Projection{M: pf.P}, nil
}

// frameFile is the on-disk JSON shape for one already-decoded RGB+depth+mask
// frame. Width*Height must match the length of each channel slice.
type frameFile struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	RGB    []uint8  `json:"rgb"`
	Depth  []uint16 `json:"depth"`
	Mask   []uint8  `json:"mask"`
}

func loadFrame(path string) (cpdtrack.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cpdtrack.Frame{}, fmt.Errorf("read frame %s: %w", path, err)
	}
	var ff frameFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return cpdtrack.Frame{}, fmt.Errorf("parse frame %s: %w", path, err)
	}
	return cpdtrack.Frame{Width: ff.Width, Height: ff.Height, RGB: ff.RGB, Depth: ff.Depth, Mask: ff.Mask}, nil
}

// listFrames returns the *.json frame files under dir in lexical order, so
// naming frames 0001.json, 0002.json, ... gives replay order.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
