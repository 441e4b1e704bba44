package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ropetrack/cdcpd-go/internal/cpdtrack"
)

func TestTrackedRowLayout(t *testing.T) {
	tracked := []cpdtrack.Point3{{X: 1, Y: 2, Z: 3}, {X: -1.5, Y: 0, Z: 2}}
	row := trackedRow(7, tracked)

	want := []string{"7", "1", "2", "3", "-1.5", "0", "2"}
	if len(row) != len(want) {
		t.Fatalf("row length = %d, want %d (%v)", len(row), len(want), row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestLoadTemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.json")

	doc := map[string]interface{}{
		"vertices": []cpdtrack.Point3{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}},
		"edges":    [][2]int{{0, 1}},
		"fixed_points": []map[string]interface{}{
			{"index": 0, "target": cpdtrack.Point3{X: 0, Y: 0, Z: 1}},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	template, fixed, err := loadTemplate(path)
	if err != nil {
		t.Fatalf("loadTemplate: %v", err)
	}
	if len(template.Vertices) != 2 || len(template.Edges) != 1 {
		t.Fatalf("unexpected template shape: %+v", template)
	}
	if len(fixed) != 1 || fixed[0].Index != 0 {
		t.Fatalf("unexpected fixed points: %+v", fixed)
	}
}

func TestListFramesOnlyJSONSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002.json", "0001.json", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	paths, err := listFrames(dir)
	if err != nil {
		t.Fatalf("listFrames: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 json frame files, got %d: %v", len(paths), paths)
	}
	if filepath.Base(paths[0]) != "0001.json" || filepath.Base(paths[1]) != "0002.json" {
		t.Fatalf("frames not sorted: %v", paths)
	}
}
