package pkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/source"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/tools"
)

// Writes a 10x10 grid of points, class 2 for x < 5 and class 6 otherwise, object x + 1
func writeGridFile(t *testing.T, dir string, name string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("x y z r g b class object\n")
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			class := 6
			if x < 5 {
				class = 2
			}
			fmt.Fprintf(&sb, "%d %d %d 200 100 50 %d %d\n", x, y, 5+x%3, class, x+1)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0666); err != nil {
		t.Fatal(err)
	}
	return path
}

func buildGrid(t *testing.T) (string, algorithm_manager.AlgorithmManager) {
	t.Helper()
	dir := t.TempDir()
	input := writeGridFile(t, dir, "grid_scan.xyz")

	opts := atlas.DefaultOptions()
	opts.TextureSize = 16
	opts.Workers = 2
	opts.Input = input
	opts.Output = filepath.Join(dir, "out")
	am := std_algorithm_manager.NewAlgorithmManager(opts, nil)

	summaries, err := NewBuilder(tools.NewStandardFileFinder(), source.NewTextReader(), am).RunBuilder(opts)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 atlas, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Name != "GridScan" {
		t.Errorf("expected name GridScan, got %s", s.Name)
	}
	if s.Metadata.AcceptedPoints != 100 || s.Metadata.DroppedPoints != 0 {
		t.Errorf("expected 100 accepted and 0 dropped, got %d and %d", s.Metadata.AcceptedPoints, s.Metadata.DroppedPoints)
	}
	return opts.Output, am
}

func TestBuildAndVerify(t *testing.T) {
	out, am := buildGrid(t)

	report, err := NewAtlasVerify(am).RunVerify(out, "", 0)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if report.Name != "GridScan" || report.TextureSize != 16 {
		t.Errorf("expected GridScan of size 16, got %s of size %d", report.Name, report.TextureSize)
	}
	if report.Occupied != 100 {
		t.Errorf("expected 100 occupied cells, got %d", report.Occupied)
	}
	if len(report.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(report.Categories))
	}
	if len(report.Categories[0].Items) != 5 {
		t.Errorf("expected 5 objects in class 2, got %v", report.Categories[0].Items)
	}
	if report.HeightmapMin < 0 || report.HeightmapMax > 1 {
		t.Errorf("expected heightmap in [0, 1], got [%f, %f]", report.HeightmapMin, report.HeightmapMax)
	}
}

func TestBuildWithoutInputFiles(t *testing.T) {
	dir := t.TempDir()
	opts := atlas.DefaultOptions()
	opts.Input = dir
	opts.Output = filepath.Join(dir, "out")
	opts.FolderProcessing = true

	_, err := NewBuilder(tools.NewStandardFileFinder(), source.NewTextReader(), std_algorithm_manager.NewAlgorithmManager(opts, nil)).RunBuilder(opts)
	if !errors.Is(err, ErrNoInputFiles) {
		t.Errorf("expected ErrNoInputFiles, got %v", err)
	}
}

func TestRenderAppliesPolygons(t *testing.T) {
	out, am := buildGrid(t)

	// engine z is the negated source y, the grid spans x in [0, 9] and z in [-9, 0]
	polygons := `[
		{"vertices": [[-1, 1], [10, 1], [10, -10], [-1, -10]], "mode": "hide", "masks": [{"class": 2, "object": 1}, {"class": 2, "object": 2}]},
		{"vertices": [[4.5, 1], [10, 1], [10, -10], [4.5, -10]], "mode": "reclassify", "target": 9, "masks": [{"class": 6, "object": 10}]}
	]`
	polygonsFile := filepath.Join(t.TempDir(), "polygons.json")
	if err := os.WriteFile(polygonsFile, []byte(polygons), 0666); err != nil {
		t.Fatal(err)
	}

	summary, err := NewAtlasRender(am).RunRender(&RenderOptions{
		Input:       out,
		Polygons:    polygonsFile,
		Output:      filepath.Join(t.TempDir(), "render"),
		RenderState: classification.DefaultRenderState(),
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if summary.Result.Hidden != 20 {
		t.Errorf("expected 20 hidden cells, got %d", summary.Result.Hidden)
	}
	if summary.Result.Reclassified != 10 {
		t.Errorf("expected 10 reclassified cells, got %d", summary.Result.Reclassified)
	}
	for _, f := range []string{summary.Texture, summary.Preview} {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected %s to be written: %v", f, err)
		}
	}
}

func TestReadPolygonsFileRejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polygons.json")
	if err := os.WriteFile(path, []byte(`[{"vertices": [[0, 0], [1, 0], [1, 1]], "mode": "paint"}]`), 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPolygonsFile(path); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestLocateAtlas(t *testing.T) {
	if _, _, err := LocateAtlas(t.TempDir(), "", 0); !errors.Is(err, ErrAtlasNotFound) {
		t.Errorf("expected ErrAtlasNotFound, got %v", err)
	}

	out, _ := buildGrid(t)
	name, size, err := LocateAtlas(out, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if name != "GridScan" || size != 16 {
		t.Errorf("expected GridScan 16, got %s %d", name, size)
	}
	if _, size, _ = LocateAtlas(out, "GridScan", 1024); size != 1024 {
		t.Errorf("expected an explicit size to be kept, got %d", size)
	}
}

func TestNewServerWiresSession(t *testing.T) {
	out, am := buildGrid(t)
	server, session, err := NewAtlasServe(am).NewServer(&ServeOptions{Input: out})
	if err != nil {
		t.Fatal(err)
	}
	if server == nil {
		t.Fatal("expected a server")
	}
	if session.IsDirty() {
		t.Error("expected the first dispatch to run before serving")
	}
	if len(session.Categories()) != 2 {
		t.Errorf("expected 2 categories, got %d", len(session.Categories()))
	}
}
