package atlas

import (
	"math"
	"testing"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
)

func setTestCell(a *Atlas, x, y int, height float32, class uint8) {
	i := y*a.Size + x
	a.Position[i*4+1] = height
	a.Position[i*4+3] = 1
	a.ColourClass[i*4+3] = float32(class) / 255
}

func TestHeightmapSmoothing(t *testing.T) {
	a := NewAtlasUnchecked(8)
	setTestCell(a, 0, 0, 0.2, 2)
	setTestCell(a, 7, 7, 0.8, 11)
	setTestCell(a, 7, 0, 0.4, 12)
	setTestCell(a, 3, 3, 0.9, 6)

	info, err := buildHeightmap(a, classes.DefaultRoadClasses, 1, io.NewPool(2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if info.RoadSamples != 3 {
		t.Errorf("expected 3 road samples, got %d", info.RoadSamples)
	}
	if math.Abs(info.DefaultElevation-0.4) > 1e-6 {
		t.Errorf("expected median 0.4, got %f", info.DefaultElevation)
	}

	at := func(x, y int) float64 { return float64(a.Heightmap[y*8+x]) }
	cases := []struct {
		x, y     int
		expected float64
	}{
		{1, 1, 0.2},
		{0, 0, 0.2},
		{6, 0, 0.4},
		{6, 6, 0.8},
		{4, 4, 0.4},
		{3, 3, 0.4},
	}
	for _, c := range cases {
		if got := at(c.x, c.y); math.Abs(got-c.expected) > 1e-6 {
			t.Errorf("cell (%d,%d): expected %f, got %f", c.x, c.y, c.expected, got)
		}
	}
}

func TestHeightmapAveragesWindow(t *testing.T) {
	a := NewAtlasUnchecked(4)
	setTestCell(a, 0, 0, 0.2, 2)
	setTestCell(a, 1, 0, 0.6, 2)

	if _, err := buildHeightmap(a, classes.DefaultRoadClasses, 1, io.NewPool(1)); err != nil {
		t.Fatal(err)
	}
	if got := a.Heightmap[0]; math.Abs(float64(got)-0.4) > 1e-6 {
		t.Errorf("expected window average 0.4, got %f", got)
	}
	if got := a.Heightmap[2]; math.Abs(float64(got)-0.6) > 1e-6 {
		t.Errorf("expected 0.6 next to the second sample, got %f", got)
	}
}

func TestHeightmapWithoutRoads(t *testing.T) {
	a := NewAtlasUnchecked(4)
	setTestCell(a, 1, 1, 0.9, 6)
	info, err := buildHeightmap(a, classes.DefaultRoadClasses, 2, io.NewPool(2))
	if err != nil {
		t.Fatal(err)
	}
	if info.DefaultElevation != EmptyHeightmapElevation {
		t.Errorf("expected default %f, got %f", EmptyHeightmapElevation, info.DefaultElevation)
	}
	for i, v := range a.Heightmap {
		if v != EmptyHeightmapElevation {
			t.Fatalf("cell %d: expected %f, got %f", i, EmptyHeightmapElevation, v)
		}
	}
}
