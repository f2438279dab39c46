package proj4_coordinate_converter

import (
	"math"
	"testing"

	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
)

func TestConvertToMercator(t *testing.T) {
	cc := NewProj4CoordinateConverter()
	defer cc.Cleanup()

	out, err := cc.ConvertCoordinateSrid(4326, 3857, geometry.Coordinate{X: 0, Y: 0, Z: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(out.X) > 1e-6 || math.Abs(out.Y) > 1e-6 || out.Z != 10 {
		t.Errorf("expected origin to map to origin, got %+v", out)
	}

	back, err := cc.ConvertCoordinateSrid(3857, 4326, geometry.Coordinate{X: 111319.49079327357, Y: 0, Z: 0})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(back.X-1) > 1e-6 {
		t.Errorf("expected 1 degree of longitude, got %f", back.X)
	}
}

func TestUnknownEpsgCode(t *testing.T) {
	cc := NewProj4CoordinateConverter()
	defer cc.Cleanup()
	if _, err := cc.ConvertCoordinateSrid(4326, 99999, geometry.Coordinate{}); err == nil {
		t.Errorf("expected an error for an unknown code")
	}
	if !IsSupported(32633) || !IsSupported(25832) || IsSupported(99999) {
		t.Errorf("unexpected support table")
	}
}
