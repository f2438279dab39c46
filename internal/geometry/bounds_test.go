package geometry

import (
	"math"
	"testing"
)

func TestEmptyBounds(t *testing.T) {
	b := NewEmptyBounds()
	if !b.IsEmpty() {
		t.Error("expected new bounds to be empty")
	}
	b.Extend(Coordinate{X: 1, Y: 2, Z: 3})
	if b.IsEmpty() {
		t.Error("expected bounds to be non empty after extend")
	}
	if b.MinX != 1 || b.MaxX != 1 || b.MinZ != 3 || b.MaxZ != 3 {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestMergeIsOrderIndependent(t *testing.T) {
	coords := []Coordinate{
		{X: -5, Y: 2, Z: 9},
		{X: 3, Y: -7, Z: 1},
		{X: 0, Y: 0, Z: -4},
		{X: 8, Y: 1, Z: 2},
	}

	whole := NewEmptyBounds()
	for _, c := range coords {
		whole.Extend(c)
	}

	left, right := NewEmptyBounds(), NewEmptyBounds()
	left.Extend(coords[0])
	left.Extend(coords[1])
	right.Extend(coords[2])
	right.Extend(coords[3])

	if got := left.Merge(right); got != whole {
		t.Errorf("expected %+v, got %+v", whole, got)
	}
	if got := right.Merge(left); got != whole {
		t.Errorf("expected %+v, got %+v", whole, got)
	}
	if got := whole.Merge(NewEmptyBounds()); got != whole {
		t.Errorf("merging empty bounds changed result: %+v", got)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	b := NewBounds(Coordinate{X: -10, Y: 5, Z: 100}, Coordinate{X: 30, Y: 6, Z: 300})
	c := Coordinate{X: 12.5, Y: 5.25, Z: 177.125}

	n := b.Normalize(c)
	if n.X < 0 || n.X > 1 || n.Y < 0 || n.Y > 1 || n.Z < 0 || n.Z > 1 {
		t.Fatalf("normalized coordinate out of range: %+v", n)
	}

	back := b.Denormalize(n)
	if math.Abs(back.X-c.X) > 1e-9 || math.Abs(back.Y-c.Y) > 1e-9 || math.Abs(back.Z-c.Z) > 1e-9 {
		t.Errorf("expected %+v, got %+v", c, back)
	}
}

func TestNormalizeDegenerateAxis(t *testing.T) {
	b := NewBounds(Coordinate{X: 0, Y: 4, Z: 0}, Coordinate{X: 2, Y: 4, Z: 2})
	n := b.Normalize(Coordinate{X: 1, Y: 4, Z: 2})
	if n.Y != 0 {
		t.Errorf("expected degenerate axis to normalize to 0, got %f", n.Y)
	}
	if math.IsNaN(n.X) || n.X != 0.5 {
		t.Errorf("expected x 0.5, got %f", n.X)
	}

	axes := b.DegenerateAxes()
	if len(axes) != 1 || axes[0] != AxisY {
		t.Errorf("expected only y to be degenerate, got %v", axes)
	}
}

func TestToEngine(t *testing.T) {
	got := ToEngine(Coordinate{X: 1, Y: 2, Z: 3})
	want := Coordinate{X: 1, Y: 3, Z: -2}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
