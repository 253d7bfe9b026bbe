package geom

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func pt(x, y float64) r2.Point { return r2.Point{X: x, Y: y} }

func TestOrientation(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r2.Point
		want    int
	}{
		{"counter-clockwise", pt(0, 0), pt(1, 0), pt(0, 1), 1},
		{"clockwise", pt(0, 0), pt(0, 1), pt(1, 0), -1},
		{"collinear", pt(0, 0), pt(1, 1), pt(2, 2), 0},
		{"near collinear large coords", pt(1e9, 1e9), pt(1e9+1, 1e9+1), pt(1e9+2, 1e9+2), 0},
		{"tiny left turn", pt(0, 0), pt(1, 0), pt(2, 1e-12), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Orientation(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("Orientation() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInCircle(t *testing.T) {
	a, b, c := pt(0, 0), pt(10, 0), pt(10, 10)

	if InCircle(a, b, c, pt(5, 5)) <= 0 {
		t.Error("expected centre point inside circumcircle")
	}
	if InCircle(a, b, c, pt(20, 20)) >= 0 {
		t.Error("expected far point outside circumcircle")
	}
	if v := InCircle(a, b, c, pt(0, 10)); math.Abs(v) > 1e-9 {
		t.Errorf("expected cocircular point to give 0, got %v", v)
	}
	if !InCircumcircle(a, c, b, pt(5, 5)) {
		t.Error("InCircumcircle should accept clockwise triangles")
	}
}

func TestAngleDiff(t *testing.T) {
	tests := []struct {
		x, y, want float64
	}{
		{0, math.Pi / 2, math.Pi / 2},
		{-3, 3, 2*math.Pi - 6},
		{math.Pi, -math.Pi, 0},
	}
	for _, tt := range tests {
		if got := AngleDiff(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("AngleDiff(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSignedArea(t *testing.T) {
	ccw := []r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}
	if got := SignedArea(ccw); got != 100 {
		t.Errorf("SignedArea(ccw) = %v, want 100", got)
	}

	cw := []r2.Point{pt(0, 0), pt(0, 10), pt(10, 10), pt(10, 0)}
	if got := SignedArea(cw); got != -100 {
		t.Errorf("SignedArea(cw) = %v, want -100", got)
	}
}

func TestPointInPolygon(t *testing.T) {
	ring := []r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(5, 4), pt(0, 10)}

	tests := []struct {
		p    r2.Point
		want bool
	}{
		{pt(2, 2), true},
		{pt(5, 8), false},
		{pt(11, 5), false},
		{pt(9.5, 9), true},
	}
	for _, tt := range tests {
		if got := PointInPolygon(tt.p, ring); got != tt.want {
			t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestKnots(t *testing.T) {
	square := []r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}
	if HasKnots(square) {
		t.Error("square should have no knots")
	}

	bowtie := []r2.Point{pt(0, 0), pt(10, 10), pt(10, 0), pt(0, 10)}
	knots := Knots(bowtie)
	if len(knots) != 1 {
		t.Fatalf("expected 1 knot, got %d", len(knots))
	}
	if knots[0] != [2]int{0, 2} {
		t.Errorf("expected knot between edges 0 and 2, got %v", knots[0])
	}
}

func TestCleanPolygon(t *testing.T) {
	bowtie := []r2.Point{pt(0, 0), pt(10, 10), pt(10, 0), pt(0, 10)}

	cleaned := CleanPolygon(bowtie)
	if cleaned == nil {
		t.Fatal("expected cleaned polygon, got nil")
	}
	if HasKnots(cleaned) {
		t.Errorf("cleaned polygon still knotted: %v", cleaned)
	}
	if len(cleaned) != 3 {
		t.Errorf("expected a 3 point loop, got %d points", len(cleaned))
	}
	if got := math.Abs(SignedArea(cleaned)); got != 25 {
		t.Errorf("cleaned area = %v, want 25", got)
	}

	square := []r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10), pt(0, 0)}
	if got := CleanPolygon(square); len(got) != 4 {
		t.Errorf("expected closing point dropped, got %d points", len(got))
	}
}

func TestEarClip(t *testing.T) {
	tests := []struct {
		name string
		ring []r2.Point
		want int
	}{
		{"triangle", []r2.Point{pt(0, 0), pt(1, 0), pt(0, 1)}, 1},
		{"square", []r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}, 2},
		{"clockwise square", []r2.Point{pt(0, 0), pt(0, 10), pt(10, 10), pt(10, 0)}, 2},
		{"concave", []r2.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(5, 4), pt(0, 10)}, 3},
		{"collinear vertex", []r2.Point{pt(0, 0), pt(5, 0), pt(10, 0), pt(10, 10), pt(0, 10)}, 3},
		{"collinear midpoints", []r2.Point{
			pt(0, 0), pt(5, 0), pt(10, 0), pt(10, 5), pt(10, 10), pt(5, 10), pt(0, 10), pt(0, 5),
		}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := EarClip(tt.ring)
			if err != nil {
				t.Fatalf("EarClip failed: %v", err)
			}
			if len(tris) != tt.want {
				t.Fatalf("EarClip() produced %d triangles, want %d", len(tris), tt.want)
			}
			var area float64
			used := make(map[int]bool)
			for _, tri := range tris {
				used[tri[0]], used[tri[1]], used[tri[2]] = true, true, true
				a, b, c := tt.ring[tri[0]], tt.ring[tri[1]], tt.ring[tri[2]]
				if Orientation(a, b, c) <= 0 {
					t.Errorf("triangle %v is not counter-clockwise", tri)
				}
				area += Cross(a, b, c) / 2
			}
			if want := math.Abs(SignedArea(tt.ring)); math.Abs(area-want) > 1e-9 {
				t.Errorf("triangle area sum = %v, want %v", area, want)
			}
			if len(used) != len(tt.ring) {
				t.Errorf("triangles use %d of %d ring vertices", len(used), len(tt.ring))
			}
		})
	}
}

func TestPadRect(t *testing.T) {
	r := Bounds([]r2.Point{pt(0, 0), pt(10, 0), pt(10, 20)})
	padded := PadRect(r, 0.05)

	if padded.Lo() != pt(-0.5, -1) {
		t.Errorf("padded Lo = %v, want (-0.5, -1)", padded.Lo())
	}
	if padded.Hi() != pt(10.5, 21) {
		t.Errorf("padded Hi = %v, want (10.5, 21)", padded.Hi())
	}

	v := padded.Vertices()
	if v[0] != padded.Lo() || v[2] != padded.Hi() {
		t.Errorf("unexpected vertex order %v", v)
	}
}
