package tin

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

func TestTriangulateDegenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
	}{
		{"empty", nil},
		{"two points", []Point{{0, 0, 0}, {1, 1, 0}}},
		{"collinear", []Point{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}, {5, 5, 0}}},
		{"duplicates", []Point{{0, 0, 0}, {3, 0, 0}, {0, 0, 0}, {3, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMesh()
			for _, p := range tt.pts {
				m.InsertPoint(p)
			}
			if err := m.Triangulate(); !errors.Is(err, ErrDegenerate) {
				t.Errorf("Triangulate() = %v, want ErrDegenerate", err)
			}
			if m.Triangulated() {
				t.Error("mesh marked triangulated after failure")
			}
		})
	}
}

func TestTriangulateTwice(t *testing.T) {
	m := squareMesh(t)
	if err := m.Triangulate(); !errors.Is(err, ErrAlreadyTriangulated) {
		t.Errorf("second Triangulate() = %v, want ErrAlreadyTriangulated", err)
	}
}

func TestTriangulateDelaunay(t *testing.T) {
	for _, n := range []int{3, 5, 8} {
		m := jitterMesh(t, n)
		checkMesh(t, m)

		h := len(m.HullPoints())
		if want := 2*m.NumPoints() - 2 - h; m.TriangleCount() != want {
			t.Errorf("n=%d: TriangleCount() = %d, want %d", n, m.TriangleCount(), want)
		}
		for _, tri := range m.Triangles() {
			a, b, c := m.xy(tri.P1), m.xy(tri.P2), m.xy(tri.P3)
			if geom.Orientation(a, b, c) <= 0 {
				t.Errorf("triangle %v is not counter-clockwise", tri)
			}
			for i := range m.points {
				p := PointID(i)
				if p == tri.P1 || p == tri.P2 || p == tri.P3 {
					continue
				}
				if geom.InCircle(a, b, c, m.xy(p)) > 1e-6 {
					t.Errorf("point %d inside circumcircle of %v", p, tri)
				}
			}
		}
	}
}

func TestTriangulateMergesDuplicates(t *testing.T) {
	m := NewMesh()
	for _, p := range []Point{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {1e-12, 0, 0}} {
		m.InsertPoint(p)
	}
	if _, err := m.StoreFeature(FeatureInput{
		Type:   HardBreak,
		Points: []Point{{0, 0, 0}, {10, 0, 0}},
	}); err != nil {
		t.Fatalf("StoreFeature: %v", err)
	}
	if err := m.Triangulate(); err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	checkMesh(t, m)

	if m.NumPoints() != 3 {
		t.Errorf("NumPoints() = %d, want 3", m.NumPoints())
	}
	if m.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", m.TriangleCount())
	}
	f, ok := m.Feature(1)
	if !ok {
		t.Fatal("break line was dropped")
	}
	if !slices.Equal(f.Points, []PointID{0, 1}) || f.State != FeatureTin {
		t.Errorf("feature = %+v, want points [0 1] committed", f)
	}
	if !m.IsFixed(0, 1) {
		t.Error("break line edge is not fixed")
	}
}

func TestTriangulateBreakline(t *testing.T) {
	m := NewMesh()
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			m.InsertPoint(Point{X: float64(i * 10), Y: float64(j*10) + float64(i)*0.01})
		}
	}
	id, err := m.StoreFeature(FeatureInput{
		Type:    HardBreak,
		Name:    "kerb",
		UserTag: 7,
		Points:  []Point{{1, 28, 5}, {29, 2, 5}},
	})
	if err != nil {
		t.Fatalf("StoreFeature: %v", err)
	}
	if err := m.Triangulate(); err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	checkMesh(t, m)

	f, ok := m.Feature(id)
	if !ok {
		t.Fatalf("feature %d missing, dropped %v", id, m.Dropped())
	}
	if f.Name != "kerb" || f.UserTag != 7 {
		t.Errorf("feature metadata = %q/%d", f.Name, f.UserTag)
	}
	if first, last := m.Point(f.Points[0]), m.Point(f.Points[len(f.Points)-1]); first.XY() != (r2.Point{X: 1, Y: 28}) || last.XY() != (r2.Point{X: 29, Y: 2}) {
		t.Errorf("break line runs %v to %v", first, last)
	}
	for i := 0; i+1 < len(f.Points); i++ {
		a, b := f.Points[i], f.Points[i+1]
		if !m.Connected(a, b) {
			t.Errorf("break line gap between %d and %d", a, b)
		}
		if !m.IsFixed(a, b) {
			t.Errorf("break line edge %d-%d is not fixed", a, b)
		}
	}
}

func TestTriangulateDropsLoopedFeature(t *testing.T) {
	m := NewMesh()
	for _, p := range []Point{{0, 0, 0}, {20, 0, 0}, {20, 20, 0}, {0, 20, 0}} {
		m.InsertPoint(p)
	}
	if _, err := m.StoreFeature(FeatureInput{
		Type:   HardBreak,
		Name:   "loop",
		Points: []Point{{5, 5, 0}, {15, 5, 0}, {15, 15, 0}, {15, 5, 0}},
	}); err != nil {
		t.Fatalf("StoreFeature: %v", err)
	}
	if err := m.Triangulate(); err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	checkMesh(t, m)

	dropped := m.Dropped()
	if len(dropped) != 1 {
		t.Fatalf("Dropped() = %v, want 1 feature", dropped)
	}
	if !errors.Is(dropped[0], ErrChainLoop) || dropped[0].Name != "loop" {
		t.Errorf("dropped = %v, want chain loop on %q", dropped[0], "loop")
	}
	if m.NumFeatures() != 0 {
		t.Errorf("NumFeatures() = %d, want 0", m.NumFeatures())
	}
}

func TestTriangulateClipsToHull(t *testing.T) {
	m := NewMesh()
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			m.InsertPoint(Point{X: float64(i*10) + float64(j)*0.1, Y: float64(j*10) + float64(i)*0.1})
		}
	}
	// Listed clockwise.
	id, err := m.StoreFeature(FeatureInput{
		Type:   Hull,
		Points: []Point{{5, 5, 1}, {5, 25, 1}, {25, 25, 1}, {25, 5, 1}, {5, 5, 1}},
	})
	if err != nil {
		t.Fatalf("StoreFeature: %v", err)
	}
	if err := m.Triangulate(); err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	checkMesh(t, m)

	if m.NumPoints() != 8 {
		t.Errorf("NumPoints() = %d, want 8", m.NumPoints())
	}
	if m.TriangleCount() != 10 {
		t.Errorf("TriangleCount() = %d, want 10", m.TriangleCount())
	}
	b := m.Bounds()
	if b.Lo() != (r2.Point{X: 5, Y: 5}) || b.Hi() != (r2.Point{X: 25, Y: 25}) {
		t.Errorf("Bounds() = %v, want (5,5)-(25,25)", b)
	}

	f, ok := m.Feature(id)
	if !ok {
		t.Fatal("hull feature missing")
	}
	if len(f.Points) != 4 || !f.Closed {
		t.Fatalf("hull = %+v, want 4 closed points", f)
	}
	if area := geom.SignedArea(m.ringXY(f.Points)); math.Abs(area-400) > 1e-9 {
		t.Errorf("hull signed area = %v, want 400", area)
	}
	if got := len(m.HullPoints()); got != 4 {
		t.Errorf("len(HullPoints()) = %d, want 4", got)
	}
}

func TestTriangulateTrimsBreaklineToHull(t *testing.T) {
	m := NewMesh()
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			m.InsertPoint(Point{X: float64(i*10) + float64(j)*0.1, Y: float64(j*10) + float64(i)*0.1})
		}
	}
	if _, err := m.StoreFeature(FeatureInput{
		Type:   Hull,
		Points: []Point{{5, 5, 1}, {25, 5, 1}, {25, 25, 1}, {5, 25, 1}},
	}); err != nil {
		t.Fatalf("StoreFeature(hull): %v", err)
	}
	// The diagonal runs through two hull corners and out past both.
	id, err := m.StoreFeature(FeatureInput{
		Type:   HardBreak,
		Points: []Point{{0, 0, 0}, {30.3, 30.3, 0}},
	})
	if err != nil {
		t.Fatalf("StoreFeature(break): %v", err)
	}
	if err := m.Triangulate(); err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	checkMesh(t, m)
	if len(m.Dropped()) != 0 {
		t.Errorf("Dropped() = %v", m.Dropped())
	}
	if m.NumPoints() != 8 || m.TriangleCount() != 10 {
		t.Errorf("mesh has %d points and %d faces, want 8 and 10", m.NumPoints(), m.TriangleCount())
	}

	f, ok := m.Feature(id)
	if !ok {
		t.Fatal("break line lost")
	}
	var got []r2.Point
	for _, p := range f.Points {
		got = append(got, m.xy(p))
	}
	want := []r2.Point{{X: 5, Y: 5}, {X: 10.1, Y: 10.1}, {X: 20.2, Y: 20.2}, {X: 25, Y: 25}}
	if len(got) != len(want) {
		t.Fatalf("break line runs through %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Sub(want[i]).Norm() > 1e-9 {
			t.Errorf("break line runs through %v, want %v", got, want)
			break
		}
	}
	if m.NumFeatures() != 2 {
		t.Errorf("NumFeatures() = %d, want 2", m.NumFeatures())
	}
}
