package exchange

import (
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/tinbridge/pkg/tin"
)

func TestImportTriangulates(t *testing.T) {
	src := squareSource()
	src.features = []FeatureRecord{
		{Type: tin.HardBreak, Name: "diag", Coords: []tin.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}},
		{Type: tin.ContourLine, Name: "skipped", Coords: []tin.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Exclude: true},
	}
	var seen discoveryLog
	res, err := Import(src, ImportOptions{Discovery: &seen})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	m := res.Mesh
	if m.NumPoints() != 4 {
		t.Errorf("NumPoints() = %d, want 4", m.NumPoints())
	}
	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
	if !m.IsFixed(0, 2) || !m.HasTriangle(0, 1, 2) {
		t.Errorf("breakline 0-2 not honoured: %v", m.Triangles())
	}
	if res.Dropped != nil {
		t.Errorf("Dropped = %v, want nil", res.Dropped)
	}
	want := discoveryLog{{1, "diag", tin.HardBreak}, {tin.NoFeature, "skipped", tin.ContourLine}}
	if !slices.Equal(seen, want) {
		t.Errorf("discovered %v, want %v", seen, want)
	}
}

func TestImportTopology(t *testing.T) {
	tests := []struct {
		name      string
		opts      ImportOptions
		points    int
		triangles int
		hull      int
	}{
		{"as supplied", ImportOptions{}, 16, 18, 12},
		{"trim hull", ImportOptions{TrimHull: true}, 12, 12, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Import(gridSource(4), tt.opts)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			m := res.Mesh
			if m.NumPoints() != tt.points {
				t.Errorf("NumPoints() = %d, want %d", m.NumPoints(), tt.points)
			}
			if m.TriangleCount() != tt.triangles {
				t.Errorf("TriangleCount() = %d, want %d", m.TriangleCount(), tt.triangles)
			}
			if got := len(m.HullPoints()); got != tt.hull {
				t.Errorf("%d hull points, want %d", got, tt.hull)
			}
		})
	}
}

func TestImportTopologyHullFeature(t *testing.T) {
	src := gridSource(4)
	src.features = []FeatureRecord{
		{Type: tin.HardBreak, Name: "short", Coords: []tin.Point{{X: 10, Y: 10}}},
		{Type: tin.Hull, Name: "site", Coords: []tin.Point{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}}},
	}
	var seen discoveryLog
	res, err := Import(src, ImportOptions{TrimHull: true, Discovery: &seen})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	m := res.Mesh
	if m.NumPoints() != 4 || m.TriangleCount() != 2 {
		t.Errorf("mesh has %d points and %d triangles, want 4 and 2", m.NumPoints(), m.TriangleCount())
	}
	if m.NumFeatures() != 1 {
		t.Errorf("NumFeatures() = %d, want 1", m.NumFeatures())
	}

	dropped := res.DroppedFeatures()
	if len(dropped) != 1 {
		t.Fatalf("%d dropped features, want 1", len(dropped))
	}
	var fe *tin.FeatureError
	if !errors.As(dropped[0], &fe) || fe.Name != "short" || !errors.Is(fe, tin.ErrInsufficientPoints) {
		t.Errorf("dropped = %v, want short breakline", dropped[0])
	}
	if len(seen) != 2 || seen[0].id != tin.NoFeature || seen[1].id == tin.NoFeature {
		t.Errorf("discovered %v", seen)
	}
}

func TestImportErrors(t *testing.T) {
	unknown := gridSource(2)
	unknown.neighbors[100] = append(unknown.neighbors[100], 7)

	dup := squareSource()
	dup.points = append(dup.points, memPoint{2, 5, 5, 0})

	tests := []struct {
		name string
		src  Source
		want error
	}{
		{"unknown neighbour", unknown, ErrUnknownPoint},
		{"duplicate index", dup, ErrDuplicatePoint},
		{"too few points", &memSource{points: []memPoint{{0, 0, 0, 0}, {1, 1, 1, 0}}}, tin.ErrDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Import(tt.src, ImportOptions{}); !errors.Is(err, tt.want) {
				t.Errorf("Import() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImporterOutOfOrder(t *testing.T) {
	im := NewImporter(ImportOptions{})
	src := gridSource(3)
	for _, p := range src.points {
		if err := im.OnPoint(p.index, p.x, p.y, p.z); err != nil {
			t.Fatalf("OnPoint: %v", err)
		}
	}
	for idx, adj := range src.neighbors {
		if err := im.OnNeighbors(idx, adj); err != nil {
			t.Fatalf("OnNeighbors: %v", err)
		}
	}
	err := im.OnFeature(FeatureRecord{Type: tin.HardBreak, Coords: []tin.Point{{X: 0, Y: 0}, {X: 20, Y: 20}}})
	if err != nil {
		t.Fatalf("OnFeature: %v", err)
	}
	if err := im.OnPoint(999, 50, 50, 0); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("OnPoint after features = %v, want ErrOutOfOrder", err)
	}
	if err := im.OnNeighbors(100, []int{101}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("OnNeighbors after features = %v, want ErrOutOfOrder", err)
	}
	res, err := im.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Mesh.TriangleCount() != 8 {
		t.Errorf("TriangleCount() = %d, want 8", res.Mesh.TriangleCount())
	}
	if _, err := im.Finish(); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("second Finish = %v, want ErrOutOfOrder", err)
	}
}
