package tin

import (
	"fmt"
	"maps"
	"slices"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// ClipOption selects which side of a clip polygon survives.
type ClipOption int

// Clip options.
const (
	ClipExternal ClipOption = iota // keep the polygon interior, drop the outside
	ClipInternal                   // drop the polygon interior
)

func (o ClipOption) String() string {
	if o == ClipInternal {
		return "Internal"
	}
	return "External"
}

// ClipToPolygon removes every face on the excluded side of a closed chain of
// mesh points. Consecutive polygon points must share an edge. An internal
// clip refills the hole with a plain triangulation of the polygon and marks
// it with a Void feature. The mesh is only changed if the polygon is valid.
//
// Polygon features crossing the clip are cut down to their surviving area.
// Line features are split into the runs whose edges survive.
func (m *Mesh) ClipToPolygon(polygon []PointID, opt ClipOption) error {
	if m.state != Tin {
		return ErrNotTriangulated
	}
	ring := slices.Clone(polygon)
	for len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return fmt.Errorf("%w: %d points", ErrMalformedChain, len(ring))
	}
	for _, p := range ring {
		if !m.valid(p) {
			return fmt.Errorf("%w: %d", ErrInvalidPoint, p)
		}
	}

	err := m.withScratch(func(s *scratch) error {
		if err := s.thread(ring, true); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedChain, err)
		}
		if err := m.verifyConnected(s); err != nil {
			return err
		}
		pts, closed := s.walk()
		if !closed {
			return fmt.Errorf("%w: chain does not close", ErrMalformedChain)
		}
		xy := m.ringXY(pts)
		switch area := geom.SignedArea(xy); {
		case area == 0:
			return fmt.Errorf("%w: %w", ErrMalformedChain, ErrZeroArea)
		case area < 0:
			slices.Reverse(pts)
			slices.Reverse(xy)
		}

		inside := m.floodFaces(pts)
		var keep []Triangle
		m.forEachTriangle(func(t Triangle) bool {
			if inside[t] == (opt == ClipExternal) {
				keep = append(keep, t)
			}
			return true
		})
		if opt == ClipInternal {
			ears, err := geom.EarClip(xy)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrMalformedChain, err)
			}
			for _, e := range ears {
				keep = append(keep, makeTriangle(pts[e[0]], pts[e[1]], pts[e[2]]))
			}
		}
		if len(keep) == 0 {
			return fmt.Errorf("%w: clip removes every face", ErrMalformedChain)
		}
		cuts := m.cutPolygons(keep)
		m.commitFaces(keep)
		m.applyCuts(cuts)
		m.log.Debug("clipped mesh", zap.Stringer("side", opt), zap.Int("faces", len(keep)))

		if opt == ClipInternal && !m.hasRing(Void, pts) {
			m.appendFeature(&Feature{
				Type:    Void,
				UserTag: NullUserTag,
				Points:  slices.Clone(pts),
				Closed:  true,
				State:   FeatureTin,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return m.Clean()
}

func (m *Mesh) ringXY(pts []PointID) []r2.Point {
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = m.xy(p)
	}
	return out
}

// floodFaces collects the faces reachable from the left of each edge of a
// counter-clockwise ring without crossing a ring edge.
func (m *Mesh) floodFaces(ring []PointID) map[Triangle]bool {
	walls := make(map[edge]bool, len(ring))
	var queue []Triangle
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		walls[mkEdge(a, b)] = true
		if r, ok := m.apex(a, b); ok {
			queue = append(queue, makeTriangle(a, b, r))
		}
	}
	return m.spread(queue, walls)
}

// spread flood-fills faces from seeds, never crossing a wall edge.
func (m *Mesh) spread(seeds []Triangle, walls map[edge]bool) map[Triangle]bool {
	seen := make(map[Triangle]bool)
	queue := seeds
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t] {
			continue
		}
		seen[t] = true
		for _, side := range [3][2]PointID{{t.P1, t.P2}, {t.P2, t.P3}, {t.P3, t.P1}} {
			u, v := side[0], side[1]
			if walls[mkEdge(u, v)] {
				continue
			}
			if w, ok := m.apex(v, u); ok {
				if n := makeTriangle(v, u, w); !seen[n] {
					queue = append(queue, n)
				}
			}
		}
	}
	return seen
}

func faceEdges(faces []Triangle) map[edge]bool {
	edges := make(map[edge]bool, len(faces)*2)
	for _, t := range faces {
		edges[mkEdge(t.P1, t.P2)] = true
		edges[mkEdge(t.P2, t.P3)] = true
		edges[mkEdge(t.P3, t.P1)] = true
	}
	return edges
}

// commitFaces replaces all adjacency with the edges of faces.
func (m *Mesh) commitFaces(faces []Triangle) {
	edges := faceEdges(faces)
	for i := range m.nodes {
		m.nodes[i].adj = nil
		m.nodes[i].hull = NoPoint
	}
	m.hullSet = false
	for e := range edges {
		m.insertNeighbor(e.a, e.b)
		m.insertNeighbor(e.b, e.a)
	}
	m.touch()
}

// hasRing reports whether a feature of type t already runs along ring.
func (m *Mesh) hasRing(t FeatureType, ring []PointID) bool {
	want := slices.Sorted(slices.Values(ring))
	for _, f := range m.features {
		if f.Type != t || len(f.Points) != len(ring) {
			continue
		}
		if slices.Equal(slices.Sorted(slices.Values(f.Points)), want) {
			return true
		}
	}
	return false
}

// polygonCut holds the rings left of a polygon feature after a clip. No
// rings means the feature goes.
type polygonCut struct {
	feature *Feature
	rings   [][]PointID
}

// cutPolygons intersects each polygon feature that loses a ring edge with
// the faces in keep. It reads the current adjacency, so it runs before keep
// is committed.
func (m *Mesh) cutPolygons(keep []Triangle) []polygonCut {
	kept := make(map[Triangle]bool, len(keep))
	for _, t := range keep {
		kept[t] = true
	}
	edges := faceEdges(keep)

	var cuts []polygonCut
	for _, f := range m.features {
		if f.State != FeatureTin || !f.Type.Closed() || len(f.Points) < 3 {
			continue
		}
		if !slices.ContainsFunc(f.edges(), func(e edge) bool { return !edges[e] }) {
			continue
		}
		ring := slices.Clone(f.Points)
		if geom.SignedArea(m.ringXY(ring)) < 0 {
			slices.Reverse(ring)
		}
		var faces []Triangle
		for t := range m.floodFaces(ring) {
			if kept[t] {
				faces = append(faces, t)
			}
		}
		cuts = append(cuts, polygonCut{feature: f, rings: m.boundaryRings(faces)})
	}
	return cuts
}

// boundaryRings traces the outline of a face set as counter-clockwise rings.
// Outlines that pinch at a point or enclose a hole cannot be held by single
// rings and give nil.
func (m *Mesh) boundaryRings(faces []Triangle) [][]PointID {
	half := make(map[[2]PointID]bool, len(faces)*3)
	for _, t := range faces {
		half[[2]PointID{t.P1, t.P2}] = true
		half[[2]PointID{t.P2, t.P3}] = true
		half[[2]PointID{t.P3, t.P1}] = true
	}
	next := make(map[PointID]PointID)
	for h := range half {
		if half[[2]PointID{h[1], h[0]}] {
			continue
		}
		if _, dup := next[h[0]]; dup {
			return nil
		}
		next[h[0]] = h[1]
	}

	seen := make(map[PointID]bool, len(next))
	var rings [][]PointID
	for _, start := range slices.Sorted(maps.Keys(next)) {
		if seen[start] {
			continue
		}
		var ring []PointID
		p := start
		for !seen[p] {
			seen[p] = true
			ring = append(ring, p)
			q, ok := next[p]
			if !ok {
				return nil
			}
			p = q
		}
		if p != start || len(ring) < 3 || geom.SignedArea(m.ringXY(ring)) <= 0 {
			return nil
		}
		rings = append(rings, ring)
	}
	return rings
}

// applyCuts rewrites the cut polygon features in place. Extra rings become
// new features of the same kind right after the original.
func (m *Mesh) applyCuts(cuts []polygonCut) {
	for _, c := range cuts {
		f := c.feature
		i := slices.Index(m.features, f)
		if i < 0 {
			continue
		}
		if len(c.rings) == 0 {
			m.features = slices.Delete(m.features, i, i+1)
			m.log.Debug("removing clipped polygon", zap.Int("feature", int(f.ID)), zap.Stringer("type", f.Type))
			continue
		}
		f.Points = c.rings[0]
		for k, ring := range c.rings[1:] {
			g := f.clone()
			g.ID = m.nextFeatureID
			m.nextFeatureID++
			g.Points = ring
			m.features = slices.Insert(m.features, i+1+k, &g)
		}
		m.log.Debug("cut polygon feature",
			zap.Int("feature", int(f.ID)), zap.Stringer("type", f.Type), zap.Int("rings", len(c.rings)))
	}
}
