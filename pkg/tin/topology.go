package tin

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// AdoptTopology marks a mesh whose adjacency was supplied directly as
// triangulated. Missing face edges are repaired, the hull ring is rebuilt and
// faces are counted.
func (m *Mesh) AdoptTopology() error {
	if m.state == Tin {
		return ErrAlreadyTriangulated
	}
	if m.NumEdges() == 0 {
		return fmt.Errorf("%w: no adjacency supplied", ErrDisconnected)
	}
	m.state = Tin
	m.relinkFeatures()

	hullErr := m.ResetHull()
	if err := m.CheckTopology(); hullErr != nil || err != nil {
		added := m.FixTopology()
		m.log.Info("repaired supplied topology", zap.Int("edges", added), zap.NamedError("check", err))
		if err := m.ResetHull(); err != nil {
			return fmt.Errorf("adopting topology: %w", err)
		}
		if err := m.CheckTopology(); err != nil {
			m.log.Warn("topology still inconsistent after repair", zap.Error(err))
		}
	}

	count, err := m.countTriangles()
	if err != nil {
		return fmt.Errorf("adopting topology: %w", err)
	}
	m.numTriangles = count
	return nil
}

// CheckTopology verifies that adjacency is symmetric, that every wedge around
// an interior point is a face and that the hull ring closes.
func (m *Mesh) CheckTopology() error {
	for i := range m.nodes {
		p := PointID(i)
		for _, q := range m.nodes[i].adj {
			if !slices.Contains(m.nodes[q].adj, p) {
				return fmt.Errorf("%w: %d lists %d but not the reverse", ErrTopology, p, q)
			}
		}
	}
	if !m.hullSet {
		return ErrHullRing
	}

	ring := m.HullPoints()
	if len(ring) < 3 || m.nodes[ring[len(ring)-1]].hull != ring[0] {
		return fmt.Errorf("%w: ring of %d points is open", ErrHullRing, len(ring))
	}
	for i := range m.nodes {
		adj := m.nodes[i].adj
		if len(adj) == 0 || m.nodes[i].hull != NoPoint {
			continue
		}
		for k, q := range adj {
			if !m.wedgeIsFace(PointID(i), q, adj[(k+1)%len(adj)]) {
				return fmt.Errorf("%w: open wedge at interior point %d", ErrTopology, i)
			}
		}
	}
	return nil
}

// FixTopology joins consecutive neighbours of interior points that turn
// counter-clockwise but are not adjacent. It returns the number of edges added.
func (m *Mesh) FixTopology() int {
	var added int
	for i := range m.nodes {
		p := PointID(i)
		if m.OnHull(p) {
			continue
		}
		for k := 0; k < len(m.nodes[i].adj); k++ {
			adj := m.nodes[i].adj
			q, r := adj[k], adj[(k+1)%len(adj)]
			if q == r || m.Connected(q, r) {
				continue
			}
			if geom.Orientation(m.xy(p), m.xy(q), m.xy(r)) <= 0 {
				continue
			}
			_ = m.Connect(q, r)
			added++
		}
	}
	return added
}

// DeletePoint removes every edge at p. The point stays in the arena as an
// orphan until the next Clean.
func (m *Mesh) DeletePoint(p PointID) error {
	if !m.valid(p) {
		return fmt.Errorf("%w: %d", ErrInvalidPoint, p)
	}
	for _, q := range m.nodes[p].adj {
		m.removeNeighbor(q, p)
	}
	m.nodes[p].adj = nil
	m.touch()
	return nil
}

// RemoveBoundingRectangle deletes the boundary points closest to the four
// corners of the bounding box, which is where an exporting tool places its
// own padding rectangle, and rebuilds the hull ring.
func (m *Mesh) RemoveBoundingRectangle() error {
	if m.state != Tin {
		return ErrNotTriangulated
	}
	ring := m.HullPoints()
	if len(ring) <= 4 {
		return fmt.Errorf("%w: %d boundary points", ErrDegenerate, len(ring))
	}
	bounds := m.Bounds()
	var corners []PointID
	for _, c := range bounds.Vertices() {
		best := ring[0]
		bestD := geom.DistanceSq(c, m.xy(best))
		for _, p := range ring[1:] {
			if d := geom.DistanceSq(c, m.xy(p)); d < bestD || (d == bestD && p < best) {
				best, bestD = p, d
			}
		}
		if !slices.Contains(corners, best) {
			corners = append(corners, best)
		}
	}
	for _, p := range corners {
		_ = m.DeletePoint(p)
	}
	m.log.Debug("removed bounding rectangle", zap.Int("corners", len(corners)))
	return m.ResetHull()
}

// RemoveLongBoundaryTriangles repeatedly removes boundary faces whose hull
// side is longer than maxLen and whose third corner is interior. Fixed edges are
// kept. It returns the number of faces removed.
func (m *Mesh) RemoveLongBoundaryTriangles(maxLen float64) int {
	if m.state != Tin || !m.hullSet || maxLen <= 0 {
		return 0
	}
	var removed int
	for changed := true; changed; {
		changed = false
		for _, p := range m.HullPoints() {
			q := m.nodes[p].hull
			if q == NoPoint || m.IsFixed(p, q) || geom.Distance(m.xy(p), m.xy(q)) <= maxLen {
				continue
			}
			r, ok := m.apex(p, q)
			if !ok || m.OnHull(r) {
				continue
			}
			_ = m.Disconnect(p, q)
			m.nodes[p].hull = r
			m.nodes[r].hull = q
			removed++
			changed = true
		}
	}
	if removed > 0 {
		m.log.Debug("removed long boundary faces", zap.Int("faces", removed), zap.Float64("max", maxLen))
	}
	return removed
}

// RemoveZeroAreaVoids deletes Void features that enclose no area. It returns
// the number removed.
func (m *Mesh) RemoveZeroAreaVoids() int {
	var ids []FeatureID
	for _, f := range m.features {
		if f.Type != Void {
			continue
		}
		if len(f.Points) < 3 || geom.SignedArea(m.ringXY(f.Points)) == 0 {
			ids = append(ids, f.ID)
		}
	}
	for _, id := range ids {
		_ = m.RemoveFeature(id)
	}
	return len(ids)
}
