package tin

import (
	"fmt"
)

// HullNext returns the boundary point after p, or NoPoint when p is interior
// or the ring is unset.
func (m *Mesh) HullNext(p PointID) PointID {
	if !m.hullSet || !m.valid(p) {
		return NoPoint
	}
	return m.nodes[p].hull
}

// OnHull reports whether p is on the boundary ring.
func (m *Mesh) OnHull(p PointID) bool {
	return m.HullNext(p) != NoPoint
}

// HullPoints returns the boundary ring counter-clockwise, starting from the
// lowest-leftmost boundary point.
func (m *Mesh) HullPoints() []PointID {
	if !m.hullSet {
		return nil
	}
	start := NoPoint
	for i := range m.nodes {
		p := PointID(i)
		if m.nodes[i].hull == NoPoint {
			continue
		}
		if start == NoPoint || m.lexLess(p, start) {
			start = p
		}
	}
	if start == NoPoint {
		return nil
	}
	ring := []PointID{start}
	for p := m.nodes[start].hull; p != start && len(ring) <= len(m.points); p = m.nodes[p].hull {
		ring = append(ring, p)
	}
	return ring
}

func (m *Mesh) lexLess(a, b PointID) bool {
	pa, pb := m.points[a], m.points[b]
	if pa.X != pb.X {
		return pa.X < pb.X
	}
	if pa.Y != pb.Y {
		return pa.Y < pb.Y
	}
	return a < b
}

// SetHullRing walks the boundary from start and rewires the hull link of
// every boundary point. The ring is replaced only if the walk closes.
func (m *Mesh) SetHullRing(start PointID) error {
	if !m.valid(start) || len(m.nodes[start].adj) == 0 {
		return fmt.Errorf("%w: start point %d has no adjacency", ErrHullRing, start)
	}

	wasSet := m.hullSet
	m.hullSet = false
	next := make(map[PointID]PointID)
	cur := start
	for {
		q, ok := m.boundaryNext(cur)
		if !ok {
			m.hullSet = wasSet
			return fmt.Errorf("%w: point %d is not on the boundary", ErrHullRing, cur)
		}
		if _, seen := next[cur]; seen {
			m.hullSet = wasSet
			return fmt.Errorf("%w: boundary revisits point %d", ErrHullRing, cur)
		}
		next[cur] = q
		cur = q
		if cur == start {
			break
		}
	}

	for i := range m.nodes {
		m.nodes[i].hull = NoPoint
	}
	for p, q := range next {
		m.nodes[p].hull = q
	}
	m.hullSet = true
	m.touch()
	return nil
}

// ResetHull rebuilds the ring from the lowest-leftmost connected point.
func (m *Mesh) ResetHull() error {
	start := NoPoint
	for i := range m.nodes {
		p := PointID(i)
		if len(m.nodes[i].adj) == 0 {
			continue
		}
		if start == NoPoint || m.lexLess(p, start) {
			start = p
		}
	}
	if start == NoPoint {
		return fmt.Errorf("%w: mesh has no edges", ErrHullRing)
	}
	return m.SetHullRing(start)
}

// boundaryNext finds the edge p->q that has a face on its left and none on
// its right. The hull ring must be disabled while this runs.
func (m *Mesh) boundaryNext(p PointID) (PointID, bool) {
	for _, q := range m.nodes[p].adj {
		if _, left := m.apex(p, q); !left {
			continue
		}
		if _, right := m.apex(q, p); right {
			continue
		}
		return q, true
	}
	return NoPoint, false
}
