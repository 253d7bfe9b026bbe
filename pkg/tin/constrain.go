package tin

import (
	"fmt"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// insertEdge forces the edge a-b into the triangulation by removing every edge
// it crosses and refilling both sides. It returns the points the new line
// passes through, from a to b. Every stretch between those points is checked
// before any is inserted, so a line that would cross a fixed edge or leave
// the mesh is refused without changing anything.
func (m *Mesh) insertEdge(a, b PointID) ([]PointID, error) {
	if a == b {
		return nil, fmt.Errorf("%w: %d to itself", ErrNotLegal, a)
	}

	stops := []PointID{a}
	for p := a; p != b; {
		if m.Connected(p, b) {
			stops = append(stops, b)
			break
		}
		_, _, via, err := m.crossing(p, b)
		if err != nil {
			return nil, err
		}
		if via == NoPoint {
			via = b
		}
		stops = append(stops, via)
		p = via
	}

	for i := 0; i+1 < len(stops); i++ {
		if err := m.insertStretch(stops[i], stops[i+1]); err != nil {
			return nil, err
		}
	}
	return stops, nil
}

// insertStretch inserts a-b when no vertex lies on it.
func (m *Mesh) insertStretch(a, b PointID) error {
	if m.Connected(a, b) {
		return nil
	}
	right, left, via, err := m.crossing(a, b)
	if err != nil {
		return err
	}
	if via != NoPoint {
		return fmt.Errorf("%w: %d lies on %d-%d", ErrTopology, via, a, b)
	}

	for i := range right {
		// Removed edges run between consecutive crossing pairs.
		_ = m.Disconnect(right[i], left[i])
	}
	if err := m.Connect(a, b); err != nil {
		return err
	}
	m.fillPseudoPolygon(a, b, uniqueRun(left))
	m.fillPseudoPolygon(b, a, reversed(uniqueRun(right)))
	return nil
}

// crossing walks the faces cut by the segment a-b. It returns the edges
// crossed as parallel slices of their right and left endpoints, or the first
// vertex lying exactly on the segment.
func (m *Mesh) crossing(a, b PointID) (right, left []PointID, via PointID, err error) {
	pa, pb := m.xy(a), m.xy(b)
	adj := m.nodes[a].adj
	if len(adj) == 0 {
		return nil, nil, NoPoint, fmt.Errorf("%w: %d", ErrDisconnected, a)
	}

	r, l := NoPoint, NoPoint
	for k, u := range adj {
		pu := m.xy(u)
		if geom.Orientation(pa, pb, pu) == 0 && pu.Sub(pa).Dot(pb.Sub(pa)) > 0 &&
			geom.DistanceSq(pa, pu) < geom.DistanceSq(pa, pb) {
			return nil, nil, u, nil
		}
		w := adj[(k+1)%len(adj)]
		if geom.Orientation(pa, pu, pb) > 0 && geom.Orientation(pa, pb, m.xy(w)) > 0 && m.wedgeIsFace(a, u, w) {
			r, l = u, w
			break
		}
	}
	if r == NoPoint {
		return nil, nil, NoPoint, fmt.Errorf("%w: %d-%d leaves the mesh at %d", ErrNotLegal, a, b, a)
	}

	for steps := 0; ; steps++ {
		if m.IsFixed(r, l) {
			return nil, nil, NoPoint, fmt.Errorf("%w: %d-%d crosses fixed edge %d-%d", ErrNotLegal, a, b, r, l)
		}
		right = append(right, r)
		left = append(left, l)
		if steps > len(m.points) {
			return nil, nil, NoPoint, fmt.Errorf("%w: walk from %d to %d does not end", ErrTopology, a, b)
		}

		x, ok := m.apex(l, r)
		if !ok {
			return nil, nil, NoPoint, fmt.Errorf("%w: %d-%d leaves the mesh across %d-%d", ErrNotLegal, a, b, r, l)
		}
		if x == b {
			return right, left, NoPoint, nil
		}
		switch geom.Orientation(pa, pb, m.xy(x)) {
		case 1:
			l = x
		case -1:
			r = x
		default:
			return nil, nil, x, nil
		}
	}
}

// fillPseudoPolygon triangulates the region bounded by the edge a-b and the
// chain pts, which runs from a's side to b's side. The chosen apex at each
// level has no other chain point inside its circumcircle.
func (m *Mesh) fillPseudoPolygon(a, b PointID, pts []PointID) {
	if len(pts) == 0 {
		return
	}
	pa, pb := m.xy(a), m.xy(b)
	ci := 0
	for i := 1; i < len(pts); i++ {
		if geom.InCircumcircle(pa, pb, m.xy(pts[ci]), m.xy(pts[i])) {
			ci = i
		}
	}
	c := pts[ci]
	m.fillPseudoPolygon(a, c, pts[:ci])
	m.fillPseudoPolygon(c, b, pts[ci+1:])
	_ = m.Connect(a, c)
	_ = m.Connect(c, b)
}

// uniqueRun drops consecutive repeats.
func uniqueRun(pts []PointID) []PointID {
	var out []PointID
	for _, p := range pts {
		if len(out) == 0 || out[len(out)-1] != p {
			out = append(out, p)
		}
	}
	return out
}

func reversed(pts []PointID) []PointID {
	out := make([]PointID, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
