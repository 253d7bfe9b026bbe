package tin

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// Triangulate builds a Delaunay triangulation of every pending point, threads
// the pending features through it and, if a Hull feature is present, clips
// the mesh to it. Features that cannot be threaded are dropped and reported
// by Dropped.
func (m *Mesh) Triangulate() error {
	if m.state == Tin {
		return ErrAlreadyTriangulated
	}
	m.dropped = nil

	order, canon := m.distinctPoints()
	if len(order) < 3 {
		return fmt.Errorf("%w: %d distinct points", ErrDegenerate, len(order))
	}
	for _, f := range m.features {
		f.Points = remapChain(f.Points, canon)
	}

	if err := m.sweep(order); err != nil {
		for i := range m.nodes {
			m.nodes[i].adj = nil
			m.nodes[i].hull = NoPoint
		}
		m.hullSet = false
		return err
	}
	m.state = Tin
	m.relinkFeatures()

	if err := m.commitPending(); err != nil {
		return err
	}
	for _, f := range m.features {
		if f.Type != Hull {
			continue
		}
		if err := m.ClipToPolygon(f.Points, ClipExternal); err != nil {
			return fmt.Errorf("clipping to hull feature %d: %w", f.ID, err)
		}
		break
	}
	m.log.Debug("triangulated",
		zap.Int("points", len(order)), zap.Int("features", len(m.features)), zap.Int("dropped", len(m.dropped)))
	return m.Clean()
}

// Dropped returns the features discarded by the last Triangulate.
func (m *Mesh) Dropped() []*FeatureError {
	return slices.Clone(m.dropped)
}

// distinctPoints returns point ids in lexicographic order with near
// duplicates removed, and a map from every id to the id that represents it.
func (m *Mesh) distinctPoints() ([]PointID, []PointID) {
	all := make([]PointID, len(m.points))
	for i := range all {
		all[i] = PointID(i)
	}
	slices.SortFunc(all, func(a, b PointID) int {
		if m.lexLess(a, b) {
			return -1
		}
		if m.lexLess(b, a) {
			return 1
		}
		return 0
	})

	canon := make([]PointID, len(m.points))
	var order []PointID
	for _, p := range all {
		canon[p] = p
		for k := len(order) - 1; k >= 0 && m.points[p].X-m.points[order[k]].X <= m.snapTolerance; k-- {
			if geom.Distance(m.xy(order[k]), m.xy(p)) <= m.snapTolerance {
				canon[p] = order[k]
				break
			}
		}
		if canon[p] == p {
			order = append(order, p)
		}
	}
	return order, canon
}

func remapChain(pts []PointID, canon []PointID) []PointID {
	out := pts[:0]
	for _, p := range pts {
		c := canon[p]
		if len(out) > 0 && out[len(out)-1] == c {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sweep inserts points in lexicographic order. Each point lies outside the
// hull of those before it, so it is joined to every hull edge it can see and
// the new faces are legalized by edge flips.
func (m *Mesh) sweep(order []PointID) error {
	k := 2
	for k < len(order) && geom.Orientation(m.xy(order[0]), m.xy(order[1]), m.xy(order[k])) == 0 {
		k++
	}
	if k == len(order) {
		return fmt.Errorf("%w: all points collinear", ErrDegenerate)
	}

	prev := make([]PointID, len(m.points))
	line, c := order[:k], order[k]
	for i := 0; i+1 < len(line); i++ {
		_ = m.Connect(line[i], line[i+1])
	}
	for _, p := range line {
		_ = m.Connect(c, p)
	}
	ring := append(slices.Clone(line), c)
	if geom.Orientation(m.xy(line[0]), m.xy(line[k-1]), m.xy(c)) < 0 {
		ring = append([]PointID{line[0], c}, reversed(line[1:])...)
	}
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		m.nodes[p].hull = q
		prev[q] = p
	}
	m.hullSet = true

	last := c
	for _, p := range order[k+1:] {
		if err := m.addOutside(p, last, prev); err != nil {
			return err
		}
		last = p
	}
	return nil
}

// addOutside joins p, which lies outside the current hull, to every hull
// edge visible from it. last is the previous point inserted.
func (m *Mesh) addOutside(p, last PointID, prev []PointID) error {
	pp := m.xy(p)
	_ = m.Connect(p, last)

	var flips [][2]PointID
	f := last
	for {
		n := m.nodes[f].hull
		if geom.Orientation(m.xy(f), m.xy(n), pp) >= 0 {
			break
		}
		_ = m.Connect(p, n)
		flips = append(flips, [2]PointID{n, f})
		f = n
	}
	b := last
	for {
		pv := prev[b]
		if geom.Orientation(m.xy(pv), m.xy(b), pp) >= 0 {
			break
		}
		_ = m.Connect(p, pv)
		flips = append(flips, [2]PointID{b, pv})
		b = pv
	}
	if len(flips) == 0 {
		return fmt.Errorf("%w: point %d sees no hull edge", ErrTopology, p)
	}

	for v := m.nodes[b].hull; v != f; {
		next := m.nodes[v].hull
		m.nodes[v].hull = NoPoint
		v = next
	}
	m.nodes[b].hull = p
	m.nodes[p].hull = f
	prev[p] = b
	prev[f] = p

	for _, e := range flips {
		m.legalize(p, e[0], e[1])
	}
	return nil
}

// legalize restores the empty circumcircle property across a-b, where
// (a, b, p) is a counter-clockwise face.
func (m *Mesh) legalize(p, a, b PointID) {
	q, ok := m.apex(b, a)
	if !ok || m.IsFixed(a, b) {
		return
	}
	if geom.InCircle(m.xy(a), m.xy(b), m.xy(p), m.xy(q)) <= 0 {
		return
	}
	_ = m.Disconnect(a, b)
	_ = m.Connect(p, q)
	m.legalize(p, a, q)
	m.legalize(p, q, b)
}

// commitPending threads every pending feature through the triangulation.
func (m *Mesh) commitPending() error {
	for _, f := range slices.Clone(m.features) {
		if f.State != FeaturePending {
			continue
		}
		if err := m.commitChain(f); err != nil {
			if !isFeatureLevel(err) {
				return err
			}
			fe := &FeatureError{Type: f.Type, Name: f.Name, Err: err}
			m.log.Warn("dropping feature", zap.Stringer("type", f.Type), zap.String("name", f.Name), zap.Error(err))
			m.dropped = append(m.dropped, fe)
			_ = m.RemoveFeature(f.ID)
			continue
		}
		m.linkFeature(f)
	}
	return nil
}
