package tin

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Clean compacts away points without edges, splits feature chains at edges
// that left the mesh, drops features left too short, rebuilds the hull ring
// and recounts faces. Point ids keep their relative order.
func (m *Mesh) Clean() error {
	if m.state != Tin {
		return ErrNotTriangulated
	}
	m.splitFeatures()

	remap := make([]PointID, len(m.points))
	var n PointID
	for i := range m.nodes {
		if len(m.nodes[i].adj) == 0 {
			remap[i] = NoPoint
			continue
		}
		remap[i] = n
		n++
	}
	if orphans := len(m.points) - int(n); orphans > 0 {
		m.compact(remap, int(n))
		m.log.Debug("compacted orphan points", zap.Int("orphans", orphans), zap.Int("points", int(n)))
	}

	kept := m.features[:0]
	for _, f := range m.features {
		if f.Closed {
			for len(f.Points) > 1 && f.Points[0] == f.Points[len(f.Points)-1] {
				f.Points = f.Points[:len(f.Points)-1]
			}
		}
		if len(f.Points) < f.Type.minPoints() {
			m.log.Debug("removing emptied feature", zap.Int("feature", int(f.ID)), zap.Stringer("type", f.Type))
			continue
		}
		kept = append(kept, f)
	}
	clear(m.features[len(kept):])
	m.features = kept
	m.relinkFeatures()
	m.locator = nil

	if err := m.ResetHull(); err != nil {
		return fmt.Errorf("cleaning mesh: %w", err)
	}
	count, err := m.countTriangles()
	if err != nil {
		return fmt.Errorf("cleaning mesh: %w", err)
	}
	m.numTriangles = count
	return nil
}

// splitFeatures cuts committed chains wherever an edge is no longer in the
// mesh. Each surviving run of a line feature is kept as its own feature, the
// first run keeping the id. A polygon missing a ring edge is dropped.
func (m *Mesh) splitFeatures() {
	out := make([]*Feature, 0, len(m.features))
	for _, f := range m.features {
		if f.State != FeatureTin || !f.Type.constrains() || m.chainLive(f) {
			out = append(out, f)
			continue
		}
		if f.Type.Closed() {
			m.log.Debug("removing broken polygon", zap.Int("feature", int(f.ID)), zap.Stringer("type", f.Type))
			continue
		}
		runs := m.liveRuns(f)
		for k, run := range runs {
			g := f
			if k > 0 {
				c := f.clone()
				c.ID = m.nextFeatureID
				m.nextFeatureID++
				g = &c
			}
			g.Points, g.Closed = run, false
			out = append(out, g)
		}
		m.log.Debug("split feature",
			zap.Int("feature", int(f.ID)), zap.Stringer("type", f.Type), zap.Int("runs", len(runs)))
	}
	m.features = out
}

func (m *Mesh) chainLive(f *Feature) bool {
	for _, e := range f.edges() {
		if !m.Connected(e.a, e.b) {
			return false
		}
	}
	return true
}

// liveRuns returns the maximal runs of f with at least one edge, all of
// whose edges are in the mesh.
func (m *Mesh) liveRuns(f *Feature) [][]PointID {
	pts := f.Points
	if n := len(pts); f.Closed && n > 2 {
		// Start after a missing edge so no run wraps round.
		for k := range pts {
			if !m.Connected(pts[k], pts[(k+1)%n]) {
				pts = append(slices.Clone(pts[k+1:]), pts[:k+1]...)
				break
			}
		}
	}
	var runs [][]PointID
	run := []PointID{pts[0]}
	for i := 1; i < len(pts); i++ {
		if !m.Connected(pts[i-1], pts[i]) {
			if len(run) > 1 {
				runs = append(runs, run)
			}
			run = nil
		}
		run = append(run, pts[i])
	}
	if len(run) > 1 {
		runs = append(runs, run)
	}
	return runs
}

// compact rewrites the point arena through remap, which sends orphans to
// NoPoint and live points to their new ids.
func (m *Mesh) compact(remap []PointID, live int) {
	points := make([]Point, 0, live)
	nodes := make([]node, 0, live)
	for i := range m.nodes {
		if remap[i] == NoPoint {
			continue
		}
		nd := m.nodes[i]
		for k, q := range nd.adj {
			nd.adj[k] = remap[q]
		}
		if nd.hull != NoPoint {
			nd.hull = remap[nd.hull]
		}
		points = append(points, m.points[i])
		nodes = append(nodes, nd)
	}
	m.points, m.nodes = points, nodes

	for _, f := range m.features {
		pts := f.Points[:0]
		for _, p := range f.Points {
			q := remap[p]
			if q == NoPoint || (len(pts) > 0 && pts[len(pts)-1] == q) {
				continue
			}
			pts = append(pts, q)
		}
		f.Points = pts
	}
	m.touch()
}
