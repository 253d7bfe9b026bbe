package tin

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// Reconnect joins a and b through the mesh and returns the points of the
// joining path, from a to b. It tries, in order, an existing edge, a forced
// line insertion, the minimum turning angle walk and, when enabled, a
// shortest path over mesh edges.
func (m *Mesh) Reconnect(a, b PointID) ([]PointID, error) {
	if !m.Triangulated() {
		return nil, ErrNotTriangulated
	}
	if !m.valid(a) || !m.valid(b) {
		return nil, fmt.Errorf("%w: reconnect %d-%d", ErrInvalidPoint, a, b)
	}
	var path []PointID
	err := m.withScratch(func(s *scratch) error {
		if err := m.reconnect(s, a, b); err != nil {
			return err
		}
		path, _ = s.walk()
		return nil
	})
	return path, err
}

// reconnect threads a path from a to b into the scratch chain.
func (m *Mesh) reconnect(s *scratch, a, b PointID) error {
	if a == b {
		return nil
	}
	if m.Connected(a, b) {
		return s.link(a, b)
	}

	path, err := m.insertEdge(a, b)
	if err == nil {
		return linkPath(s, path)
	}
	if !errors.Is(err, ErrNotLegal) {
		return err
	}
	m.log.Debug("direct insertion refused, walking", zap.Int("from", int(a)), zap.Int("to", int(b)), zap.Error(err))

	path, err = m.angleWalk(s, a, b)
	if err == nil {
		return linkPath(s, path)
	}
	if !m.shortestPath {
		return err
	}
	m.log.Debug("angle walk failed, searching edges", zap.Int("from", int(a)), zap.Int("to", int(b)))

	path = m.shortestEdgePath(s, a, b)
	if path == nil {
		return fmt.Errorf("%w: %d to %d", ErrNoPath, a, b)
	}
	return linkPath(s, path)
}

func linkPath(s *scratch, path []PointID) error {
	for i := 0; i+1 < len(path); i++ {
		if err := s.link(path[i], path[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// angleWalk steps from a towards b along existing edges, each time taking the
// neighbour whose bearing is closest to the bearing of b. Ties go to the lower
// point id. Points already in the walk or the scratch chain are never taken
// again. The walk gives up after the configured number of steps.
func (m *Mesh) angleWalk(s *scratch, a, b PointID) ([]PointID, error) {
	limit := m.maxSteps
	if limit <= 0 {
		limit = len(m.points)
	}
	target := m.xy(b)
	visited := map[PointID]bool{a: true}
	path := []PointID{a}

	for cur := a; cur != b; {
		if len(path) > limit {
			return nil, fmt.Errorf("%w: %d to %d exceeds %d steps", ErrNoPath, a, b, limit)
		}
		here := m.xy(cur)
		want := geom.Bearing(here, target)

		next, best := NoPoint, 0.0
		for _, n := range m.nodes[cur].adj {
			if visited[n] || (n != b && s.linked(n)) {
				continue
			}
			d := geom.AngleDiff(geom.Bearing(here, m.xy(n)), want)
			if next == NoPoint || d < best || (d == best && n < next) {
				next, best = n, d
			}
		}
		if next == NoPoint {
			return nil, fmt.Errorf("%w: %d to %d stuck at %d", ErrNoPath, a, b, cur)
		}
		visited[next] = true
		path = append(path, next)
		cur = next
	}
	return path, nil
}
