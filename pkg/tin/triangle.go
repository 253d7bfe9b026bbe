package tin

import (
	"fmt"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// Triangle is a face given by its corners in counter-clockwise order,
// rotated so that P1 is the smallest id.
type Triangle struct {
	P1, P2, P3 PointID
}

// makeTriangle rotates a counter-clockwise triple so the smallest id leads.
func makeTriangle(a, b, c PointID) Triangle {
	switch {
	case b < a && b < c:
		return Triangle{b, c, a}
	case c < a && c < b:
		return Triangle{c, a, b}
	}
	return Triangle{a, b, c}
}

// Sorted returns the corners in ascending order.
func (t Triangle) Sorted() [3]PointID {
	if t.P2 < t.P3 {
		return [3]PointID{t.P1, t.P2, t.P3}
	}
	return [3]PointID{t.P1, t.P3, t.P2}
}

// String returns the corners as "(p1,p2,p3)".
func (t Triangle) String() string {
	return fmt.Sprintf("(%d,%d,%d)", t.P1, t.P2, t.P3)
}

// wedgeIsFace reports whether the wedge at p from q to r, its next
// counter-clockwise neighbour, is closed by the edge q-r into a face.
func (m *Mesh) wedgeIsFace(p, q, r PointID) bool {
	if q == r || !m.Connected(q, r) {
		return false
	}
	if geom.Orientation(m.xy(p), m.xy(q), m.xy(r)) <= 0 {
		return false
	}
	if m.hullSet && m.nodes[p].hull == r {
		return false
	}
	return true
}

// apex returns the third corner of the face on the left of p->q.
func (m *Mesh) apex(p, q PointID) (PointID, bool) {
	r, err := m.NextCCW(p, q)
	if err != nil || !m.wedgeIsFace(p, q, r) {
		return NoPoint, false
	}
	return r, true
}

// HasTriangle reports whether a, b and c bound a face, in any order.
func (m *Mesh) HasTriangle(a, b, c PointID) bool {
	if !m.valid(a) || !m.valid(b) || !m.valid(c) {
		return false
	}
	if geom.Orientation(m.xy(a), m.xy(b), m.xy(c)) < 0 {
		b, c = c, b
	}
	r, ok := m.apex(a, b)
	return ok && r == c
}

// forEachTriangle calls fn once per face in canonical order, ascending by the
// smallest corner. Iteration stops when fn returns false.
func (m *Mesh) forEachTriangle(fn func(Triangle) bool) {
	for i := range m.nodes {
		p := PointID(i)
		adj := m.nodes[i].adj
		n := len(adj)
		if n < 2 {
			continue
		}
		for k := 0; k < n; k++ {
			q, r := adj[k], adj[(k+1)%n]
			if q < p || r < p {
				continue
			}
			if !m.wedgeIsFace(p, q, r) {
				continue
			}
			if !fn(Triangle{p, q, r}) {
				return
			}
		}
	}
}

// Triangles returns every face in canonical order.
func (m *Mesh) Triangles() []Triangle {
	var tris []Triangle
	m.forEachTriangle(func(t Triangle) bool {
		tris = append(tris, t)
		return true
	})
	return tris
}

// TriangleCount returns the face count recorded by the last Clean.
func (m *Mesh) TriangleCount() int {
	return m.numTriangles
}

// countTriangles counts faces from every corner. Each face must be seen
// exactly three times.
func (m *Mesh) countTriangles() (int, error) {
	var wedges int
	for i := range m.nodes {
		p := PointID(i)
		adj := m.nodes[i].adj
		n := len(adj)
		if n < 2 {
			continue
		}
		for k := 0; k < n; k++ {
			if m.wedgeIsFace(p, adj[k], adj[(k+1)%n]) {
				wedges++
			}
		}
	}
	if wedges%3 != 0 {
		return 0, fmt.Errorf("%w: %d face corners", ErrTopology, wedges)
	}
	return wedges / 3, nil
}
