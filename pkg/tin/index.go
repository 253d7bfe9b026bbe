package tin

import (
	"fmt"
)

// IndexEntry is one numbered face. P1 is the smallest corner and the corners
// run counter-clockwise.
type IndexEntry struct {
	P1, P2, P3 PointID
	Number     int
}

// TriangleIndex numbers the faces of a mesh and finds a face from its
// corners. Entries are grouped by P1; each group is scanned linearly.
type TriangleIndex struct {
	entries []IndexEntry
	offsets []int // offsets[p] is the first entry with P1 == p
}

// BuildIndex numbers every face of a triangulated mesh in canonical order.
func BuildIndex(m *Mesh) (*TriangleIndex, error) {
	if !m.Triangulated() {
		return nil, ErrNotTriangulated
	}
	idx := &TriangleIndex{
		entries: make([]IndexEntry, 0, m.TriangleCount()),
		offsets: make([]int, m.NumPoints()+1),
	}
	m.forEachTriangle(func(t Triangle) bool {
		idx.entries = append(idx.entries, IndexEntry{P1: t.P1, P2: t.P2, P3: t.P3, Number: len(idx.entries)})
		idx.offsets[t.P1+1]++
		return true
	})
	for p := 1; p < len(idx.offsets); p++ {
		idx.offsets[p] += idx.offsets[p-1]
	}
	if len(idx.entries) != m.TriangleCount() {
		return nil, fmt.Errorf("%w: indexed %d, counted %d", ErrIndexMismatch, len(idx.entries), m.TriangleCount())
	}
	return idx, nil
}

// Len returns the number of indexed faces.
func (x *TriangleIndex) Len() int { return len(x.entries) }

// Entry returns face n.
func (x *TriangleIndex) Entry(n int) IndexEntry { return x.entries[n] }

// Find returns the number of the face with corners a, b and c in any order.
func (x *TriangleIndex) Find(a, b, c PointID) (int, bool) {
	switch {
	case b < a && b < c:
		a, b, c = b, c, a
	case c < a && c < b:
		a, b, c = c, a, b
	}
	if a < 0 || int(a)+1 >= len(x.offsets) {
		return -1, false
	}
	for _, e := range x.entries[x.offsets[a]:x.offsets[a+1]] {
		if (e.P2 == b && e.P3 == c) || (e.P2 == c && e.P3 == b) {
			return e.Number, true
		}
	}
	return -1, false
}

// Adjacent returns the faces across the sides P1-P2, P2-P3 and P3-P1 of face
// n, with -1 where the side is on the boundary.
func (x *TriangleIndex) Adjacent(m *Mesh, n int) ([3]int, error) {
	e := x.entries[n]
	sides := [3][2]PointID{{e.P1, e.P2}, {e.P2, e.P3}, {e.P3, e.P1}}
	adj := [3]int{-1, -1, -1}
	for i, s := range sides {
		u, v := s[0], s[1]
		w, ok := m.apex(v, u)
		if !ok {
			continue
		}
		k, found := x.Find(v, u, w)
		if !found {
			return adj, fmt.Errorf("%w: face (%d,%d,%d) beside %d is not indexed", ErrIndexMismatch, v, u, w, n)
		}
		adj[i] = k
	}
	return adj, nil
}
