package tin

import (
	"container/heap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// pathNode is a search state in the edge graph.
type pathNode struct {
	point  PointID
	g      float64 // path length from start
	f      float64 // g plus straight-line distance to goal
	parent *pathNode
	index  int // index in heap
}

// pathHeap is a min-heap of search states ordered by f, then point id.
type pathHeap []*pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].point < h[j].point
}
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *pathHeap) Pop() any {
	old := *h
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*h = old[:last]
	return n
}

// shortestEdgePath runs A* over mesh edges from a to b, avoiding points that
// already lead somewhere in the scratch chain. Returns nil if b is unreachable.
func (m *Mesh) shortestEdgePath(s *scratch, a, b PointID) []PointID {
	goal := m.xy(b)
	open := &pathHeap{}
	heap.Init(open)

	closed := make(map[PointID]bool)
	nodes := make(map[PointID]*pathNode)

	start := &pathNode{point: a, f: geom.Distance(m.xy(a), goal)}
	heap.Push(open, start)
	nodes[a] = start

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.point == b {
			return reconstructPath(cur)
		}
		closed[cur.point] = true

		here := m.xy(cur.point)
		for _, n := range m.nodes[cur.point].adj {
			if closed[n] || (n != b && s.linked(n)) {
				continue
			}
			g := cur.g + geom.Distance(here, m.xy(n))

			next, seen := nodes[n]
			if !seen {
				next = &pathNode{point: n, g: g, f: g + geom.Distance(m.xy(n), goal), parent: cur}
				nodes[n] = next
				heap.Push(open, next)
			} else if g < next.g {
				next.f += g - next.g
				next.g = g
				next.parent = cur
				heap.Fix(open, next.index)
			}
		}
	}
	return nil
}

func reconstructPath(n *pathNode) []PointID {
	var path []PointID
	for ; n != nil; n = n.parent {
		path = append(path, n.point)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
