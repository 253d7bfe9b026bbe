package exchange

import (
	"github.com/Faultbox/tinbridge/pkg/tin"
)

type memPoint struct {
	index   int
	x, y, z float64
}

// memSource streams points, then neighbour lists, then features.
type memSource struct {
	points    []memPoint
	neighbors map[int][]int
	features  []FeatureRecord
}

func (s *memSource) Stream(sink Sink) error {
	for _, p := range s.points {
		if err := sink.OnPoint(p.index, p.x, p.y, p.z); err != nil {
			return err
		}
	}
	for _, p := range s.points {
		if adj, ok := s.neighbors[p.index]; ok {
			if err := sink.OnNeighbors(p.index, adj); err != nil {
				return err
			}
		}
	}
	for _, f := range s.features {
		if err := sink.OnFeature(f); err != nil {
			return err
		}
	}
	return nil
}

func squareSource() *memSource {
	return &memSource{points: []memPoint{
		{0, 0, 0, 1}, {1, 10, 0, 2}, {2, 10, 10, 3}, {3, 0, 10, 4},
	}}
}

// gridSource is an n x n lattice with spacing 10, every cell split along the
// same diagonal. Point (i, j) has foreign index 100+i+n*j.
func gridSource(n int) *memSource {
	s := &memSource{neighbors: make(map[int][]int)}
	id := func(i, j int) int { return 100 + i + n*j }
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			s.points = append(s.points, memPoint{id(i, j), float64(i * 10), float64(j * 10), float64(i + j)})
			var adj []int
			if i+1 < n {
				adj = append(adj, id(i+1, j))
			}
			if j+1 < n {
				adj = append(adj, id(i, j+1))
			}
			if i+1 < n && j+1 < n {
				adj = append(adj, id(i+1, j+1))
			}
			s.neighbors[id(i, j)] = adj
		}
	}
	return s
}

type discovered struct {
	id   tin.FeatureID
	name string
	typ  tin.FeatureType
}

type discoveryLog []discovered

func (d *discoveryLog) OnFeatureDiscovered(id tin.FeatureID, name, _ string, t tin.FeatureType, _ []tin.Point) {
	*d = append(*d, discovered{id, name, t})
}
