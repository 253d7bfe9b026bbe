package tin

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// locator is a uniform grid over the live points of a mesh.
type locator struct {
	origin r2.Point
	cell   float64
	nx, ny int
	cells  map[[2]int][]PointID
}

func (m *Mesh) live(p PointID) bool {
	return m.state == Pending || len(m.nodes[p].adj) > 0
}

func (m *Mesh) buildLocator() *locator {
	var pts []PointID
	rect := r2.EmptyRect()
	for i := range m.points {
		p := PointID(i)
		if !m.live(p) {
			continue
		}
		pts = append(pts, p)
		rect = rect.AddPoint(m.xy(p))
	}

	l := &locator{cells: make(map[[2]int][]PointID)}
	if len(pts) == 0 {
		return l
	}
	size := rect.Size()
	l.origin = rect.Lo()
	l.cell = math.Sqrt(size.X * size.Y / float64(len(pts)))
	if l.cell == 0 || math.IsNaN(l.cell) {
		l.cell = math.Max(math.Max(size.X, size.Y), 1)
	}
	l.nx = int(size.X/l.cell) + 1
	l.ny = int(size.Y/l.cell) + 1
	for _, p := range pts {
		k := l.key(m.xy(p))
		l.cells[k] = append(l.cells[k], p)
	}
	return l
}

func (l *locator) key(p r2.Point) [2]int {
	ix := int((p.X - l.origin.X) / l.cell)
	iy := int((p.Y - l.origin.Y) / l.cell)
	return [2]int{min(max(ix, 0), l.nx-1), min(max(iy, 0), l.ny-1)}
}

// FindClosestPoint returns the live point nearest to p. Ties go to the lower id.
func (m *Mesh) FindClosestPoint(p Point) PointID {
	if m.locator == nil {
		m.locator = m.buildLocator()
	}
	l := m.locator
	if len(l.cells) == 0 {
		return NoPoint
	}

	target := p.XY()
	c := l.key(target)
	best, bestD := NoPoint, math.Inf(1)
	for r := 0; r <= max(l.nx, l.ny); r++ {
		for ix := c[0] - r; ix <= c[0]+r; ix++ {
			for iy := c[1] - r; iy <= c[1]+r; iy++ {
				if max(abs(ix-c[0]), abs(iy-c[1])) != r {
					continue
				}
				for _, q := range l.cells[[2]int{ix, iy}] {
					if !m.live(q) {
						continue
					}
					d := geom.DistanceSq(target, m.xy(q))
					if d < bestD || (d == bestD && q < best) {
						best, bestD = q, d
					}
				}
			}
		}
		if best != NoPoint && math.Sqrt(bestD) <= l.reach(target, c, r) {
			break
		}
	}
	return best
}

// reach is the distance from p to the nearest cell outside ring r around c.
func (l *locator) reach(p r2.Point, c [2]int, r int) float64 {
	lox := l.origin.X + float64(c[0]-r)*l.cell
	hix := l.origin.X + float64(c[0]+r+1)*l.cell
	loy := l.origin.Y + float64(c[1]-r)*l.cell
	hiy := l.origin.Y + float64(c[1]+r+1)*l.cell
	return math.Min(math.Min(p.X-lox, hix-p.X), math.Min(p.Y-loy, hiy-p.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
