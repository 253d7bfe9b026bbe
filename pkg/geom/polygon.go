package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/rclancey/earcut"
)

// Polygon errors.
var (
	ErrDegeneratePolygon = errors.New("degenerate polygon")
	ErrNoEar             = errors.New("polygon could not be triangulated")
)

// SignedArea returns the area of a closed ring, positive when counter-clockwise.
// The closing edge is implied and the first point must not be repeated.
func SignedArea(ring []r2.Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}

// PointInPolygon reports whether p lies strictly inside the ring (crossing number).
func PointInPolygon(p r2.Point, ring []r2.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Knots returns the index pairs of non-adjacent ring edges that touch or cross.
// Edge i runs from ring[i] to ring[(i+1)%n].
func Knots(ring []r2.Point) [][2]int {
	n := len(ring)
	var knots [][2]int
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // shares ring[0]
			}
			c, d := ring[j], ring[(j+1)%n]
			if SegmentsIntersect(a, b, c, d) {
				knots = append(knots, [2]int{i, j})
			}
		}
	}
	return knots
}

// HasKnots reports whether the ring touches or crosses itself.
func HasKnots(ring []r2.Point) bool {
	return len(Knots(ring)) > 0
}

// CleanPolygon removes knots by splitting the ring at its first crossing and
// keeping the loop with the larger area, until no crossing remains. The result
// keeps the winding of the kept loop. Returns nil when nothing usable remains.
func CleanPolygon(ring []r2.Point) []r2.Point {
	cur := dedupe(append([]r2.Point(nil), ring...))
	for guard := len(ring) + 1; guard > 0 && len(cur) >= 3; guard-- {
		knots := Knots(cur)
		if len(knots) == 0 {
			return cur
		}
		i, j := knots[0][0], knots[0][1]
		n := len(cur)
		x, ok := Intersection(cur[i], cur[(i+1)%n], cur[j], cur[(j+1)%n])
		if !ok {
			return nil
		}

		loopA := append([]r2.Point{x}, cur[i+1:j+1]...)
		loopB := append([]r2.Point{}, cur[j+1:]...)
		loopB = append(loopB, cur[:i+1]...)
		loopB = append(loopB, x)

		loopA, loopB = dedupe(loopA), dedupe(loopB)
		if abs(SignedArea(loopB)) > abs(SignedArea(loopA)) {
			cur = loopB
		} else {
			cur = loopA
		}
	}
	if len(cur) < 3 || HasKnots(cur) {
		return nil
	}
	return cur
}

// dedupe drops consecutive repeated points, including a repeated closing point.
func dedupe(ring []r2.Point) []r2.Point {
	out := ring[:0]
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// EarClip triangulates a simple ring and returns triangles as index triples
// into ring, each wound counter-clockwise. A ring vertex left lying on the
// side of a triangle splits it, so neighbouring faces share whole edges.
func EarClip(ring []r2.Point) ([][3]int, error) {
	if len(ring) < 3 {
		return nil, ErrDegeneratePolygon
	}
	coords := make([]float64, 0, 2*len(ring))
	for _, p := range ring {
		coords = append(coords, p.X, p.Y)
	}
	idx, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegeneratePolygon, err)
	}
	if len(idx)%3 != 0 {
		return nil, fmt.Errorf("%w: %d triangle indices", ErrDegeneratePolygon, len(idx))
	}

	tris := make([][3]int, 0, len(idx)/3)
	var area float64
	for k := 0; k < len(idx); k += 3 {
		t := [3]int{int(idx[k]), int(idx[k+1]), int(idx[k+2])}
		switch Orientation(ring[t[0]], ring[t[1]], ring[t[2]]) {
		case 0:
			continue
		case -1:
			t[1], t[2] = t[2], t[1]
		}
		area += Cross(ring[t[0]], ring[t[1]], ring[t[2]]) / 2
		tris = append(tris, t)
	}
	if want := math.Abs(SignedArea(ring)); math.Abs(area-want) > 1e-9*max(1, want) {
		return nil, fmt.Errorf("%w: covered %g of %g", ErrNoEar, area, want)
	}
	return splitOnSides(ring, tris), nil
}

func splitOnSides(ring []r2.Point, tris [][3]int) [][3]int {
	for i := 0; i < len(tris); i++ {
		t := tris[i]
	sides:
		for s := range 3 {
			u, v, w := t[s], t[(s+1)%3], t[(s+2)%3]
			for k, p := range ring {
				if p == ring[u] || p == ring[v] || !OnSegment(ring[u], ring[v], p) {
					continue
				}
				tris[i] = [3]int{u, k, w}
				tris = append(tris, [3]int{k, v, w})
				i--
				break sides
			}
		}
	}
	return tris
}

// Bounds returns the bounding rectangle of pts.
func Bounds(pts []r2.Point) r2.Rect {
	return r2.RectFromPoints(pts...)
}

// PadRect grows r outward on every side by ratio of its size.
func PadRect(r r2.Rect, ratio float64) r2.Rect {
	return r.Expanded(r.Size().Mul(ratio))
}
