package geom

import (
	"github.com/golang/geo/r2"
	"github.com/shopspring/decimal"
)

// epsilon is half a unit in the last place of 1.0.
const epsilon = 1.0 / (1 << 53)

// ccwErrBound bounds the rounding error of the float orientation determinant
// relative to the sum of the magnitudes of its two products.
var ccwErrBound = (3.0 + 16.0*epsilon) * epsilon

// Cross returns twice the signed area of triangle abc.
// Positive when c lies to the left of the directed line a->b.
func Cross(a, b, c r2.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// Orientation returns +1 if abc turns counter-clockwise, -1 if clockwise and 0
// if the points are collinear. Results too close to zero for float arithmetic
// are settled with exact decimal arithmetic.
func Orientation(a, b, c r2.Point) int {
	left := (b.X - a.X) * (c.Y - a.Y)
	right := (b.Y - a.Y) * (c.X - a.X)
	det := left - right

	bound := ccwErrBound * (abs(left) + abs(right))
	switch {
	case det > bound:
		return 1
	case -det > bound:
		return -1
	}
	return orientationExact(a, b, c)
}

func orientationExact(a, b, c r2.Point) int {
	ax, ay := decimal.NewFromFloat(a.X), decimal.NewFromFloat(a.Y)
	bx, by := decimal.NewFromFloat(b.X), decimal.NewFromFloat(b.Y)
	cx, cy := decimal.NewFromFloat(c.X), decimal.NewFromFloat(c.Y)

	left := bx.Sub(ax).Mul(cy.Sub(ay))
	right := by.Sub(ay).Mul(cx.Sub(ax))
	return left.Sub(right).Sign()
}

// InCircle returns a positive value if d lies inside the circle through a, b
// and c, a negative value if outside and zero if the four are cocircular.
// The triangle abc must be counter-clockwise.
func InCircle(a, b, c, d r2.Point) float64 {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y

	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy

	return adx*(bdy*cd-bd*cdy) - ady*(bdx*cd-bd*cdx) + ad*(bdx*cdy-bdy*cdx)
}

// InCircumcircle reports whether d lies strictly inside the circumcircle of
// abc, whatever the winding of abc.
func InCircumcircle(a, b, c, d r2.Point) bool {
	switch Orientation(a, b, c) {
	case 1:
		return InCircle(a, b, c, d) > 0
	case -1:
		return InCircle(a, c, b, d) > 0
	}
	return false
}

// OnSegment reports whether p lies on the closed segment ab.
func OnSegment(a, b, p r2.Point) bool {
	if Orientation(a, b, p) != 0 {
		return false
	}
	return p.X >= min(a.X, b.X) && p.X <= max(a.X, b.X) &&
		p.Y >= min(a.Y, b.Y) && p.Y <= max(a.Y, b.Y)
}

// SegmentsIntersect reports whether the closed segments ab and cd share a point.
func SegmentsIntersect(a, b, c, d r2.Point) bool {
	o1 := Orientation(a, b, c)
	o2 := Orientation(a, b, d)
	o3 := Orientation(c, d, a)
	o4 := Orientation(c, d, b)

	if o1 != o2 && o3 != o4 && o1 != 0 && o2 != 0 && o3 != 0 && o4 != 0 {
		return true
	}
	return OnSegment(a, b, c) || OnSegment(a, b, d) || OnSegment(c, d, a) || OnSegment(c, d, b)
}

// Intersection returns a point shared by segments ab and cd. For collinear
// overlaps the first endpoint found on the other segment is returned.
func Intersection(a, b, c, d r2.Point) (r2.Point, bool) {
	if !SegmentsIntersect(a, b, c, d) {
		return r2.Point{}, false
	}
	r := b.Sub(a)
	s := d.Sub(c)
	denom := r.Cross(s)
	if denom == 0 {
		for _, p := range []r2.Point{c, d} {
			if OnSegment(a, b, p) {
				return p, true
			}
		}
		for _, p := range []r2.Point{a, b} {
			if OnSegment(c, d, p) {
				return p, true
			}
		}
		return r2.Point{}, false
	}
	t := c.Sub(a).Cross(s) / denom
	return a.Add(r.Mul(t)), true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
