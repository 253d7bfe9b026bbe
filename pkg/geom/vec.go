// Package geom provides planar predicates and polygon helpers for TIN work.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// XY drops the elevation of v.
func XY(v r3.Vector) r2.Point {
	return r2.Point{X: v.X, Y: v.Y}
}

// Distance returns the planar distance between a and b.
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// DistanceSq returns the squared planar distance between a and b.
func DistanceSq(a, b r2.Point) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// Bearing returns the angle of the direction from a to b, in (-Pi, Pi].
func Bearing(a, b r2.Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// AngleDiff returns the absolute difference between two bearings, wrapped to [0, Pi].
func AngleDiff(x, y float64) float64 {
	d := math.Mod(math.Abs(x-y), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Centroid returns the centroid of triangle abc.
func Centroid(a, b, c r2.Point) r2.Point {
	return r2.Point{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3}
}
