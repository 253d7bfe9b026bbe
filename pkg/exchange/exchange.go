// Package exchange streams TIN meshes between pkg/tin and a host that speaks
// in flat callbacks: points, neighbour lists, triangles and feature chains.
//
// Import drives a Source into an Importer, which builds a tin.Mesh. Export
// pads a mesh with the host's bounding rectangle, walks it through a Handler
// and strips the padding again.
package exchange

import (
	"errors"

	"github.com/Faultbox/tinbridge/pkg/tin"
)

// Stream errors.
var (
	ErrUnknownPoint   = errors.New("unknown point index")
	ErrDuplicatePoint = errors.New("duplicate point index")
	ErrOutOfOrder     = errors.New("record out of order")
)

// FeatureRecord is one feature crossing the interface. Incoming features
// carry coordinates in Coords; outgoing features carry point indices in
// Points, with the first index repeated at the end of a closed chain.
type FeatureRecord struct {
	ID          tin.FeatureID
	Type        tin.FeatureType
	UserTag     int64
	Name        string
	Description string
	Style       string
	Coords      []tin.Point
	Points      []int
	Exclude     bool
}

// TriangleRecord is one exported face. Adjacent holds the numbers of the faces
// across the sides P1-P2, P2-P3 and P3-P1, or -1.
type TriangleRecord struct {
	Number     int
	P1, P2, P3 int
	Void       bool
	Adjacent   [3]int
}

// Stats announces the sizes of an export before any record is sent.
type Stats struct {
	RandomPoints  int
	FeaturePoints int
	Triangles     int
	Features      int
}

// Sink receives an incoming mesh. Points come first, then optional neighbour
// lists, then features.
type Sink interface {
	OnPoint(index int, x, y, z float64) error
	OnNeighbors(index int, neighbors []int) error
	OnFeature(f FeatureRecord) error
}

// Source pushes a mesh into a Sink.
type Source interface {
	Stream(s Sink) error
}

// Handler receives an outgoing mesh: stats once, then random points, feature
// points, triangles and features, each in ascending order.
type Handler interface {
	OnStats(s Stats) error
	OnRandomPoint(index int, x, y, z float64) error
	OnFeaturePoint(index int, x, y, z float64) error
	OnTriangle(t TriangleRecord) error
	OnFeature(f FeatureRecord) error
}

// Discovery is told about every incoming feature as soon as it is stored.
// The id is tin.NoFeature when the feature was not kept.
type Discovery interface {
	OnFeatureDiscovered(id tin.FeatureID, name, description string, t tin.FeatureType, points []tin.Point)
}

// HandlerFuncs adapts optional functions to a Handler. Nil functions accept
// every record.
type HandlerFuncs struct {
	Stats        func(s Stats) error
	RandomPoint  func(index int, x, y, z float64) error
	FeaturePoint func(index int, x, y, z float64) error
	Triangle     func(t TriangleRecord) error
	Feature      func(f FeatureRecord) error
}

func (h HandlerFuncs) OnStats(s Stats) error {
	if h.Stats == nil {
		return nil
	}
	return h.Stats(s)
}

func (h HandlerFuncs) OnRandomPoint(index int, x, y, z float64) error {
	if h.RandomPoint == nil {
		return nil
	}
	return h.RandomPoint(index, x, y, z)
}

func (h HandlerFuncs) OnFeaturePoint(index int, x, y, z float64) error {
	if h.FeaturePoint == nil {
		return nil
	}
	return h.FeaturePoint(index, x, y, z)
}

func (h HandlerFuncs) OnTriangle(t TriangleRecord) error {
	if h.Triangle == nil {
		return nil
	}
	return h.Triangle(t)
}

func (h HandlerFuncs) OnFeature(f FeatureRecord) error {
	if h.Feature == nil {
		return nil
	}
	return h.Feature(f)
}
