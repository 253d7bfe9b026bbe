// Package tin implements a triangulated irregular network: an arena of points
// with rotational adjacency, a boundary ring and typed feature chains.
//
// Triangles are never stored. A triangle is any three mutually adjacent points
// that are consecutive in each other's rotational order and wind
// counter-clockwise, excluding the wedge outside the hull.
package tin

import (
	"fmt"
	"slices"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// PointID identifies a point by its index in the mesh.
type PointID int

// NoPoint marks an absent point link.
const NoPoint PointID = -1

// Point is a mesh coordinate.
type Point struct {
	X, Y, Z float64
}

// XY returns the planar position.
func (p Point) XY() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Vec returns the point as a 3D vector.
func (p Point) Vec() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// State is the triangulation state of a mesh.
type State int

// Mesh states.
const (
	Pending State = iota // points and features collected, no topology
	Tin                  // triangulated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Tin:
		return "Tin"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

type node struct {
	adj      []PointID // counter-clockwise by bearing from +X
	hull     PointID   // next boundary point, interior on the left
	features []FeatureID
}

// edge is an undirected point pair with a < b.
type edge struct {
	a, b PointID
}

func mkEdge(a, b PointID) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// Mesh is a TIN under construction or ready for export. A Mesh is owned by a
// single conversion call and is not safe for concurrent use.
type Mesh struct {
	points []Point
	nodes  []node

	features      []*Feature
	nextFeatureID FeatureID
	fixed         map[edge]int
	dropped       []*FeatureError

	state        State
	hullSet      bool
	numTriangles int

	voids       map[Triangle]bool
	scratchBusy bool
	locator     *locator

	log           *zap.Logger
	snapTolerance float64
	maxSteps      int
	shortestPath  bool
}

// Option configures a Mesh.
type Option func(*Mesh)

// WithLogger sets the logger used for dropped features and repairs.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mesh) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSnapTolerance sets the distance under which points are merged on triangulation.
func WithSnapTolerance(tol float64) Option {
	return func(m *Mesh) { m.snapTolerance = tol }
}

// WithReconnectMaxSteps limits the minimum-angle walk. Zero means the number of points.
func WithReconnectMaxSteps(n int) Option {
	return func(m *Mesh) { m.maxSteps = n }
}

// WithShortestPathFallback enables the edge graph search after the angle walk fails.
func WithShortestPathFallback(on bool) Option {
	return func(m *Mesh) { m.shortestPath = on }
}

// WithReserve pre-sizes point storage.
func WithReserve(points int) Option {
	return func(m *Mesh) { m.Reserve(points) }
}

// NewMesh creates an empty, untriangulated mesh.
func NewMesh(opts ...Option) *Mesh {
	m := &Mesh{
		fixed:         make(map[edge]int),
		nextFeatureID: 1,
		log:           zap.NewNop(),
		snapTolerance: 1e-9,
		shortestPath:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reserve grows point storage so that n points fit without reallocation.
func (m *Mesh) Reserve(n int) {
	if n <= cap(m.points) {
		return
	}
	m.points = slices.Grow(m.points, n-len(m.points))
	m.nodes = slices.Grow(m.nodes, n-len(m.nodes))
}

// State returns the triangulation state.
func (m *Mesh) State() State { return m.state }

// Triangulated reports whether the mesh holds a triangulation.
func (m *Mesh) Triangulated() bool { return m.state == Tin }

// NumPoints returns the number of stored points, including orphans.
func (m *Mesh) NumPoints() int { return len(m.points) }

// Point returns the coordinate of p.
func (m *Mesh) Point(p PointID) Point { return m.points[p] }

// InsertPoint appends a point without adjacency and returns its id.
func (m *Mesh) InsertPoint(p Point) PointID {
	m.points = append(m.points, p)
	m.nodes = append(m.nodes, node{hull: NoPoint})
	m.locator = nil
	return PointID(len(m.points) - 1)
}

func (m *Mesh) valid(p PointID) bool {
	return p >= 0 && int(p) < len(m.points)
}

func (m *Mesh) xy(p PointID) r2.Point {
	return r2.Point{X: m.points[p].X, Y: m.points[p].Y}
}

// touch drops cached derived state after a topology or feature change.
func (m *Mesh) touch() {
	m.voids = nil
}

// Connected reports whether a and b share an edge.
func (m *Mesh) Connected(a, b PointID) bool {
	if !m.valid(a) || !m.valid(b) {
		return false
	}
	return slices.Contains(m.nodes[a].adj, b)
}

// Connect adds the edge a-b. Connecting an existing edge is a no-op.
func (m *Mesh) Connect(a, b PointID) error {
	if !m.valid(a) || !m.valid(b) {
		return fmt.Errorf("%w: connect %d-%d", ErrInvalidPoint, a, b)
	}
	if a == b {
		return fmt.Errorf("%w: connect %d to itself", ErrDisconnected, a)
	}
	if m.Connected(a, b) {
		return nil
	}
	m.insertNeighbor(a, b)
	m.insertNeighbor(b, a)
	m.touch()
	return nil
}

// Disconnect removes the edge a-b if present.
func (m *Mesh) Disconnect(a, b PointID) error {
	if !m.valid(a) || !m.valid(b) {
		return fmt.Errorf("%w: disconnect %d-%d", ErrInvalidPoint, a, b)
	}
	m.removeNeighbor(a, b)
	m.removeNeighbor(b, a)
	m.touch()
	return nil
}

func (m *Mesh) insertNeighbor(p, q PointID) {
	adj := m.nodes[p].adj
	i := sort.Search(len(adj), func(i int) bool { return m.angleLess(p, q, adj[i]) })
	m.nodes[p].adj = slices.Insert(adj, i, q)
}

func (m *Mesh) removeNeighbor(p, q PointID) {
	if i := slices.Index(m.nodes[p].adj, q); i >= 0 {
		m.nodes[p].adj = slices.Delete(m.nodes[p].adj, i, i+1)
	}
}

// angleLess reports whether q comes before r walking counter-clockwise
// around p from the positive X axis.
func (m *Mesh) angleLess(p, q, r PointID) bool {
	o, a, b := m.xy(p), m.xy(q), m.xy(r)
	ha, hb := halfPlane(a.Sub(o)), halfPlane(b.Sub(o))
	if ha != hb {
		return ha < hb
	}
	if s := geom.Orientation(o, a, b); s != 0 {
		return s > 0
	}
	return q < r
}

// halfPlane is 0 for bearings in [0, Pi) and 1 for [Pi, 2Pi).
func halfPlane(v r2.Point) int {
	if v.Y > 0 || (v.Y == 0 && v.X > 0) {
		return 0
	}
	return 1
}

// Neighbors returns the neighbours of p in counter-clockwise order.
func (m *Mesh) Neighbors(p PointID) ([]PointID, error) {
	if !m.valid(p) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoint, p)
	}
	if len(m.nodes[p].adj) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrDisconnected, p)
	}
	return slices.Clone(m.nodes[p].adj), nil
}

// Degree returns the number of neighbours of p.
func (m *Mesh) Degree(p PointID) int {
	return len(m.nodes[p].adj)
}

// NextCCW returns the neighbour of p that follows q counter-clockwise.
func (m *Mesh) NextCCW(p, q PointID) (PointID, error) {
	return m.rotate(p, q, 1)
}

// NextCW returns the neighbour of p that follows q clockwise.
func (m *Mesh) NextCW(p, q PointID) (PointID, error) {
	return m.rotate(p, q, -1)
}

func (m *Mesh) rotate(p, q PointID, step int) (PointID, error) {
	if !m.valid(p) {
		return NoPoint, fmt.Errorf("%w: %d", ErrInvalidPoint, p)
	}
	adj := m.nodes[p].adj
	if len(adj) == 0 {
		return NoPoint, fmt.Errorf("%w: %d", ErrDisconnected, p)
	}
	i := slices.Index(adj, q)
	if i < 0 {
		return NoPoint, fmt.Errorf("%w: %d is not a neighbour of %d", ErrDisconnected, q, p)
	}
	n := len(adj)
	return adj[(i+step+n)%n], nil
}

// NumEdges returns the number of undirected edges.
func (m *Mesh) NumEdges() int {
	var n int
	for i := range m.nodes {
		n += len(m.nodes[i].adj)
	}
	return n / 2
}

// Bounds returns the bounding rectangle of the points. Orphaned points of a
// triangulated mesh are left out.
func (m *Mesh) Bounds() r2.Rect {
	rect := r2.EmptyRect()
	for i := range m.points {
		if m.state == Tin && len(m.nodes[i].adj) == 0 {
			continue
		}
		rect = rect.AddPoint(m.xy(PointID(i)))
	}
	return rect
}
