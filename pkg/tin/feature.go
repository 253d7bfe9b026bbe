package tin

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// FeatureType tags the meaning of a feature chain.
type FeatureType int

// Feature types.
const (
	Hull FeatureType = iota
	Void
	Island
	HardBreak
	GraphicBreak
	ContourLine
	GroupSpot
	RandomSpot
	Polygon
	InRoadsBoundingRectangle
)

var featureTypeNames = [...]string{
	Hull:                     "Hull",
	Void:                     "Void",
	Island:                   "Island",
	HardBreak:                "HardBreak",
	GraphicBreak:             "GraphicBreak",
	ContourLine:              "ContourLine",
	GroupSpot:                "GroupSpot",
	RandomSpot:               "RandomSpot",
	Polygon:                  "Polygon",
	InRoadsBoundingRectangle: "InRoadsBoundingRectangle",
}

// String returns the type name.
func (t FeatureType) String() string {
	if t >= 0 && int(t) < len(featureTypeNames) {
		return featureTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// ParseFeatureType parses a type name, ignoring case, spaces and underscores.
func ParseFeatureType(s string) (FeatureType, error) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	for i, name := range featureTypeNames {
		if strings.ToLower(name) == norm {
			return FeatureType(i), nil
		}
	}
	switch norm {
	case "breakline", "break":
		return HardBreak, nil
	case "contour":
		return ContourLine, nil
	case "spots", "groupspots":
		return GroupSpot, nil
	case "rectangle", "boundingrectangle":
		return InRoadsBoundingRectangle, nil
	}
	return 0, fmt.Errorf("unknown feature type %q", s)
}

// Closed reports whether features of this type are always closed polygons.
func (t FeatureType) Closed() bool {
	switch t {
	case Hull, Void, Island, Polygon, InRoadsBoundingRectangle:
		return true
	}
	return false
}

// constrains reports whether the chain edges of this type are fixed in the mesh.
func (t FeatureType) constrains() bool {
	return t != GroupSpot && t != RandomSpot
}

// minPoints is the fewest distinct points a feature of this type needs.
func (t FeatureType) minPoints() int {
	switch {
	case t == GroupSpot || t == RandomSpot:
		return 1
	case t.Closed():
		return 3
	}
	return 2
}

// FeatureID is a stable feature identity. It survives removals of other features.
type FeatureID int

// NoFeature marks the absence of a stored feature.
const NoFeature FeatureID = -1

// User tags.
const (
	NullUserTag    int64 = math.MinInt64
	PaddingUserTag int64 = -9999
)

// FeatureState tells whether a feature has been threaded through the triangulation.
type FeatureState int

// Feature states.
const (
	FeaturePending FeatureState = iota
	FeatureTin
)

// Feature is a typed chain of mesh points.
type Feature struct {
	ID          FeatureID
	Type        FeatureType
	UserTag     int64
	Name        string
	Description string
	Style       string
	Points      []PointID
	Closed      bool
	State       FeatureState
}

func (f *Feature) clone() Feature {
	c := *f
	c.Points = slices.Clone(f.Points)
	return c
}

// edges returns the chain edges, including the closing edge when closed.
func (f *Feature) edges() []edge {
	var out []edge
	for i := 0; i+1 < len(f.Points); i++ {
		out = append(out, mkEdge(f.Points[i], f.Points[i+1]))
	}
	if f.Closed && len(f.Points) > 2 {
		out = append(out, mkEdge(f.Points[len(f.Points)-1], f.Points[0]))
	}
	return out
}

// Features returns copies of all features in table order.
func (m *Mesh) Features() []Feature {
	out := make([]Feature, len(m.features))
	for i, f := range m.features {
		out[i] = f.clone()
	}
	return out
}

// NumFeatures returns the number of stored features.
func (m *Mesh) NumFeatures() int { return len(m.features) }

// Feature returns a copy of the feature with the given id.
func (m *Mesh) Feature(id FeatureID) (Feature, bool) {
	if i := m.featureIndex(id); i >= 0 {
		return m.features[i].clone(), true
	}
	return Feature{}, false
}

func (m *Mesh) featureIndex(id FeatureID) int {
	return slices.IndexFunc(m.features, func(f *Feature) bool { return f.ID == id })
}

// FeaturesAt returns the ids of features that pass through p.
func (m *Mesh) FeaturesAt(p PointID) []FeatureID {
	if !m.valid(p) {
		return nil
	}
	return slices.Clone(m.nodes[p].features)
}

// IsFixed reports whether a-b is an edge of a constraining feature.
func (m *Mesh) IsFixed(a, b PointID) bool {
	return m.fixed[mkEdge(a, b)] > 0
}

// appendFeature stores f with a fresh id and links its points.
func (m *Mesh) appendFeature(f *Feature) FeatureID {
	f.ID = m.nextFeatureID
	m.nextFeatureID++
	m.features = append(m.features, f)
	m.linkFeature(f)
	m.touch()
	return f.ID
}

func (m *Mesh) linkFeature(f *Feature) {
	for _, p := range f.Points {
		if !slices.Contains(m.nodes[p].features, f.ID) {
			m.nodes[p].features = append(m.nodes[p].features, f.ID)
		}
	}
	if f.State == FeatureTin && f.Type.constrains() {
		for _, e := range f.edges() {
			m.fixed[e]++
		}
	}
}

// RemoveFeature deletes a feature. Its points stay in the mesh.
func (m *Mesh) RemoveFeature(id FeatureID) error {
	i := m.featureIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownFeature, id)
	}
	m.features = slices.Delete(m.features, i, i+1)
	m.relinkFeatures()
	return nil
}

// relinkFeatures rebuilds point feature links and fixed edges from the table.
func (m *Mesh) relinkFeatures() {
	for i := range m.nodes {
		m.nodes[i].features = m.nodes[i].features[:0]
	}
	clear(m.fixed)
	for _, f := range m.features {
		m.linkFeature(f)
	}
	m.touch()
}

// FeatureInput is one incoming feature before it is matched to mesh points.
type FeatureInput struct {
	Type        FeatureType
	Name        string
	Description string
	Style       string
	UserTag     int64
	Points      []Point
	Exclude     bool // report only, never store
}

// StoreFeature adds a feature to the mesh.
//
// On a pending mesh the points are appended and the feature waits for
// Triangulate. On a triangulated mesh each point is snapped to the closest
// mesh point and consecutive points are joined by reconnect. Problems that
// only concern this feature are returned as *FeatureError and the feature is
// not stored.
func (m *Mesh) StoreFeature(in FeatureInput) (FeatureID, error) {
	if in.Exclude {
		return NoFeature, nil
	}
	coords, closed, err := prepareCoords(in)
	if err != nil {
		m.log.Warn("dropping feature",
			zap.Stringer("type", in.Type), zap.String("name", in.Name), zap.Error(err))
		return NoFeature, &FeatureError{Type: in.Type, Name: in.Name, Err: err}
	}

	if m.state == Pending {
		return m.storePending(in, coords, closed), nil
	}
	if in.Type == RandomSpot {
		m.log.Debug("ignoring random spots on triangulated mesh", zap.Int("points", len(in.Points)))
		return NoFeature, nil
	}

	ids := m.snap(coords, in.Type == GroupSpot)
	f := &Feature{
		Type:        in.Type,
		UserTag:     in.UserTag,
		Name:        in.Name,
		Description: in.Description,
		Style:       in.Style,
		Points:      ids,
		Closed:      closed,
	}
	id, err := m.threadFeature(f)
	if err != nil && IsFeatureError(err) {
		m.log.Warn("dropping feature",
			zap.Stringer("type", in.Type), zap.String("name", in.Name), zap.Error(err))
	}
	return id, err
}

func (m *Mesh) storePending(in FeatureInput, coords []Point, closed bool) FeatureID {
	ids := make([]PointID, len(coords))
	for i, c := range coords {
		ids[i] = m.InsertPoint(c)
	}
	if in.Type == RandomSpot {
		return NoFeature
	}
	return m.appendFeature(&Feature{
		Type:        in.Type,
		UserTag:     in.UserTag,
		Name:        in.Name,
		Description: in.Description,
		Style:       in.Style,
		Points:      ids,
		Closed:      closed,
		State:       FeaturePending,
	})
}

// snap maps coordinates to their closest mesh points and drops repeats.
// Spot groups drop every repeat, chains only consecutive ones.
func (m *Mesh) snap(coords []Point, unique bool) []PointID {
	ids := make([]PointID, 0, len(coords))
	for _, c := range coords {
		p := m.FindClosestPoint(c)
		if p == NoPoint {
			continue
		}
		if unique && slices.Contains(ids, p) {
			continue
		}
		if len(ids) > 0 && ids[len(ids)-1] == p {
			continue
		}
		ids = append(ids, p)
	}
	return ids
}

// threadFeature joins f's points through the mesh and stores it.
func (m *Mesh) threadFeature(f *Feature) (FeatureID, error) {
	if err := m.commitChain(f); err != nil {
		if isFeatureLevel(err) {
			return NoFeature, &FeatureError{Type: f.Type, Name: f.Name, Err: err}
		}
		return NoFeature, err
	}
	return m.appendFeature(f), nil
}

// commitChain threads f's points through the triangulation and marks it
// committed. The feature table is left alone.
func (m *Mesh) commitChain(f *Feature) error {
	if f.Closed {
		for len(f.Points) > 1 && f.Points[0] == f.Points[len(f.Points)-1] {
			f.Points = f.Points[:len(f.Points)-1]
		}
	}
	if len(f.Points) < f.Type.minPoints() {
		return fmt.Errorf("%w: %d after snapping", ErrInsufficientPoints, len(f.Points))
	}

	err := m.withScratch(func(s *scratch) error {
		pts, err := m.buildChain(s, f)
		if err != nil {
			return err
		}
		f.Points = pts
		f.State = FeatureTin
		return nil
	})
	if err != nil && isFeatureLevel(err) {
		m.log.Debug("scratch chain reset after failed feature", zap.Stringer("type", f.Type))
	}
	return err
}

// buildChain threads f's points into the scratch chain, reconnecting where
// needed, and returns the final point sequence.
func (m *Mesh) buildChain(s *scratch, f *Feature) ([]PointID, error) {
	if f.Type == GroupSpot {
		if err := s.thread(f.Points, false); err != nil {
			return nil, err
		}
		return slices.Clone(f.Points), nil
	}

	for i := 0; i+1 < len(f.Points); i++ {
		if err := m.reconnect(s, f.Points[i], f.Points[i+1]); err != nil {
			return nil, err
		}
	}
	if f.Closed {
		if err := m.reconnect(s, f.Points[len(f.Points)-1], f.Points[0]); err != nil {
			return nil, err
		}
	}
	if err := m.verifyConnected(s); err != nil {
		return nil, err
	}

	pts, closed := s.walk()
	if closed != f.Closed {
		return nil, fmt.Errorf("%w: chain closure does not match feature", ErrMalformedChain)
	}
	if f.Type.Closed() {
		if err := m.normalizeRing(pts); err != nil {
			return nil, err
		}
	}
	return pts, nil
}

// prepareCoords checks the point count, removes knots from boundary
// polygons and winds closed types counter-clockwise.
func prepareCoords(in FeatureInput) ([]Point, bool, error) {
	pts := slices.Clone(in.Points)
	closed := in.Type.Closed() || (in.Type.constrains() && len(pts) > 2 && pts[0].XY() == pts[len(pts)-1].XY())
	if closed {
		for len(pts) > 1 && pts[0].XY() == pts[len(pts)-1].XY() {
			pts = pts[:len(pts)-1]
		}
	}
	if len(pts) < in.Type.minPoints() {
		return nil, closed, fmt.Errorf("%w: %d", ErrInsufficientPoints, len(pts))
	}
	if !in.Type.Closed() {
		return pts, closed, nil
	}

	ring := pointsXY(pts)
	if in.Type == Hull || in.Type == Void || in.Type == Island {
		if geom.HasKnots(ring) {
			cleaned := geom.CleanPolygon(ring)
			if cleaned == nil {
				return nil, closed, ErrKnot
			}
			pts = liftRing(cleaned, pts)
			ring = cleaned
		}
	}
	if len(pts) < in.Type.minPoints() {
		return nil, closed, fmt.Errorf("%w: %d after cleaning", ErrInsufficientPoints, len(pts))
	}
	switch area := geom.SignedArea(ring); {
	case area == 0:
		return nil, closed, ErrZeroArea
	case area < 0:
		slices.Reverse(pts)
	}
	return pts, closed, nil
}

func pointsXY(pts []Point) []r2.Point {
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = p.XY()
	}
	return out
}

// liftRing gives cleaned planar points the elevation of the nearest source point.
func liftRing(ring []r2.Point, src []Point) []Point {
	out := make([]Point, len(ring))
	for i, p := range ring {
		best := src[0]
		bestD := geom.DistanceSq(p, best.XY())
		for _, s := range src[1:] {
			if d := geom.DistanceSq(p, s.XY()); d < bestD {
				best, bestD = s, d
			}
		}
		out[i] = Point{X: p.X, Y: p.Y, Z: best.Z}
	}
	return out
}

// normalizeRing rejects knotted or flat rings of mesh points and winds the
// rest counter-clockwise in place.
func (m *Mesh) normalizeRing(pts []PointID) error {
	ring := m.ringXY(pts)
	if geom.HasKnots(ring) {
		return ErrKnot
	}
	area := geom.SignedArea(ring)
	if area == 0 {
		return ErrZeroArea
	}
	if area < 0 {
		slices.Reverse(pts)
	}
	return nil
}
