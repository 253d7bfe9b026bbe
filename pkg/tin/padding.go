package tin

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/geom"
)

// Padding defaults.
const (
	DefaultPaddingRatio = 0.05
	PaddingElevation    = -999.0
)

// InsertPaddingRectangle surrounds the mesh with a rectangle grown by ratio
// of the bounding box size on every side and triangulates the gap between
// the rectangle and the hull. The old hull is kept as an Island feature,
// whose id is returned; the rectangle becomes a Void feature and the new hull.
// ClipToIslandFeature undoes the padding.
func (m *Mesh) InsertPaddingRectangle(ratio float64) (FeatureID, error) {
	if m.state != Tin || !m.hullSet {
		return NoFeature, ErrNotTriangulated
	}
	if ratio <= 0 {
		ratio = DefaultPaddingRatio
	}
	hull := m.HullPoints()
	if len(hull) < 3 {
		return NoFeature, fmt.Errorf("%w: %d boundary points", ErrHullRing, len(hull))
	}
	hullXY := m.ringXY(hull)
	rect := geom.PadRect(geom.Bounds(hullXY), ratio)
	corners := rect.Vertices()

	sec, err := m.paddingMesh(hull, corners)
	if err != nil {
		return NoFeature, fmt.Errorf("padding mesh: %w", err)
	}

	island := NoFeature
	err = m.withScratch(func(s *scratch) error {
		for i, p := range hull {
			s.mapped[PointID(i)] = p
		}
		rectangle := make([]PointID, len(corners))
		for k, c := range corners {
			rectangle[k] = m.InsertPoint(Point{X: c.X, Y: c.Y, Z: PaddingElevation})
			s.mapped[PointID(len(hull)+k)] = rectangle[k]
		}

		var added int
		sec.forEachTriangle(func(t Triangle) bool {
			if geom.PointInPolygon(geom.Centroid(sec.xy(t.P1), sec.xy(t.P2), sec.xy(t.P3)), hullXY) {
				return true
			}
			a, b, c := s.mapped[t.P1], s.mapped[t.P2], s.mapped[t.P3]
			_ = m.Connect(a, b)
			_ = m.Connect(b, c)
			_ = m.Connect(c, a)
			added++
			return true
		})

		island = m.appendFeature(&Feature{
			Type:    Island,
			UserTag: PaddingUserTag,
			Points:  slices.Clone(hull),
			Closed:  true,
			State:   FeatureTin,
		})
		if err := m.ResetHull(); err != nil {
			return err
		}
		m.appendFeature(&Feature{
			Type:    Void,
			UserTag: PaddingUserTag,
			Points:  rectangle,
			Closed:  true,
			State:   FeatureTin,
		})
		m.log.Debug("inserted padding rectangle",
			zap.Int("hull", len(hull)), zap.Int("faces", added), zap.Float64("ratio", ratio))
		return nil
	})
	if err != nil {
		return NoFeature, err
	}
	if err := m.Clean(); err != nil {
		return NoFeature, err
	}
	return island, nil
}

// paddingMesh triangulates the hull points and the rectangle corners apart
// from m, with the hull held as a closed break line. Hull points keep their
// ring position as ids and corners follow.
func (m *Mesh) paddingMesh(hull []PointID, corners [4]r2.Point) (*Mesh, error) {
	sec := NewMesh(
		WithLogger(m.log.Named("padding")),
		WithSnapTolerance(m.snapTolerance),
		WithReserve(len(hull)+len(corners)),
	)
	ring := make([]PointID, len(hull))
	for i, p := range hull {
		ring[i] = sec.InsertPoint(m.points[p])
	}
	for _, c := range corners {
		sec.InsertPoint(Point{X: c.X, Y: c.Y, Z: PaddingElevation})
	}
	sec.appendFeature(&Feature{
		Type:    HardBreak,
		UserTag: PaddingUserTag,
		Points:  ring,
		Closed:  true,
		State:   FeaturePending,
	})
	if err := sec.Triangulate(); err != nil {
		return nil, err
	}
	if sec.NumPoints() != len(hull)+len(corners) {
		return nil, fmt.Errorf("%w: %d of %d points survived", ErrTopology, sec.NumPoints(), len(hull)+len(corners))
	}
	if len(sec.dropped) > 0 || len(sec.features) != 1 || len(sec.features[0].Points) != len(hull) {
		return nil, fmt.Errorf("%w: hull could not be held as a break line", ErrTopology)
	}
	return sec, nil
}

// ClipToIslandFeature clips the mesh to the inside of an Island feature and
// removes the feature along with any padding Void. Applied to the id
// returned by InsertPaddingRectangle it strips the padding again.
func (m *Mesh) ClipToIslandFeature(id FeatureID) error {
	i := m.featureIndex(id)
	if i < 0 || m.features[i].Type != Island {
		return fmt.Errorf("%w: no island %d", ErrUnknownFeature, id)
	}
	ring := slices.Clone(m.features[i].Points)

	// The padding Void covers the island too and would survive as a copy of
	// the hull, so it goes before the clip.
	var padding []*Feature
	m.features = slices.DeleteFunc(m.features, func(f *Feature) bool {
		if f.Type == Void && f.UserTag == PaddingUserTag {
			padding = append(padding, f)
			return true
		}
		return false
	})
	if err := m.ClipToPolygon(ring, ClipExternal); err != nil {
		m.features = append(m.features, padding...)
		m.relinkFeatures()
		return fmt.Errorf("clipping to island %d: %w", id, err)
	}
	return m.RemoveFeature(id)
}
