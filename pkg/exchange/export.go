package exchange

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/tin"
)

// ExportOptions configures Export.
type ExportOptions struct {
	// PaddingRatio grows the bounding rectangle on every side. Zero means tin.DefaultPaddingRatio.
	PaddingRatio float64
	// EmitBoundingRectangle sends the rectangle as an InRoadsBoundingRectangle feature.
	EmitBoundingRectangle bool
	Logger                *zap.Logger
}

// Export pads m with a bounding rectangle and sends it to h. The padding is
// stripped again before Export returns, also when h fails.
func Export(m *tin.Mesh, h Handler, opts ExportOptions) (err error) {
	if !m.Triangulated() {
		return tin.ErrNotTriangulated
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("export")

	island, err := m.InsertPaddingRectangle(opts.PaddingRatio)
	if err != nil {
		return fmt.Errorf("padding mesh: %w", err)
	}
	defer func() {
		if serr := m.ClipToIslandFeature(island); serr != nil {
			err = multierr.Append(err, fmt.Errorf("stripping padding: %w", serr))
		}
	}()

	features := m.Features()
	e := &emitter{
		mesh:   m,
		h:      h,
		opts:   opts,
		island: island,
		rect:   features[len(features)-1].ID,
	}
	if err := e.run(features); err != nil {
		return err
	}
	log.Debug("exported mesh",
		zap.Int("random_points", e.stats.RandomPoints),
		zap.Int("feature_points", e.stats.FeaturePoints),
		zap.Int("triangles", e.stats.Triangles),
		zap.Int("features", e.stats.Features))
	return nil
}

type emitter struct {
	mesh   *tin.Mesh
	h      Handler
	opts   ExportOptions
	island tin.FeatureID
	rect   tin.FeatureID
	stats  Stats
}

func (e *emitter) run(features []tin.Feature) error {
	m := e.mesh
	random := make([]bool, m.NumPoints())
	for i := range random {
		random[i] = e.isRandom(tin.PointID(i))
		if random[i] {
			e.stats.RandomPoints++
		} else {
			e.stats.FeaturePoints++
		}
	}

	idx, err := tin.BuildIndex(m)
	if err != nil {
		return fmt.Errorf("indexing triangles: %w", err)
	}
	e.stats.Triangles = idx.Len()

	records := make([]FeatureRecord, 0, len(features))
	for _, f := range features {
		if rec, ok := e.featureRecord(f); ok {
			records = append(records, rec)
		}
	}
	e.stats.Features = len(records)

	if err := e.h.OnStats(e.stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	for i, r := range random {
		if !r {
			continue
		}
		p := m.Point(tin.PointID(i))
		if err := e.h.OnRandomPoint(i, p.X, p.Y, p.Z); err != nil {
			return fmt.Errorf("random point %d: %w", i, err)
		}
	}
	for i, r := range random {
		if r {
			continue
		}
		p := m.Point(tin.PointID(i))
		if err := e.h.OnFeaturePoint(i, p.X, p.Y, p.Z); err != nil {
			return fmt.Errorf("feature point %d: %w", i, err)
		}
	}
	for n := 0; n < idx.Len(); n++ {
		entry := idx.Entry(n)
		adj, err := idx.Adjacent(m, n)
		if err != nil {
			return fmt.Errorf("triangle %d: %w", n, err)
		}
		t := TriangleRecord{
			Number:   entry.Number,
			P1:       int(entry.P1),
			P2:       int(entry.P2),
			P3:       int(entry.P3),
			Void:     m.IsVoidTriangle(entry.P1, entry.P2, entry.P3),
			Adjacent: adj,
		}
		if err := e.h.OnTriangle(t); err != nil {
			return fmt.Errorf("triangle %d: %w", n, err)
		}
	}
	for _, rec := range records {
		if err := e.h.OnFeature(rec); err != nil {
			return fmt.Errorf("feature %d: %w", rec.ID, err)
		}
	}
	return nil
}

// isRandom reports whether p carries no feature other than the padding rectangle.
func (e *emitter) isRandom(p tin.PointID) bool {
	ids := e.mesh.FeaturesAt(p)
	switch len(ids) {
	case 0:
		return true
	case 1:
		return ids[0] == e.rect
	}
	return false
}

func (e *emitter) featureRecord(f tin.Feature) (FeatureRecord, bool) {
	rec := FeatureRecord{
		ID:          f.ID,
		Type:        f.Type,
		UserTag:     f.UserTag,
		Name:        f.Name,
		Description: f.Description,
		Style:       f.Style,
	}
	switch {
	case f.ID == e.rect:
		if !e.opts.EmitBoundingRectangle {
			return rec, false
		}
		rec.Type = tin.InRoadsBoundingRectangle
	case f.ID == e.island:
		rec.Type = tin.Hull
		rec.UserTag = tin.NullUserTag
	case f.Type == tin.RandomSpot, f.Type == tin.GraphicBreak:
		return rec, false
	}
	rec.Points = make([]int, 0, len(f.Points)+1)
	for _, p := range f.Points {
		rec.Points = append(rec.Points, int(p))
	}
	if f.Closed && len(f.Points) > 0 {
		rec.Points = append(rec.Points, int(f.Points[0]))
	}
	return rec, true
}
