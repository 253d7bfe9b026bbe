package formats

import (
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"

	"github.com/Faultbox/tinbridge/pkg/tin"
)

// WriteGeoJSON writes m as a FeatureCollection: one Polygon per triangle,
// numbered as the triangle index numbers them, then one geometry per feature.
func WriteGeoJSON(w io.Writer, m *tin.Mesh) error {
	fc, err := MeshCollection(m)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}
	return nil
}

// MeshCollection builds the FeatureCollection written by WriteGeoJSON.
func MeshCollection(m *tin.Mesh) (*geojson.FeatureCollection, error) {
	idx, err := tin.BuildIndex(m)
	if err != nil {
		return nil, err
	}
	coord := func(p tin.PointID) []float64 {
		pt := m.Point(p)
		return []float64{pt.X, pt.Y, pt.Z}
	}

	fc := geojson.NewFeatureCollection()
	for n := 0; n < idx.Len(); n++ {
		e := idx.Entry(n)
		ring := [][]float64{coord(e.P1), coord(e.P2), coord(e.P3), coord(e.P1)}
		f := geojson.NewPolygonFeature([][][]float64{ring})
		f.SetProperty("number", e.Number)
		f.SetProperty("void", m.IsVoidTriangle(e.P1, e.P2, e.P3))
		fc.AddFeature(f)
	}

	for _, feat := range m.Features() {
		line := make([][]float64, 0, len(feat.Points)+1)
		for _, p := range feat.Points {
			line = append(line, coord(p))
		}
		var f *geojson.Feature
		switch {
		case feat.Closed && len(line) >= 3:
			line = append(line, line[0])
			f = geojson.NewPolygonFeature([][][]float64{line})
		case len(line) >= 2 && feat.Type != tin.GroupSpot:
			f = geojson.NewLineStringFeature(line)
		default:
			f = geojson.NewMultiPointFeature(line...)
		}
		f.SetProperty("id", int(feat.ID))
		f.SetProperty("type", feat.Type.String())
		if feat.Name != "" {
			f.SetProperty("name", feat.Name)
		}
		fc.AddFeature(f)
	}
	return fc, nil
}
