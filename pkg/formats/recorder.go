package formats

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/tinbridge/pkg/exchange"
	"github.com/Faultbox/tinbridge/pkg/tin"
)

// ExportDocument is everything an export sent, in the order it was sent.
type ExportDocument struct {
	Stats         DocStats      `yaml:"stats"`
	RandomPoints  []DocPoint    `yaml:"random_points,omitempty"`
	FeaturePoints []DocPoint    `yaml:"feature_points,omitempty"`
	Triangles     []DocTriangle `yaml:"triangles,omitempty"`
	Features      []DocExported `yaml:"features,omitempty"`
}

// DocStats are the sizes announced before the records.
type DocStats struct {
	RandomPoints  int `yaml:"random_points"`
	FeaturePoints int `yaml:"feature_points"`
	Triangles     int `yaml:"triangles"`
	Features      int `yaml:"features"`
}

// DocTriangle is one exported face.
type DocTriangle struct {
	Number   int    `yaml:"number"`
	Points   [3]int `yaml:"points,flow"`
	Void     bool   `yaml:"void,omitempty"`
	Adjacent [3]int `yaml:"adjacent,flow"`
}

// DocExported is one exported feature. Points are point indices.
type DocExported struct {
	ID          int    `yaml:"id"`
	Type        string `yaml:"type"`
	UserTag     *int64 `yaml:"user_tag,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Style       string `yaml:"style,omitempty"`
	Points      []int  `yaml:"points,flow"`
}

// Discovered is one feature reported during an import.
type Discovered struct {
	ID     tin.FeatureID
	Name   string
	Type   tin.FeatureType
	Points int
}

// Recorder collects an export into an ExportDocument and keeps a log of the
// features seen during an import.
type Recorder struct {
	Doc        ExportDocument
	Discovered []Discovered
}

func (r *Recorder) OnStats(s exchange.Stats) error {
	r.Doc.Stats = DocStats{
		RandomPoints:  s.RandomPoints,
		FeaturePoints: s.FeaturePoints,
		Triangles:     s.Triangles,
		Features:      s.Features,
	}
	return nil
}

func (r *Recorder) OnRandomPoint(index int, x, y, z float64) error {
	r.Doc.RandomPoints = append(r.Doc.RandomPoints, DocPoint{Index: index, X: x, Y: y, Z: z})
	return nil
}

func (r *Recorder) OnFeaturePoint(index int, x, y, z float64) error {
	r.Doc.FeaturePoints = append(r.Doc.FeaturePoints, DocPoint{Index: index, X: x, Y: y, Z: z})
	return nil
}

func (r *Recorder) OnTriangle(t exchange.TriangleRecord) error {
	r.Doc.Triangles = append(r.Doc.Triangles, DocTriangle{
		Number:   t.Number,
		Points:   [3]int{t.P1, t.P2, t.P3},
		Void:     t.Void,
		Adjacent: t.Adjacent,
	})
	return nil
}

func (r *Recorder) OnFeature(f exchange.FeatureRecord) error {
	d := DocExported{
		ID:          int(f.ID),
		Type:        f.Type.String(),
		Name:        f.Name,
		Description: f.Description,
		Style:       f.Style,
		Points:      slices.Clone(f.Points),
	}
	if f.UserTag != tin.NullUserTag {
		tag := f.UserTag
		d.UserTag = &tag
	}
	r.Doc.Features = append(r.Doc.Features, d)
	return nil
}

func (r *Recorder) OnFeatureDiscovered(id tin.FeatureID, name, _ string, t tin.FeatureType, points []tin.Point) {
	r.Discovered = append(r.Discovered, Discovered{ID: id, Name: name, Type: t, Points: len(points)})
}

// Write encodes the document as YAML.
func (d *ExportDocument) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return enc.Close()
}

// Save writes the document to path.
func (d *ExportDocument) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Document turns an export back into a stream document with topology, the
// way a host hands a mesh back after editing it. Neighbour lists come from
// the triangles and feature chains are expanded to coordinates.
func (d *ExportDocument) Document() *Document {
	coords := make(map[int]DocPoint, len(d.RandomPoints)+len(d.FeaturePoints))
	for _, p := range d.RandomPoints {
		coords[p.Index] = p
	}
	for _, p := range d.FeaturePoints {
		coords[p.Index] = p
	}

	adj := make(map[int][]int, len(coords))
	link := func(a, b int) {
		if !slices.Contains(adj[a], b) {
			adj[a] = append(adj[a], b)
		}
	}
	for _, t := range d.Triangles {
		for k := 0; k < 3; k++ {
			a, b := t.Points[k], t.Points[(k+1)%3]
			link(a, b)
			link(b, a)
		}
	}

	indices := make([]int, 0, len(coords))
	for i := range coords {
		indices = append(indices, i)
	}
	slices.Sort(indices)

	doc := &Document{Points: make([]DocPoint, 0, len(indices))}
	for _, i := range indices {
		p := coords[i]
		p.Neighbors = slices.Sorted(slices.Values(adj[i]))
		doc.Points = append(doc.Points, p)
	}
	for _, f := range d.Features {
		df := DocFeature{
			Type:        f.Type,
			Name:        f.Name,
			Description: f.Description,
			Style:       f.Style,
			UserTag:     f.UserTag,
			Points:      make([][]float64, 0, len(f.Points)),
		}
		for _, i := range f.Points {
			p := coords[i]
			df.Points = append(df.Points, []float64{p.X, p.Y, p.Z})
		}
		doc.Features = append(doc.Features, df)
	}
	return doc
}
