// Package formats reads and writes the file formats tintool speaks: a YAML
// stream document that feeds an import, a YAML record of an export and a
// GeoJSON view of a mesh.
package formats

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/tinbridge/pkg/exchange"
	"github.com/Faultbox/tinbridge/pkg/tin"
)

// Document errors.
var (
	ErrEmptyDocument      = errors.New("document has no points and no features")
	ErrUnknownFeatureType = errors.New("unknown feature type")
	ErrBadCoordinate      = errors.New("coordinate needs 2 or 3 values")
)

// Document is a stream document: points with optional neighbour lists,
// followed by features.
type Document struct {
	Points   []DocPoint   `yaml:"points"`
	Features []DocFeature `yaml:"features,omitempty"`
}

// DocPoint is one incoming point. Index is the host's own numbering.
type DocPoint struct {
	Index     int     `yaml:"index"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Z         float64 `yaml:"z"`
	Neighbors []int   `yaml:"neighbors,omitempty,flow"`
}

// DocFeature is one incoming feature. Each coordinate is [x, y] or [x, y, z].
type DocFeature struct {
	Type        string      `yaml:"type"`
	Name        string      `yaml:"name,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Style       string      `yaml:"style,omitempty"`
	UserTag     *int64      `yaml:"user_tag,omitempty"`
	Exclude     bool        `yaml:"exclude,omitempty"`
	Points      [][]float64 `yaml:"points,flow"`
}

// ParseDocument parses a stream document from raw bytes.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if len(doc.Points) == 0 && len(doc.Features) == 0 {
		return nil, ErrEmptyDocument
	}
	for i, f := range doc.Features {
		if _, err := f.record(); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}
	return &doc, nil
}

// LoadDocument parses a stream document from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return ParseDocument(data)
}

// Stream sends the document to s: every point, then every neighbour list,
// then every feature.
func (d *Document) Stream(s exchange.Sink) error {
	for _, p := range d.Points {
		if err := s.OnPoint(p.Index, p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	for _, p := range d.Points {
		if len(p.Neighbors) == 0 {
			continue
		}
		if err := s.OnNeighbors(p.Index, p.Neighbors); err != nil {
			return err
		}
	}
	for i, f := range d.Features {
		rec, err := f.record()
		if err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		if err := s.OnFeature(rec); err != nil {
			return err
		}
	}
	return nil
}

func (f DocFeature) record() (exchange.FeatureRecord, error) {
	t, err := tin.ParseFeatureType(f.Type)
	if err != nil {
		return exchange.FeatureRecord{}, fmt.Errorf("%w: %q", ErrUnknownFeatureType, f.Type)
	}
	rec := exchange.FeatureRecord{
		ID:          tin.NoFeature,
		Type:        t,
		UserTag:     tin.NullUserTag,
		Name:        f.Name,
		Description: f.Description,
		Style:       f.Style,
		Exclude:     f.Exclude,
		Coords:      make([]tin.Point, len(f.Points)),
	}
	if f.UserTag != nil {
		rec.UserTag = *f.UserTag
	}
	for i, c := range f.Points {
		switch len(c) {
		case 2:
			rec.Coords[i] = tin.Point{X: c[0], Y: c[1]}
		case 3:
			rec.Coords[i] = tin.Point{X: c[0], Y: c[1], Z: c[2]}
		default:
			return exchange.FeatureRecord{}, fmt.Errorf("%w: point %d has %d", ErrBadCoordinate, i, len(c))
		}
	}
	return rec, nil
}
