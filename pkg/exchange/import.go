package exchange

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/tin"
)

// ImportOptions configures an import session.
type ImportOptions struct {
	// Logger receives dropped features and repair notes. Nil discards them.
	Logger *zap.Logger
	// Discovery, when set, is told about every incoming feature.
	Discovery Discovery
	// TrimHull removes the exporting tool's bounding rectangle from a mesh
	// that arrived with topology and without a Hull feature.
	TrimHull bool
	// MaxTriangleLength removes boundary faces with a longer hull side. Zero disables it.
	MaxTriangleLength float64
	// MeshOptions are passed to tin.NewMesh.
	MeshOptions []tin.Option
}

// Result is a finished import.
type Result struct {
	Mesh *tin.Mesh
	// Dropped combines one *tin.FeatureError per feature that was not kept.
	Dropped error
}

// DroppedFeatures splits Dropped into its individual errors.
func (r *Result) DroppedFeatures() []error {
	return multierr.Errors(r.Dropped)
}

// Importer is one import session. It implements Sink; call Finish once the
// source is exhausted.
type Importer struct {
	mesh      *tin.Mesh
	opts      ImportOptions
	log       *zap.Logger
	index     map[int]tin.PointID
	topology  bool
	adopted   bool
	finished  bool
	dropped   error
	discovery Discovery
}

// NewImporter starts an import session on an empty mesh.
func NewImporter(opts ImportOptions) *Importer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	meshOpts := append([]tin.Option{tin.WithLogger(log.Named("tin"))}, opts.MeshOptions...)
	return &Importer{
		mesh:      tin.NewMesh(meshOpts...),
		opts:      opts,
		log:       log.Named("import"),
		index:     make(map[int]tin.PointID),
		discovery: opts.Discovery,
	}
}

// Import streams src into a new mesh and finishes it.
func Import(src Source, opts ImportOptions) (*Result, error) {
	im := NewImporter(opts)
	if err := src.Stream(im); err != nil {
		return nil, fmt.Errorf("streaming source: %w", err)
	}
	return im.Finish()
}

// OnPoint adds a point under its foreign index.
func (im *Importer) OnPoint(index int, x, y, z float64) error {
	if im.adopted || im.finished {
		return fmt.Errorf("%w: point %d after features", ErrOutOfOrder, index)
	}
	if _, ok := im.index[index]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicatePoint, index)
	}
	im.index[index] = im.mesh.InsertPoint(tin.Point{X: x, Y: y, Z: z})
	return nil
}

// OnNeighbors connects a point to each listed neighbour.
func (im *Importer) OnNeighbors(index int, neighbors []int) error {
	if im.adopted || im.finished {
		return fmt.Errorf("%w: neighbours of %d after features", ErrOutOfOrder, index)
	}
	p, ok := im.index[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPoint, index)
	}
	for _, n := range neighbors {
		q, ok := im.index[n]
		if !ok {
			return fmt.Errorf("%w: neighbour %d of %d", ErrUnknownPoint, n, index)
		}
		if err := im.mesh.Connect(p, q); err != nil {
			return fmt.Errorf("connecting %d-%d: %w", index, n, err)
		}
	}
	im.topology = true
	return nil
}

// OnFeature stores a feature. Features that cannot be kept are logged and
// collected; only mesh-level failures are returned.
func (im *Importer) OnFeature(f FeatureRecord) error {
	if im.finished {
		return fmt.Errorf("%w: feature after finish", ErrOutOfOrder)
	}
	if err := im.adopt(); err != nil {
		return err
	}
	id, err := im.mesh.StoreFeature(tin.FeatureInput{
		Type:        f.Type,
		Name:        f.Name,
		Description: f.Description,
		Style:       f.Style,
		UserTag:     f.UserTag,
		Points:      f.Coords,
		Exclude:     f.Exclude,
	})
	if err != nil && !tin.IsFeatureError(err) {
		return fmt.Errorf("storing %s feature %q: %w", f.Type, f.Name, err)
	}
	if err != nil {
		im.dropped = multierr.Append(im.dropped, err)
	}
	if im.discovery != nil {
		im.discovery.OnFeatureDiscovered(id, f.Name, f.Description, f.Type, f.Coords)
	}
	return nil
}

// adopt turns supplied adjacency into a triangulation the first time it is needed.
func (im *Importer) adopt() error {
	if !im.topology || im.adopted {
		return nil
	}
	im.adopted = true
	if err := im.mesh.AdoptTopology(); err != nil {
		return fmt.Errorf("adopting topology: %w", err)
	}
	im.log.Debug("adopted topology",
		zap.Int("points", im.mesh.NumPoints()), zap.Int("triangles", im.mesh.TriangleCount()))
	return nil
}

// Finish triangulates or trims the mesh and returns it with the dropped
// features. The session cannot be used afterwards.
func (im *Importer) Finish() (*Result, error) {
	if im.finished {
		return nil, fmt.Errorf("%w: finish called twice", ErrOutOfOrder)
	}
	im.finished = true
	m := im.mesh

	if !im.topology {
		if err := m.Triangulate(); err != nil {
			return nil, fmt.Errorf("triangulating: %w", err)
		}
		for _, fe := range m.Dropped() {
			im.dropped = multierr.Append(im.dropped, fe)
		}
	} else {
		if err := im.adopt(); err != nil {
			return nil, err
		}
		if err := im.trim(); err != nil {
			return nil, err
		}
	}

	if n := m.RemoveZeroAreaVoids(); n > 0 {
		im.log.Debug("removed zero area voids", zap.Int("count", n))
	}
	if err := m.Clean(); err != nil {
		return nil, err
	}
	im.log.Info("import finished",
		zap.Int("points", m.NumPoints()),
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("features", m.NumFeatures()),
		zap.Int("dropped", len(multierr.Errors(im.dropped))))
	return &Result{Mesh: m, Dropped: im.dropped}, nil
}

// trim cuts a mesh that arrived with topology back to its real boundary.
func (im *Importer) trim() error {
	m := im.mesh
	var hull *tin.Feature
	for _, f := range m.Features() {
		if f.Type == tin.Hull {
			hull = &f
			break
		}
	}
	switch {
	case hull != nil:
		if err := m.ClipToPolygon(hull.Points, tin.ClipExternal); err != nil {
			return fmt.Errorf("clipping to hull feature %d: %w", hull.ID, err)
		}
	case im.opts.TrimHull:
		err := m.RemoveBoundingRectangle()
		if errors.Is(err, tin.ErrDegenerate) {
			im.log.Debug("boundary too small to trim", zap.Error(err))
		} else if err != nil {
			return fmt.Errorf("trimming hull: %w", err)
		}
	}
	if im.opts.MaxTriangleLength > 0 {
		if n := m.RemoveLongBoundaryTriangles(im.opts.MaxTriangleLength); n > 0 {
			im.log.Debug("removed long boundary triangles", zap.Int("count", n))
		}
	}
	return nil
}
