package tin

import (
	"github.com/Faultbox/tinbridge/pkg/geom"
)

// IsVoidTriangle reports whether the face a, b, c lies in a region bounded by
// Void feature edges. Faces are classified by flooding outward from the
// inner side of every Void, Island and Hull edge without crossing those
// edges; regions seeded from a Void are void, the rest are solid.
func (m *Mesh) IsVoidTriangle(a, b, c PointID) bool {
	if !m.HasTriangle(a, b, c) {
		return false
	}
	if geom.Orientation(m.xy(a), m.xy(b), m.xy(c)) < 0 {
		b, c = c, b
	}
	if m.voids == nil {
		m.voids = m.classifyVoids()
	}
	return m.voids[makeTriangle(a, b, c)]
}

func (m *Mesh) classifyVoids() map[Triangle]bool {
	walls := make(map[edge]bool)
	var voidSeeds, solidSeeds []Triangle
	for _, f := range m.features {
		if f.State != FeatureTin || (f.Type != Void && f.Type != Island && f.Type != Hull) {
			continue
		}
		n := len(f.Points)
		for i, a := range f.Points {
			b := f.Points[(i+1)%n]
			walls[mkEdge(a, b)] = true
			r, ok := m.apex(a, b)
			if !ok {
				continue
			}
			if t := makeTriangle(a, b, r); f.Type == Void {
				voidSeeds = append(voidSeeds, t)
			} else {
				solidSeeds = append(solidSeeds, t)
			}
		}
	}

	// Solid regions claim their faces first so a Void that shares an edge
	// with an Island cannot leak into it.
	solid := m.spread(solidSeeds, walls)
	voids := make(map[Triangle]bool)
	for t := range m.spread(voidSeeds, walls) {
		if !solid[t] {
			voids[t] = true
		}
	}
	return voids
}
