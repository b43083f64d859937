// Package terrain builds the terrain surface mesh from an elevation sampler
// and remaps it from source coordinates into the display box.
package terrain

import (
	"math"
	"strconv"

	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// Resolution is the vertex grid of a terrain mesh.
type Resolution struct {
	Width         int     // cells along X
	Height        int     // cells along Y
	DemResolution float64 // source units per cell
}

// Key identifies a mesh built over area at this resolution.
func (r Resolution) Key(area geom.Extent) string {
	return area.Key() + "/" + strconv.FormatFloat(r.DemResolution, 'g', -1, 64)
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min geom.Vec3
	Max geom.Vec3
}

func emptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: geom.Vec3{X: inf, Y: inf, Z: inf},
		Max: geom.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

func updateBounds(b *Bounds, p geom.Vec3) {
	b.Min.X = min(b.Min.X, p.X)
	b.Min.Y = min(b.Min.Y, p.Y)
	b.Min.Z = min(b.Min.Z, p.Z)
	b.Max.X = max(b.Max.X, p.X)
	b.Max.Y = max(b.Max.Y, p.Y)
	b.Max.Z = max(b.Max.Z, p.Z)
}

// Surface is a terrain mesh placed in the display box.
type Surface struct {
	Mesh   *scene.Mesh
	Bounds Bounds
}

// Zmin is the lowest rendered vertex.
func (s *Surface) Zmin() float64 { return s.Bounds.Min.Z }

// Zmax is the highest rendered vertex.
func (s *Surface) Zmax() float64 { return s.Bounds.Max.Z }
