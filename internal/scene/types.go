// Package scene describes the renderable objects handed to the hosting
// viewport: meshes with metallic/roughness materials, textured or not, and
// polygons drawn with a water symbol.
package scene

import (
	"image"
	"image/color"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// AlphaMode controls how a material's alpha channel is interpreted.
type AlphaMode string

// Alpha modes.
const (
	AlphaOpaque AlphaMode = "opaque"
	AlphaBlend  AlphaMode = "blend"
)

// Texture wraps an RGBA image buffer.
type Texture struct {
	Image       *image.NRGBA
	Transparent bool
}

// NewTexture wraps img.
func NewTexture(img *image.NRGBA) *Texture {
	return &Texture{Image: img}
}

// Material is a metallic/roughness PBR material. Nil textures and colors
// mean "unset" to the host.
type Material struct {
	Color           *color.NRGBA
	ColorTexture    *Texture
	EmissiveColor   *color.NRGBA
	EmissiveTexture *Texture
	NormalTexture   *Texture
	Metallic        float64
	Roughness       float64
	AlphaMode       AlphaMode
}

// Component is a set of triangles sharing a material.
type Component struct {
	Faces    []uint32
	Material *Material
}

// Mesh is an indexed triangle mesh with optional per-vertex attributes.
type Mesh struct {
	Position   []float64 // x, y, z
	UV         []float32 // u, v
	Tangent    []float32 // x, y, z, w
	Components []Component
	WKID       int
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int {
	return len(m.Position) / 3
}

// Clone deep-copies the geometry. Materials are copied by value so the
// clone can be re-dressed without touching the original.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Position: append([]float64(nil), m.Position...),
		WKID:     m.WKID,
	}
	if m.UV != nil {
		c.UV = append([]float32(nil), m.UV...)
	}
	if m.Tangent != nil {
		c.Tangent = append([]float32(nil), m.Tangent...)
	}
	c.Components = make([]Component, len(m.Components))
	for i, comp := range m.Components {
		c.Components[i].Faces = append([]uint32(nil), comp.Faces...)
		if comp.Material != nil {
			mat := *comp.Material
			c.Components[i].Material = &mat
		}
	}
	return c
}

// ZRange returns the minimum and maximum vertex Z.
func (m *Mesh) ZRange() (float64, float64) {
	if len(m.Position) == 0 {
		return 0, 0
	}
	zmin, zmax := m.Position[2], m.Position[2]
	for i := 5; i < len(m.Position); i += 3 {
		zmin = min(zmin, m.Position[i])
		zmax = max(zmax, m.Position[i])
	}
	return zmin, zmax
}

// Polygon is a multi-ring polygon with per-vertex Z.
type Polygon struct {
	Rings [][]geom.Vec3
	WKID  int
}

// WaterSymbol styles a polygon as an animated water body.
type WaterSymbol struct {
	WaterbodySize string
	WaveStrength  string
	Color         color.NRGBA
}

// Edges outlines mesh edges.
type Edges struct {
	SizePx float64
	Color  color.NRGBA
}

// Graphic is one renderable item: either a mesh or a water polygon.
type Graphic struct {
	Name    string
	Mesh    *Mesh
	Polygon *Polygon
	Water   *WaterSymbol
	Edges   *Edges
	Visible bool
}
