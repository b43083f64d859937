package diorama

import (
	"image/color"

	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/internal/texture"
)

// Visualization is how the terrain textures are bound to the terrain
// material. It is one of ColorVisualization, ShadedVisualization or
// NormalsVisualization.
type Visualization interface {
	Mode() texture.Mode
}

// ColorVisualization shows the color ramp texture as the base color.
type ColorVisualization struct {
	Color *scene.Texture
}

// ShadedVisualization shows the hillshaded texture as self-lit emission
// over a black base so scene lighting does not shade it twice.
type ShadedVisualization struct {
	ShadingMode texture.Mode
	Emissive    *scene.Texture
}

// NormalsVisualization lets scene lighting shade the color texture through
// a tangent-space normal map.
type NormalsVisualization struct {
	Color  *scene.Texture
	Normal *scene.Texture
}

func (ColorVisualization) Mode() texture.Mode    { return texture.None }
func (v ShadedVisualization) Mode() texture.Mode { return v.ShadingMode }
func (NormalsVisualization) Mode() texture.Mode  { return texture.Normals }

func newVisualization(mode texture.Mode, t texture.Terrain) Visualization {
	switch {
	case mode == texture.Normals:
		return NormalsVisualization{Color: scene.NewTexture(t.Color), Normal: scene.NewTexture(t.Normal)}
	case mode.Shaded():
		return ShadedVisualization{ShadingMode: mode, Emissive: scene.NewTexture(t.Color)}
	default:
		return ColorVisualization{Color: scene.NewTexture(t.Color)}
	}
}

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

// terrainMaterial builds the terrain material for v.
func terrainMaterial(v Visualization) *scene.Material {
	m := &scene.Material{Metallic: 0, Roughness: 1, AlphaMode: scene.AlphaOpaque}
	switch v := v.(type) {
	case ColorVisualization:
		m.ColorTexture = v.Color
	case ShadedVisualization:
		m.EmissiveTexture = v.Emissive
		m.EmissiveColor = &white
		m.Color = &black
	case NormalsVisualization:
		m.ColorTexture = v.Color
		m.NormalTexture = v.Normal
	default:
		panic("diorama: unhandled visualization")
	}
	return m
}
