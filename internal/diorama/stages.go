package diorama

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/internal/texture"
	"github.com/Faultbox/trench-diorama/internal/water"
	"github.com/Faultbox/trench-diorama/pkg/extrude"
	"github.com/Faultbox/trench-diorama/pkg/geom"
	"github.com/Faultbox/trench-diorama/pkg/gradient"
	"github.com/Faultbox/trench-diorama/pkg/raster"
)

var (
	rockEdgeColor  = color.NRGBA{R: 235, G: 210, B: 182, A: 255}
	glassEdgeColor = color.NRGBA{R: 255, G: 255, B: 255, A: 204}
	glassEmissive  = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	waterColor     = color.NRGBA{R: 30, G: 160, B: 160, A: 255}
)

// applyTexture renders the terrain textures and swaps in a terrain graphic
// wearing them. The surface mesh is cloned so the committed one stays bare.
func (b *Builder) applyTexture(p Params) {
	s := b.sampler
	source := s.Area()
	size := p.ColorTextureResolution

	grid := raster.NewGrid(size, size, source, s.RawElevationAt)
	tex := texture.Build(grid, source, s.DisplayZ(), texture.Options{
		Mode:          p.Shading,
		Ramp:          gradient.NewRamp(p.ColorRamp),
		Zmin:          b.surface.Zmin(),
		Zmax:          b.surface.Zmax(),
		Saturation:    p.Saturation,
		StretchStddev: p.StretchStddev,
		CausticsSeed:  p.CausticsSeed,
	})
	vis := newVisualization(p.Shading, tex)

	mesh := b.surface.Mesh.Clone()
	mesh.Components[0].Material = terrainMaterial(vis)

	b.visualization = vis
	b.replace(&b.terrainGraphic, &scene.Graphic{Name: GraphicTerrain, Mesh: mesh, Visible: true})
}

// staticTexture fetches a parameter-independent texture from the cache.
func (b *Builder) staticTexture(key string, build func() *image.NRGBA) *scene.Texture {
	img, err := b.cache.Texture(key, func() (*image.NRGBA, error) { return build(), nil })
	if err != nil {
		img = build()
	}
	return scene.NewTexture(img)
}

func (b *Builder) rockTexture() *scene.Texture {
	return b.staticTexture("rock-strip", func() *image.NRGBA { return gradient.Strip(RockRamp()) })
}

// glassTexture returns the glass gradient shared by the top plane and the
// glass box, rebuilt only when size changes.
func (b *Builder) glassTexture(size int) *scene.Texture {
	if b.glass != nil && b.glass.Image.Bounds().Dx() == size {
		return b.glass
	}
	t := b.staticTexture("glass/"+strconv.Itoa(size), func() *image.NRGBA { return gradient.Glass(size) })
	t.Transparent = true
	b.glass = t
	return t
}

func glassMaterial(t *scene.Texture) *scene.Material {
	return &scene.Material{
		ColorTexture:  t,
		EmissiveColor: &glassEmissive,
		AlphaMode:     scene.AlphaBlend,
		Roughness:     1,
		Metallic:      0,
	}
}

// displayEvaluator places perimeter cell (col, row) of the mesh grid in
// display coordinates with Z from zAt.
func displayEvaluator(display geom.Extent, w, h int, zAt func(x, y float64) float64) extrude.Evaluator {
	return func(out *geom.Vec3, col, row int) {
		out.X = display.Xmin + float64(col)/float64(w)*display.Width()
		out.Y = display.Ymin + float64(row)/float64(h)*display.Height()
		out.Z = zAt(out.X, out.Y)
	}
}

// toSource maps a display coordinate back into the source area.
func toSource(display, source geom.Extent, x, y float64) (float64, float64) {
	return (x-display.Xmin)/display.Width()*source.Width() + source.Xmin,
		(y-display.Ymin)/display.Height()*source.Height() + source.Ymin
}

func boxMesh(box extrude.Box, wkid int, m *scene.Material) *scene.Mesh {
	return &scene.Mesh{
		Position:   box.Position,
		UV:         box.UV,
		Components: []scene.Component{{Faces: box.Faces, Material: m}},
		WKID:       wkid,
	}
}

// applySurfaceBox extrudes the terrain outline down to a floor just below
// the lowest terrain vertex.
func (b *Builder) applySurfaceBox(p Params) error {
	s := b.sampler
	source, display := s.Area(), p.DisplayArea
	zmin, zmax := b.surface.Zmin(), b.surface.Zmax()
	bottom := zmin - p.SurfacePaddingBottom*(zmax-zmin)
	res := b.resolution

	box := extrude.CreateBox(res.Width, res.Height,
		displayEvaluator(display, res.Width, res.Height, func(x, y float64) float64 {
			return s.ElevationAt(toSource(display, source, x, y))
		}),
		extrude.ToZ(bottom),
	)
	if len(box.Faces) == 0 {
		return fmt.Errorf("surface box %dx%d: no faces", res.Width, res.Height)
	}

	mat := &scene.Material{ColorTexture: b.rockTexture(), Roughness: 0.25, Metallic: 0, AlphaMode: scene.AlphaOpaque}
	b.replace(&b.surfaceBoxGraphic, &scene.Graphic{
		Name:    GraphicSurfaceBox,
		Mesh:    boxMesh(box, display.WKID, mat),
		Edges:   &scene.Edges{SizePx: 5, Color: rockEdgeColor},
		Visible: true,
	})
	return nil
}

// applyTopSurface picks water or ground for the top of the box and draws
// it: a water polygon, or a glass plane just below the ground level.
func (b *Builder) applyTopSurface(p Params) error {
	display := p.DisplayArea
	z := water.TopZ(display, p.TopSurfaceFraction)

	b.topKind = water.Select(b.sampler.SourceZmax())
	var g *scene.Graphic
	switch b.topKind {
	case water.Water:
		b.top = water.NewWater(display, z, p.WaterSeed, p.WaterHarmonics)
		b.topZmax = z + water.MaxRise(p.WaterHarmonics)
		g = &scene.Graphic{
			Name:    GraphicTopSurface,
			Polygon: water.BuildSurface(display, p.WaterSurfaceResolution, b.top),
			Water:   &scene.WaterSymbol{WaterbodySize: "large", WaveStrength: "moderate", Color: waterColor},
			Visible: true,
		}
	default:
		b.top = water.NewGround(z)
		b.topZmax = z
		c := display.Center()
		plane := water.BuildPlane(display, b.top(c.X, c.Y)-water.GlassPlaneOffset)
		plane.Components[0].Material = glassMaterial(b.glassTexture(p.GlassTextureResolution))
		g = &scene.Graphic{
			Name:    GraphicTopSurface,
			Mesh:    plane,
			Edges:   &scene.Edges{SizePx: 1, Color: glassEdgeColor},
			Visible: true,
		}
	}
	b.replace(&b.topSurfaceGraphic, g)
	return nil
}

// applyGlassBox connects the top surface down to the terrain profile with
// translucent walls. The wall thickness is not clamped, so walls cross where
// terrain rises above the top surface.
func (b *Builder) applyGlassBox(p Params) error {
	if b.top == nil {
		return nil
	}
	s, top := b.sampler, b.top
	source, display := s.Area(), p.DisplayArea
	res := b.resolution

	box := extrude.CreateBox(res.Width, res.Height,
		displayEvaluator(display, res.Width, res.Height, func(x, y float64) float64 { return top(x, y) }),
		extrude.By(func(x, y, z float64) float64 {
			return s.ElevationAt(toSource(display, source, x, y)) - z
		}),
	)
	// Mirror the walls running along Y so the glass gradient reads the same
	// from both sides.
	box.MirrorU(extrude.SideRight, extrude.SideLeft)

	b.replace(&b.glassBoxGraphic, &scene.Graphic{
		Name:    GraphicGlassBox,
		Mesh:    boxMesh(box, display.WKID, glassMaterial(b.glassTexture(p.GlassTextureResolution))),
		Visible: true,
	})
	return nil
}
