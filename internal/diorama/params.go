package diorama

import (
	"fmt"
	"slices"

	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/texture"
	"github.com/Faultbox/trench-diorama/internal/water"
	"github.com/Faultbox/trench-diorama/pkg/geom"
	"github.com/Faultbox/trench-diorama/pkg/gradient"
)

// Params are the inputs of the diorama pipeline.
type Params struct {
	SourceArea  geom.Extent
	DisplayArea geom.Extent

	SamplingResolution     int // samples along the longer side of the source area
	ColorTextureResolution int
	MeshResolution         int // mesh cells along the longer side
	WaterSurfaceResolution int
	GlassTextureResolution int

	Shading       texture.Mode
	ColorRamp     []gradient.Stop
	Saturation    float64
	StretchStddev float64
	CausticsSeed  int64

	Exaggeration         elevation.Strategy
	ExaggerationFactor   float64
	SurfacePaddingBottom float64

	TopSurfaceFraction float64
	WaterSeed          int64
	WaterHarmonics     []water.Harmonic
}

// MagmaRamp is the default terrain color ramp.
func MagmaRamp() []gradient.Stop {
	return []gradient.Stop{
		gradient.MustHexStop(0, "#000004"),
		gradient.MustHexStop(0.1, "#140e36"),
		gradient.MustHexStop(0.2, "#3b0f70"),
		gradient.MustHexStop(0.3, "#641a80"),
		gradient.MustHexStop(0.4, "#8c2981"),
		gradient.MustHexStop(0.5, "#b5367a"),
		gradient.MustHexStop(0.6, "#de4968"),
		gradient.MustHexStop(0.7, "#f66e5c"),
		gradient.MustHexStop(0.8, "#fe9f6d"),
		gradient.MustHexStop(0.9, "#fecf92"),
		gradient.MustHexStop(1, "#fecf92"),
	}
}

// RockRamp colors the walls of the surface box.
func RockRamp() []gradient.Stop {
	return []gradient.Stop{
		gradient.MustHexStop(0, "#ff9e74"),
		gradient.MustHexStop(0.4, "#ebd2b6"),
		gradient.MustHexStop(1, "#ebebeb"),
	}
}

// DefaultParams returns the stock pipeline settings with no source area.
func DefaultParams() Params {
	return Params{
		DisplayArea: geom.Extent{
			Xmin: 0, Ymin: 0, Xmax: 100, Ymax: 100, Zmin: 0, Zmax: 50,
			WKID: geom.WebMercator,
		},
		SamplingResolution:     512,
		ColorTextureResolution: 512,
		MeshResolution:         256,
		WaterSurfaceResolution: 64,
		GlassTextureResolution: 256,
		Shading:                texture.MultiHillshade,
		ColorRamp:              MagmaRamp(),
		Saturation:             1.5,
		StretchStddev:          2,
		CausticsSeed:           1,
		Exaggeration:           elevation.RangeRemap,
		ExaggerationFactor:     12,
		SurfacePaddingBottom:   0.01,
		TopSurfaceFraction:     water.DefaultTopFraction,
		WaterSeed:              123,
		WaterHarmonics:         water.DefaultHarmonics(),
	}
}

// Validate checks the parameters can drive the pipeline. An unset source
// area is allowed; it produces no geometry.
func (p Params) Validate() error {
	if err := p.DisplayArea.Validate(); err != nil {
		return fmt.Errorf("display area: %w", err)
	}
	if !p.SourceArea.IsZero() {
		if err := p.SourceArea.Validate(); err != nil {
			return fmt.Errorf("source area: %w", err)
		}
		if p.SourceArea.WKID != p.DisplayArea.WKID {
			return fmt.Errorf("source wkid %d does not match display wkid %d", p.SourceArea.WKID, p.DisplayArea.WKID)
		}
	}
	for name, v := range map[string]int{
		"sampling":      p.SamplingResolution,
		"color texture": p.ColorTextureResolution,
		"mesh":          p.MeshResolution,
		"water surface": p.WaterSurfaceResolution,
		"glass texture": p.GlassTextureResolution,
	} {
		if v <= 0 {
			return fmt.Errorf("%s resolution %d: must be positive", name, v)
		}
	}
	if _, err := texture.ParseMode(string(p.Shading)); err != nil {
		return err
	}
	if _, err := elevation.ParseStrategy(string(p.Exaggeration)); err != nil {
		return err
	}
	if len(p.ColorRamp) == 0 {
		return fmt.Errorf("color ramp has no stops")
	}
	return nil
}

func (p Params) clone() Params {
	p.ColorRamp = slices.Clone(p.ColorRamp)
	p.WaterHarmonics = slices.Clone(p.WaterHarmonics)
	return p
}

// diff reports which inputs differ between two parameter sets.
func diff(a, b Params) Input {
	var changed Input
	flag := func(in Input, differs bool) {
		if differs {
			changed |= in
		}
	}
	flag(InSourceArea, a.SourceArea != b.SourceArea)
	flag(InSamplingResolution, a.SamplingResolution != b.SamplingResolution)
	flag(InDisplayArea, a.DisplayArea != b.DisplayArea)
	flag(InMeshResolution, a.MeshResolution != b.MeshResolution)
	flag(InExaggeration, a.Exaggeration != b.Exaggeration || a.ExaggerationFactor != b.ExaggerationFactor)
	flag(InColorTextureResolution, a.ColorTextureResolution != b.ColorTextureResolution)
	flag(InShading, a.Shading != b.Shading ||
		!slices.Equal(a.ColorRamp, b.ColorRamp) ||
		a.Saturation != b.Saturation ||
		a.StretchStddev != b.StretchStddev ||
		a.CausticsSeed != b.CausticsSeed)
	flag(InPadding, a.SurfacePaddingBottom != b.SurfacePaddingBottom)
	flag(InTopSurface, a.TopSurfaceFraction != b.TopSurfaceFraction ||
		a.WaterSeed != b.WaterSeed ||
		a.WaterSurfaceResolution != b.WaterSurfaceResolution ||
		!slices.Equal(a.WaterHarmonics, b.WaterHarmonics))
	flag(InGlassTextureResolution, a.GlassTextureResolution != b.GlassTextureResolution)
	return changed
}
