// Package texture renders the terrain textures: a color ramp over
// exaggerated elevation, optionally soft-lit by a hillshade, with a caustics
// shimmer screened on top, and a separate normal map for normal shading.
package texture

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"

	"github.com/Faultbox/trench-diorama/pkg/geom"
	"github.com/Faultbox/trench-diorama/pkg/gradient"
	"github.com/Faultbox/trench-diorama/pkg/raster"
)

// Mode is the terrain shading mode.
type Mode string

const (
	None           Mode = "none"
	Hillshade      Mode = "hillshade"
	MultiHillshade Mode = "multi-hillshade"
	Normals        Mode = "normals"
)

// ParseMode validates a shading mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case None, Hillshade, MultiHillshade, Normals:
		return m, nil
	}
	return "", fmt.Errorf("unknown shading mode %q", s)
}

// Shaded reports whether the mode blends a hillshade into the color.
func (m Mode) Shaded() bool {
	return m == Hillshade || m == MultiHillshade
}

// CausticsPasses is the number of times the caustics layer is screened.
const CausticsPasses = 3

// Options controls terrain texture generation.
type Options struct {
	Mode          Mode
	Ramp          gradient.Ramp
	Zmin, Zmax    float64 // realized display Z range of the terrain mesh
	Saturation    float64 // 1 keeps colors as-is
	StretchStddev float64
	CausticsSeed  int64
}

// Terrain is the texture set for one shading mode. Normal is only set in
// Normals mode.
type Terrain struct {
	Color  *image.NRGBA
	Normal *image.NRGBA
}

// Build renders the terrain textures from a raw elevation grid sampled over
// extent. zfn maps raw elevation to display Z for the color ramp; derivatives
// are taken on raw values.
func Build(grid *raster.Grid, extent geom.Extent, zfn func(float64) float64, opts Options) Terrain {
	w, h := grid.Width, grid.Height

	color := ColorRamp(grid, opts.Ramp, opts.Zmin, opts.Zmax, zfn)
	color = Saturate(color, opts.Saturation)

	if opts.Mode.Shaded() {
		s := raster.DefaultHillshadeSettings(w, h, extent)
		s.Multi = opts.Mode == MultiHillshade
		s.StretchStddev = opts.StretchStddev
		s.ColorOutput = true
		shade := FromPixels(w, h, raster.Hillshade(grid.Sample, s))
		color = SoftLight(color, shade)
	}

	color = Screen(color, Caustics(w, h, opts.CausticsSeed), CausticsPasses)

	out := Terrain{Color: color}
	if opts.Mode == Normals {
		out.Normal = FromPixels(w, h, raster.Normals(grid.Sample, raster.NormalSettings{Width: w, Height: h, Extent: extent}))
	}
	return out
}

// Normalize maps z into [0, 1] over [zmin, zmax]. A zero range maps to the
// 0.5 midpoint.
func Normalize(z, zmin, zmax float64) float64 {
	if zmax == zmin {
		return 0.5
	}
	return (z - zmin) / (zmax - zmin)
}

// ColorRamp colors every grid cell by its normalized display elevation.
func ColorRamp(grid *raster.Grid, ramp gradient.Ramp, zmin, zmax float64, zfn func(float64) float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for i, z := range grid.Values {
		if zfn != nil {
			z = zfn(z)
		}
		c := ramp.NRGBA(Normalize(z, zmin, zmax))
		c.A = 255
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
	return img
}

// FromPixels wraps a width*height*4 RGBA buffer.
func FromPixels(width, height int, pix []uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return img
}

// Saturate scales color saturation by factor.
func Saturate(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor == 1 {
		return img
	}
	return toNRGBA(adjust.Saturation(img, factor-1))
}

// SoftLight blends overlay onto base with the soft-light rule.
func SoftLight(base, overlay image.Image) *image.NRGBA {
	return toNRGBA(blend.SoftLight(base, overlay))
}

// Screen screens overlay onto base the given number of times.
func Screen(base *image.NRGBA, overlay image.Image, passes int) *image.NRGBA {
	out := base
	for range passes {
		out = toNRGBA(blend.Screen(out, overlay))
	}
	return out
}

func toNRGBA(src image.Image) *image.NRGBA {
	if img, ok := src.(*image.NRGBA); ok {
		return img
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
