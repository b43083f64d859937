package raster

import (
	"math"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// Default illumination.
const (
	DefaultAzimuth  = 315.0
	DefaultAltitude = 45.0
)

var multiDirections = [4]float64{
	NormalizeAzimuth(225),
	NormalizeAzimuth(270),
	NormalizeAzimuth(315),
	NormalizeAzimuth(360),
}

// HillshadeSettings configures a hillshade pass. Use DefaultHillshadeSettings
// to get the standard light position.
type HillshadeSettings struct {
	Width, Height int
	Extent        geom.Extent

	Azimuth  float64 // compass degrees
	Altitude float64 // degrees above the horizon
	ZFactor  float64

	// Multi blends four light directions instead of one.
	Multi bool

	// StretchStddev is the stddev multiplier k of the contrast stretch;
	// 0 disables stretching.
	StretchStddev float64

	// ColorOutput writes RGBA (gray, gray, gray, 255) instead of one byte per pixel.
	ColorOutput bool
}

// DefaultHillshadeSettings returns settings with azimuth 315°, altitude 45°
// and a z factor of 1.
func DefaultHillshadeSettings(width, height int, extent geom.Extent) HillshadeSettings {
	return HillshadeSettings{
		Width:    width,
		Height:   height,
		Extent:   extent,
		Azimuth:  DefaultAzimuth,
		Altitude: DefaultAltitude,
		ZFactor:  1,
	}
}

type hillshadeContext struct {
	cellX, cellY      float64
	azimuth           float64
	cosZenith, sinZen float64
	zFactor           float64
	multi             bool
}

func newHillshadeContext(s HillshadeSettings) hillshadeContext {
	cellX, cellY := cellSize(s.Extent, s.Width, s.Height)
	zenith := toRad(90 - s.Altitude)
	return hillshadeContext{
		cellX:     cellX,
		cellY:     cellY,
		azimuth:   NormalizeAzimuth(s.Azimuth),
		cosZenith: math.Cos(zenith),
		sinZen:    math.Sin(zenith),
		zFactor:   s.ZFactor,
		multi:     s.Multi,
	}
}

func (c hillshadeContext) single(sa SlopeAspect) float64 {
	return c.cosZenith*math.Cos(sa.Slope) + c.sinZen*math.Sin(sa.Slope)*math.Cos(c.azimuth-sa.Aspect)
}

func (c hillshadeContext) multiDirectional(sa SlopeAspect) float64 {
	a := c.cosZenith * math.Cos(sa.Slope)
	b := c.sinZen * math.Sin(sa.Slope)

	var sum float64
	for _, azimuth := range multiDirections {
		s := math.Sin(sa.Aspect - azimuth)
		sum += (a + b*math.Cos(azimuth-sa.Aspect)) * s * s
	}
	return sum / 2
}

// HillshadeValues returns the raw (unquantized) hillshade of every pixel,
// stretched when StretchStddev is non-zero.
func HillshadeValues(sample SampleFunc, s HillshadeSettings) []float64 {
	ctx := newHillshadeContext(s)
	values := make([]float64, s.Width*s.Height)

	shade := ctx.single
	if ctx.multi {
		shade = ctx.multiDirectional
	}

	ptr := 0
	for row := range s.Height {
		for col := range s.Width {
			d := CalculateDerivatives(sample, col, row, ctx.cellX, ctx.cellY)
			values[ptr] = shade(SlopeAspectFrom(d, ctx.zFactor))
			ptr++
		}
	}

	if s.StretchStddev != 0 {
		StretchStddev(values, s.StretchStddev)
	}
	return values
}

// Hillshade computes a hillshade image. The result holds one byte per
// pixel, or four when ColorOutput is set.
func Hillshade(sample SampleFunc, s HillshadeSettings) []uint8 {
	values := HillshadeValues(sample, s)

	stride := 1
	if s.ColorOutput {
		stride = 4
	}
	out := make([]uint8, len(values)*stride)

	ptr := 0
	for _, v := range values {
		gray := ClampByte(255 * clamp01(v))
		out[ptr] = gray
		ptr++
		if s.ColorOutput {
			out[ptr] = gray
			out[ptr+1] = gray
			out[ptr+2] = 255
			ptr += 3
		}
	}
	return out
}

// StretchStddev linearly remaps [mean-k·σ, mean+k·σ] onto [0, 1] in place
// and clamps. A zero-variance input is left unchanged.
func StretchStddev(values []float64, k float64) {
	if len(values) == 0 {
		return
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		dv := v - mean
		variance += dv * dv
	}
	stddev := math.Sqrt(variance / float64(len(values)))

	amount := stddev * k
	lo, hi := mean-amount, mean+amount
	if !(hi > lo) {
		return
	}

	for i, v := range values {
		values[i] = clamp01((v - lo) / (hi - lo))
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// ClampByte converts to a byte the way a clamped 8-bit buffer stores values:
// NaN becomes 0, the value is clamped to [0, 255] and rounded half to even.
func ClampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
