// Package gradient provides piecewise-linear color ramps and the lookup
// images derived from them.
package gradient

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// StripHeight is the number of texels in a 1D lookup strip.
const StripHeight = 256

// RGB is a color with channels in [0, 255].
type RGB [3]float64

// Stop is a single color stop of a ramp.
type Stop struct {
	Offset float64
	Color  RGB
	Alpha  float64 // 0..1
}

// NewStop builds an opaque stop from 8-bit channels.
func NewStop(offset float64, r, g, b uint8) Stop {
	return Stop{Offset: offset, Color: RGB{float64(r), float64(g), float64(b)}, Alpha: 1}
}

// HexStop builds an opaque stop from a "#rrggbb" string.
func HexStop(offset float64, hex string) (Stop, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Stop{}, fmt.Errorf("stop %g: %w", offset, err)
	}
	r, g, b := c.RGB255()
	return NewStop(offset, r, g, b), nil
}

// Hex returns the stop color as "#rrggbb".
func (s Stop) Hex() string {
	return colorful.Color{R: s.Color[0] / 255, G: s.Color[1] / 255, B: s.Color[2] / 255}.Clamped().Hex()
}

// MustHexStop is HexStop for literal tables.
func MustHexStop(offset float64, hex string) Stop {
	s, err := HexStop(offset, hex)
	if err != nil {
		panic(err)
	}
	return s
}

type stopYAML struct {
	Offset float64  `yaml:"offset"`
	Color  string   `yaml:"color"`
	Alpha  *float64 `yaml:"alpha,omitempty"`
}

// UnmarshalYAML reads a stop written as {offset, color: "#rrggbb", alpha}.
func (s *Stop) UnmarshalYAML(value *yaml.Node) error {
	var raw stopYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	stop, err := HexStop(raw.Offset, raw.Color)
	if err != nil {
		return err
	}
	if raw.Alpha != nil {
		stop.Alpha = *raw.Alpha
	}
	*s = stop
	return nil
}

// MarshalYAML writes the stop in the same form UnmarshalYAML accepts.
func (s Stop) MarshalYAML() (interface{}, error) {
	raw := stopYAML{Offset: s.Offset, Color: s.Hex()}
	if s.Alpha != 1 {
		a := s.Alpha
		raw.Alpha = &a
	}
	return raw, nil
}

func (s Stop) rgba() [4]float64 {
	return [4]float64{s.Color[0], s.Color[1], s.Color[2], s.Alpha}
}

// Ramp interpolates linearly between ordered stops.
type Ramp struct {
	stops  []Stop
	colors [][4]float64
}

// NewRamp creates a ramp. Offsets must be non-decreasing.
func NewRamp(stops []Stop) Ramp {
	colors := make([][4]float64, len(stops))
	for i, s := range stops {
		colors[i] = s.rgba()
	}
	return Ramp{stops: append([]Stop(nil), stops...), colors: colors}
}

// Stops returns a copy of the ramp's stops.
func (r Ramp) Stops() []Stop {
	return append([]Stop(nil), r.stops...)
}

// At returns the interpolated color for value. Values outside the stop
// range clamp to the first or last color.
func (r Ramp) At(value float64) RGB {
	c := r.eval(value)
	return RGB{c[0], c[1], c[2]}
}

// NRGBA returns the interpolated color including alpha, quantized to 8 bits.
func (r Ramp) NRGBA(value float64) color.NRGBA {
	c := r.eval(value)
	return color.NRGBA{R: clamp8(c[0]), G: clamp8(c[1]), B: clamp8(c[2]), A: clamp8(c[3] * 255)}
}

func (r Ramp) eval(value float64) [4]float64 {
	if len(r.stops) == 0 {
		return [4]float64{}
	}
	for i, stop := range r.stops {
		if value > stop.Offset {
			continue
		}
		if i == 0 || value == stop.Offset {
			return r.colors[i]
		}
		prev := r.stops[i-1]
		if prev.Offset == stop.Offset {
			return r.colors[i]
		}
		f := (value - prev.Offset) / (stop.Offset - prev.Offset)
		c1, c2 := r.colors[i-1], r.colors[i]
		var ret [4]float64
		for c := range ret {
			ret[c] = c1[c]*(1-f) + c2[c]*f
		}
		return ret
	}
	return r.colors[len(r.colors)-1]
}

// Strip rasterizes the ramp into a 1xStripHeight opaque image, top row at
// offset 0, sampled at texel centers.
func Strip(stops []Stop) *image.NRGBA {
	ramp := NewRamp(stops)
	img := image.NewNRGBA(image.Rect(0, 0, 1, StripHeight))
	for y := range StripHeight {
		c := ramp.NRGBA((float64(y) + 0.5) / StripHeight)
		c.A = 255
		img.SetNRGBA(0, y, c)
	}
	return img
}

// GlassStops is the transparency falloff used on the glass box.
var GlassStops = []Stop{
	{Offset: 0, Color: RGB{255, 255, 255}, Alpha: 0},
	{Offset: 0.5, Color: RGB{180, 255, 255}, Alpha: 0},
	{Offset: 1, Color: RGB{0, 163, 163}, Alpha: 1},
}

// Glass renders the radial glass gradient on a size x size image. The
// center is shifted right and up by 15% so the falloff reads as a highlight.
func Glass(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	if size <= 0 {
		return img
	}
	ramp := NewRamp(GlassStops)

	w, h := float64(size), float64(size)
	cx := w/2 + w*0.15
	cy := h/2 - h*0.15
	radius := math.Sqrt(w*w+h*h) / 2 * 1.6

	for y := range size {
		for x := range size {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			img.SetNRGBA(x, y, ramp.NRGBA(math.Hypot(dx, dy)/radius))
		}
	}
	return img
}

func clamp8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
