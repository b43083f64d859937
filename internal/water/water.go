// Package water provides the top surface of the diorama box: a flat ground
// plane or an undulating sea surface, plus the geometry for both.
package water

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// DefaultTopFraction places the top surface at this fraction of the display
// height.
const DefaultTopFraction = 0.65

// GlassPlaneOffset lowers the glass top plane below the ground surface.
const GlassPlaneOffset = 0.5

// Kind selects the top surface variant.
type Kind int

const (
	Ground Kind = iota
	Water
)

func (k Kind) String() string {
	if k == Water {
		return "water"
	}
	return "ground"
}

// Select returns Water when the raw source data lies entirely below sea
// level.
func Select(sourceZmax float64) Kind {
	if sourceZmax < 0 {
		return Water
	}
	return Ground
}

// Harmonic is one octave of the water surface noise.
type Harmonic struct {
	WaveLength float64 `yaml:"wave_length"`
	Amplitude  float64 `yaml:"amplitude"`
}

// DefaultHarmonics gives a long swell with a short chop on top.
func DefaultHarmonics() []Harmonic {
	return []Harmonic{
		{WaveLength: 0.87, Amplitude: 5},
		{WaveLength: 3, Amplitude: 0.6},
	}
}

// Sampler returns the top surface Z at a display coordinate.
type Sampler func(x, y float64) float64

// TopZ is the resting height of the top surface.
func TopZ(display geom.Extent, fraction float64) float64 {
	return display.Height() * fraction
}

// NewGround returns a flat surface at z.
func NewGround(z float64) Sampler {
	return func(float64, float64) float64 { return z }
}

// NewWater returns a seeded multi-octave noise surface resting at z.
// Coordinates are normalized to [0, 1] over display before sampling, so the
// surface is identical for every display area with the same seed.
func NewWater(display geom.Extent, z float64, seed int64, harmonics []Harmonic) Sampler {
	noise := opensimplex.New(seed)
	xmin, ymin := display.Xmin, display.Ymin
	w, h := display.Width(), display.Height()
	hs := append([]Harmonic(nil), harmonics...)

	return func(x, y float64) float64 {
		xn := (x - xmin) / w
		yn := (y - ymin) / h
		out := z
		for _, hm := range hs {
			zn := noise.Eval2(xn*hm.WaveLength, yn*hm.WaveLength)
			out += (zn + 1) / 2 * hm.Amplitude
		}
		return out
	}
}

// MaxRise returns the largest height the harmonics can add above the
// resting level.
func MaxRise(harmonics []Harmonic) float64 {
	var rise float64
	for _, hm := range harmonics {
		rise += math.Abs(hm.Amplitude)
	}
	return rise
}

// BuildSurface tessellates display into resolution x resolution closed
// quad rings with Z from s.
func BuildSurface(display geom.Extent, resolution int, s Sampler) *scene.Polygon {
	resolution = max(resolution, 1)
	stepX := display.Width() / float64(resolution)
	stepY := display.Height() / float64(resolution)

	at := func(x, y float64) geom.Vec3 {
		return geom.Vec3{X: x, Y: y, Z: s(x, y)}
	}

	rings := make([][]geom.Vec3, 0, resolution*resolution)
	for py := range resolution {
		y := display.Ymin + stepY*float64(py)
		for px := range resolution {
			x := display.Xmin + stepX*float64(px)
			rings = append(rings, []geom.Vec3{
				at(x, y),
				at(x, y+stepY),
				at(x+stepX, y+stepY),
				at(x+stepX, y),
				at(x, y),
			})
		}
	}
	return &scene.Polygon{Rings: rings, WKID: display.WKID}
}

// BuildPlane creates a horizontal quad covering display at height z.
// Order: SW, SE, NE, NW.
func BuildPlane(display geom.Extent, z float64) *scene.Mesh {
	return &scene.Mesh{
		Position: []float64{
			display.Xmin, display.Ymin, z,
			display.Xmax, display.Ymin, z,
			display.Xmax, display.Ymax, z,
			display.Xmin, display.Ymax, z,
		},
		UV: []float32{
			0, 1,
			1, 1,
			1, 0,
			0, 0,
		},
		Components: []scene.Component{{Faces: []uint32{0, 1, 2, 0, 2, 3}}},
		WKID:       display.WKID,
	}
}
