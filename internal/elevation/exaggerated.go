package elevation

import (
	"fmt"
	"math"
	"sync"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// Strategy selects how raw elevation is rescaled into display units.
type Strategy string

const (
	// RangeRemap maps the observed raw [zmin, zmax] onto the display Z range.
	RangeRemap Strategy = "range-remap"
	// Multiply scales raw Z by the exaggeration factor times the area scale.
	Multiply Strategy = "multiply"
)

// ParseStrategy validates a strategy name. An empty name selects RangeRemap.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", RangeRemap:
		return RangeRemap, nil
	case Multiply:
		return Multiply, nil
	}
	return "", fmt.Errorf("unknown exaggeration strategy %q", s)
}

// Transform is the linear rescale z' = (z + Offset) * Scale.
type Transform struct {
	Scale  float64
	Offset float64
}

// Apply rescales z.
func (t Transform) Apply(z float64) float64 {
	return (z + t.Offset) * t.Scale
}

// Ranger reports the raw Z range of a sampler's data.
type Ranger interface {
	ZRange() (zmin, zmax float64, ok bool)
}

// ExaggerationOptions configures an Exaggerated sampler.
type ExaggerationOptions struct {
	Strategy    Strategy
	Factor      float64
	DisplayArea geom.Extent
}

// Exaggerated wraps a base sampler and rescales every elevation it returns.
// The transform is recomputed when the display area changes; queries share
// one snapshot of it.
type Exaggerated struct {
	base     Sampler
	strategy Strategy
	factor   float64

	zmin, zmax float64
	hasRange   bool

	mu        sync.RWMutex
	display   geom.Extent
	transform Transform
}

// rangeProbe is the per-axis probe count used when the base sampler cannot
// report its own Z range.
const rangeProbe = 64

// NewExaggerated wraps base. The raw Z range is computed once here.
func NewExaggerated(base Sampler, opts ExaggerationOptions) (*Exaggerated, error) {
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}
	e := &Exaggerated{
		base:     base,
		strategy: strategy,
		factor:   opts.Factor,
	}
	if r, ok := base.(Ranger); ok {
		e.zmin, e.zmax, e.hasRange = r.ZRange()
	} else {
		e.zmin, e.zmax, e.hasRange = probeRange(base)
	}
	if err := e.SetDisplayArea(opts.DisplayArea); err != nil {
		return nil, err
	}
	return e, nil
}

func probeRange(s Sampler) (zmin, zmax float64, ok bool) {
	ext := s.Extent()
	nd := s.NoDataValue()
	zmin, zmax = math.Inf(1), math.Inf(-1)
	for j := range rangeProbe {
		y := ext.Ymin + ext.Height()*float64(j)/float64(rangeProbe-1)
		for i := range rangeProbe {
			x := ext.Xmin + ext.Width()*float64(i)/float64(rangeProbe-1)
			z := s.ElevationAt(x, y)
			if z == nd || math.IsNaN(z) {
				continue
			}
			zmin = min(zmin, z)
			zmax = max(zmax, z)
			ok = true
		}
	}
	return zmin, zmax, ok
}

// SetDisplayArea recomputes the transform for a new display area.
func (e *Exaggerated) SetDisplayArea(display geom.Extent) error {
	t, err := e.computeTransform(display)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.display = display
	e.transform = t
	e.mu.Unlock()
	return nil
}

func (e *Exaggerated) computeTransform(display geom.Extent) (Transform, error) {
	switch e.strategy {
	case Multiply:
		scale, err := geom.AreaScale(e.base.Extent(), display)
		if err != nil {
			return Transform{}, err
		}
		return Transform{Scale: e.factor * scale}, nil
	default:
		if !(display.Depth() > 0) {
			return Transform{}, fmt.Errorf("%w: range-remap needs a positive display Z range, got %g..%g",
				geom.ErrInvalidExtent, display.Zmin, display.Zmax)
		}
		if !e.hasRange {
			return Transform{Scale: 1}, nil
		}
		if e.zmax == e.zmin {
			// Flat data lands on the display floor.
			return Transform{Scale: 1, Offset: display.Zmin - e.zmin}, nil
		}
		scale := display.Depth() / (e.zmax - e.zmin)
		return Transform{Scale: scale, Offset: display.Zmin/scale - e.zmin}, nil
	}
}

// Transform returns the transform currently in effect.
func (e *Exaggerated) Transform() Transform {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transform
}

// DisplayArea returns the display area the transform was computed for.
func (e *Exaggerated) DisplayArea() geom.Extent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.display
}

// Strategy returns the rescale strategy.
func (e *Exaggerated) Strategy() Strategy { return e.strategy }

// Factor returns the multiply strategy's exaggeration factor.
func (e *Exaggerated) Factor() float64 { return e.factor }

// DisplayZ returns a function mapping raw elevation to display Z with the
// current transform. No-data passes through.
func (e *Exaggerated) DisplayZ() func(float64) float64 {
	t := e.Transform()
	nd := e.base.NoDataValue()
	return func(z float64) float64 {
		if z == nd {
			return z
		}
		return t.Apply(z)
	}
}

// ElevationAt returns the rescaled elevation. No-data passes through.
func (e *Exaggerated) ElevationAt(x, y float64) float64 {
	z := e.base.ElevationAt(x, y)
	if z == e.base.NoDataValue() {
		return z
	}
	return e.Transform().Apply(z)
}

// RawElevationAt returns the base sampler's elevation.
func (e *Exaggerated) RawElevationAt(x, y float64) float64 {
	return e.base.ElevationAt(x, y)
}

// QueryElevation samples g on the base sampler and rescales every Z with a
// single transform snapshot.
func (e *Exaggerated) QueryElevation(g Geometry) Geometry {
	t := e.Transform()
	nd := e.base.NoDataValue()
	return mapZ(g, func(v geom.Vec3) float64 {
		z := e.base.ElevationAt(v.X, v.Y)
		if z == nd {
			return z
		}
		return t.Apply(z)
	})
}

// Extent returns the source area of the base sampler.
func (e *Exaggerated) Extent() geom.Extent { return e.base.Extent() }

// Area is an alias of Extent.
func (e *Exaggerated) Area() geom.Extent { return e.base.Extent() }

// NoDataValue returns the base sampler's sentinel.
func (e *Exaggerated) NoDataValue() float64 { return e.base.NoDataValue() }

// Base returns the wrapped sampler.
func (e *Exaggerated) Base() Sampler { return e.base }

// SourceZRange returns the raw Z range observed at construction.
func (e *Exaggerated) SourceZRange() (zmin, zmax float64, ok bool) {
	return e.zmin, e.zmax, e.hasRange
}

// SourceZmax returns the raw maximum, or NaN when the data is all no-data.
func (e *Exaggerated) SourceZmax() float64 {
	if !e.hasRange {
		return math.NaN()
	}
	return e.zmax
}
