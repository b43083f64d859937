package elevation

import (
	"context"
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// TileFetcher produces raw elevation tiles for an area.
type TileFetcher interface {
	Name() string
	NoDataValue() float64
	FetchTiles(ctx context.Context, area geom.Extent, demResolution float64) ([]Tile, error)
}

// NewSampler fetches tiles from f and wraps them in a GridSampler.
func NewSampler(ctx context.Context, f TileFetcher, area geom.Extent, demResolution float64) (*GridSampler, error) {
	if err := area.Validate(); err != nil {
		return nil, err
	}
	if !(demResolution > 0) || math.IsInf(demResolution, 0) {
		return nil, fmt.Errorf("dem resolution %v: %w", demResolution, geom.ErrInvalidExtent)
	}
	tiles, err := f.FetchTiles(ctx, area, demResolution)
	if err != nil {
		return nil, fmt.Errorf("fetch %s tiles: %w", f.Name(), err)
	}
	return NewGridSampler(area, demResolution, f.NoDataValue(), tiles)
}

// FuncProvider samples an analytic elevation function.
type FuncProvider struct {
	Label  string
	NoData float64
	Fn     func(x, y float64) float64
}

// Name returns the provider label.
func (p *FuncProvider) Name() string {
	if p.Label == "" {
		return "func"
	}
	return p.Label
}

// NoDataValue returns the no-data sentinel.
func (p *FuncProvider) NoDataValue() float64 {
	if p.NoData == 0 {
		return DefaultNoData
	}
	return p.NoData
}

// FetchTiles evaluates Fn on every node of the area's tile layout.
func (p *FuncProvider) FetchTiles(ctx context.Context, area geom.Extent, demResolution float64) ([]Tile, error) {
	extents, sizes := Layout(area, demResolution)
	tiles := make([]Tile, len(extents))
	for i, ext := range extents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, h := sizes[i][0], sizes[i][1]
		values := make([]float64, w*h)
		for row := range h {
			y := ext.Ymin + ext.Height()*float64(row)/float64(h-1)
			for col := range w {
				x := ext.Xmin + ext.Width()*float64(col)/float64(w-1)
				values[row*w+col] = p.Fn(x, y)
			}
		}
		tiles[i] = Tile{Extent: ext, Width: w, Height: h, Values: values, NoData: p.NoDataValue()}
	}
	return tiles, nil
}

// CreateSampler implements Provider.
func (p *FuncProvider) CreateSampler(ctx context.Context, area geom.Extent, demResolution float64) (Sampler, error) {
	return NewSampler(ctx, p, area, demResolution)
}

// Constant returns a provider that reports z everywhere.
func Constant(z float64) *FuncProvider {
	return &FuncProvider{
		Label: fmt.Sprintf("constant(%g)", z),
		Fn:    func(float64, float64) float64 { return z },
	}
}

// Bathymetry shapes a synthetic trench.
type Bathymetry struct {
	Seed        int64
	FloorDepth  float64 // abyssal plain, negative
	TrenchDepth float64 // deepest point, negative
	TrenchWidth float64 // relative to the area's shorter side
	ArcHeight   float64 // island arc rise above the floor
	Roughness   float64 // floor noise amplitude
}

// DefaultBathymetry resembles a Pacific subduction trench.
func DefaultBathymetry() Bathymetry {
	return Bathymetry{
		Seed:        7,
		FloorDepth:  -5500,
		TrenchDepth: -10900,
		TrenchWidth: 0.08,
		ArcHeight:   3800,
		Roughness:   700,
	}
}

// NoiseProvider generates trench bathymetry offline from coherent noise.
// Features are laid out relative to each requested area so that any area
// shows a trench running across it.
type NoiseProvider struct {
	shape  Bathymetry
	noData float64
	noise  opensimplex.Noise
}

// NewNoiseProvider creates a noise provider.
func NewNoiseProvider(shape Bathymetry, noData float64) *NoiseProvider {
	if noData == 0 {
		noData = DefaultNoData
	}
	return &NoiseProvider{
		shape:  shape,
		noData: noData,
		noise:  opensimplex.New(shape.Seed),
	}
}

// Name implements TileFetcher. It covers every shape parameter so cached
// tiles never outlive a shape change.
func (p *NoiseProvider) Name() string {
	b := p.shape
	return fmt.Sprintf("noise-%d-%g-%g-%g-%g-%g", b.Seed, b.FloorDepth, b.TrenchDepth, b.TrenchWidth, b.ArcHeight, b.Roughness)
}

// NoDataValue implements TileFetcher.
func (p *NoiseProvider) NoDataValue() float64 { return p.noData }

// FetchTiles implements TileFetcher.
func (p *NoiseProvider) FetchTiles(ctx context.Context, area geom.Extent, demResolution float64) ([]Tile, error) {
	fn := &FuncProvider{
		Label:  p.Name(),
		NoData: p.noData,
		Fn:     func(x, y float64) float64 { return p.depthAt(area, x, y) },
	}
	return fn.FetchTiles(ctx, area, demResolution)
}

// CreateSampler implements Provider.
func (p *NoiseProvider) CreateSampler(ctx context.Context, area geom.Extent, demResolution float64) (Sampler, error) {
	return NewSampler(ctx, p, area, demResolution)
}

func (p *NoiseProvider) depthAt(area geom.Extent, x, y float64) float64 {
	s := p.shape
	u := (x - area.Xmin) / area.Width()
	v := (y - area.Ymin) / area.Height()

	// Axis bends gently across the area.
	axis := 0.5 + 0.12*math.Sin(2*math.Pi*0.8*u) + 0.05*p.noise.Eval2(u*1.5, 11.3)
	d := v - axis

	width := s.TrenchWidth
	if width <= 0 {
		width = 0.08
	}

	z := s.FloorDepth + s.Roughness*p.fbm(u*4, v*4, 4)
	z += (s.TrenchDepth - s.FloorDepth) * math.Exp(-(d*d)/(width*width))

	arc := d + 3*width
	ridge := 0.6 + 0.4*p.noise.Eval2(u*6, v*6+40)
	z += s.ArcHeight * ridge * math.Exp(-(arc*arc)/(0.6*width*width))
	return z
}

func (p *NoiseProvider) fbm(x, y float64, octaves int) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for range octaves {
		sum += amp * p.noise.Eval2(x*freq, y*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}
