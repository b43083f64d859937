// Package config handles diorama configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/trench-diorama/internal/diorama"
	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/texture"
	"github.com/Faultbox/trench-diorama/internal/water"
	"github.com/Faultbox/trench-diorama/pkg/geom"
	"github.com/Faultbox/trench-diorama/pkg/gradient"
)

// Config holds all diorama settings.
type Config struct {
	Source               SourceConfig       `yaml:"source"`
	DisplayArea          geom.Extent        `yaml:"display_area"`
	Resolution           ResolutionConfig   `yaml:"resolution"`
	Shading              ShadingConfig      `yaml:"shading"`
	Exaggeration         ExaggerationConfig `yaml:"exaggeration"`
	SurfacePaddingBottom float64            `yaml:"surface_padding_bottom"`
	TopSurfaceFraction   float64            `yaml:"top_surface_fraction"`
	Water                WaterConfig        `yaml:"water"`
	Provider             ProviderConfig     `yaml:"provider"`
	Cache                CacheConfig        `yaml:"cache"`
	Output               OutputConfig       `yaml:"output"`
	Logging              LoggingConfig      `yaml:"logging"`
}

// SourceConfig selects the geographic area to sample. An explicit Area
// wins over a named Extent.
type SourceConfig struct {
	Extent string       `yaml:"extent"`
	Area   *geom.Extent `yaml:"area,omitempty"`
}

// ResolutionConfig holds pixel and grid resolutions of every stage.
type ResolutionConfig struct {
	Sampling      int `yaml:"sampling"`
	ColorTexture  int `yaml:"color_texture"`
	ElevationMesh int `yaml:"elevation_mesh"`
	WaterSurface  int `yaml:"water_surface"`
	GlassTexture  int `yaml:"glass_texture"`
}

// ShadingConfig holds terrain texture settings.
type ShadingConfig struct {
	Mode                   string          `yaml:"mode"`
	HillshadeStretchStddev float64         `yaml:"hillshade_stretch_stddev"`
	TerrainColorSaturation float64         `yaml:"terrain_color_saturation"`
	ColorRamp              []gradient.Stop `yaml:"color_ramp"`
	CausticsSeed           int64           `yaml:"caustics_seed"`
}

// ExaggerationConfig selects how elevation is scaled into the display box.
type ExaggerationConfig struct {
	Strategy string  `yaml:"strategy"`
	Factor   float64 `yaml:"factor"` // used by the multiply strategy
}

// WaterConfig holds the procedural water surface settings.
type WaterConfig struct {
	Seed      int64            `yaml:"seed"`
	Harmonics []water.Harmonic `yaml:"harmonics"`
}

// ProviderConfig shapes the synthetic bathymetry used as elevation source.
type ProviderConfig struct {
	Seed        int64   `yaml:"seed"`
	NoDataValue float64 `yaml:"no_data_value"`
	FloorDepth  float64 `yaml:"floor_depth"`
	TrenchDepth float64 `yaml:"trench_depth"`
	TrenchWidth float64 `yaml:"trench_width"`
	ArcHeight   float64 `yaml:"arc_height"`
	Roughness   float64 `yaml:"roughness"`
}

// CacheConfig holds the mesh and tile cache settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means <ConfigDir>/cache.db
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	p := diorama.DefaultParams()
	b := elevation.DefaultBathymetry()
	return &Config{
		Source:      SourceConfig{Extent: "mariana"},
		DisplayArea: p.DisplayArea,
		Resolution: ResolutionConfig{
			Sampling:      p.SamplingResolution,
			ColorTexture:  p.ColorTextureResolution,
			ElevationMesh: p.MeshResolution,
			WaterSurface:  p.WaterSurfaceResolution,
			GlassTexture:  p.GlassTextureResolution,
		},
		Shading: ShadingConfig{
			Mode:                   string(p.Shading),
			HillshadeStretchStddev: p.StretchStddev,
			TerrainColorSaturation: p.Saturation,
			ColorRamp:              p.ColorRamp,
			CausticsSeed:           p.CausticsSeed,
		},
		Exaggeration: ExaggerationConfig{
			Strategy: string(p.Exaggeration),
			Factor:   p.ExaggerationFactor,
		},
		SurfacePaddingBottom: p.SurfacePaddingBottom,
		TopSurfaceFraction:   p.TopSurfaceFraction,
		Water: WaterConfig{
			Seed:      p.WaterSeed,
			Harmonics: p.WaterHarmonics,
		},
		Provider: ProviderConfig{
			Seed:        b.Seed,
			NoDataValue: elevation.DefaultNoData,
			FloorDepth:  b.FloorDepth,
			TrenchDepth: b.TrenchDepth,
			TrenchWidth: b.TrenchWidth,
			ArcHeight:   b.ArcHeight,
			Roughness:   b.Roughness,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// SourceArea resolves the configured source area. It returns a zero extent
// when neither an area nor a named extent is set.
func (c *Config) SourceArea() (geom.Extent, error) {
	if c.Source.Area != nil {
		return *c.Source.Area, nil
	}
	if c.Source.Extent == "" {
		return geom.Extent{}, nil
	}
	e, ok := LookupExtent(c.Source.Extent)
	if !ok {
		return geom.Extent{}, fmt.Errorf("unknown extent %q", c.Source.Extent)
	}
	return e.Area, nil
}

// Bathymetry returns the synthetic elevation shape.
func (c *Config) Bathymetry() elevation.Bathymetry {
	return elevation.Bathymetry{
		Seed:        c.Provider.Seed,
		FloorDepth:  c.Provider.FloorDepth,
		TrenchDepth: c.Provider.TrenchDepth,
		TrenchWidth: c.Provider.TrenchWidth,
		ArcHeight:   c.Provider.ArcHeight,
		Roughness:   c.Provider.Roughness,
	}
}

// Params converts the configuration into pipeline parameters.
func (c *Config) Params() (diorama.Params, error) {
	source, err := c.SourceArea()
	if err != nil {
		return diorama.Params{}, err
	}
	mode, err := texture.ParseMode(c.Shading.Mode)
	if err != nil {
		return diorama.Params{}, err
	}
	strategy, err := elevation.ParseStrategy(c.Exaggeration.Strategy)
	if err != nil {
		return diorama.Params{}, err
	}
	p := diorama.Params{
		SourceArea:             source,
		DisplayArea:            c.DisplayArea,
		SamplingResolution:     c.Resolution.Sampling,
		ColorTextureResolution: c.Resolution.ColorTexture,
		MeshResolution:         c.Resolution.ElevationMesh,
		WaterSurfaceResolution: c.Resolution.WaterSurface,
		GlassTextureResolution: c.Resolution.GlassTexture,
		Shading:                mode,
		ColorRamp:              c.Shading.ColorRamp,
		Saturation:             c.Shading.TerrainColorSaturation,
		StretchStddev:          c.Shading.HillshadeStretchStddev,
		CausticsSeed:           c.Shading.CausticsSeed,
		Exaggeration:           strategy,
		ExaggerationFactor:     c.Exaggeration.Factor,
		SurfacePaddingBottom:   c.SurfacePaddingBottom,
		TopSurfaceFraction:     c.TopSurfaceFraction,
		WaterSeed:              c.Water.Seed,
		WaterHarmonics:         c.Water.Harmonics,
	}
	if err := p.Validate(); err != nil {
		return diorama.Params{}, err
	}
	return p, nil
}

// Validate checks the configuration can drive the pipeline.
func (c *Config) Validate() error {
	_, err := c.Params()
	return err
}
