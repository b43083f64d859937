package config

import "flag"

// Flags holds command-line overrides registered on a flag set.
type Flags struct {
	Config       string
	Debug        bool
	Extent       string
	Shading      string
	Exaggeration string
	Factor       float64
	Mesh         int
	Texture      int
	NoCache      bool
	Output       string
}

// RegisterFlags adds the common overrides to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Extent, "extent", "", "Named source extent")
	fs.StringVar(&f.Shading, "shading", "", "Shading mode: none, hillshade, multi-hillshade, normals")
	fs.StringVar(&f.Exaggeration, "exaggeration", "", "Exaggeration strategy: range-remap, multiply")
	fs.Float64Var(&f.Factor, "factor", 0, "Exaggeration factor for the multiply strategy")
	fs.IntVar(&f.Mesh, "mesh", 0, "Elevation mesh resolution")
	fs.IntVar(&f.Texture, "texture", 0, "Color texture resolution")
	fs.BoolVar(&f.NoCache, "no-cache", false, "Disable the mesh and tile cache")
	fs.StringVar(&f.Output, "o", "", "Output directory")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Extent != "" {
		cfg.Source.Extent = f.Extent
		cfg.Source.Area = nil
	}
	if f.Shading != "" {
		cfg.Shading.Mode = f.Shading
	}
	if f.Exaggeration != "" {
		cfg.Exaggeration.Strategy = f.Exaggeration
	}
	if f.Factor > 0 {
		cfg.Exaggeration.Factor = f.Factor
	}
	if f.Mesh > 0 {
		cfg.Resolution.ElevationMesh = f.Mesh
	}
	if f.Texture > 0 {
		cfg.Resolution.ColorTexture = f.Texture
	}
	if f.NoCache {
		cfg.Cache.Enabled = false
	}
	if f.Output != "" {
		cfg.Output.Dir = f.Output
	}
}
