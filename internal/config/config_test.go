package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/texture"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Resolution defaults
	if cfg.Resolution.Sampling != 512 {
		t.Errorf("expected sampling 512, got %d", cfg.Resolution.Sampling)
	}
	if cfg.Resolution.ElevationMesh != 256 {
		t.Errorf("expected elevation mesh 256, got %d", cfg.Resolution.ElevationMesh)
	}
	if cfg.Resolution.WaterSurface != 64 {
		t.Errorf("expected water surface 64, got %d", cfg.Resolution.WaterSurface)
	}

	// Display area defaults
	if cfg.DisplayArea.Width() != 100 || cfg.DisplayArea.Depth() != 50 {
		t.Errorf("expected display 100 wide and 50 deep, got %v", cfg.DisplayArea)
	}

	// Shading defaults
	if cfg.Shading.Mode != "multi-hillshade" {
		t.Errorf("expected multi-hillshade, got %s", cfg.Shading.Mode)
	}
	if cfg.Shading.TerrainColorSaturation != 1.5 {
		t.Errorf("expected saturation 1.5, got %f", cfg.Shading.TerrainColorSaturation)
	}
	if len(cfg.Shading.ColorRamp) != 11 {
		t.Errorf("expected 11 ramp stops, got %d", len(cfg.Shading.ColorRamp))
	}

	if cfg.Exaggeration.Strategy != "range-remap" {
		t.Errorf("expected range-remap, got %s", cfg.Exaggeration.Strategy)
	}
	if cfg.Water.Seed != 123 || len(cfg.Water.Harmonics) != 2 {
		t.Errorf("unexpected water defaults: %+v", cfg.Water)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache enabled by default")
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "diorama.yaml")

	yamlContent := `
source:
  extent: java

display_area:
  xmax: 200
  zmax: 80

resolution:
  sampling: 256
  elevation_mesh: 128

shading:
  mode: normals
  color_ramp:
    - offset: 0
      color: "#022659"
    - offset: 1
      color: "#a7cef2"

exaggeration:
  strategy: multiply
  factor: 20

water:
  seed: 9
  harmonics:
    - wave_length: 2
      amplitude: 1

cache:
  enabled: false
  path: /tmp/diorama-cache.db

logging:
  level: "debug"
  log_file: "diorama.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Source.Extent != "java" {
		t.Errorf("expected extent java, got %s", cfg.Source.Extent)
	}
	// Unset fields keep their defaults.
	if cfg.DisplayArea.Xmax != 200 || cfg.DisplayArea.Ymax != 100 || cfg.DisplayArea.Zmax != 80 {
		t.Errorf("unexpected display area %v", cfg.DisplayArea)
	}
	if cfg.Resolution.Sampling != 256 || cfg.Resolution.ElevationMesh != 128 || cfg.Resolution.ColorTexture != 512 {
		t.Errorf("unexpected resolution %+v", cfg.Resolution)
	}
	if len(cfg.Shading.ColorRamp) != 2 {
		t.Fatalf("expected 2 ramp stops, got %d", len(cfg.Shading.ColorRamp))
	}
	if got := cfg.Shading.ColorRamp[1].Hex(); got != "#a7cef2" {
		t.Errorf("expected #a7cef2, got %s", got)
	}
	if len(cfg.Water.Harmonics) != 1 || cfg.Water.Harmonics[0].WaveLength != 2 {
		t.Errorf("unexpected harmonics %+v", cfg.Water.Harmonics)
	}
	if cfg.Cache.Enabled {
		t.Error("expected cache disabled")
	}
	if cfg.CachePath() != "/tmp/diorama-cache.db" {
		t.Errorf("unexpected cache path %s", cfg.CachePath())
	}
	if cfg.Logging.LogFile != "diorama.log" {
		t.Errorf("expected log file 'diorama.log', got %s", cfg.Logging.LogFile)
	}

	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Shading != texture.Normals {
		t.Errorf("expected normals, got %s", p.Shading)
	}
	if p.Exaggeration != elevation.Multiply || p.ExaggerationFactor != 20 {
		t.Errorf("unexpected exaggeration %s x%g", p.Exaggeration, p.ExaggerationFactor)
	}
	java, _ := LookupExtent("java")
	if p.SourceArea != java.Area {
		t.Errorf("expected java area, got %v", p.SourceArea)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
resolution:
  sampling: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileBadColor(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	content := "shading:\n  color_ramp:\n    - offset: 0\n      color: \"not-a-color\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error for malformed hex color")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero display width", func(c *Config) { c.DisplayArea.Xmax = c.DisplayArea.Xmin }},
		{"zero display height", func(c *Config) { c.DisplayArea.Ymax = 0 }},
		{"unknown shading", func(c *Config) { c.Shading.Mode = "toon" }},
		{"unknown strategy", func(c *Config) { c.Exaggeration.Strategy = "log" }},
		{"unknown extent", func(c *Config) { c.Source.Extent = "atlantis" }},
		{"negative mesh", func(c *Config) { c.Resolution.ElevationMesh = -1 }},
		{"empty ramp", func(c *Config) { c.Shading.ColorRamp = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSourceArea(t *testing.T) {
	cfg := Default()
	area, err := cfg.SourceArea()
	if err != nil {
		t.Fatalf("source area: %v", err)
	}
	if area.WKID != geom.WebMercator || area.Width() <= 0 {
		t.Errorf("unexpected mariana area %v", area)
	}

	explicit := geom.Extent{Xmin: 0, Ymin: 0, Xmax: 10, Ymax: 10, WKID: geom.WebMercator}
	cfg.Source.Area = &explicit
	area, _ = cfg.SourceArea()
	if area != explicit {
		t.Errorf("expected explicit area to win, got %v", area)
	}

	cfg.Source = SourceConfig{}
	area, err = cfg.SourceArea()
	if err != nil || !area.IsZero() {
		t.Errorf("expected zero area, got %v (%v)", area, err)
	}
}

func TestExtents(t *testing.T) {
	all := Extents()
	if len(all) != 5 {
		t.Fatalf("expected 5 extents, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Errorf("extents not sorted: %s before %s", all[i-1].Key, all[i].Key)
		}
	}
	for _, e := range all {
		if err := e.Area.Validate(); err != nil {
			t.Errorf("%s: %v", e.Key, err)
		}
	}

	e, ok := LookupExtent("Puerto Rico Trench")
	if !ok || e.Key != "puerto-rico" {
		t.Errorf("lookup by name failed: %+v", e)
	}
	if _, ok := LookupExtent("  MOLLOY-HOLE "); !ok {
		t.Error("lookup by key should ignore case and spaces")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Source.Extent = "south-sandwich"
	cfg.Shading.Mode = "hillshade"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(&Flags{Config: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Source.Extent != "south-sandwich" || loaded.Shading.Mode != "hillshade" {
		t.Errorf("roundtrip lost values: %+v", loaded.Source)
	}
	if len(loaded.Shading.ColorRamp) != len(cfg.Shading.ColorRamp) {
		t.Fatalf("ramp length changed: %d", len(loaded.Shading.ColorRamp))
	}
	for i, s := range loaded.Shading.ColorRamp {
		if s.Hex() != cfg.Shading.ColorRamp[i].Hex() || s.Offset != cfg.Shading.ColorRamp[i].Offset {
			t.Errorf("stop %d: got %s@%g", i, s.Hex(), s.Offset)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("diorama.yaml", []byte("resolution:\n  sampling: 64\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find diorama.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "extent replaces explicit area",
			args: []string{"-extent", "java"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Source.Extent != "java" || cfg.Source.Area != nil {
					t.Errorf("unexpected source %+v", cfg.Source)
				}
			},
		},
		{
			name: "shading and exaggeration",
			args: []string{"-shading", "none", "-exaggeration", "multiply", "-factor", "3"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Shading.Mode != "none" {
					t.Errorf("expected shading none, got %s", cfg.Shading.Mode)
				}
				if cfg.Exaggeration.Strategy != "multiply" || cfg.Exaggeration.Factor != 3 {
					t.Errorf("unexpected exaggeration %+v", cfg.Exaggeration)
				}
			},
		},
		{
			name: "resolutions",
			args: []string{"-mesh", "64", "-texture", "128"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Resolution.ElevationMesh != 64 || cfg.Resolution.ColorTexture != 128 {
					t.Errorf("unexpected resolution %+v", cfg.Resolution)
				}
			},
		},
		{
			name: "no cache and output",
			args: []string{"-no-cache", "-o", "renders"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Enabled {
					t.Error("expected cache disabled")
				}
				if cfg.Output.Dir != "renders" {
					t.Errorf("expected output renders, got %s", cfg.Output.Dir)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := Default()
			cfg.Source.Area = &geom.Extent{Xmax: 1, Ymax: 1}
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
resolution:
  elevation_mesh: 100
  color_texture: 300
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{Config: configPath, Mesh: 64})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Mesh from flag, not file
	if cfg.Resolution.ElevationMesh != 64 {
		t.Errorf("expected mesh 64 from flag, got %d", cfg.Resolution.ElevationMesh)
	}
	// Texture from file since no flag override
	if cfg.Resolution.ColorTexture != 300 {
		t.Errorf("expected texture 300 from file, got %d", cfg.Resolution.ColorTexture)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("shading:\n  mode: toon\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(&Flags{Config: configPath}); err == nil {
		t.Error("expected invalid shading mode to fail Load")
	}
}
