package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/trench-diorama/internal/config"
	"github.com/Faultbox/trench-diorama/internal/export"
	"github.com/Faultbox/trench-diorama/internal/logger"
	"github.com/Faultbox/trench-diorama/internal/texture"
	"github.com/Faultbox/trench-diorama/pkg/raster"
)

// hillshadeOptions controls a standalone hillshade render.
type hillshadeOptions struct {
	size     int
	expand   float64
	azimuth  float64
	altitude float64
	multi    bool
	stretch  float64
}

func cmdHillshade(ctx context.Context, args []string) error {
	fs := newFlagSet("hillshade")
	f := config.RegisterFlags(fs)
	var o hillshadeOptions
	fs.IntVar(&o.size, "size", 512, "Output image size along the longer side")
	fs.Float64Var(&o.expand, "expand", 1, "Scale the area around its center before rendering")
	fs.BoolVar(&o.multi, "multi", false, "Blend four light directions")
	fs.Float64Var(&o.azimuth, "azimuth", raster.DefaultAzimuth, "Light azimuth in degrees")
	fs.Float64Var(&o.altitude, "altitude", raster.DefaultAltitude, "Light altitude in degrees")
	fs.Float64Var(&o.stretch, "stretch", 0, "Stddev contrast stretch multiplier (0 = off)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.size <= 0 {
		return fmt.Errorf("size %d: must be positive", o.size)
	}
	if !(o.expand > 0) {
		return fmt.Errorf("expand %g: must be positive", o.expand)
	}

	e, err := setup(f)
	if err != nil {
		return err
	}
	defer e.close()

	targets, err := e.targets(fs.Args())
	if err != nil {
		return err
	}

	for _, t := range targets {
		path, err := e.hillshade(ctx, t, o)
		if err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

// hillshade renders the hillshade of one target to a PNG and returns its path.
func (e *env) hillshade(ctx context.Context, t target, o hillshadeOptions) (string, error) {
	area := t.area.Expand(o.expand)
	demResolution := math.Max(area.Width(), area.Height()) / float64(e.cfg.Resolution.Sampling)
	s, err := e.provider.CreateSampler(ctx, area, demResolution)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.key, err)
	}

	scale := float64(o.size) / math.Max(area.Width(), area.Height())
	w := max(int(math.Round(area.Width()*scale)), 1)
	h := max(int(math.Round(area.Height()*scale)), 1)
	grid := raster.NewGrid(w, h, area, s.ElevationAt)

	settings := raster.DefaultHillshadeSettings(w, h, area)
	settings.Azimuth = o.azimuth
	settings.Altitude = o.altitude
	settings.Multi = o.multi
	settings.StretchStddev = o.stretch
	settings.ColorOutput = true

	img := texture.FromPixels(w, h, raster.Hillshade(grid.Sample, settings))
	path := filepath.Join(e.cfg.Output.Dir, t.key+"_hillshade.png")
	if err := export.WritePNG(path, export.FlipVertical(img)); err != nil {
		return "", err
	}
	logger.Info("hillshade written", zap.String("path", path), zap.Int("width", w), zap.Int("height", h))
	return path, nil
}
