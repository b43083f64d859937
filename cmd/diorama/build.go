package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/trench-diorama/internal/cache"
	"github.com/Faultbox/trench-diorama/internal/config"
	"github.com/Faultbox/trench-diorama/internal/diorama"
	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/export"
	"github.com/Faultbox/trench-diorama/internal/logger"
	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// env is the shared setup of every command that samples elevation.
type env struct {
	cfg      *config.Config
	store    *cache.Store
	provider elevation.Provider
}

func setup(f *config.Flags) (*env, error) {
	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.CachePath(), cache.Options{Logger: logger.Log, Timeout: time.Second})
		if err != nil {
			// A locked or unreadable cache only costs speed.
			logger.Warn("cache disabled", zap.String("path", cfg.CachePath()), zap.Error(err))
			store = nil
		}
	}

	source := elevation.NewNoiseProvider(cfg.Bathymetry(), cfg.Provider.NoDataValue)
	return &env{
		cfg:      cfg,
		store:    store,
		provider: cache.NewCachedProvider(source, store, logger.Log),
	}, nil
}

func (e *env) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			logger.Warn("closing cache", zap.Error(err))
		}
	}
	logger.Sync()
}

// target is one area to build.
type target struct {
	key  string
	area geom.Extent
}

// targets resolves extent names from the command line, falling back to the
// configured source.
func (e *env) targets(names []string) ([]target, error) {
	if len(names) == 0 {
		area, err := e.cfg.SourceArea()
		if err != nil {
			return nil, err
		}
		if area.IsZero() {
			return nil, fmt.Errorf("no source extent configured")
		}
		key := e.cfg.Source.Extent
		if e.cfg.Source.Area != nil || key == "" {
			key = "custom"
		}
		return []target{{key: key, area: area}}, nil
	}

	out := make([]target, 0, len(names))
	for _, name := range names {
		if name == "all" {
			for _, ne := range config.Extents() {
				out = append(out, target{key: ne.Key, area: ne.Area})
			}
			continue
		}
		ne, ok := config.LookupExtent(name)
		if !ok {
			return nil, fmt.Errorf("unknown extent %q (see 'diorama extents')", name)
		}
		out = append(out, target{key: ne.Key, area: ne.Area})
	}
	return out, nil
}

// report is the summary of one build.
type report struct {
	key      string
	zmin     float64
	zmax     float64
	top      string
	files    int
	elapsed  time.Duration
	vertices int
}

func cmdBuild(ctx context.Context, args []string) error {
	fs := newFlagSet("build")
	f := config.RegisterFlags(fs)
	jobs := fs.Int("j", runtime.NumCPU(), "Build up to N extents in parallel")
	if err := fs.Parse(args); err != nil {
		return err
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
	params, err := e.cfg.Params()
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		reports []report
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*jobs, 1))
	for _, t := range targets {
		g.Go(func() error {
			r, err := e.build(ctx, t, params)
			if err != nil {
				return fmt.Errorf("%s: %w", t.key, err)
			}
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].key < reports[j].key })
	for _, r := range reports {
		fmt.Printf("%-16s z %7.2f..%-7.2f top=%-6s vertices=%-7d files=%d (%v)\n",
			r.key, r.zmin, r.zmax, r.top, r.vertices, r.files, r.elapsed.Round(time.Millisecond))
	}
	return nil
}

func (e *env) build(ctx context.Context, t target, params diorama.Params) (report, error) {
	start := time.Now()
	log := logger.Log.With(zap.String("extent", t.key))

	layer := scene.NewCollection()
	b, err := diorama.New(diorama.Options{
		Provider: e.provider,
		Layer:    layer,
		Cache:    e.store,
		Logger:   log,
		OnStateChange: func(s diorama.State) {
			log.Debug("stage", zap.Stringer("state", s))
		},
	}, params)
	if err != nil {
		return report{}, err
	}
	defer b.Destroy()

	out, err := b.Generate(ctx, t.area)
	if err != nil {
		return report{}, err
	}
	if out != diorama.OutcomeReady {
		return report{}, fmt.Errorf("build %s", out)
	}

	snap := b.Snapshot()
	res, err := export.New(filepath.Join(e.cfg.Output.Dir, t.key), "diorama").Export(layer.Graphics())
	if err != nil {
		return report{}, err
	}
	log.Info("exported", zap.String("obj", res.OBJ), zap.Int("textures", len(res.Textures)))

	r := report{
		key:     t.key,
		zmin:    snap.Zmin,
		zmax:    snap.Zmax,
		top:     snap.TopKind.String(),
		files:   2 + len(res.Textures),
		elapsed: time.Since(start),
	}
	if snap.Terrain != nil {
		r.vertices = snap.Terrain.Mesh.NumVertices()
	}
	return r, nil
}
