// Package diorama orchestrates the terrain diorama pipeline: sampling,
// mesh building, texturing and box building, rerun selectively whenever
// parameters change.
package diorama

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/trench-diorama/internal/cache"
	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/internal/task"
	"github.com/Faultbox/trench-diorama/internal/terrain"
	"github.com/Faultbox/trench-diorama/internal/water"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// ErrDestroyed is returned by operations on a destroyed builder.
var ErrDestroyed = errors.New("diorama destroyed")

// Graphic names.
const (
	GraphicTerrain    = "terrain"
	GraphicSurfaceBox = "surface-box"
	GraphicGlassBox   = "glass-box"
	GraphicTopSurface = "top-surface"
)

// Options configures a Builder.
type Options struct {
	Provider elevation.Provider
	Layer    scene.Layer
	// Cache memoizes terrain meshes and static textures. Nil disables caching.
	Cache  *cache.Store
	Logger *zap.Logger
	// OnStateChange is called with the builder lock held; it must not call
	// back into the builder.
	OnStateChange func(State)
}

// Builder owns the diorama graphics in a layer and keeps them in sync with
// its parameters. It is safe for concurrent use; overlapping updates
// resolve to the state of the latest one.
type Builder struct {
	provider      elevation.Provider
	layer         scene.Layer
	cache         *cache.Store
	log           *zap.Logger
	onStateChange func(State)

	samplingSlot task.Slot
	meshSlot     task.Slot
	updating     atomic.Int32

	mu          sync.Mutex
	params      Params
	initialized bool
	destroyed   bool
	state       State

	sampler *elevation.Exaggerated
	// samplerDem is the ground resolution sampler was created at.
	samplerDem float64
	surface    *terrain.Surface
	// surfaceSampler is the sampler surface was built from; sync stages
	// only run when it is still the current sampler.
	surfaceSampler *elevation.Exaggerated
	resolution     terrain.Resolution
	visualization  Visualization
	top            water.Sampler
	topKind        water.Kind
	topZmax        float64
	glass          *scene.Texture

	terrainGraphic    *scene.Graphic
	surfaceBoxGraphic *scene.Graphic
	glassBoxGraphic   *scene.Graphic
	topSurfaceGraphic *scene.Graphic
}

// New creates a builder. Nothing is built until the first Update or
// Generate.
func New(opts Options, params Params) (*Builder, error) {
	if opts.Provider == nil {
		return nil, errors.New("diorama: nil elevation provider")
	}
	if opts.Layer == nil {
		return nil, errors.New("diorama: nil layer")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		provider:      opts.Provider,
		layer:         opts.Layer,
		cache:         opts.Cache,
		log:           log.Named("diorama"),
		onStateChange: opts.OnStateChange,
		params:        params.clone(),
	}, nil
}

// Generate rebuilds the diorama for a new source area.
func (b *Builder) Generate(ctx context.Context, area geom.Extent) (Outcome, error) {
	if err := area.Validate(); err != nil {
		return OutcomeFailed, fmt.Errorf("source area: %w", err)
	}
	return b.Update(ctx, func(p *Params) { p.SourceArea = area })
}

// Update applies mutate to the parameters and reruns the stages affected by
// the change. It returns OutcomeAborted with a nil error when a newer update
// supersedes it.
func (b *Builder) Update(ctx context.Context, mutate func(*Params)) (Outcome, error) {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return OutcomeFailed, ErrDestroyed
	}
	next := b.params.clone()
	if mutate != nil {
		mutate(&next)
	}
	if err := next.Validate(); err != nil {
		b.mu.Unlock()
		return OutcomeFailed, err
	}
	changed := diff(b.params, next)
	if !b.initialized {
		changed = AllInputs
		b.initialized = true
	}
	b.params = next
	b.mu.Unlock()

	dirty := Affected(changed)
	b.log.Debug("update", zap.Stringer("stages", dirty))
	if dirty == 0 {
		return OutcomeReady, nil
	}
	return b.run(ctx, dirty)
}

func (b *Builder) run(ctx context.Context, dirty StageSet) (Outcome, error) {
	if dirty.Has(StageSampler) {
		if out, err := b.resample(ctx); out != OutcomeReady {
			return out, err
		}
	}
	if dirty.Has(StageMesh) {
		if out, err := b.rebuildMesh(ctx); out != OutcomeReady {
			return out, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return OutcomeAborted, nil
	}
	if ctx.Err() != nil {
		return OutcomeAborted, nil
	}
	if err := b.runSync(dirty); err != nil {
		b.log.Warn("stage failed", zap.Error(err))
		return OutcomeFailed, err
	}
	b.setState(Ready)
	return OutcomeReady, nil
}

// track counts an in-flight async stage until the returned func is called.
func (b *Builder) track() func() {
	b.updating.Add(1)
	return func() { b.updating.Add(-1) }
}

func (b *Builder) resample(ctx context.Context) (Outcome, error) {
	sctx, ticket := b.samplingSlot.Begin(ctx)
	defer ticket.End()
	defer b.track()()

	b.mu.Lock()
	p := b.params
	b.setState(Sampling)
	b.mu.Unlock()

	if p.SourceArea.IsZero() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !ticket.Valid() || b.destroyed {
			return OutcomeAborted, nil
		}
		if b.sampler != nil {
			b.log.Debug("source unset, clearing diorama")
		}
		b.clear()
		return OutcomeReady, nil
	}

	demResolution := math.Max(p.SourceArea.Width(), p.SourceArea.Height()) / float64(p.SamplingResolution)
	log := b.log.With(zap.Stringer("area", p.SourceArea), zap.Float64("demResolution", demResolution))
	log.Debug("sampling")

	base, err := b.provider.CreateSampler(sctx, p.SourceArea, demResolution)
	if !ticket.Valid() {
		log.Debug("sampling aborted")
		return OutcomeAborted, nil
	}
	if err != nil {
		log.Warn("create sampler failed", zap.Error(err))
		return OutcomeFailed, fmt.Errorf("create sampler: %w", err)
	}
	s, err := elevation.NewExaggerated(base, elevation.ExaggerationOptions{
		Strategy:    p.Exaggeration,
		Factor:      p.ExaggerationFactor,
		DisplayArea: p.DisplayArea,
	})
	if err != nil {
		return OutcomeFailed, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !ticket.Valid() || b.destroyed {
		log.Debug("sampling aborted")
		return OutcomeAborted, nil
	}
	b.sampler = s
	b.samplerDem = demResolution
	lo, hi, _ := s.SourceZRange()
	log.Debug("sampler ready", zap.Float64("zmin", lo), zap.Float64("zmax", hi))
	return OutcomeReady, nil
}

// exaggerate brings the current sampler's transform in line with p. It
// rewraps the base sampler when the strategy or factor changed.
func (b *Builder) exaggerate(p Params) error {
	if b.sampler == nil {
		return nil
	}
	if b.sampler.Strategy() == p.Exaggeration && b.sampler.Factor() == p.ExaggerationFactor {
		if b.sampler.DisplayArea() == p.DisplayArea {
			return nil
		}
		// The surface was built for the old transform.
		b.surfaceSampler = nil
		return b.sampler.SetDisplayArea(p.DisplayArea)
	}
	s, err := elevation.NewExaggerated(b.sampler.Base(), elevation.ExaggerationOptions{
		Strategy:    p.Exaggeration,
		Factor:      p.ExaggerationFactor,
		DisplayArea: p.DisplayArea,
	})
	if err != nil {
		return err
	}
	b.sampler = s
	return nil
}

func (b *Builder) rebuildMesh(ctx context.Context) (Outcome, error) {
	mctx, ticket := b.meshSlot.Begin(ctx)
	defer ticket.End()
	defer b.track()()

	b.mu.Lock()
	b.setState(MeshBuilding)
	p := b.params
	if err := b.exaggerate(p); err != nil {
		b.mu.Unlock()
		return OutcomeFailed, fmt.Errorf("exaggerate: %w", err)
	}
	s, dem := b.sampler, b.samplerDem
	b.mu.Unlock()

	if s == nil {
		return OutcomeReady, nil
	}

	source := s.Area()
	res, err := terrain.VertexResolution(source, p.MeshResolution)
	if err != nil {
		return OutcomeFailed, err
	}
	// Raw Z depends on the sampler's node spacing as well as the mesh grid.
	key := b.provider.Name() + "/" + strconv.FormatFloat(dem, 'g', -1, 64) + "/" + res.Key(source)
	log := b.log.With(zap.String("key", key), zap.Int("width", res.Width), zap.Int("height", res.Height))
	log.Debug("building mesh")

	raw, err := b.cache.Mesh(mctx, key, func(ctx context.Context) (*scene.Mesh, error) {
		return terrain.FromElevation(ctx, s.Base(), source, res)
	})
	if !ticket.Valid() {
		log.Debug("mesh aborted")
		return OutcomeAborted, nil
	}
	if err != nil {
		log.Warn("mesh failed", zap.Error(err))
		return OutcomeFailed, fmt.Errorf("build mesh: %w", err)
	}
	surface, err := terrain.Renormalize(raw, source, p.DisplayArea, s.DisplayZ())
	if err != nil {
		return OutcomeFailed, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !ticket.Valid() || b.destroyed || b.sampler != s {
		log.Debug("mesh aborted")
		return OutcomeAborted, nil
	}
	b.surface = surface
	b.surfaceSampler = s
	b.resolution = res
	log.Debug("mesh ready", zap.Float64("zmin", surface.Zmin()), zap.Float64("zmax", surface.Zmax()))
	return OutcomeReady, nil
}

// runSync runs the synchronous stages in dirty. Callers hold b.mu.
func (b *Builder) runSync(dirty StageSet) error {
	if b.sampler == nil || b.surface == nil || b.surfaceSampler != b.sampler {
		// Nothing coherent to draw yet; a pending update will finish the job.
		return nil
	}
	p := b.params
	if dirty.Has(StageTexture) {
		b.setState(Texturing)
		b.applyTexture(p)
	}
	if dirty.Has(StageSurfaceBox) || dirty.Has(StageTopSurface) || dirty.Has(StageGlassBox) {
		b.setState(BoxBuilding)
	}
	if dirty.Has(StageSurfaceBox) {
		if err := b.applySurfaceBox(p); err != nil {
			return err
		}
	}
	if dirty.Has(StageTopSurface) {
		if err := b.applyTopSurface(p); err != nil {
			return err
		}
	}
	if dirty.Has(StageGlassBox) {
		if err := b.applyGlassBox(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) setState(s State) {
	if b.state == s {
		return
	}
	b.state = s
	b.log.Debug("state", zap.Stringer("state", s))
	if b.onStateChange != nil {
		b.onStateChange(s)
	}
}

// replace swaps the graphic in slot for g.
func (b *Builder) replace(slot **scene.Graphic, g *scene.Graphic) {
	if *slot != nil {
		b.layer.Remove(*slot)
	}
	*slot = g
	if g != nil {
		b.layer.Add(g)
	}
}

// Destroy cancels in-flight stages, removes every owned graphic and drops
// the sampler. Later updates return ErrDestroyed.
func (b *Builder) Destroy() {
	b.samplingSlot.Abort()
	b.meshSlot.Abort()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.clear()
	b.setState(Idle)
	b.log.Debug("destroyed")
}

// clear removes every owned graphic and drops the sampler and everything
// derived from it. Callers hold b.mu.
func (b *Builder) clear() {
	b.replace(&b.terrainGraphic, nil)
	b.replace(&b.surfaceBoxGraphic, nil)
	b.replace(&b.glassBoxGraphic, nil)
	b.replace(&b.topSurfaceGraphic, nil)
	b.sampler = nil
	b.samplerDem = 0
	b.surface = nil
	b.surfaceSampler = nil
	b.resolution = terrain.Resolution{}
	b.visualization = nil
	b.top = nil
	b.topKind = water.Ground
	b.topZmax = 0
}

// Updating reports whether any async stage is in flight.
func (b *Builder) Updating() bool { return b.updating.Load() > 0 }

// NumUpdating returns the number of in-flight async stages.
func (b *Builder) NumUpdating() int { return int(b.updating.Load()) }

// State returns the stage the builder last entered.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Params returns a copy of the current parameters.
func (b *Builder) Params() Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params.clone()
}

// ZRange returns the realized Z range of the terrain mesh. ok is false
// until a mesh has been built.
func (b *Builder) ZRange() (zmin, zmax float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surface == nil {
		return 0, 0, false
	}
	return b.surface.Zmin(), b.surface.Zmax(), true
}

// Sampler returns the current exaggerated sampler, or nil.
func (b *Builder) Sampler() *elevation.Exaggerated {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sampler
}

// Snapshot is a consistent view of the built diorama.
type Snapshot struct {
	Params     Params
	State      State
	Zmin, Zmax float64
	Resolution terrain.Resolution
	TopKind    water.Kind
	// TopZmax is the highest point the top surface can reach; hosts frame
	// the camera with it.
	TopZmax       float64
	Visualization Visualization
	Terrain       *scene.Graphic
	SurfaceBox    *scene.Graphic
	GlassBox      *scene.Graphic
	TopSurface    *scene.Graphic
}

// Snapshot returns the current graphics and derived values.
func (b *Builder) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := Snapshot{
		Params:        b.params.clone(),
		State:         b.state,
		Resolution:    b.resolution,
		TopKind:       b.topKind,
		TopZmax:       b.topZmax,
		Visualization: b.visualization,
		Terrain:       b.terrainGraphic,
		SurfaceBox:    b.surfaceBoxGraphic,
		GlassBox:      b.glassBoxGraphic,
		TopSurface:    b.topSurfaceGraphic,
	}
	if b.surface != nil {
		snap.Zmin, snap.Zmax = b.surface.Zmin(), b.surface.Zmax()
	}
	return snap
}
