package cache

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// CachedProvider keeps raw tiles fetched from a slower source in the Store's
// durable tile bucket. Tiles do not depend on exaggeration, so they stay
// valid across sessions.
type CachedProvider struct {
	source elevation.TileFetcher
	store  *Store
	log    *zap.Logger
}

// NewCachedProvider wraps source.
func NewCachedProvider(source elevation.TileFetcher, store *Store, log *zap.Logger) *CachedProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedProvider{source: source, store: store, log: log}
}

// Name implements elevation.Provider.
func (p *CachedProvider) Name() string { return p.source.Name() }

// NoDataValue implements elevation.TileFetcher.
func (p *CachedProvider) NoDataValue() float64 { return p.source.NoDataValue() }

// TileKey identifies the tiles of one area at one resolution.
func TileKey(name string, area geom.Extent, demResolution float64) string {
	return name + "/" + area.Key() + "/" + strconv.FormatFloat(demResolution, 'g', -1, 64)
}

// FetchTiles implements elevation.TileFetcher.
func (p *CachedProvider) FetchTiles(ctx context.Context, area geom.Extent, demResolution float64) ([]elevation.Tile, error) {
	if p.store == nil {
		return p.source.FetchTiles(ctx, area, demResolution)
	}
	key := TileKey(p.source.Name(), area, demResolution)
	v, err := p.store.do(ctx, "tiles/"+key, func() (any, error) {
		tiles, ok, err := p.store.GetTiles(key)
		if err != nil {
			p.log.Warn("tile cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			p.log.Debug("tile cache hit", zap.String("key", key))
			return tiles, nil
		}
		tiles, err = p.source.FetchTiles(ctx, area, demResolution)
		if err != nil {
			return nil, err
		}
		if err := p.store.PutTiles(key, tiles); err != nil {
			p.log.Warn("tile cache write failed", zap.String("key", key), zap.Error(err))
		}
		return tiles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]elevation.Tile), nil
}

// CreateSampler implements elevation.Provider.
func (p *CachedProvider) CreateSampler(ctx context.Context, area geom.Extent, demResolution float64) (elevation.Sampler, error) {
	return elevation.NewSampler(ctx, p, area, demResolution)
}
