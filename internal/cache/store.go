// Package cache memoizes terrain meshes and textures in an embedded bbolt
// file. Meshes and textures live for one session and are dropped on Open;
// raw elevation tiles are kept across sessions.
package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/internal/task"
)

var (
	bucketMeshes   = []byte("meshes")
	bucketTextures = []byte("textures")
	bucketTiles    = []byte("tiles")

	sessionBuckets = [][]byte{bucketMeshes, bucketTextures}
	allBuckets     = [][]byte{bucketMeshes, bucketTextures, bucketTiles}
)

// Options configures a Store.
type Options struct {
	Logger *zap.Logger
	// Timeout bounds waiting for the file lock held by another process.
	Timeout time.Duration
}

// Store is a bbolt-backed blob cache. A nil *Store is valid and caches
// nothing.
type Store struct {
	db    *bolt.DB
	log   *zap.Logger
	group singleflight.Group
}

// Open opens or creates the cache file at path and clears the session
// buckets.
func Open(path string, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	s := &Store{db: db, log: log}
	if err := s.reset(sessionBuckets); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("cache opened", zap.String("path", path))
	return s, nil
}

// Close releases the file.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Clear drops every bucket, tiles included.
func (s *Store) Clear() error {
	if s == nil {
		return nil
	}
	return s.reset(allBuckets)
}

func (s *Store) reset(buckets [][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return fmt.Errorf("clear bucket %s: %w", name, err)
				}
			}
		}
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Stats returns the number of entries per bucket.
func (s *Store) Stats() (map[string]int, error) {
	stats := make(map[string]int, len(allBuckets))
	if s == nil {
		return stats, nil
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if b := tx.Bucket(name); b != nil {
				stats[string(name)] = b.Stats().KeyN
			}
		}
		return nil
	})
	return stats, err
}

func (s *Store) get(bucket []byte, key string, v any) (bool, error) {
	var payload []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucket).Get([]byte(key)); data != nil {
			payload = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil || payload == nil {
		return false, err
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (s *Store) put(bucket []byte, key string, v any) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), payload.Bytes())
	})
}

type meshBlob struct {
	Position []float64
	UV       []float32
	Tangent  []float32
	Faces    [][]uint32
	WKID     int
}

func encodeMesh(m *scene.Mesh) meshBlob {
	blob := meshBlob{Position: m.Position, UV: m.UV, Tangent: m.Tangent, WKID: m.WKID}
	for _, c := range m.Components {
		blob.Faces = append(blob.Faces, c.Faces)
	}
	return blob
}

func (b meshBlob) mesh() *scene.Mesh {
	m := &scene.Mesh{Position: b.Position, UV: b.UV, Tangent: b.Tangent, WKID: b.WKID}
	for _, faces := range b.Faces {
		m.Components = append(m.Components, scene.Component{Faces: faces})
	}
	return m
}

// GetMesh returns the cached mesh geometry. Materials are not cached.
func (s *Store) GetMesh(key string) (*scene.Mesh, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var blob meshBlob
	ok, err := s.get(bucketMeshes, key, &blob)
	if !ok {
		return nil, false, err
	}
	return blob.mesh(), true, nil
}

// PutMesh stores the mesh geometry under key.
func (s *Store) PutMesh(key string, m *scene.Mesh) error {
	if s == nil {
		return nil
	}
	return s.put(bucketMeshes, key, encodeMesh(m))
}

type textureBlob struct {
	Width, Height int
	Pix           []byte
}

// GetTexture returns a cached image.
func (s *Store) GetTexture(key string) (*image.NRGBA, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var blob textureBlob
	ok, err := s.get(bucketTextures, key, &blob)
	if !ok {
		return nil, false, err
	}
	if len(blob.Pix) != blob.Width*blob.Height*4 {
		return nil, false, fmt.Errorf("texture %s: %d bytes for %dx%d", key, len(blob.Pix), blob.Width, blob.Height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, blob.Width, blob.Height))
	copy(img.Pix, blob.Pix)
	return img, true, nil
}

// PutTexture stores img under key.
func (s *Store) PutTexture(key string, img *image.NRGBA) error {
	if s == nil {
		return nil
	}
	b := img.Bounds()
	blob := textureBlob{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, 0, b.Dx()*b.Dy()*4)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		blob.Pix = append(blob.Pix, img.Pix[i:i+b.Dx()*4]...)
	}
	return s.put(bucketTextures, key, blob)
}

// GetTiles returns cached raw elevation tiles.
func (s *Store) GetTiles(key string) ([]elevation.Tile, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var tiles []elevation.Tile
	ok, err := s.get(bucketTiles, key, &tiles)
	return tiles, ok, err
}

// PutTiles stores raw elevation tiles under key.
func (s *Store) PutTiles(key string, tiles []elevation.Tile) error {
	if s == nil {
		return nil
	}
	return s.put(bucketTiles, key, tiles)
}

// do runs fn once per key across concurrent callers. When the shared run
// was aborted by another caller's context and ctx is still live, it runs
// again under ctx.
func (s *Store) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	for {
		v, err, shared := s.group.Do(key, fn)
		if err != nil && shared && ctx.Err() == nil && task.IsAborted(err) {
			s.log.Debug("shared build aborted, retrying", zap.String("key", key))
			continue
		}
		return v, err
	}
}

// Mesh returns the mesh cached under key, building and storing it on a miss.
// Concurrent calls for one key share a single build; other keys proceed
// independently. The returned mesh may be shared and must not be modified.
func (s *Store) Mesh(ctx context.Context, key string, build func(context.Context) (*scene.Mesh, error)) (*scene.Mesh, error) {
	if s == nil {
		return build(ctx)
	}
	v, err := s.do(ctx, "mesh/"+key, func() (any, error) {
		m, ok, err := s.GetMesh(key)
		if err != nil {
			s.log.Warn("mesh cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			s.log.Debug("mesh cache hit", zap.String("key", key))
			return m, nil
		}
		s.log.Debug("mesh cache miss", zap.String("key", key))
		m, err = build(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.PutMesh(key, m); err != nil {
			s.log.Warn("mesh cache write failed", zap.String("key", key), zap.Error(err))
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*scene.Mesh), nil
}

// Texture is the image counterpart of Mesh.
func (s *Store) Texture(key string, build func() (*image.NRGBA, error)) (*image.NRGBA, error) {
	if s == nil {
		return build()
	}
	v, err, _ := s.group.Do("texture/"+key, func() (any, error) {
		img, ok, err := s.GetTexture(key)
		if err != nil {
			s.log.Warn("texture cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			s.log.Debug("texture cache hit", zap.String("key", key))
			return img, nil
		}
		img, err = build()
		if err != nil {
			return nil, err
		}
		if err := s.PutTexture(key, img); err != nil {
			s.log.Warn("texture cache write failed", zap.String("key", key), zap.Error(err))
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*image.NRGBA), nil
}
