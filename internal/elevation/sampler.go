// Package elevation provides elevation samplers over a source extent, the
// providers that build them, and the exaggerated sampler that rescales raw
// depth into display space.
package elevation

import (
	"context"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// DefaultNoData is the no-data sentinel used when a provider does not set one.
const DefaultNoData = 1e-30

// Sampler maps a point in source coordinates to an elevation.
type Sampler interface {
	ElevationAt(x, y float64) float64
	Extent() geom.Extent
	NoDataValue() float64
}

// Provider builds samplers scoped to an area at a ground resolution
// (source units per sample). CreateSampler must honor ctx cancellation.
type Provider interface {
	Name() string
	CreateSampler(ctx context.Context, area geom.Extent, demResolution float64) (Sampler, error)
}

// Geometry is one of Point, Polyline or Multipoint.
type Geometry interface {
	geometry()
}

// Point is a single query location.
type Point struct {
	X, Y, Z float64
}

// Polyline is a set of paths.
type Polyline struct {
	Paths [][]geom.Vec3
}

// Multipoint is an unordered set of points.
type Multipoint struct {
	Points []geom.Vec3
}

func (Point) geometry()      {}
func (Polyline) geometry()   {}
func (Multipoint) geometry() {}

// Query returns a copy of g with every Z replaced by the sampled elevation.
func Query(s Sampler, g Geometry) Geometry {
	return mapZ(g, func(v geom.Vec3) float64 { return s.ElevationAt(v.X, v.Y) })
}

func mapZ(g Geometry, fn func(v geom.Vec3) float64) Geometry {
	switch g := g.(type) {
	case Point:
		return Point{X: g.X, Y: g.Y, Z: fn(geom.Vec3{X: g.X, Y: g.Y, Z: g.Z})}
	case Polyline:
		paths := make([][]geom.Vec3, len(g.Paths))
		for i, path := range g.Paths {
			paths[i] = mapCoords(path, fn)
		}
		return Polyline{Paths: paths}
	case Multipoint:
		return Multipoint{Points: mapCoords(g.Points, fn)}
	default:
		return g
	}
}

func mapCoords(coords []geom.Vec3, fn func(v geom.Vec3) float64) []geom.Vec3 {
	out := make([]geom.Vec3, len(coords))
	for i, c := range coords {
		out[i] = c.WithZ(fn(c))
	}
	return out
}
