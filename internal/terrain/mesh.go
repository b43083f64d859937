package terrain

import (
	"context"
	"fmt"
	"math"

	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/internal/scene"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// VertexResolution derives the mesh grid for area from the configured mesh
// size in pixels along the longer side.
func VertexResolution(area geom.Extent, meshPixels int) (Resolution, error) {
	if err := area.Validate(); err != nil {
		return Resolution{}, err
	}
	if meshPixels <= 0 {
		return Resolution{}, fmt.Errorf("mesh resolution %d: must be positive", meshPixels)
	}
	demResolution := math.Max(area.Width(), area.Height()) / float64(meshPixels)
	return Resolution{
		Width:         int(math.Ceil(area.Width() / demResolution)),
		Height:        int(math.Ceil(area.Height() / demResolution)),
		DemResolution: demResolution,
	}, nil
}

// FromElevation samples s on a regular (Width+1) x (Height+1) vertex grid
// over area. Each cell becomes two triangles. Positions stay in source
// coordinates with raw elevation.
func FromElevation(ctx context.Context, s elevation.Sampler, area geom.Extent, res Resolution) (*scene.Mesh, error) {
	if res.Width <= 0 || res.Height <= 0 {
		return nil, fmt.Errorf("mesh grid %dx%d: must be positive", res.Width, res.Height)
	}
	cols, rows := res.Width+1, res.Height+1
	position := make([]float64, 0, cols*rows*3)
	uv := make([]float32, 0, cols*rows*2)

	for row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := float64(row) / float64(res.Height)
		y := area.Ymin + v*area.Height()
		for col := range cols {
			u := float64(col) / float64(res.Width)
			x := area.Xmin + u*area.Width()
			position = append(position, x, y, s.ElevationAt(x, y))
			uv = append(uv, float32(u), float32(v))
		}
	}

	faces := make([]uint32, 0, res.Width*res.Height*6)
	for row := range res.Height {
		for col := range res.Width {
			i := uint32(row*cols + col)
			up := i + uint32(cols)
			faces = append(faces, i, i+1, up+1, i, up+1, up)
		}
	}

	return &scene.Mesh{
		Position:   position,
		UV:         uv,
		Components: []scene.Component{{Faces: faces}},
		WKID:       area.WKID,
	}, nil
}

// Renormalize returns a copy of raw remapped from source into display
// coordinates. X and Y scale independently. zfn maps raw elevation to
// display Z. Every vertex gets the tangent (1, 0, 0, 1). The realized Z
// range is recorded in the returned bounds.
func Renormalize(raw *scene.Mesh, source, display geom.Extent, zfn func(float64) float64) (*Surface, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if err := display.Validate(); err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	m := raw.Clone()
	m.WKID = display.WKID
	scaleX := display.Width() / source.Width()
	scaleY := display.Height() / source.Height()

	n := m.NumVertices()
	m.Tangent = make([]float32, 0, n*4)
	bounds := emptyBounds()

	pos := m.Position
	for i := 0; i < len(pos); i += 3 {
		pos[i] = (pos[i]-source.Xmin)*scaleX + display.Xmin
		pos[i+1] = (pos[i+1]-source.Ymin)*scaleY + display.Ymin
		if zfn != nil {
			pos[i+2] = zfn(pos[i+2])
		}
		m.Tangent = append(m.Tangent, 1, 0, 0, 1)
		updateBounds(&bounds, geom.Vec3{X: pos[i], Y: pos[i+1], Z: pos[i+2]})
	}

	return &Surface{Mesh: m, Bounds: bounds}, nil
}
