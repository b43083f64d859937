// Package raster implements terrain analysis over sampled elevation grids:
// slope and aspect, single and multi-directional hillshade, contrast
// stretching and tangent-space normal maps.
package raster

import (
	"math"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// SampleFunc returns the elevation at cell (col+dcol, row+drow). The offsets
// let the 3x3 stencil be read without recomputing indices.
type SampleFunc func(col, row, dcol, drow int) float64

// Grid is a row-major cache of elevation samples taken over an extent.
// Row 0 lies on the extent's ymin edge.
type Grid struct {
	Width, Height int
	Values        []float64
}

// NewGrid samples elevationAt at the lower-left corner of every cell of a
// width x height grid laid over extent.
func NewGrid(width, height int, extent geom.Extent, elevationAt func(x, y float64) float64) *Grid {
	g := &Grid{Width: width, Height: height, Values: make([]float64, width*height)}
	dx := extent.Width() / float64(width)
	dy := extent.Height() / float64(height)

	ptr := 0
	py := extent.Ymin
	for range height {
		px := extent.Xmin
		for range width {
			g.Values[ptr] = elevationAt(px, py)
			ptr++
			px += dx
		}
		py += dy
	}
	return g
}

// Sample reads the grid with edge clamping. It satisfies SampleFunc.
func (g *Grid) Sample(col, row, dcol, drow int) float64 {
	x := min(max(col+dcol, 0), g.Width-1)
	y := min(max(row+drow, 0), g.Height-1)
	return g.Values[y*g.Width+x]
}

// Derivatives holds the planar partial derivatives of elevation.
type Derivatives struct {
	DX, DY float64
}

// SlopeAspect holds slope and aspect in radians.
type SlopeAspect struct {
	Slope  float64
	Aspect float64
}

// CalculateDerivatives applies the 3x3 Sobel-like kernel at (col, row),
// normalized by 8 * cell size.
func CalculateDerivatives(sample SampleFunc, col, row int, cellX, cellY float64) Derivatives {
	a := sample(col, row, -1, 1)
	b := sample(col, row, 0, 1)
	c := sample(col, row, 1, 1)
	d := sample(col, row, -1, 0)
	f := sample(col, row, 1, 0)
	g := sample(col, row, -1, -1)
	h := sample(col, row, 0, -1)
	i := sample(col, row, 1, -1)

	return Derivatives{
		DX: (c + 2*f + i - (a + 2*d + g)) / (8 * cellX),
		DY: (g + 2*h + i - (a + 2*b + c)) / (8 * cellY),
	}
}

// SlopeAspectFrom converts derivatives into slope and aspect. Aspect lies in
// [0, 2π); flat cells have aspect 0.
func SlopeAspectFrom(d Derivatives, zFactor float64) SlopeAspect {
	slope := math.Atan(math.Sqrt(d.DX*d.DX+d.DY*d.DY) * zFactor)

	var aspect float64
	switch {
	case d.DX != 0:
		aspect = math.Atan2(d.DY, -d.DX)
		if aspect < 0 {
			aspect += 2 * math.Pi
		}
	case d.DY > 0:
		aspect = math.Pi / 2
	case d.DY < 0:
		aspect = math.Pi * 1.5
	default:
		aspect = 0
	}

	return SlopeAspect{Slope: slope, Aspect: aspect}
}

func toRad(degrees float64) float64 {
	return degrees / 180 * math.Pi
}

// NormalizeAzimuth converts a compass azimuth (0° north, clockwise) into the
// math convention (0 east, counter-clockwise) in radians.
func NormalizeAzimuth(azimuth float64) float64 {
	return toRad(360 - azimuth + 90)
}

func cellSize(extent geom.Extent, width, height int) (float64, float64) {
	return extent.Width() / float64(width), extent.Height() / float64(height)
}
