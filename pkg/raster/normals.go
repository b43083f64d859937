package raster

import (
	"math"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// NormalSettings configures a normal map pass.
type NormalSettings struct {
	Width, Height int
	Extent        geom.Extent
}

// Normal returns the unit surface normal (-dx, -dy, 1)/|.| for derivatives d.
func Normal(d Derivatives) geom.Vec3 {
	return geom.Vec3{X: -d.DX, Y: -d.DY, Z: 1}.Normalize()
}

// Normals encodes the tangent-space normal of every pixel as RGBA, mapping
// each component n to 0.5·(n+1)·255. Alpha is 255.
func Normals(sample SampleFunc, s NormalSettings) []uint8 {
	cellX, cellY := cellSize(s.Extent, s.Width, s.Height)
	out := make([]uint8, s.Width*s.Height*4)

	ptr := 0
	for row := range s.Height {
		for col := range s.Width {
			n := Normal(CalculateDerivatives(sample, col, row, cellX, cellY))
			out[ptr] = encodeComponent(n.X)
			out[ptr+1] = encodeComponent(n.Y)
			out[ptr+2] = encodeComponent(n.Z)
			out[ptr+3] = 255
			ptr += 4
		}
	}
	return out
}

func encodeComponent(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return ClampByte(0.5 * (v + 1) * 255)
}
