// Package extrude builds vertical wall meshes by extruding a rectangle's
// perimeter between a top profile and a bottom rule.
package extrude

import (
	"math"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// HeightFunc returns the offset added to z to obtain the extruded vertex.
type HeightFunc func(x, y, z float64) float64

// Extrude duplicates every vertex of the flat position buffer into a
// (top, bottom) pair, bottom = top + height(x, y, z), and stitches
// consecutive pairs into quads of two triangles each.
func Extrude(position []float64, height HeightFunc) ([]float64, []uint32) {
	numVertices := len(position) / 3
	out := make([]float64, 0, numVertices*6)

	for i := range numVertices {
		x, y, z := position[i*3], position[i*3+1], position[i*3+2]
		out = append(out, x, y, z, x, y, z+height(x, y, z))
	}

	numQuads := max(numVertices-1, 0)
	faces := make([]uint32, 0, numQuads*6)
	for i := range numQuads {
		p := uint32(i * 2)
		faces = append(faces,
			p+2, p, p+1,
			p+2, p+1, p+3,
		)
	}
	return out, faces
}

// ExtrudeToZ extrudes every vertex down (or up) to the absolute height z.
func ExtrudeToZ(position []float64, z float64) ([]float64, []uint32) {
	return Extrude(position, func(_, _, vz float64) float64 { return z - vz })
}

// Rule decides where the bottom copy of each perimeter vertex goes.
type Rule struct {
	constant bool
	z        float64
	offset   HeightFunc
}

// ToZ extrudes to a constant absolute height.
func ToZ(z float64) Rule {
	return Rule{constant: true, z: z}
}

// By extrudes by a per-vertex offset added to the top z.
func By(offset HeightFunc) Rule {
	return Rule{offset: offset}
}

// Evaluator writes the top position of perimeter cell (col, row).
type Evaluator func(out *geom.Vec3, col, row int)

// Side indexes the four walls in traversal order.
type Side int

// Walls in the order CreateBox traces them.
const (
	SideBottom Side = iota // row 0, col 0 -> width
	SideRight              // col width, row 0 -> height
	SideTop                // row height, col width -> 0
	SideLeft               // col 0, row height -> 0
)

// SideVertices counts extruded vertices (top and bottom copies) per wall.
// X walls run along columns, Y walls along rows.
type SideVertices struct {
	X, Y int
}

// Offset returns the index of the first extruded vertex of side.
func (n SideVertices) Offset(side Side) int {
	switch side {
	case SideRight:
		return n.X
	case SideTop:
		return n.X + n.Y
	case SideLeft:
		return 2*n.X + n.Y
	default:
		return 0
	}
}

// Count returns the number of extruded vertices of side.
func (n SideVertices) Count(side Side) int {
	if side == SideRight || side == SideLeft {
		return n.Y
	}
	return n.X
}

// Box is an extruded closed wall loop.
type Box struct {
	Position []float64 // x, y, z per vertex
	UV       []float32 // u, v per vertex
	Faces    []uint32
	Sides    SideVertices
	Zmin     float64
	Zmax     float64
}

// NumVertices returns the number of vertices in the box.
func (b *Box) NumVertices() int {
	return len(b.Position) / 3
}

// MirrorU flips u to 1-u on every vertex of the given sides.
func (b *Box) MirrorU(sides ...Side) {
	for _, side := range sides {
		start := b.Sides.Offset(side)
		for i := start; i < start+b.Sides.Count(side); i++ {
			b.UV[i*2] = 1 - b.UV[i*2]
		}
	}
}

// CreateBox traces the four sides of a width x height cell rectangle through
// eval, repeating the last vertex of each side to close it, and extrudes the
// resulting loop with rule. Each side holds width+1 (or height+1) evaluated
// vertices plus the repeat, doubled by extrusion.
//
// UV u runs 0..1 along each side; v is the height normalized over the Z range
// of the whole box so all four walls share one vertical mapping.
func CreateBox(width, height int, eval Evaluator, rule Rule) Box {
	perimeter := make([]float64, 0, ((width+2)*2+(height+2)*2)*3)
	along := make([]float32, 0, (width+2)*2+(height+2)*2)

	zmin, zmax := math.Inf(1), math.Inf(-1)
	if rule.constant {
		zmin, zmax = rule.z, rule.z
	}

	var p geom.Vec3
	fillSide := func(col0, col1, row0, row1 int) {
		dc := sign(col1 - col0)
		dr := sign(row1 - row0)
		steps := max(abs(col1-col0), abs(row1-row0))

		for k := 0; k <= steps; k++ {
			eval(&p, col0+dc*k, row0+dr*k)
			perimeter = append(perimeter, p.X, p.Y, p.Z)
			zmin = math.Min(zmin, p.Z)
			zmax = math.Max(zmax, p.Z)

			u := float32(1)
			if steps > 0 {
				u = float32(k) / float32(steps)
			}
			along = append(along, u)
		}

		n := len(perimeter)
		perimeter = append(perimeter, perimeter[n-3], perimeter[n-2], perimeter[n-1])
		along = append(along, 1)
	}

	fillSide(0, width, 0, 0)
	fillSide(width, width, 0, height)
	fillSide(width, 0, height, height)
	fillSide(0, 0, height, 0)

	var heightFn HeightFunc
	if rule.constant {
		heightFn = func(_, _, z float64) float64 { return rule.z - z }
	} else {
		heightFn = func(x, y, z float64) float64 {
			off := rule.offset(x, y, z)
			zmin = math.Min(zmin, z+off)
			zmax = math.Max(zmax, z+off)
			return off
		}
	}

	position, faces := Extrude(perimeter, heightFn)

	numVertices := len(position) / 3
	uv := make([]float32, numVertices*2)
	span := zmax - zmin
	for i := range numVertices {
		uv[i*2] = along[i/2]
		uv[i*2+1] = normalizeHeight(position[i*3+2], zmin, span)
	}

	return Box{
		Position: position,
		UV:       uv,
		Faces:    faces,
		Sides:    SideVertices{X: (width + 2) * 2, Y: (height + 2) * 2},
		Zmin:     zmin,
		Zmax:     zmax,
	}
}

func normalizeHeight(z, zmin, span float64) float32 {
	if !(span > 0) {
		return 0
	}
	return float32((z - zmin) / span)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
