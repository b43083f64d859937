package elevation

import (
	"fmt"
	"math"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// TileNodes is the maximum number of sample nodes along one tile edge.
const TileNodes = 257

// Tile is a regular grid of elevation nodes covering Extent. Node (0, 0)
// sits at (xmin, ymin); rows grow northwards. Neighboring tiles share their
// edge nodes.
type Tile struct {
	Extent geom.Extent
	Width  int
	Height int
	Values []float64
	NoData float64
}

// At returns the node value at col, row.
func (t *Tile) At(col, row int) float64 {
	return t.Values[row*t.Width+col]
}

// Contains reports whether x, y falls inside the tile, edges included.
func (t *Tile) Contains(x, y float64) bool {
	return t.Extent.Contains(x, y)
}

// Sample returns the bilinearly interpolated elevation at x, y. A no-data
// node anywhere in the cell yields no-data.
func (t *Tile) Sample(x, y float64) float64 {
	if t.Width < 2 || t.Height < 2 {
		if len(t.Values) == 0 {
			return t.NoData
		}
		return t.Values[0]
	}

	cellFX := (x - t.Extent.Xmin) / t.Extent.Width() * float64(t.Width-1)
	cellFY := (y - t.Extent.Ymin) / t.Extent.Height() * float64(t.Height-1)

	cellX := int(math.Floor(cellFX))
	cellY := int(math.Floor(cellFY))
	cellX = max(0, min(cellX, t.Width-2))
	cellY = max(0, min(cellY, t.Height-2))

	fracX := clampf(cellFX-float64(cellX), 0, 1)
	fracY := clampf(cellFY-float64(cellY), 0, 1)

	sw := t.At(cellX, cellY)
	se := t.At(cellX+1, cellY)
	nw := t.At(cellX, cellY+1)
	ne := t.At(cellX+1, cellY+1)
	if sw == t.NoData || se == t.NoData || nw == t.NoData || ne == t.NoData {
		return t.NoData
	}

	south := sw*(1-fracX) + se*fracX
	north := nw*(1-fracX) + ne*fracX
	return south*(1-fracY) + north*fracY
}

// ZRange returns the smallest and largest non-no-data node value. ok is false
// when every node is no-data.
func (t *Tile) ZRange() (zmin, zmax float64, ok bool) {
	zmin, zmax = math.Inf(1), math.Inf(-1)
	for _, v := range t.Values {
		if v == t.NoData || math.IsNaN(v) {
			continue
		}
		zmin = min(zmin, v)
		zmax = max(zmax, v)
		ok = true
	}
	return zmin, zmax, ok
}

// Validate checks the value buffer matches the declared dimensions.
func (t *Tile) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("tile %dx%d: non-positive size", t.Width, t.Height)
	}
	if len(t.Values) != t.Width*t.Height {
		return fmt.Errorf("tile %dx%d: got %d values", t.Width, t.Height, len(t.Values))
	}
	return nil
}

// GridSampler samples a set of tiles covering an area.
type GridSampler struct {
	area          geom.Extent
	demResolution float64
	noData        float64
	tiles         []Tile
}

// NewGridSampler builds a sampler over tiles. Points outside every tile
// sample as noData.
func NewGridSampler(area geom.Extent, demResolution, noData float64, tiles []Tile) (*GridSampler, error) {
	for i := range tiles {
		if err := tiles[i].Validate(); err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
	}
	return &GridSampler{
		area:          area,
		demResolution: demResolution,
		noData:        noData,
		tiles:         tiles,
	}, nil
}

// ElevationAt samples the first tile containing x, y.
func (g *GridSampler) ElevationAt(x, y float64) float64 {
	for i := range g.tiles {
		if g.tiles[i].Contains(x, y) {
			return g.tiles[i].Sample(x, y)
		}
	}
	return g.noData
}

// Extent returns the area the sampler was built for.
func (g *GridSampler) Extent() geom.Extent { return g.area }

// NoDataValue returns the no-data sentinel.
func (g *GridSampler) NoDataValue() float64 { return g.noData }

// DemResolution returns the ground distance between nodes.
func (g *GridSampler) DemResolution() float64 { return g.demResolution }

// Tiles returns the underlying tiles.
func (g *GridSampler) Tiles() []Tile { return g.tiles }

// ZRange makes a full pass over all tile data.
func (g *GridSampler) ZRange() (zmin, zmax float64, ok bool) {
	zmin, zmax = math.Inf(1), math.Inf(-1)
	for i := range g.tiles {
		lo, hi, tok := g.tiles[i].ZRange()
		if !tok {
			continue
		}
		zmin = min(zmin, lo)
		zmax = max(zmax, hi)
		ok = true
	}
	return zmin, zmax, ok
}

// Layout splits area into tiles of at most TileNodes nodes per edge with
// node spacing close to demResolution. It returns the tile extents and their
// node dimensions.
func Layout(area geom.Extent, demResolution float64) ([]geom.Extent, [][2]int) {
	cellsX := max(1, int(math.Ceil(area.Width()/demResolution)))
	cellsY := max(1, int(math.Ceil(area.Height()/demResolution)))
	stepX := area.Width() / float64(cellsX)
	stepY := area.Height() / float64(cellsY)
	perTile := TileNodes - 1

	var extents []geom.Extent
	var sizes [][2]int
	for ty := 0; ty*perTile < cellsY; ty++ {
		r0 := ty * perTile
		r1 := min(r0+perTile, cellsY)
		for tx := 0; tx*perTile < cellsX; tx++ {
			c0 := tx * perTile
			c1 := min(c0+perTile, cellsX)
			ext := geom.Extent{
				Xmin: area.Xmin + float64(c0)*stepX,
				Xmax: area.Xmin + float64(c1)*stepX,
				Ymin: area.Ymin + float64(r0)*stepY,
				Ymax: area.Ymin + float64(r1)*stepY,
				WKID: area.WKID,
			}
			if c1 == cellsX {
				ext.Xmax = area.Xmax
			}
			if r1 == cellsY {
				ext.Ymax = area.Ymax
			}
			extents = append(extents, ext)
			sizes = append(sizes, [2]int{c1 - c0 + 1, r1 - r0 + 1})
		}
	}
	return extents, sizes
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
