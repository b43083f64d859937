package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WebMercator is the well-known ID of the spatial reference used by the trench extents.
const WebMercator = 102100

// ErrInvalidExtent is returned when an extent cannot be used as a normalization target.
var ErrInvalidExtent = errors.New("invalid extent")

// Extent is an axis-aligned bounding box with a Z range and a spatial reference tag.
type Extent struct {
	Xmin float64 `yaml:"xmin" json:"xmin"`
	Ymin float64 `yaml:"ymin" json:"ymin"`
	Xmax float64 `yaml:"xmax" json:"xmax"`
	Ymax float64 `yaml:"ymax" json:"ymax"`
	Zmin float64 `yaml:"zmin" json:"zmin"`
	Zmax float64 `yaml:"zmax" json:"zmax"`
	WKID int     `yaml:"wkid" json:"wkid"`
}

// Width returns the X dimension.
func (e Extent) Width() float64 { return e.Xmax - e.Xmin }

// Height returns the Y dimension.
func (e Extent) Height() float64 { return e.Ymax - e.Ymin }

// Depth returns the Z dimension.
func (e Extent) Depth() float64 { return e.Zmax - e.Zmin }

// Center returns the center point; Z is the middle of the Z range.
func (e Extent) Center() Vec3 {
	return Vec3{
		X: (e.Xmin + e.Xmax) / 2,
		Y: (e.Ymin + e.Ymax) / 2,
		Z: (e.Zmin + e.Zmax) / 2,
	}
}

// Contains reports whether (x, y) lies inside the extent, edges included.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.Xmin && y >= e.Ymin && x <= e.Xmax && y <= e.Ymax
}

// Expand scales the extent around its center by factor. Z is left untouched.
func (e Extent) Expand(factor float64) Extent {
	c := e.Center()
	hw := e.Width() * factor / 2
	hh := e.Height() * factor / 2
	e.Xmin, e.Xmax = c.X-hw, c.X+hw
	e.Ymin, e.Ymax = c.Y-hh, c.Y+hh
	return e
}

// IsZero reports whether the extent is unset.
func (e Extent) IsZero() bool { return e == Extent{} }

// Validate checks that the extent has a positive, finite planar size.
func (e Extent) Validate() error {
	w, h := e.Width(), e.Height()
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidExtent, w, h)
	}
	return nil
}

// Key returns a stable textual identity used for cache keys. Two extents
// produce the same key only if all bounds and the spatial reference match.
func (e Extent) Key() string {
	parts := []string{
		strconv.Itoa(e.WKID),
		formatFloat(e.Xmin),
		formatFloat(e.Ymin),
		formatFloat(e.Xmax),
		formatFloat(e.Ymax),
		formatFloat(e.Zmin),
		formatFloat(e.Zmax),
	}
	return strings.Join(parts, ",")
}

func (e Extent) String() string {
	return fmt.Sprintf("[%g,%g - %g,%g z %g..%g wkid=%d]", e.Xmin, e.Ymin, e.Xmax, e.Ymax, e.Zmin, e.Zmax, e.WKID)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// AreaScale returns the uniform planar scale from source to display units,
// using the smaller of the two axis ratios so the whole source fits.
func AreaScale(source, display Extent) (float64, error) {
	if err := source.Validate(); err != nil {
		return 0, fmt.Errorf("source: %w", err)
	}
	if err := display.Validate(); err != nil {
		return 0, fmt.Errorf("display: %w", err)
	}
	scale := math.Min(display.Width()/source.Width(), display.Height()/source.Height())
	if !(scale > 0) {
		return 0, fmt.Errorf("%w: area scale %g", ErrInvalidExtent, scale)
	}
	return scale, nil
}
