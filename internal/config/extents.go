package config

import (
	"sort"
	"strings"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

// NamedExtent is a well-known trench area in Web Mercator.
type NamedExtent struct {
	Key  string
	Name string
	Area geom.Extent
}

func mercator(xmin, xmax, ymin, ymax float64) geom.Extent {
	return geom.Extent{Xmin: xmin, Ymin: ymin, Xmax: xmax, Ymax: ymax, WKID: geom.WebMercator}
}

var extents = map[string]NamedExtent{
	"mariana":        {Name: "Mariana Trench", Area: mercator(15742759.3237, 15959544.5453, 1167064.3473, 1374563.5104)},
	"java":           {Name: "Java Trench", Area: mercator(12132732.6907, 12324143.7436, -1217169.6194, -1033959.1237)},
	"puerto-rico":    {Name: "Puerto Rico Trench", Area: mercator(-7487022.5066, -7226780.9267, 2121608.1334, 2370702.7469)},
	"molloy-hole":    {Name: "Molloy Hole", Area: mercator(182660.366, 487098.0292, 14878944.3125, 15170279.7656)},
	"south-sandwich": {Name: "South Sandwich Trench", Area: mercator(-2975536.2112, -2605049.8626, -7860154.3639, -7505604.4465)},
}

// LookupExtent finds a named extent by key or display name, ignoring case.
func LookupExtent(name string) (NamedExtent, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if e, ok := extents[key]; ok {
		e.Key = key
		return e, true
	}
	for k, e := range extents {
		if strings.EqualFold(e.Name, name) {
			e.Key = k
			return e, true
		}
	}
	return NamedExtent{}, false
}

// Extents returns every named extent sorted by key.
func Extents() []NamedExtent {
	out := make([]NamedExtent, 0, len(extents))
	for k, e := range extents {
		e.Key = k
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
