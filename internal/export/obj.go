// Package export writes built diorama graphics to disk as Wavefront OBJ
// with an MTL material library and PNG textures.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Faultbox/trench-diorama/internal/scene"
)

// Exporter writes scenes under a directory using a common file prefix.
type Exporter struct {
	dir    string
	prefix string
}

// New creates an exporter writing <dir>/<prefix>.obj and friends.
func New(dir, prefix string) *Exporter {
	return &Exporter{dir: dir, prefix: prefix}
}

// Result lists the files written by Export.
type Result struct {
	OBJ      string
	MTL      string
	Textures []string
}

// material is a named material and the texture files it references.
type material struct {
	name     string
	mat      *scene.Material
	water    *scene.WaterSymbol
	kd, ke   string
	normal   string
	opacity  string
	blending bool
}

// object is one OBJ object: shared vertices and faces grouped by material.
type object struct {
	name     string
	position []float64
	uv       []float32
	groups   []group
}

type group struct {
	material string
	faces    []uint32
}

// Export writes every visible graphic.
func (e *Exporter) Export(graphics []*scene.Graphic) (Result, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return Result{}, fmt.Errorf("creating output dir: %w", err)
	}

	var (
		res      Result
		objects  []object
		mats     []material
		textures = make(map[*scene.Texture]string)
	)

	texFile := func(g string, slot string, t *scene.Texture) (string, error) {
		if t == nil || t.Image == nil {
			return "", nil
		}
		if name, ok := textures[t]; ok {
			return name, nil
		}
		name := fmt.Sprintf("%s_%s_%s.png", e.prefix, g, slot)
		if err := WritePNG(filepath.Join(e.dir, name), FlipVertical(t.Image)); err != nil {
			return "", fmt.Errorf("texture %s: %w", name, err)
		}
		textures[t] = name
		res.Textures = append(res.Textures, filepath.Join(e.dir, name))
		return name, nil
	}

	for _, g := range graphics {
		if g == nil || !g.Visible {
			continue
		}
		switch {
		case g.Mesh != nil:
			obj := object{name: g.Name, position: g.Mesh.Position, uv: g.Mesh.UV}
			for i, c := range g.Mesh.Components {
				m := material{name: g.Name + "_" + strconv.Itoa(i), mat: c.Material}
				if c.Material != nil {
					var err error
					if m.kd, err = texFile(g.Name, "color", c.Material.ColorTexture); err != nil {
						return res, err
					}
					if m.ke, err = texFile(g.Name, "emissive", c.Material.EmissiveTexture); err != nil {
						return res, err
					}
					if m.normal, err = texFile(g.Name, "normal", c.Material.NormalTexture); err != nil {
						return res, err
					}
					if t := c.Material.ColorTexture; t != nil && t.Transparent {
						m.opacity = m.kd
					}
					m.blending = c.Material.AlphaMode == scene.AlphaBlend
				}
				mats = append(mats, m)
				obj.groups = append(obj.groups, group{material: m.name, faces: c.Faces})
			}
			objects = append(objects, obj)
		case g.Polygon != nil:
			m := material{name: g.Name + "_water", water: g.Water}
			mats = append(mats, m)
			objects = append(objects, polygonObject(g.Name, g.Polygon, m.name))
		}
	}

	res.MTL = filepath.Join(e.dir, e.prefix+".mtl")
	if err := writeFile(res.MTL, func(w io.Writer) error { return writeMTL(w, mats) }); err != nil {
		return res, err
	}
	res.OBJ = filepath.Join(e.dir, e.prefix+".obj")
	if err := writeFile(res.OBJ, func(w io.Writer) error { return writeOBJ(w, e.prefix+".mtl", objects) }); err != nil {
		return res, err
	}
	return res, nil
}

// polygonObject triangulates every closed ring as a fan.
func polygonObject(name string, p *scene.Polygon, mat string) object {
	obj := object{name: name}
	var faces []uint32
	for _, ring := range p.Rings {
		n := len(ring)
		if n > 1 && ring[0] == ring[n-1] {
			n--
		}
		if n < 3 {
			continue
		}
		base := uint32(len(obj.position) / 3)
		for _, v := range ring[:n] {
			obj.position = append(obj.position, v.X, v.Y, v.Z)
		}
		for i := 1; i < n-1; i++ {
			faces = append(faces, base, base+uint32(i), base+uint32(i+1))
		}
	}
	obj.groups = []group{{material: mat, faces: faces}}
	return obj
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// errWriter keeps the first write error; later writes are dropped.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func writeOBJ(w io.Writer, mtllib string, objects []object) error {
	ew := &errWriter{w: w}
	ew.printf("mtllib %s\n", mtllib)
	// OBJ indices are 1-based and global across objects.
	offset := 1
	for _, obj := range objects {
		ew.printf("o %s\n", obj.name)
		n := len(obj.position) / 3
		for i := 0; i < n; i++ {
			p := obj.position[i*3 : i*3+3]
			ew.printf("v %s %s %s\n", ftoa(p[0]), ftoa(p[1]), ftoa(p[2]))
		}
		hasUV := len(obj.uv) >= n*2 && n > 0
		if hasUV {
			for i := 0; i < n; i++ {
				ew.printf("vt %s %s\n", ftoa(float64(obj.uv[i*2])), ftoa(float64(obj.uv[i*2+1])))
			}
		}
		for _, g := range obj.groups {
			ew.printf("usemtl %s\n", g.material)
			for t := 0; t+2 < len(g.faces); t += 3 {
				a, b, c := int(g.faces[t])+offset, int(g.faces[t+1])+offset, int(g.faces[t+2])+offset
				if hasUV {
					ew.printf("f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
				} else {
					ew.printf("f %d %d %d\n", a, b, c)
				}
			}
		}
		if ew.err != nil {
			return fmt.Errorf("object %s: %w", obj.name, ew.err)
		}
		offset += n
	}
	return ew.err
}

func rgb(c color.NRGBA) string {
	return fmt.Sprintf("%s %s %s", ftoa(float64(c.R)/255), ftoa(float64(c.G)/255), ftoa(float64(c.B)/255))
}

func writeMTL(w io.Writer, mats []material) error {
	ew := &errWriter{w: w}
	for _, m := range mats {
		ew.printf("newmtl %s\n", m.name)
		switch {
		case m.water != nil:
			ew.printf("Kd %s\n", rgb(m.water.Color))
			ew.printf("d %s\n", ftoa(float64(m.water.Color.A)/255))
		case m.mat != nil:
			kd := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if m.mat.Color != nil {
				kd = *m.mat.Color
			}
			ew.printf("Kd %s\n", rgb(kd))
			if m.mat.EmissiveColor != nil {
				ew.printf("Ke %s\n", rgb(*m.mat.EmissiveColor))
			}
			if m.blending {
				ew.printf("d %s\n", ftoa(float64(kd.A)/255))
			}
			ew.printf("Pr %s\nPm %s\n", ftoa(m.mat.Roughness), ftoa(m.mat.Metallic))
		}
		if m.kd != "" {
			ew.printf("map_Kd %s\n", m.kd)
		}
		if m.ke != "" {
			ew.printf("map_Ke %s\n", m.ke)
		}
		if m.normal != "" {
			ew.printf("norm %s\n", m.normal)
		}
		if m.opacity != "" {
			ew.printf("map_d %s\n", m.opacity)
		}
		ew.printf("\n")
		if ew.err != nil {
			return fmt.Errorf("material %s: %w", m.name, ew.err)
		}
	}
	return nil
}
