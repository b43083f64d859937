package terrain

import (
	"context"
	"testing"

	"github.com/Faultbox/trench-diorama/internal/elevation"
	"github.com/Faultbox/trench-diorama/pkg/geom"
)

var (
	source  = geom.Extent{Xmin: 0, Ymin: 0, Xmax: 1000, Ymax: 1000, WKID: geom.WebMercator}
	display = geom.Extent{Xmin: 0, Ymin: 0, Xmax: 100, Ymax: 100, Zmin: 0, Zmax: 50, WKID: geom.WebMercator}
)

func TestVertexResolution(t *testing.T) {
	tests := []struct {
		name   string
		area   geom.Extent
		pixels int
		want   Resolution
	}{
		{"square", source, 4, Resolution{Width: 4, Height: 4, DemResolution: 250}},
		{"wide", geom.Extent{Xmax: 1000, Ymax: 300}, 10, Resolution{Width: 10, Height: 3, DemResolution: 100}},
		{"ceil", geom.Extent{Xmax: 1000, Ymax: 310}, 10, Resolution{Width: 10, Height: 4, DemResolution: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VertexResolution(tt.area, tt.pixels)
			if err != nil {
				t.Fatalf("VertexResolution: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}

	if _, err := VertexResolution(geom.Extent{}, 4); err == nil {
		t.Error("expected error for empty area")
	}
	if _, err := VertexResolution(source, 0); err == nil {
		t.Error("expected error for zero pixels")
	}
}

func TestFromElevation(t *testing.T) {
	s, err := elevation.Constant(-10).CreateSampler(context.Background(), source, 100)
	if err != nil {
		t.Fatal(err)
	}
	res := Resolution{Width: 4, Height: 2, DemResolution: 250}
	m, err := FromElevation(context.Background(), s, source, res)
	if err != nil {
		t.Fatal(err)
	}

	if m.NumVertices() != 5*3 {
		t.Errorf("expected 15 vertices, got %d", m.NumVertices())
	}
	faces := m.Components[0].Faces
	if len(faces) != 4*2*6 {
		t.Errorf("expected 48 indices, got %d", len(faces))
	}
	for _, f := range faces {
		if int(f) >= m.NumVertices() {
			t.Fatalf("face index %d out of range", f)
		}
	}

	last := m.NumVertices() - 1
	if m.Position[last*3] != 1000 || m.Position[last*3+1] != 1000 {
		t.Errorf("last vertex at %v,%v", m.Position[last*3], m.Position[last*3+1])
	}
	if m.UV[last*2] != 1 || m.UV[last*2+1] != 1 {
		t.Errorf("last uv %v,%v", m.UV[last*2], m.UV[last*2+1])
	}
	for i := 2; i < len(m.Position); i += 3 {
		if m.Position[i] != -10 {
			t.Fatalf("vertex %d: expected z -10, got %v", i/3, m.Position[i])
		}
	}
}

func TestFromElevationCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := elevation.Constant(0).CreateSampler(context.Background(), source, 100)
	if _, err := FromElevation(ctx, s, source, Resolution{Width: 2, Height: 2}); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestRenormalize(t *testing.T) {
	s, _ := (&elevation.FuncProvider{Fn: func(x, y float64) float64 { return x / 100 }}).
		CreateSampler(context.Background(), source, 100)
	raw, err := FromElevation(context.Background(), s, source, Resolution{Width: 4, Height: 4, DemResolution: 250})
	if err != nil {
		t.Fatal(err)
	}
	rawCopy := append([]float64(nil), raw.Position...)

	wide := display
	wide.Xmax = 200
	surf, err := Renormalize(raw, source, wide, func(z float64) float64 { return z * 2 })
	if err != nil {
		t.Fatal(err)
	}

	if surf.Bounds.Min.X != 0 || surf.Bounds.Max.X != 200 || surf.Bounds.Max.Y != 100 {
		t.Errorf("unexpected bounds %+v", surf.Bounds)
	}
	if surf.Zmin() != 0 || surf.Zmax() != 20 {
		t.Errorf("expected z 0..20, got %v..%v", surf.Zmin(), surf.Zmax())
	}
	if len(surf.Mesh.Tangent) != surf.Mesh.NumVertices()*4 {
		t.Fatalf("expected %d tangent values, got %d", surf.Mesh.NumVertices()*4, len(surf.Mesh.Tangent))
	}
	for i := 0; i < len(surf.Mesh.Tangent); i += 4 {
		if surf.Mesh.Tangent[i] != 1 || surf.Mesh.Tangent[i+1] != 0 || surf.Mesh.Tangent[i+2] != 0 || surf.Mesh.Tangent[i+3] != 1 {
			t.Fatalf("tangent %d: %v", i/4, surf.Mesh.Tangent[i:i+4])
		}
	}
	for i, v := range raw.Position {
		if v != rawCopy[i] {
			t.Fatal("Renormalize modified the raw mesh")
		}
	}
}

func TestRenormalizeFlat(t *testing.T) {
	s, _ := elevation.Constant(10).CreateSampler(context.Background(), source, 250)
	ex, err := elevation.NewExaggerated(s, elevation.ExaggerationOptions{DisplayArea: display})
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := FromElevation(context.Background(), s, source, Resolution{Width: 4, Height: 4, DemResolution: 250})
	surf, err := Renormalize(raw, source, display, ex.Transform().Apply)
	if err != nil {
		t.Fatal(err)
	}
	if surf.Zmin() != surf.Zmax() {
		t.Errorf("expected flat mesh, got %v..%v", surf.Zmin(), surf.Zmax())
	}
}

func TestResolutionKey(t *testing.T) {
	r := Resolution{Width: 4, Height: 4, DemResolution: 250}
	other := r
	other.DemResolution = 125
	if r.Key(source) == other.Key(source) {
		t.Error("keys must differ by resolution")
	}
	if r.Key(source) != r.Key(source) {
		t.Error("keys must be stable")
	}
}
