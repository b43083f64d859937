package geom

import (
	"errors"
	"testing"
)

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 4, 0}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestExtentDimensions(t *testing.T) {
	e := Extent{Xmin: 10, Ymin: 20, Xmax: 110, Ymax: 70, Zmin: -5, Zmax: 5}
	if e.Width() != 100 {
		t.Errorf("Width() = %v, want 100", e.Width())
	}
	if e.Height() != 50 {
		t.Errorf("Height() = %v, want 50", e.Height())
	}
	if got := e.Center(); got != (Vec3{60, 45, 0}) {
		t.Errorf("Center() = %v", got)
	}
	if !e.Contains(10, 70) || e.Contains(9, 30) {
		t.Error("Contains() edge handling is wrong")
	}
}

func TestExtentExpand(t *testing.T) {
	e := Extent{Xmin: 0, Ymin: 0, Xmax: 10, Ymax: 10}
	got := e.Expand(2)
	want := Extent{Xmin: -5, Ymin: -5, Xmax: 15, Ymax: 15}
	if got != want {
		t.Errorf("Expand(2) = %v, want %v", got, want)
	}
}

func TestExtentValidate(t *testing.T) {
	tests := []struct {
		name string
		e    Extent
		ok   bool
	}{
		{"valid", Extent{Xmax: 1, Ymax: 1}, true},
		{"zero width", Extent{Xmax: 0, Ymax: 1}, false},
		{"zero height", Extent{Xmax: 1, Ymax: 0}, false},
		{"inverted", Extent{Xmin: 2, Xmax: 1, Ymax: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidExtent) {
				t.Errorf("expected ErrInvalidExtent, got %v", err)
			}
		})
	}
}

func TestExtentKeyStable(t *testing.T) {
	a := Extent{Xmin: 0.1, Ymin: 0.2, Xmax: 1000, Ymax: 1000, WKID: WebMercator}
	b := a
	if a.Key() != b.Key() {
		t.Error("identical extents should share a key")
	}
	b.Xmax = 1000.0000001
	if a.Key() == b.Key() {
		t.Error("different extents should not share a key")
	}
}

func TestAreaScale(t *testing.T) {
	source := Extent{Xmax: 1000, Ymax: 2000}
	display := Extent{Xmax: 100, Ymax: 100}
	got, err := AreaScale(source, display)
	if err != nil {
		t.Fatalf("AreaScale: %v", err)
	}
	if got != 0.05 {
		t.Errorf("AreaScale = %v, want 0.05", got)
	}

	if _, err := AreaScale(source, Extent{}); !errors.Is(err, ErrInvalidExtent) {
		t.Errorf("expected ErrInvalidExtent for empty display, got %v", err)
	}
}

func TestExtentIsZero(t *testing.T) {
	if !(Extent{}).IsZero() {
		t.Error("zero extent should report IsZero")
	}
	if (Extent{WKID: WebMercator}).IsZero() {
		t.Error("tagged extent should not report IsZero")
	}
}
