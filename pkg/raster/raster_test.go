package raster

import (
	"math"
	"testing"

	"github.com/Faultbox/trench-diorama/pkg/geom"
)

func constantSample(z float64) SampleFunc {
	return func(col, row, dcol, drow int) float64 { return z }
}

// planeSample returns z = slope * x where x is the cell column.
func planeSample(slope float64) SampleFunc {
	return func(col, row, dcol, drow int) float64 { return slope * float64(col+dcol) }
}

func unitExtent(n int) geom.Extent {
	return geom.Extent{Xmax: float64(n), Ymax: float64(n)}
}

func TestFlatHillshadeIsCosZenith(t *testing.T) {
	want := math.Cos(toRad(90 - DefaultAltitude))

	for _, multi := range []bool{false, true} {
		s := DefaultHillshadeSettings(8, 8, unitExtent(8))
		s.Multi = multi
		values := HillshadeValues(constantSample(-4000), s)
		for i, v := range values {
			if math.Abs(v-want) > 1e-12 {
				t.Fatalf("multi=%v pixel %d = %v, want %v", multi, i, v, want)
			}
		}
	}
}

func TestFlatHillshadeWithStretch(t *testing.T) {
	s := DefaultHillshadeSettings(4, 4, unitExtent(4))
	s.StretchStddev = 2
	want := math.Cos(toRad(45))
	for i, v := range HillshadeValues(constantSample(10), s) {
		if math.IsNaN(v) {
			t.Fatalf("pixel %d is NaN", i)
		}
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("pixel %d = %v, want %v", i, v, want)
		}
	}
}

func TestSlopeAspectFlat(t *testing.T) {
	d := CalculateDerivatives(constantSample(3), 1, 1, 1, 1)
	sa := SlopeAspectFrom(d, 1)
	if sa.Slope != 0 || sa.Aspect != 0 {
		t.Errorf("flat slope/aspect = %+v, want zero", sa)
	}
}

func TestSlopeAspectPlane(t *testing.T) {
	d := CalculateDerivatives(planeSample(2), 5, 5, 1, 1)
	if math.Abs(d.DX-2) > 1e-12 || d.DY != 0 {
		t.Fatalf("derivatives = %+v, want dx=2 dy=0", d)
	}
	sa := SlopeAspectFrom(d, 1)
	if math.Abs(sa.Slope-math.Atan(2)) > 1e-12 {
		t.Errorf("slope = %v, want %v", sa.Slope, math.Atan(2))
	}
	if math.Abs(sa.Aspect-math.Pi) > 1e-12 {
		t.Errorf("aspect = %v, want π", sa.Aspect)
	}
}

func TestAspectDegenerateCases(t *testing.T) {
	tests := []struct {
		name string
		d    Derivatives
		want float64
	}{
		{"dy positive", Derivatives{DX: 0, DY: 1}, math.Pi / 2},
		{"dy negative", Derivatives{DX: 0, DY: -1}, 3 * math.Pi / 2},
		{"flat", Derivatives{}, 0},
		{"wraps negative", Derivatives{DX: 1, DY: -1}, 2*math.Pi + math.Atan2(-1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SlopeAspectFrom(tt.d, 1).Aspect
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("aspect = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 2*math.Pi {
				t.Errorf("aspect %v outside [0, 2π)", got)
			}
		})
	}
}

func TestNormalizeAzimuth(t *testing.T) {
	// North (0°) maps to π/2 in math convention, east (90°) to 0 (mod 2π).
	if got := NormalizeAzimuth(0); math.Abs(math.Mod(got, 2*math.Pi)-math.Pi/2) > 1e-12 {
		t.Errorf("NormalizeAzimuth(0) = %v", got)
	}
	if got := NormalizeAzimuth(90); math.Abs(math.Mod(got, 2*math.Pi)) > 1e-12 {
		t.Errorf("NormalizeAzimuth(90) = %v", got)
	}
}

func TestStretchStddev(t *testing.T) {
	values := []float64{0, 0.5, 1}
	StretchStddev(values, 1)
	if values[0] != 0 || values[2] != 1 {
		t.Errorf("extremes = %v, want clamped to 0 and 1", values)
	}
	if math.Abs(values[1]-0.5) > 1e-12 {
		t.Errorf("mean = %v, want 0.5", values[1])
	}

	constant := []float64{0.3, 0.3, 0.3}
	StretchStddev(constant, 2)
	for _, v := range constant {
		if v != 0.3 {
			t.Errorf("zero variance changed value to %v", v)
		}
	}

	StretchStddev(nil, 1)
}

func TestHillshadeOutputLayout(t *testing.T) {
	s := DefaultHillshadeSettings(3, 2, unitExtent(3))
	gray := Hillshade(constantSample(0), s)
	if len(gray) != 6 {
		t.Fatalf("gray len = %d, want 6", len(gray))
	}

	s.ColorOutput = true
	rgba := Hillshade(constantSample(0), s)
	if len(rgba) != 24 {
		t.Fatalf("rgba len = %d, want 24", len(rgba))
	}
	want := ClampByte(255 * math.Cos(toRad(45)))
	for i := 0; i < len(rgba); i += 4 {
		if rgba[i] != want || rgba[i+1] != want || rgba[i+2] != want || rgba[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want gray %d", i/4, rgba[i:i+4], want)
		}
	}
}

func TestNormalsFlat(t *testing.T) {
	out := Normals(constantSample(5), NormalSettings{Width: 2, Height: 2, Extent: unitExtent(2)})
	for i := 0; i < len(out); i += 4 {
		if out[i] != 128 || out[i+1] != 128 || out[i+2] != 255 || out[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want [128 128 255 255]", i/4, out[i:i+4])
		}
	}
}

func TestNormalsTilted(t *testing.T) {
	n := Normal(Derivatives{DX: 1, DY: 0})
	if n.X >= 0 || n.Z <= 0 {
		t.Errorf("normal of rising x slope should lean to -x: %v", n)
	}
	if math.Abs(n.Length()-1) > 1e-12 {
		t.Errorf("normal not unit length: %v", n.Length())
	}
}

func TestGridSampleClamps(t *testing.T) {
	g := NewGrid(3, 2, geom.Extent{Xmax: 3, Ymax: 2}, func(x, y float64) float64 { return x + 10*y })

	if got := g.Sample(0, 0, 0, 0); got != 0 {
		t.Errorf("origin = %v", got)
	}
	if got := g.Sample(2, 1, 0, 0); got != 12 {
		t.Errorf("(2,1) = %v, want 12", got)
	}
	if got := g.Sample(0, 0, -1, -1); got != 0 {
		t.Errorf("clamped low = %v", got)
	}
	if got := g.Sample(2, 1, 1, 1); got != 12 {
		t.Errorf("clamped high = %v", got)
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{math.NaN(), 0},
		{-3, 0},
		{300, 255},
		{127.5, 128},
		{126.5, 126},
		{12.2, 12},
	}
	for _, tt := range tests {
		if got := ClampByte(tt.in); got != tt.want {
			t.Errorf("ClampByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
