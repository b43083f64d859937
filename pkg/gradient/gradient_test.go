package gradient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testStops() []Stop {
	return []Stop{
		NewStop(0, 0, 0, 0),
		NewStop(0.5, 100, 50, 200),
		NewStop(0.5, 10, 20, 30),
		NewStop(1, 200, 250, 255),
	}
}

func TestRampExactAtStops(t *testing.T) {
	r := NewRamp(testStops())

	assert.Equal(t, RGB{0, 0, 0}, r.At(0))
	assert.Equal(t, RGB{200, 250, 255}, r.At(1))

	// Duplicate offsets resolve to the first stop at that offset without dividing by zero.
	assert.Equal(t, RGB{100, 50, 200}, r.At(0.5))
}

func TestRampClamps(t *testing.T) {
	r := NewRamp([]Stop{NewStop(0.2, 10, 10, 10), NewStop(0.8, 90, 90, 90)})

	assert.Equal(t, RGB{10, 10, 10}, r.At(-5))
	assert.Equal(t, RGB{10, 10, 10}, r.At(0.1))
	assert.Equal(t, RGB{90, 90, 90}, r.At(0.95))
	assert.Equal(t, RGB{90, 90, 90}, r.At(42))
}

func TestRampMonotonic(t *testing.T) {
	r := NewRamp([]Stop{NewStop(0, 0, 10, 20), NewStop(1, 255, 200, 100)})

	prev := r.At(0)
	for i := 1; i <= 100; i++ {
		c := r.At(float64(i) / 100)
		for ch := range 3 {
			assert.GreaterOrEqual(t, c[ch], prev[ch], "channel %d at step %d", ch, i)
		}
		prev = c
	}
	mid := r.At(0.5)
	assert.InDelta(t, 127.5, mid[0], 1e-9)
}

func TestRampEmpty(t *testing.T) {
	assert.Equal(t, RGB{}, NewRamp(nil).At(0.3))
}

func TestStrip(t *testing.T) {
	img := Strip([]Stop{NewStop(0, 0, 0, 0), NewStop(1, 255, 255, 255)})

	require.Equal(t, 1, img.Bounds().Dx())
	require.Equal(t, StripHeight, img.Bounds().Dy())

	first := img.NRGBAAt(0, 0)
	last := img.NRGBAAt(0, StripHeight-1)
	assert.Equal(t, uint8(0), first.R)
	assert.Equal(t, uint8(255), last.R)
	assert.Equal(t, uint8(255), first.A)
	for y := 1; y < StripHeight; y++ {
		assert.GreaterOrEqual(t, img.NRGBAAt(0, y).R, img.NRGBAAt(0, y-1).R)
	}
}

func TestGlass(t *testing.T) {
	img := Glass(64)
	require.Equal(t, 64, img.Bounds().Dx())

	// The highlight center is transparent, the far corner is opaque-ish teal.
	center := img.NRGBAAt(int(64*0.65), int(64*0.35))
	corner := img.NRGBAAt(0, 63)
	assert.Equal(t, uint8(0), center.A)
	assert.Greater(t, corner.A, uint8(0))
	assert.Less(t, corner.R, corner.G)

	assert.Equal(t, 0, Glass(0).Bounds().Dx())
}

func TestStopYAML(t *testing.T) {
	src := `
- offset: 0
  color: "#000004"
- offset: 0.5
  color: "#b5367a"
  alpha: 0.25
`
	var stops []Stop
	require.NoError(t, yaml.Unmarshal([]byte(src), &stops))
	require.Len(t, stops, 2)
	assert.Equal(t, 1.0, stops[0].Alpha)
	assert.Equal(t, 0.25, stops[1].Alpha)
	assert.Equal(t, "#b5367a", stops[1].Hex())

	out, err := yaml.Marshal(stops)
	require.NoError(t, err)

	var again []Stop
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, stops[1].Hex(), again[1].Hex())

	bad := `- {offset: 0, color: "nope"}`
	assert.Error(t, yaml.Unmarshal([]byte(bad), &stops))
}
