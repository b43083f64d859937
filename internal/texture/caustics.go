package texture

import (
	"image"
	"math"

	"github.com/ojrac/opensimplex-go"
)

const (
	causticsScale    = 6.0
	causticsSharp    = 6.0
	causticsStrength = 28.0
)

// Caustics renders a seeded light shimmer pattern. Bright filaments form
// where two noise fields cross zero; elsewhere the image is black, so it is
// neutral under Screen.
func Caustics(width, height int, seed int64) *image.NRGBA {
	noise := opensimplex.New(seed)
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := range height {
		v := float64(y) / float64(max(height, 1)) * causticsScale
		for x := range width {
			u := float64(x) / float64(max(width, 1)) * causticsScale
			a := 1 - math.Abs(noise.Eval2(u, v))
			b := 1 - math.Abs(noise.Eval2(u*1.7+13.1, v*1.7+7.3))
			i := math.Pow(a, causticsSharp) * math.Pow(b, causticsSharp/2)
			c := uint8(math.Round(min(i*causticsStrength, 255)))

			o := img.PixOffset(x, y)
			img.Pix[o] = c
			img.Pix[o+1] = c
			img.Pix[o+2] = c
			img.Pix[o+3] = 255
		}
	}
	return img
}
