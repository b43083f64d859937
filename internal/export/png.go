package export

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// FlipVertical returns a copy of img with its rows reversed. Textures keep
// row 0 at the southern edge; image files expect it at the top.
func FlipVertical(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	rowSize := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		srcY := b.Dy() - 1 - y // Flip Y
		srcOffset := srcY * img.Stride
		dstOffset := y * out.Stride

		copy(out.Pix[dstOffset:dstOffset+rowSize], img.Pix[srcOffset:srcOffset+rowSize])
	}
	return out
}

// WritePNG encodes img to path, creating the parent directory if needed.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
