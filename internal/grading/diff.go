package grading

import (
	"bytes"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// DiffImage renders a mismatch visualization for two RGBA buffers of the
// given dimensions: matching pixels keep the reference color dimmed to
// grayscale, mismatching pixels are drawn red. Buffers must be
// width*height*4 bytes; a short candidate buffer marks the remainder as
// mismatched.
func DiffImage(reference, candidate []byte, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(reference) < width*height*bytesPerPixel {
		return nil, fmt.Errorf("reference buffer too short: %d bytes for %dx%d", len(reference), width, height)
	}

	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * bytesPerPixel
			if pixelMatches(reference, candidate, off) {
				// Luma approximation keeps the matched region legible
				// without competing with the mismatch highlight.
				r := int(reference[off])
				g := int(reference[off+1])
				b := int(reference[off+2])
				luma := (299*r + 587*g + 114*b) / 1000
				dc.SetRGBA255(luma, luma, luma, 255)
			} else {
				dc.SetRGBA255(220, 38, 38, 255)
			}
			dc.SetPixel(x, y)
		}
	}
	return dc.Image(), nil
}

func pixelMatches(reference, candidate []byte, off int) bool {
	if off+bytesPerPixel > len(candidate) {
		return false
	}
	return reference[off] == candidate[off] &&
		reference[off+1] == candidate[off+1] &&
		reference[off+2] == candidate[off+2] &&
		reference[off+3] == candidate[off+3]
}

// Upscale scales img by an integer factor with nearest-neighbor sampling so
// individual shader pixels stay crisp in the preview.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodePNG renders img into a PNG byte buffer.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
