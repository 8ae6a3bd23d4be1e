// Package imaging normalizes rasters the way the fingerprinters need them:
// alpha flattened against white, luma via ITU-R BT.601, orientation applied.
package imaging

import (
	"image"
	"image/color"
)

// ITU-R BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ToLumaGray flattens alpha against a white background and converts to a
// single-channel grayscale raster using BT.601 luma weights. Unlike
// image.Image.At().RGBA() (which returns alpha-premultiplied samples),
// this composites transparent pixels against white first, so a half-
// transparent pixel hashes like a washed-out color rather than a dim one.
func ToLumaGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			// r,g,b,a are premultiplied 16-bit samples in [0,65535].
			if a == 0 {
				gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: 255})
				continue
			}
			// Un-premultiply, then composite against white: out = c*a + 255*(1-a).
			alpha := float64(a) / 65535.0
			rf := float64(r) / float64(a)
			gf := float64(g) / float64(a)
			bf := float64(b) / float64(a)

			rOut := rf*alpha + 1.0*(1-alpha)
			gOut := gf*alpha + 1.0*(1-alpha)
			bOut := bf*alpha + 1.0*(1-alpha)

			luma := lumaR*rOut + lumaG*gOut + lumaB*bOut
			v := uint8(clamp01(luma)*255.0 + 0.5)
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: v})
		}
	}

	return gray
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
