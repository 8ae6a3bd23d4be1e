package perceptual

import (
	"image"

	"github.com/darianrosebrook/deduper/internal/imaging"
)

// DHash computes the difference hash: a 9x8 downscale where each bit
// records whether a pixel is brighter than its right-hand neighbor.
// Gradient-based, so small lossless re-encodes and minor crops leave most
// bits unchanged.
type DHash struct{}

// NewDHash returns a ready-to-use DHash calculator.
func NewDHash() *DHash {
	return &DHash{}
}

// Compute normalizes img (orientation must already be applied by the
// caller) and returns its 64-bit difference hash.
func (d *DHash) Compute(img image.Image) uint64 {
	resized := imaging.ResizeExact(img, 9, 8)
	gray := imaging.ToLumaGray(resized)

	var hash uint64
	bit := 0
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			left := gray.GrayAt(x, y).Y
			right := gray.GrayAt(x+1, y).Y
			if right > left {
				hash |= 1 << uint(bit)
			}
			bit++
		}
	}
	return hash
}
