package fingerprint

import (
	"image"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/hash/perceptual"
)

// ImageFingerprinter computes perceptual hashes for a decoded photo. dHash
// is always computed when enabled; pHash only when configured, since it
// costs roughly an order of magnitude more CPU per image.
type ImageFingerprinter struct {
	decoder  ImageDecoder
	enableD  bool
	enableP  bool
	maxDim   int
}

// NewImageFingerprinter returns a fingerprinter backed by decoder. enableD
// and enableP control which algorithms run; maxDim bounds the decode size
// (0 for unbounded).
func NewImageFingerprinter(decoder ImageDecoder, enableD, enableP bool, maxDim int) *ImageFingerprinter {
	return &ImageFingerprinter{decoder: decoder, enableD: enableD, enableP: enableP, maxDim: maxDim}
}

// Hash decodes data and returns every enabled hash for it. An image whose
// decoded dimensions fall below api.MinHashableDimension on either axis
// yields ErrBelowMinimumSize.
func (f *ImageFingerprinter) Hash(data []byte) ([]api.ImageHash, error) {
	img, err := f.decoder.Decode(data, f.maxDim)
	if err != nil {
		return nil, api.ErrDecodeFailed
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < api.MinHashableDimension || h < api.MinHashableDimension {
		return nil, api.ErrBelowMinimumSize
	}

	now := time.Now()
	var hashes []api.ImageHash

	if f.enableD {
		v := computeDHash(img)
		hashes = append(hashes, api.ImageHash{Algorithm: api.AlgoDHash, Value: v, Width: w, Height: h, ComputedAt: now})
	}
	if f.enableP {
		v := computePHash(img)
		hashes = append(hashes, api.ImageHash{Algorithm: api.AlgoPHash, Value: v, Width: w, Height: h, ComputedAt: now})
	}

	return hashes, nil
}

var (
	dhashCalc = perceptual.NewDHash()
	phashCalc = perceptual.NewPHash()
)

func computeDHash(img image.Image) uint64 { return dhashCalc.Compute(img) }
func computePHash(img image.Image) uint64 { return phashCalc.Compute(img) }
