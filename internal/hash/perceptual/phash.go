package perceptual

import (
	"image"
	"math"
	"sort"

	"github.com/darianrosebrook/deduper/internal/imaging"
)

const (
	phashSize      = 32
	phashLowFreq   = 8
)

// PHash computes the perceptual hash: a 32x32 grayscale DCT, keeping the
// top-left 8x8 block of coefficients (excluding DC), thresholded against
// their median. Frequency-based, so it tolerates resizing, mild recompression
// and small color adjustments better than dHash.
type PHash struct{}

// NewPHash returns a ready-to-use PHash calculator.
func NewPHash() *PHash {
	return &PHash{}
}

// Compute normalizes img (orientation must already be applied by the
// caller) and returns its 64-bit perceptual hash.
func (p *PHash) Compute(img image.Image) uint64 {
	resized := imaging.ResizeExact(img, phashSize, phashSize)
	gray := imaging.ToLumaGray(resized)

	matrix := make([][]float64, phashSize)
	for y := 0; y < phashSize; y++ {
		matrix[y] = make([]float64, phashSize)
		for x := 0; x < phashSize; x++ {
			matrix[y][x] = float64(gray.GrayAt(x, y).Y) / 255.0
		}
	}

	dct := dct2D(matrix, phashLowFreq)

	coeffs := make([]float64, 0, phashLowFreq*phashLowFreq-1)
	for y := 0; y < phashLowFreq; y++ {
		for x := 0; x < phashLowFreq; x++ {
			if x == 0 && y == 0 {
				continue // DC component carries average brightness, not structure
			}
			coeffs = append(coeffs, dct[y][x])
		}
	}

	median := medianOf(coeffs)

	var hash uint64
	bit := 0
	for y := 0; y < phashLowFreq; y++ {
		for x := 0; x < phashLowFreq; x++ {
			if x == 0 && y == 0 {
				continue
			}
			if dct[y][x] > median {
				hash |= 1 << uint(bit)
			}
			bit++
		}
	}
	return hash
}

// dct2D computes a 2D DCT-II of matrix, but only the low x low block of
// output frequencies — the only coefficients pHash needs.
func dct2D(matrix [][]float64, low int) [][]float64 {
	n := len(matrix)
	out := make([][]float64, low)
	for u := 0; u < low; u++ {
		out[u] = make([]float64, low)
		for v := 0; v < low; v++ {
			var sum float64
			for i := 0; i < n; i++ {
				cosU := math.Cos(float64((2*i+1)*u) * math.Pi / (2 * float64(n)))
				for j := 0; j < n; j++ {
					cosV := math.Cos(float64((2*j+1)*v) * math.Pi / (2 * float64(n)))
					sum += matrix[i][j] * cosU * cosV
				}
			}
			out[u][v] = sum
		}
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}
