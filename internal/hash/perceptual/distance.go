// Package perceptual implements the image hash algorithms the engine uses
// to find near-duplicates: dHash and pHash. Both produce a 64-bit value
// compared by Hamming distance.
package perceptual

// HammingDistance returns the number of differing bits between two hashes
// computed under the same algorithm. Comparing hashes from different
// algorithms is meaningless and is the caller's responsibility to avoid.
func HammingDistance(a, b uint64) int {
	xor := a ^ b
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1
	}
	return distance
}
