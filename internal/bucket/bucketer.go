// Package bucket partitions a set of assets into comparison buckets so the
// scorer never has to evaluate the full N(N-1)/2 pairs.
package bucket

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/bktree"
)

// Config tunes the bucketing heuristics.
type Config struct {
	NearDupRadius      int
	CaptureSkewSeconds float64
}

// DefaultConfig returns the documented bucketing defaults.
func DefaultConfig() Config {
	return Config{NearDupRadius: api.DefaultHashNearDupThreshold, CaptureSkewSeconds: api.DefaultCaptureSkewSeconds}
}

// Bucketer groups assets using the strategies in spec order: checksum,
// dimensions+size, near-hash (via a BK-tree index), video signature, and
// capture-time+size as a fallback for hashless assets.
type Bucketer struct {
	cfg   Config
	index *bktree.Index
}

// NewBucketer returns a Bucketer that queries index for near-hash buckets.
func NewBucketer(cfg Config, index *bktree.Index) *Bucketer {
	return &Bucketer{cfg: cfg, index: index}
}

// Build runs every strategy over assets and returns the resulting buckets.
// Each asset may land in more than one bucket; cross-bucket pairs are
// assumed non-duplicates by the caller.
func (b *Bucketer) Build(assets []api.Asset) []api.Bucket {
	var buckets []api.Bucket
	buckets = append(buckets, b.checksumBuckets(assets)...)
	buckets = append(buckets, b.dimensionSizeBuckets(assets)...)
	buckets = append(buckets, b.nearHashBuckets(assets)...)
	buckets = append(buckets, b.videoSignatureBuckets(assets)...)
	buckets = append(buckets, b.captureTimeSizeBuckets(assets)...)
	return finalizeStats(buckets)
}

func finalizeStats(buckets []api.Bucket) []api.Bucket {
	for i := range buckets {
		n := int64(buckets[i].Size)
		buckets[i].EstimatedComparisons = n * (n - 1) / 2
	}
	return buckets
}

func (b *Bucketer) checksumBuckets(assets []api.Asset) []api.Bucket {
	byChecksum := make(map[string][]string)
	for _, a := range assets {
		if a.Checksum == "" {
			continue
		}
		byChecksum[a.Checksum] = append(byChecksum[a.Checksum], a.ID)
	}
	return toBuckets(byChecksum, "content.checksum", func(k string) api.BucketKey {
		return api.BucketKey("checksum:" + k)
	})
}

func (b *Bucketer) dimensionSizeBuckets(assets []api.Asset) []api.Bucket {
	byKey := make(map[string][]string)
	for _, a := range assets {
		if !a.HasDimensions {
			continue
		}
		key := fmt.Sprintf("%d:%d:%d:n", round(a.Width, 4), round(a.Height, 4), round64(a.FileSize, 32*1024))
		byKey[key] = append(byKey[key], a.ID)
	}
	return toBuckets(byKey, "image.dimensions+size", func(k string) api.BucketKey {
		return api.BucketKey("dimsize:" + k)
	})
}

func (b *Bucketer) nearHashBuckets(assets []api.Asset) []api.Bucket {
	if b.index == nil {
		return nil
	}
	var buckets []api.Bucket
	for _, a := range assets {
		for algo, hashValue := range a.ImageHashes {
			if algo != api.AlgoDHash && algo != api.AlgoPHash {
				continue
			}
			exclude := map[string]bool{a.ID: true}
			hits := b.index.Search(algo, hashValue, b.cfg.NearDupRadius, exclude)
			if len(hits) == 0 {
				continue
			}
			ids := []string{a.ID}
			for _, h := range hits {
				ids = append(ids, h.FileID)
			}
			buckets = append(buckets, api.Bucket{
				Key:           api.BucketKey(fmt.Sprintf("nearhash:%s:%s", algo, a.ID)),
				FileIDs:       ids,
				HeuristicName: "image.hash.near",
				Size:          len(ids),
			})
		}
	}
	return buckets
}

func (b *Bucketer) videoSignatureBuckets(assets []api.Asset) []api.Bucket {
	byKey := make(map[string][]string)
	for _, a := range assets {
		if a.MediaType != api.MediaVideo || a.VideoSignature == nil {
			continue
		}
		sig := a.VideoSignature
		durationBin := int(sig.DurationSec / 2.0)
		var firstTopBits uint64
		if len(sig.FrameHashes) > 0 {
			firstTopBits = sig.FrameHashes[0] >> 48
		}
		key := fmt.Sprintf("%d:%d:%d:%d", durationBin, sig.Width, sig.Height, firstTopBits)
		byKey[key] = append(byKey[key], a.ID)
	}
	return toBuckets(byKey, "video.signature", func(k string) api.BucketKey {
		return api.BucketKey("videosig:" + k)
	})
}

func (b *Bucketer) captureTimeSizeBuckets(assets []api.Asset) []api.Bucket {
	byKey := make(map[string][]string)
	for _, a := range assets {
		if len(a.ImageHashes) > 0 || a.VideoSignature != nil {
			continue // only a fallback for hashless assets
		}
		if !a.HasCaptureTime {
			continue
		}
		skewBucket := int64(a.CaptureTime.Unix() / int64(b.cfg.CaptureSkewSeconds+1))
		key := fmt.Sprintf("%d:%d", skewBucket, round64(a.FileSize, 32*1024))
		byKey[key] = append(byKey[key], a.ID)
	}
	return toBuckets(byKey, "captureTime+size", func(k string) api.BucketKey {
		return api.BucketKey("capturesize:" + k)
	})
}

func toBuckets(byKey map[string][]string, heuristic string, keyFn func(string) api.BucketKey) []api.Bucket {
	var buckets []api.Bucket
	for k, ids := range byKey {
		if len(ids) < 2 {
			continue
		}
		buckets = append(buckets, api.Bucket{
			Key:           keyFn(k),
			FileIDs:       ids,
			HeuristicName: heuristic,
			Size:          len(ids),
		})
	}
	return buckets
}

func round(v, step int) int {
	if step == 0 {
		return v
	}
	return (v + step/2) / step
}

func round64(v int64, step int64) int64 {
	if step == 0 {
		return v
	}
	return (v + step/2) / step
}

// PreviewCandidates returns only buckets every member of which lies in
// scope.
func PreviewCandidates(buckets []api.Bucket, scope map[string]bool) []api.Bucket {
	var out []api.Bucket
	for _, b := range buckets {
		all := true
		for _, id := range b.FileIDs {
			if !scope[id] {
				all = false
				break
			}
		}
		if all {
			out = append(out, b)
		}
	}
	return out
}

// NameStemEqual reports whether two paths have the same filename stem
// ignoring case and extension — used by the scorer's name signal.
func NameStemEqual(pathA, pathB string) bool {
	stem := func(p string) string {
		base := filepath.Base(p)
		ext := filepath.Ext(base)
		return strings.ToLower(strings.TrimSuffix(base, ext))
	}
	return stem(pathA) == stem(pathB)
}
