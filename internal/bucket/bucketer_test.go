package bucket_test

import (
	"testing"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/bktree"
	"github.com/darianrosebrook/deduper/internal/bucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findBucket(t *testing.T, buckets []api.Bucket, heuristic string) api.Bucket {
	t.Helper()
	for _, b := range buckets {
		if b.HeuristicName == heuristic {
			return b
		}
	}
	require.Failf(t, "bucket not found", "no bucket with heuristic %q", heuristic)
	return api.Bucket{}
}

func TestBucketer_ChecksumBucketsGroupExactMatches(t *testing.T) {
	b := bucket.NewBucketer(bucket.DefaultConfig(), nil)
	assets := []api.Asset{
		{ID: "a", Checksum: "sum1"},
		{ID: "b", Checksum: "sum1"},
		{ID: "c", Checksum: "sum2"},
	}
	buckets := b.Build(assets)
	got := findBucket(t, buckets, "content.checksum")
	assert.ElementsMatch(t, []string{"a", "b"}, got.FileIDs)
	assert.Equal(t, int64(1), got.EstimatedComparisons)
}

func TestBucketer_SingletonsAreNotBucketed(t *testing.T) {
	b := bucket.NewBucketer(bucket.DefaultConfig(), nil)
	assets := []api.Asset{{ID: "a", Checksum: "sum1"}}
	buckets := b.Build(assets)
	for _, got := range buckets {
		assert.NotContains(t, got.FileIDs, "a")
	}
}

func TestBucketer_DimensionSizeBucketsRoundToCoarseBins(t *testing.T) {
	b := bucket.NewBucketer(bucket.DefaultConfig(), nil)
	assets := []api.Asset{
		{ID: "a", HasDimensions: true, Width: 4000, Height: 3000, FileSize: 5_000_000},
		{ID: "b", HasDimensions: true, Width: 4001, Height: 2999, FileSize: 5_000_100},
	}
	buckets := b.Build(assets)
	got := findBucket(t, buckets, "image.dimensions+size")
	assert.ElementsMatch(t, []string{"a", "b"}, got.FileIDs)
}

func TestBucketer_NearHashBucketsQueryIndex(t *testing.T) {
	ix := bktree.NewIndex()
	ix.Insert(api.AlgoDHash, "existing", 0b0000)

	b := bucket.NewBucketer(bucket.Config{NearDupRadius: 2}, ix)
	assets := []api.Asset{
		{ID: "query", ImageHashes: map[api.HashAlgorithm]uint64{api.AlgoDHash: 0b0001}},
	}
	buckets := b.Build(assets)
	got := findBucket(t, buckets, "image.hash.near")
	assert.ElementsMatch(t, []string{"query", "existing"}, got.FileIDs)
}

func TestBucketer_VideoSignatureBucketsGroupBySignature(t *testing.T) {
	b := bucket.NewBucketer(bucket.DefaultConfig(), nil)
	sig := &api.VideoSignature{DurationSec: 10, Width: 1920, Height: 1080, FrameHashes: []uint64{0xFF00000000000000}}
	assets := []api.Asset{
		{ID: "a", MediaType: api.MediaVideo, VideoSignature: sig},
		{ID: "b", MediaType: api.MediaVideo, VideoSignature: sig},
	}
	buckets := b.Build(assets)
	got := findBucket(t, buckets, "video.signature")
	assert.ElementsMatch(t, []string{"a", "b"}, got.FileIDs)
}

func TestBucketer_CaptureTimeSizeIsHashlessFallbackOnly(t *testing.T) {
	b := bucket.NewBucketer(bucket.DefaultConfig(), nil)
	now := time.Now()
	assets := []api.Asset{
		{ID: "hashless1", HasCaptureTime: true, CaptureTime: now, FileSize: 1000},
		{ID: "hashless2", HasCaptureTime: true, CaptureTime: now, FileSize: 1000},
		{ID: "hashed", HasCaptureTime: true, CaptureTime: now, FileSize: 1000,
			ImageHashes: map[api.HashAlgorithm]uint64{api.AlgoDHash: 1}},
	}
	buckets := b.Build(assets)
	got := findBucket(t, buckets, "captureTime+size")
	assert.ElementsMatch(t, []string{"hashless1", "hashless2"}, got.FileIDs)
}

func TestNameStemEqual(t *testing.T) {
	assert.True(t, bucket.NameStemEqual("/a/IMG_0001.jpg", "/b/img_0001.HEIC"))
	assert.False(t, bucket.NameStemEqual("/a/IMG_0001.jpg", "/b/IMG_0002.jpg"))
}

func TestPreviewCandidates_FiltersByScope(t *testing.T) {
	buckets := []api.Bucket{
		{Key: "k1", FileIDs: []string{"a", "b"}},
		{Key: "k2", FileIDs: []string{"a", "c"}},
	}
	scope := map[string]bool{"a": true, "b": true}
	got := bucket.PreviewCandidates(buckets, scope)
	require.Len(t, got, 1)
	assert.Equal(t, api.BucketKey("k1"), got[0].Key)
}
