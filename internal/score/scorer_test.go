package score_test

import (
	"context"
	"testing"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer() *score.Scorer {
	return score.NewScorer(score.DefaultWeights(), score.DefaultLimits(), score.DefaultThresholds(),
		api.DefaultHashNearDupThreshold, score.DefaultPolicies(), nil, score.DefaultConcurrency())
}

func TestScoreBuckets_ChecksumMatchScoresFull(t *testing.T) {
	s := newScorer()
	assets := map[string]api.Asset{
		"a": {ID: "a", Checksum: "sum1"},
		"b": {ID: "b", Checksum: "sum1"},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b"}, Size: 2}}

	groups, metrics := s.ScoreBuckets(context.Background(), buckets, assets)
	require.Len(t, groups, 1)
	assert.Equal(t, 1.0, groups[0].Confidence)
	assert.Contains(t, groups[0].RationaleLines, "checksum")
	assert.Equal(t, int64(1), metrics.TotalComparisons)
	assert.NotEmpty(t, groups[0].GroupID)
}

func TestScoreBuckets_EachGroupGetsADistinctGroupID(t *testing.T) {
	s := newScorer()
	assets := map[string]api.Asset{
		"a": {ID: "a", Checksum: "sum1"},
		"b": {ID: "b", Checksum: "sum1"},
		"c": {ID: "c", Checksum: "sum2"},
		"d": {ID: "d", Checksum: "sum2"},
	}
	buckets := []api.Bucket{
		{Key: "k1", FileIDs: []string{"a", "b"}, Size: 2},
		{Key: "k2", FileIDs: []string{"c", "d"}, Size: 2},
	}

	groups, _ := s.ScoreBuckets(context.Background(), buckets, assets)
	require.Len(t, groups, 2)
	assert.NotEmpty(t, groups[0].GroupID)
	assert.NotEmpty(t, groups[1].GroupID)
	assert.NotEqual(t, groups[0].GroupID, groups[1].GroupID)
}

func TestScoreBuckets_BelowSimilarThresholdIsDropped(t *testing.T) {
	s := newScorer()
	assets := map[string]api.Asset{
		"a": {ID: "a", Path: "a.jpg"},
		"b": {ID: "b", Path: "zzz.jpg"},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b"}, Size: 2}}

	groups, _ := s.ScoreBuckets(context.Background(), buckets, assets)
	assert.Empty(t, groups)
}

func TestScoreBuckets_HashAndNameSignalsCombine(t *testing.T) {
	s := newScorer()
	assets := map[string]api.Asset{
		"a": {ID: "a", Path: "IMG_0001.jpg", ImageHashes: map[api.HashAlgorithm]uint64{api.AlgoDHash: 0b0000}},
		"b": {ID: "b", Path: "IMG_0001_copy.jpg", ImageHashes: map[api.HashAlgorithm]uint64{api.AlgoDHash: 0b0001}},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b"}, Size: 2}}

	groups, _ := s.ScoreBuckets(context.Background(), buckets, assets)
	require.Len(t, groups, 1)
	assert.Contains(t, groups[0].RationaleLines, "hash")
	assert.InDelta(t, api.DefaultWeightHash, groups[0].Confidence, 0.001)
}

func TestScoreBuckets_IgnoredPairIsSkipped(t *testing.T) {
	s := score.NewScorer(score.DefaultWeights(), score.DefaultLimits(), score.DefaultThresholds(),
		api.DefaultHashNearDupThreshold, score.DefaultPolicies(), [][2]string{{"a", "b"}}, score.DefaultConcurrency())
	assets := map[string]api.Asset{
		"a": {ID: "a", Checksum: "sum1"},
		"b": {ID: "b", Checksum: "sum1"},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b"}, Size: 2}}

	groups, metrics := s.ScoreBuckets(context.Background(), buckets, assets)
	assert.Empty(t, groups)
	assert.Equal(t, int64(0), metrics.TotalComparisons)
}

func TestScoreBuckets_MaxBucketSizeBelowTwoFormsNoGroup(t *testing.T) {
	limits := score.DefaultLimits()
	limits.MaxBucketSize = 1
	s := score.NewScorer(score.DefaultWeights(), limits, score.DefaultThresholds(),
		api.DefaultHashNearDupThreshold, score.DefaultPolicies(), nil, score.DefaultConcurrency())

	assets := map[string]api.Asset{
		"a": {ID: "a", Checksum: "sum1"},
		"b": {ID: "b", Checksum: "sum1"},
		"c": {ID: "c", Checksum: "sum1"},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b", "c"}, Size: 3}}

	groups, _ := s.ScoreBuckets(context.Background(), buckets, assets)
	// With MaxBucketSize=1, fewer than 2 ids survive truncation, so no group forms.
	assert.Empty(t, groups)
}

func TestScoreBuckets_TimeBudgetExceededBeforeFirstComparisonFormsNoGroup(t *testing.T) {
	limits := score.DefaultLimits()
	limits.TimeBudget = 0 // deadline is already in the past
	s := score.NewScorer(score.DefaultWeights(), limits, score.DefaultThresholds(),
		api.DefaultHashNearDupThreshold, score.DefaultPolicies(), nil, score.DefaultConcurrency())

	assets := map[string]api.Asset{
		"a": {ID: "a", Checksum: "sum1"},
		"b": {ID: "b", Checksum: "sum1"},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b"}, Size: 2}}

	time.Sleep(time.Millisecond)
	groups, _ := s.ScoreBuckets(context.Background(), buckets, assets)
	require.Len(t, groups, 0)
}

func TestScoreBuckets_ContextCancellationStopsEarly(t *testing.T) {
	s := newScorer()
	assets := map[string]api.Asset{
		"a": {ID: "a", Checksum: "sum1"},
		"b": {ID: "b", Checksum: "sum1"},
	}
	buckets := []api.Bucket{{Key: "k", FileIDs: []string{"a", "b"}, Size: 2}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	groups, _ := s.ScoreBuckets(ctx, buckets, assets)
	assert.Empty(t, groups)
}
