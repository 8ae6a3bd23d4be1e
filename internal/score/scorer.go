// Package score computes confidence for candidate duplicate groups by
// summing weighted signals, and applies the RAW+JPEG / Live Photo cross-
// type policies.
package score

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/bucket"
	"github.com/darianrosebrook/deduper/internal/hash/perceptual"
	"github.com/darianrosebrook/deduper/internal/scheduler"
	"github.com/google/uuid"
)

// Weights holds the per-signal contributions, overridable via config.
type Weights struct {
	Hash        float64
	Metadata    float64
	CaptureTime float64
	Name        float64
	PolicyBonus float64
}

// DefaultWeights returns the documented default weights.
func DefaultWeights() Weights {
	return Weights{
		Hash:        api.DefaultWeightHash,
		Metadata:    api.DefaultWeightMetadata,
		CaptureTime: api.DefaultWeightCaptureTime,
		Name:        api.DefaultWeightName,
		PolicyBonus: api.DefaultWeightPolicyBonus,
	}
}

// Limits bounds how much work the scorer does on a single bucket before
// flagging its groups incomplete.
type Limits struct {
	MaxComparisonsPerBucket int64
	MaxBucketSize           int
	TimeBudget              time.Duration
}

// DefaultLimits returns the documented default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxComparisonsPerBucket: api.DefaultMaxComparisonsPerBucket,
		MaxBucketSize:           api.DefaultMaxBucketSize,
		TimeBudget:              time.Duration(api.DefaultTimeBudgetMS) * time.Millisecond,
	}
}

// Thresholds separates "duplicate", "similar" and "discard" groups.
type Thresholds struct {
	ConfidenceDuplicate float64
	ConfidenceSimilar   float64
}

// DefaultThresholds returns the documented default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{ConfidenceDuplicate: api.DefaultConfidenceDuplicate, ConfidenceSimilar: api.DefaultConfidenceSimilar}
}

// Concurrency tunes the worker pool ScoreBuckets spreads bucket scoring
// across, and the memory-pressure monitor that adapts it.
type Concurrency struct {
	Workers                 int
	MemoryLimitBytes        uint64
	MemoryPressureThreshold float64
	MonitorInterval         time.Duration
}

// DefaultConcurrency returns the documented concurrency defaults: one
// worker per GOMAXPROCS, halved past the default memory pressure threshold.
func DefaultConcurrency() Concurrency {
	return Concurrency{
		Workers:                 0,
		MemoryLimitBytes:        api.DefaultMemoryLimitBytes,
		MemoryPressureThreshold: api.DefaultMemoryPressureThreshold,
		MonitorInterval:         time.Second,
	}
}

// Scorer evaluates buckets of assets and emits DuplicateGroups.
type Scorer struct {
	weights       Weights
	limits        Limits
	thresholds    Thresholds
	nearDupRadius int
	policies      Policies
	ignoredPairs  map[[2]string]bool
	concurrency   Concurrency
}

// NewScorer returns a Scorer built from the given tuning parameters,
// scoring buckets across concurrency.Workers worker goroutines.
func NewScorer(w Weights, l Limits, t Thresholds, nearDupRadius int, policies Policies, ignoredPairs [][2]string, concurrency Concurrency) *Scorer {
	m := make(map[[2]string]bool, len(ignoredPairs))
	for _, p := range ignoredPairs {
		m[normalizedPair(p[0], p[1])] = true
	}
	return &Scorer{weights: w, limits: l, thresholds: t, nearDupRadius: nearDupRadius, policies: policies, ignoredPairs: m, concurrency: concurrency}
}

func normalizedPair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ScoreBuckets scores every bucket independently, spread across a worker
// pool so buckets are evaluated in parallel rather than one at a time, and
// returns the surviving groups plus run metrics. Concurrency is halved
// under memory pressure and restored as pressure drops (Concurrency).
// ctx cancellation is honored between bucket dispatch and between pair
// comparisons within a bucket.
func (s *Scorer) ScoreBuckets(ctx context.Context, buckets []api.Bucket, assetByID map[string]api.Asset) ([]api.DuplicateGroup, api.ScoringMetrics) {
	metrics := api.ScoringMetrics{TotalAssets: len(assetByID), BucketsCreated: len(buckets)}
	metrics.NaiveComparisons = int64(len(assetByID)) * int64(len(assetByID)-1) / 2

	deadline := time.Now().Add(s.limits.TimeBudget)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()

	pool := scheduler.New(s.concurrency.Workers)
	pool.Start(ctx)
	if s.concurrency.MemoryLimitBytes > 0 {
		monitor := scheduler.NewMemoryMonitor(pool, s.concurrency.MemoryLimitBytes, s.concurrency.MemoryPressureThreshold, s.concurrency.MonitorInterval)
		go monitor.Run(monitorCtx)
	}

	var (
		mu               sync.Mutex
		groups           []api.DuplicateGroup
		totalComparisons int64
	)

	for _, b := range buckets {
		if err := scheduler.Check(ctx); err != nil {
			break
		}
		b := b
		pool.Submit(func(jobCtx context.Context) error {
			if err := scheduler.Check(jobCtx); err != nil {
				return err
			}
			group, comparisons := s.scoreBucket(jobCtx, b, assetByID, deadline)
			mu.Lock()
			totalComparisons += comparisons
			if group != nil {
				groups = append(groups, *group)
			}
			mu.Unlock()
			return nil
		})
	}
	pool.Close()

	metrics.TotalComparisons = totalComparisons
	if metrics.NaiveComparisons > 0 {
		metrics.ReductionPercentage = 100 * (1.0 - float64(metrics.TotalComparisons)/float64(metrics.NaiveComparisons))
	}
	return groups, metrics
}

func (s *Scorer) scoreBucket(ctx context.Context, b api.Bucket, assetByID map[string]api.Asset, deadline time.Time) (*api.DuplicateGroup, int64) {
	ids := b.FileIDs
	incomplete := false
	if len(ids) > s.limits.MaxBucketSize {
		ids = ids[:s.limits.MaxBucketSize]
		incomplete = true
	}

	memberScore := make(map[string]api.GroupMember, len(ids))
	for _, id := range ids {
		if a, ok := assetByID[id]; ok {
			memberScore[id] = api.GroupMember{FileID: id, FileSize: a.FileSize}
		}
	}

	var comparisons int64
	var rationale []string

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			select {
			case <-ctx.Done():
				incomplete = true
				goto done
			default:
			}
			if time.Now().After(deadline) {
				incomplete = true
				goto done
			}
			if comparisons >= s.limits.MaxComparisonsPerBucket {
				incomplete = true
				goto done
			}

			a, okA := assetByID[ids[i]]
			bAsset, okB := assetByID[ids[j]]
			if !okA || !okB {
				continue
			}
			if s.ignoredPairs[normalizedPair(a.ID, bAsset.ID)] {
				continue
			}
			comparisons++

			signals, pairRationale := s.scorePair(a, bAsset)
			confidence := aggregate(signals)

			mi := memberScore[a.ID]
			mi.Confidence = math.Max(mi.Confidence, confidence)
			mi.Signals = append(mi.Signals, signals...)
			memberScore[a.ID] = mi

			mj := memberScore[bAsset.ID]
			mj.Confidence = math.Max(mj.Confidence, confidence)
			mj.Signals = append(mj.Signals, signals...)
			memberScore[bAsset.ID] = mj

			rationale = append(rationale, pairRationale...)
		}
	}
done:

	if len(memberScore) < 2 {
		return nil, comparisons
	}

	groupConfidence := 0.0
	members := make([]api.GroupMember, 0, len(memberScore))
	for _, m := range memberScore {
		if m.Confidence > groupConfidence {
			groupConfidence = m.Confidence
		}
		members = append(members, m)
	}

	if groupConfidence < s.thresholds.ConfidenceSimilar {
		return nil, comparisons
	}

	group := api.DuplicateGroup{
		GroupID:        uuid.NewString(),
		Members:        members,
		Confidence:     groupConfidence,
		RationaleLines: dedupeStrings(rationale),
		Incomplete:     incomplete,
		MediaType:      representativeMediaType(ids, assetByID),
	}
	return &group, comparisons
}

// representativeMediaType returns MediaPhoto if any bucket member found in
// assetByID is a photo, otherwise the MediaType of the first member found.
// Cross-type groups (Live Photo photo+video pairs) still
// get a single representative value, matching the photo side since that is
// the keeper candidate in every policy.live-photo pairing.
func representativeMediaType(ids []string, assetByID map[string]api.Asset) api.MediaType {
	for _, id := range ids {
		if a, ok := assetByID[id]; ok {
			if a.MediaType == api.MediaPhoto {
				return api.MediaPhoto
			}
		}
	}
	for _, id := range ids {
		if a, ok := assetByID[id]; ok {
			return a.MediaType
		}
	}
	return ""
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// scorePair computes the fired signals for one pair. A checksum match
// short-circuits every other signal per spec §4.6.
func (s *Scorer) scorePair(a, b api.Asset) ([]api.Signal, []string) {
	if a.Checksum != "" && a.Checksum == b.Checksum {
		return []api.Signal{{Name: api.SignalChecksum, Weight: 1.0}}, []string{"checksum"}
	}

	var signals []api.Signal
	var rationale []string

	if hashSignalFires(a, b, s.nearDupRadius) {
		signals = append(signals, api.Signal{Name: api.SignalHash, Weight: s.weights.Hash})
		rationale = append(rationale, "hash")
	}
	if metadataSignalFires(a, b) {
		signals = append(signals, api.Signal{Name: api.SignalMetadata, Weight: s.weights.Metadata})
		rationale = append(rationale, "metadata")
	}
	if captureTimeSignalFires(a, b, api.DefaultCaptureSkewSeconds) {
		signals = append(signals, api.Signal{Name: api.SignalCaptureTime, Weight: s.weights.CaptureTime})
		rationale = append(rationale, "captureTime")
	}
	if bucket.NameStemEqual(a.Path, b.Path) {
		signals = append(signals, api.Signal{Name: api.SignalName_, Weight: s.weights.Name})
		rationale = append(rationale, "name")
	}
	if _, reason, ok := s.policies.Evaluate(a, b); ok {
		signals = append(signals, api.Signal{Name: api.SignalPolicyBonus, Weight: s.weights.PolicyBonus, Detail: reason})
		rationale = append(rationale, reason)
	}

	return signals, rationale
}

func aggregate(signals []api.Signal) float64 {
	var sum float64
	for _, s := range signals {
		if s.Name == api.SignalChecksum {
			return 1.0
		}
		sum += s.Weight
	}
	return math.Min(1.0, math.Max(0.0, sum))
}

func hashSignalFires(a, b api.Asset, radius int) bool {
	for algo, ha := range a.ImageHashes {
		if algo != api.AlgoDHash {
			continue
		}
		if hb, ok := b.ImageHashes[algo]; ok {
			if perceptual.HammingDistance(ha, hb) <= radius {
				return true
			}
		}
	}
	return false
}

func metadataSignalFires(a, b api.Asset) bool {
	if !a.HasDimensions || !b.HasDimensions {
		return false
	}
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	return withinTolerance(a.FileSize, b.FileSize, api.DefaultMetadataSizeTolerance)
}

func withinTolerance(a, b int64, tolerance float64) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	larger := math.Max(float64(a), float64(b))
	diff := math.Abs(float64(a - b))
	return diff/larger <= tolerance
}

func captureTimeSignalFires(a, b api.Asset, skewSeconds float64) bool {
	if !a.HasCaptureTime || !b.HasCaptureTime {
		return false
	}
	diff := a.CaptureTime.Sub(b.CaptureTime)
	if diff < 0 {
		diff = -diff
	}
	return diff.Seconds() <= skewSeconds
}
