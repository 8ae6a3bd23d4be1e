// Package dedupe is the public facade over the engine: it wires together
// fingerprinting, bucketing, scoring, planning and merge execution behind
// a small operation-oriented API, the way pkg/engine does for its own
// component graph.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/bktree"
	"github.com/darianrosebrook/deduper/internal/bucket"
	"github.com/darianrosebrook/deduper/internal/config"
	"github.com/darianrosebrook/deduper/internal/fingerprint"
	"github.com/darianrosebrook/deduper/internal/imaging"
	"github.com/darianrosebrook/deduper/internal/merge"
	"github.com/darianrosebrook/deduper/internal/plan"
	"github.com/darianrosebrook/deduper/internal/score"
	"github.com/sirupsen/logrus"
)

// Engine is the central coordinator for candidate generation, scoring,
// keeper selection, merge planning and merge execution.
type Engine struct {
	cfg    config.Config
	logger *logrus.Logger

	index          *bktree.Index
	bucketer       *bucket.Bucketer
	scorer         *score.Scorer
	planner        *plan.Planner
	imageFP        *fingerprint.ImageFingerprinter
	videoFP        *fingerprint.VideoFingerprinter
	executor       *merge.Executor
	recovery       *merge.Recovery
	undoer         *merge.Undoer
	store          *merge.Store
	trash          *merge.Trash

	assets map[string]api.Asset
}

// Options configures the pieces of NewEngine that have no config.Config
// representation: concrete decoders/extractors and the logger.
type Options struct {
	Config         config.Config
	Logger         *logrus.Logger
	ImageDecoder   fingerprint.ImageDecoder
	FrameExtractor fingerprint.FrameExtractor
}

// NewEngine constructs an Engine from the given options, opening the
// transaction log and trash directory as a side effect.
func NewEngine(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	cfg := opts.Config

	decoder := opts.ImageDecoder
	if decoder == nil {
		decoder = imaging.NewDefaultDecoder()
	}
	extractor := opts.FrameExtractor
	if extractor == nil {
		extractor = fingerprint.NewFFmpegExtractor("ffmpeg", "ffprobe")
	}

	index := bktree.NewIndex()

	bucketCfg := bucket.Config{
		NearDupRadius:      cfg.Thresholds.HashNearDup,
		CaptureSkewSeconds: api.DefaultCaptureSkewSeconds,
	}
	bucketer := bucket.NewBucketer(bucketCfg, index)

	weights := score.Weights{
		Hash:        cfg.Weights.Hash,
		Metadata:    cfg.Weights.Metadata,
		CaptureTime: cfg.Weights.CaptureTime,
		Name:        cfg.Weights.Name,
		PolicyBonus: cfg.Weights.PolicyBonus,
	}
	limits := score.Limits{
		MaxComparisonsPerBucket: cfg.Limits.MaxComparisonsPerBucket,
		MaxBucketSize:           cfg.Limits.MaxBucketSize,
		TimeBudget:              time.Duration(cfg.Limits.TimeBudgetMS) * time.Millisecond,
	}
	thresholds := score.Thresholds{
		ConfidenceDuplicate: cfg.Thresholds.ConfidenceDuplicate,
		ConfidenceSimilar:   cfg.Thresholds.ConfidenceSimilar,
	}
	policies := score.Policies{
		RAWJPEGEnabled:       cfg.Policies.EnableRAWJPEG,
		LivePhotoEnabled:     cfg.Policies.EnableLivePhoto,
		LivePhotoMaxVideoSec: api.DefaultLivePhotoMaxVideoSec,
	}
	concurrency := score.Concurrency{
		Workers:                 cfg.Workers,
		MemoryLimitBytes:        cfg.MemoryLimitBytes,
		MemoryPressureThreshold: cfg.MemoryPressureThreshold,
		MonitorInterval:         time.Second,
	}
	scorer := score.NewScorer(weights, limits, thresholds, cfg.Thresholds.HashNearDup, policies, cfg.Policies.IgnoredPairs, concurrency)

	imageFP := fingerprint.NewImageFingerprinter(decoder, true, true, cfg.Video.GeneratorMaxDimension)
	videoFP := fingerprint.NewVideoFingerprinter(extractor, fingerprint.VideoFingerprintConfig{
		MiddleMinSeconds: cfg.Video.MiddleSampleMinimumDuration,
		EndOffsetSeconds: cfg.Video.EndSampleOffset,
		MaxDimension:     cfg.Video.GeneratorMaxDimension,
	}, logger)

	store, err := merge.NewStore(cfg.TransactionLogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	trash, err := merge.NewTrash(cfg.TrashDataHome)
	if err != nil {
		return nil, fmt.Errorf("open trash: %w", err)
	}
	metadataWriter := merge.NewAtomicFileMetadataWriter()
	executor := merge.NewExecutor(store, trash, metadataWriter, cfg.RetentionDuration(), logger)
	recovery := merge.NewRecovery(store, trash)
	undoer := merge.NewUndoer(store, trash, metadataWriter)

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		index:    index,
		bucketer: bucketer,
		scorer:   scorer,
		planner:  plan.NewPlanner(),
		imageFP:  imageFP,
		videoFP:  videoFP,
		executor: executor,
		recovery: recovery,
		undoer:   undoer,
		store:    store,
		trash:    trash,
		assets:   make(map[string]api.Asset),
	}, nil
}

// Close releases the engine's durable resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// LoadAssets registers assets with the engine, indexing their perceptual
// hashes into the BK-tree. Callers are expected to have already run
// fingerprinting (Fingerprint) on each asset.
func (e *Engine) LoadAssets(assets []api.Asset) {
	for _, a := range assets {
		e.assets[a.ID] = a
		for algo, h := range a.ImageHashes {
			e.index.Insert(algo, a.ID, h)
		}
	}
}

// Fingerprint computes perceptual hashes or a video signature for asset
// from its raw bytes (images) or file path (video), returning the
// enriched asset. It does not register the asset with the engine — call
// LoadAssets afterward.
func (e *Engine) Fingerprint(asset api.Asset, data []byte) (api.Asset, error) {
	switch asset.MediaType {
	case api.MediaPhoto:
		hashes, err := e.imageFP.Hash(data)
		if err != nil {
			return asset, err
		}
		asset.ImageHashes = make(map[api.HashAlgorithm]uint64, len(hashes))
		for _, h := range hashes {
			asset.ImageHashes[h.Algorithm] = h.Value
		}
	case api.MediaVideo:
		sig, err := e.videoFP.Hash(asset.Path)
		if err != nil {
			return asset, err
		}
		asset.VideoSignature = sig
	default:
		return asset, api.ErrUnsupportedFormat
	}
	return asset, nil
}

// BuildCandidates partitions the loaded assets into comparison buckets
// using every bucketing heuristic.
func (e *Engine) BuildCandidates() []api.Bucket {
	assets := make([]api.Asset, 0, len(e.assets))
	for _, a := range e.assets {
		assets = append(assets, a)
	}
	return e.bucketer.Build(assets)
}

// BuildGroups scores every bucket's candidate pairs and returns the
// resulting duplicate groups plus run metrics.
func (e *Engine) BuildGroups(ctx context.Context, buckets []api.Bucket) ([]api.DuplicateGroup, api.ScoringMetrics) {
	groups, metrics := e.scorer.ScoreBuckets(ctx, buckets, e.assets)
	for i := range groups {
		members := e.membersOf(groups[i])
		groups[i].KeeperSuggestion = plan.SuggestKeeper(members)
	}
	return groups, metrics
}

// Explain returns the rationale lines recorded for a group, the same
// text BuildGroups attaches to DuplicateGroup.RationaleLines.
func (e *Engine) Explain(group api.DuplicateGroup) []string {
	return group.RationaleLines
}

// SuggestKeeper returns the recommended keeper for a group's members.
func (e *Engine) SuggestKeeper(group api.DuplicateGroup) string {
	return plan.SuggestKeeper(e.membersOf(group))
}

// PlanMerge builds a MergePlan for group with the given keeper.
func (e *Engine) PlanMerge(group api.DuplicateGroup, keeperID string) (api.MergePlan, error) {
	return e.planner.Plan(group, e.membersOf(group), keeperID)
}

// Merge executes a merge plan: backfills keeper metadata, moves trashed
// members to the OS trash, and durably records the transaction.
func (e *Engine) Merge(p api.MergePlan) (api.MergeResult, error) {
	return e.executor.Merge(p, e.assets)
}

// UndoLast reverses the most recent undoable merge transaction.
func (e *Engine) UndoLast() (api.UndoResult, error) {
	return e.undoer.UndoLast()
}

// Undo reverses a specific merge transaction by id.
func (e *Engine) Undo(transactionID string) (api.UndoResult, error) {
	return e.undoer.Undo(transactionID)
}

// DetectIncompleteTransactions scans the transaction log for merges that
// never reached a terminal state, as after a crash mid-merge.
func (e *Engine) DetectIncompleteTransactions() ([]api.VerificationResult, error) {
	return e.recovery.DetectIncomplete()
}

// RecoverIncompleteTransactions resolves every detected incomplete
// transaction automatically.
func (e *Engine) RecoverIncompleteTransactions() error {
	results, err := e.recovery.DetectIncomplete()
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := e.recovery.Resolve(r); err != nil {
			e.logger.WithError(err).WithField("transaction_id", r.TransactionID).Warn("failed to resolve incomplete transaction")
		}
	}
	return nil
}

func (e *Engine) membersOf(group api.DuplicateGroup) []api.Asset {
	members := make([]api.Asset, 0, len(group.Members))
	for _, m := range group.Members {
		if a, ok := e.assets[m.FileID]; ok {
			members = append(members, a)
		}
	}
	return members
}
