// Package api defines the shared data model for the dedup engine: assets,
// hashes, buckets, duplicate groups, merge plans and transactions.
package api

import "time"

// MediaType distinguishes the two asset kinds the engine reasons about.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// HashAlgorithm names a perceptual hash algorithm. Comparing hashes computed
// under different algorithms is undefined — see ImageHash.
type HashAlgorithm string

const (
	AlgoDHash HashAlgorithm = "dHash"
	AlgoPHash HashAlgorithm = "pHash"
	AlgoAHash HashAlgorithm = "aHash"
	AlgoWHash HashAlgorithm = "wHash"
)

// Asset is a catalog-owned record describing a single media file on disk.
// It is immutable after ingest except for the hash fields, which the
// fingerprinter pipeline fills in lazily.
type Asset struct {
	ID             string
	Path           string
	MediaType      MediaType
	FileSize       int64
	Width          int
	Height         int
	HasDimensions  bool
	CaptureTime    time.Time
	HasCaptureTime bool
	Checksum       string
	CameraModel    string
	GPSLat         float64
	GPSLon         float64
	HasGPS         bool
	Keywords       []string
	Tags           []string
	ModifiedAt     time.Time

	ImageHashes    map[HashAlgorithm]uint64
	VideoSignature *VideoSignature
}

// ImageHash is a single perceptual hash computed from a normalized raster.
type ImageHash struct {
	Algorithm  HashAlgorithm
	Value      uint64
	Width      int
	Height     int
	ComputedAt time.Time
}

// VideoSignature captures a deterministic frame-hash sequence for a video.
type VideoSignature struct {
	DurationSec float64
	Width       int
	Height      int
	FrameHashes []uint64
}

// SignatureVerdict is the outcome of comparing two VideoSignatures.
type SignatureVerdict string

const (
	VerdictDuplicate SignatureVerdict = "duplicate"
	VerdictSimilar   SignatureVerdict = "similar"
	VerdictDifferent SignatureVerdict = "different"
)

// SignatureComparison is the result of comparing two video signatures.
type SignatureComparison struct {
	Verdict              SignatureVerdict
	MismatchedFrameCount int
	MaxDistance          int
}

// BucketKey is a compact, heuristic-tagged signature used to partition
// assets into comparison buckets. The string form must be unique across
// heuristics — see Bucketer.
type BucketKey string

// Bucket groups asset ids that are plausible duplicates of one another
// under a single coarse heuristic.
type Bucket struct {
	Key                  BucketKey
	FileIDs              []string
	HeuristicName        string
	Size                 int
	EstimatedComparisons int64
}

// SignalName identifies a single scoring signal.
type SignalName string

const (
	SignalChecksum    SignalName = "checksum"
	SignalHash        SignalName = "hash"
	SignalMetadata    SignalName = "metadata"
	SignalCaptureTime SignalName = "captureTime"
	SignalName_       SignalName = "name"
	SignalPolicyBonus SignalName = "policyBonus"
)

// Signal records one fired scoring contribution.
type Signal struct {
	Name   SignalName
	Weight float64
	Detail string
}

// Penalty records a negative adjustment applied to a member's confidence.
type Penalty struct {
	Reason string
	Amount float64
}

// GroupMember is one asset's standing within a DuplicateGroup.
type GroupMember struct {
	FileID     string
	Confidence float64
	Signals    []Signal
	Penalties  []Penalty
	FileSize   int64
}

// DuplicateGroup is the scorer's output: a set of assets judged to be
// duplicates or near-duplicates of one another, with a combined confidence.
type DuplicateGroup struct {
	GroupID          string
	Members          []GroupMember
	Confidence       float64
	RationaleLines   []string
	KeeperSuggestion string
	Incomplete       bool
	MediaType        MediaType
}

// FieldChange is one field the merge plan will fill on the keeper.
type FieldChange struct {
	Field    string
	SourceID string
	NewValue any
}

// MergePlan is the planner's output: what to keep, what to trash, and what
// metadata to backfill on the keeper.
type MergePlan struct {
	GroupID             string
	KeeperID            string
	TrashList           []string
	FieldChanges        []FieldChange
	Atomic              bool
	EstimatedSpaceFreed int64
}

// TransactionState is the lifecycle state of a MergeTransaction.
type TransactionState string

const (
	TxCommitted TransactionState = "committed"
	TxUndone    TransactionState = "undone"
	TxFailed    TransactionState = "failed"
	TxPending   TransactionState = "pending"
)

// MetadataSnapshot is a versioned, self-describing capture of an asset's
// mutable fields and location, taken before a merge touches it.
type MetadataSnapshot struct {
	Version        int
	FileID         string
	AbsolutePath   string
	FileSize       int64
	CaptureTime    time.Time
	HasCaptureTime bool
	CameraModel    string
	GPSLat         float64
	GPSLon         float64
	HasGPS         bool
	Keywords       []string
	Tags           []string
}

// MergeTransaction is the durable record of one merge's before-state and
// applied effects, supporting undo and crash recovery.
type MergeTransaction struct {
	ID                 string
	GroupID            string
	KeeperID           string
	RemovedIDs         []string
	CreatedAt          time.Time
	UndoneAt           *time.Time
	UndoDeadline       *time.Time
	MetadataSnapshots  map[string]MetadataSnapshot
	State              TransactionState
	TrashPaths         map[string]string // removed file id -> original absolute path
	TrashRestoreTokens map[string]string // removed file id -> trash restore token
}

// MergeResult is returned to the caller after a successful merge.
type MergeResult struct {
	TransactionID string
	KeeperID      string
	RemovedIDs    []string
	MergedFields  []FieldChange
}

// UndoResult is returned to the caller after a successful undo.
type UndoResult struct {
	Success        bool
	RestoredIDs    []string
	RevertedFields []FieldChange
}

// VerificationState is the result of checking a pending transaction's
// claimed side effects against reality during recovery.
type VerificationState string

const (
	VerifyComplete   VerificationState = "complete"
	VerifyIncomplete VerificationState = "incomplete"
	VerifyMismatch   VerificationState = "mismatch"
)

// VerificationResult is detect_incomplete_transactions' per-transaction
// finding.
type VerificationResult struct {
	TransactionID    string
	State            VerificationState
	Reason           string
	AutoRecoverable  bool
}

// ScoringMetrics summarizes one scoring run, per spec §4.6.
type ScoringMetrics struct {
	TotalAssets         int
	NaiveComparisons    int64
	TotalComparisons    int64
	ReductionPercentage float64
	BucketsCreated      int
}
