package api

// Default thresholds and weights, per spec §4.6 and §6. Callers normally
// obtain these through config.Config rather than referencing them directly;
// they live here so every package that needs a sane zero-value default
// agrees on the same numbers.
const (
	DefaultConfidenceDuplicate = 0.85
	DefaultConfidenceSimilar   = 0.60
	DefaultHashNearDupThreshold = 10

	DefaultWeightChecksum    = 1.00
	DefaultWeightHash        = 0.35
	DefaultWeightMetadata    = 0.15
	DefaultWeightCaptureTime = 0.10
	DefaultWeightName        = 0.05
	DefaultWeightPolicyBonus = 0.15

	DefaultCaptureSkewSeconds = 2.0
	DefaultMetadataSizeTolerance = 0.10

	DefaultMaxComparisonsPerBucket = 5000
	DefaultMaxBucketSize           = 500
	DefaultTimeBudgetMS            = 30000

	DefaultRetentionDays = 7

	DefaultMiddleSampleMinimumDurationSec = 120.0
	DefaultEndSampleOffsetSec             = 1.0
	DefaultGeneratorMaxDimension          = 720
	DefaultPreferredTimescale             = 600

	DefaultMemoryPressureThreshold = 0.8

	// DefaultMemoryLimitBytes is the soft heap ceiling scheduler.MemoryMonitor
	// halves scoring concurrency against when no operator override is set.
	DefaultMemoryLimitBytes = 2 << 30 // 2 GiB

	// DefaultLivePhotoMaxVideoSec is the upper bound on a Live Photo's
	// companion video duration per spec §4.6's documented (0, 4] second range.
	DefaultLivePhotoMaxVideoSec = 4.0

	// HashBits is the bit width of every perceptual hash this engine emits.
	HashBits = 64

	// MinHashableDimension is the smallest width/height accepted for
	// perceptual hashing; images below this produce no hash.
	MinHashableDimension = 32
)
