package fingerprint

import (
	"fmt"
	"math"
	"sync"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/hash/perceptual"
	"github.com/sirupsen/logrus"
)

// VideoFingerprintConfig controls the sampling policy (spec §4.3).
type VideoFingerprintConfig struct {
	MiddleMinSeconds float64 // below this duration, sample 2 frames instead of 3
	EndOffsetSeconds float64 // how far before the true end the "last" sample sits
	MaxDimension     int
}

// DefaultVideoFingerprintConfig returns the documented defaults.
func DefaultVideoFingerprintConfig() VideoFingerprintConfig {
	return VideoFingerprintConfig{
		MiddleMinSeconds: api.DefaultMiddleSampleMinimumDurationSec,
		EndOffsetSeconds: api.DefaultEndSampleOffsetSec,
		MaxDimension:     api.DefaultGeneratorMaxDimension,
	}
}

// FailureStats is a rolling count of frame-extraction attempts, so callers
// can short-circuit a run when the environment's video decoder is failing
// too often to be worth continuing.
type FailureStats struct {
	mu       sync.Mutex
	attempted int
	failed    int
}

func (s *FailureStats) record(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempted++
	if !ok {
		s.failed++
	}
}

// Snapshot returns the current attempted/failed/failure_rate triple.
func (s *FailureStats) Snapshot() (attempted, failed int, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempted == 0 {
		return 0, 0, 0
	}
	return s.attempted, s.failed, float64(s.failed) / float64(s.attempted)
}

// VideoFingerprinter computes deterministic frame-hash signatures for video
// files by shelling out to an external frame extractor (there is no pure-Go
// video decoder in play).
type VideoFingerprinter struct {
	extractor FrameExtractor
	cfg       VideoFingerprintConfig
	stats     *FailureStats
	log       *logrus.Logger
}

// NewVideoFingerprinter returns a fingerprinter backed by extractor.
func NewVideoFingerprinter(extractor FrameExtractor, cfg VideoFingerprintConfig, log *logrus.Logger) *VideoFingerprinter {
	if log == nil {
		log = logrus.New()
	}
	return &VideoFingerprinter{extractor: extractor, cfg: cfg, stats: &FailureStats{}, log: log}
}

// Stats exposes the rolling failure counter.
func (f *VideoFingerprinter) Stats() *FailureStats { return f.stats }

// samplePoints returns the seconds offsets to sample for a clip of the
// given duration, per spec §4.3's sampling policy.
func (f *VideoFingerprinter) samplePoints(durationSec float64) []float64 {
	last := math.Max(0, durationSec-f.cfg.EndOffsetSeconds)
	if durationSec < f.cfg.MiddleMinSeconds {
		return []float64{0.0, last}
	}
	return []float64{0.0, durationSec / 2.0, last}
}

// Hash renders the sample frames for path, dHashes each, and returns a
// VideoSignature. A frame that fails to extract is dropped rather than
// zero-filled, so FrameHashes may be shorter than the intended sample
// count; signatures are only comparable when their lengths match (see
// Compare), which naturally excludes partially-failed signatures from
// being treated as exact matches of complete ones.
func (f *VideoFingerprinter) Hash(path string) (*api.VideoSignature, error) {
	duration, err := f.extractor.Duration(path)
	if err != nil {
		return nil, fmt.Errorf("read video duration: %w", err)
	}

	offsets := f.samplePoints(duration)
	hashes := make([]uint64, 0, len(offsets))
	var width, height int

	for _, t := range offsets {
		frame, err := f.extractor.ExtractFrame(path, t, f.cfg.MaxDimension)
		if err != nil {
			f.stats.record(false)
			f.log.WithError(err).WithField("offset_sec", t).Warn("frame extraction failed")
			continue
		}
		f.stats.record(true)

		if width == 0 {
			b := frame.Bounds()
			width, height = b.Dx(), b.Dy()
		}
		hashes = append(hashes, perceptual.NewDHash().Compute(frame))
	}

	if len(hashes) == 0 {
		return nil, fmt.Errorf("no frames could be extracted from %s", path)
	}

	return &api.VideoSignature{
		DurationSec: duration,
		Width:       width,
		Height:      height,
		FrameHashes: hashes,
	}, nil
}

// Compare implements spec §4.3's verdict rules. Signatures are only
// comparable when they have the same frame count; a mismatch is treated as
// "different" rather than an error, since it is itself informative.
func Compare(a, b *api.VideoSignature) api.SignatureComparison {
	if len(a.FrameHashes) != len(b.FrameHashes) {
		return api.SignatureComparison{Verdict: api.VerdictDifferent, MismatchedFrameCount: max(len(a.FrameHashes), len(b.FrameHashes))}
	}

	durationRatio := 1.0
	if a.DurationSec > 0 && b.DurationSec > 0 {
		shorter, longer := a.DurationSec, b.DurationSec
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		durationRatio = shorter / longer
	}
	durationDiff := math.Abs(a.DurationSec - b.DurationSec)

	maxDist := 0
	mismatched := 0
	for i := range a.FrameHashes {
		d := perceptual.HammingDistance(a.FrameHashes[i], b.FrameHashes[i])
		if d > maxDist {
			maxDist = d
		}
		if d > 2 {
			mismatched++
		}
	}

	if maxDist > 12 || durationRatio < 0.9 {
		return api.SignatureComparison{Verdict: api.VerdictDifferent, MismatchedFrameCount: mismatched, MaxDistance: maxDist}
	}
	if maxDist <= 2 && durationDiff <= 0.5 {
		return api.SignatureComparison{Verdict: api.VerdictDuplicate, MismatchedFrameCount: mismatched, MaxDistance: maxDist}
	}
	return api.SignatureComparison{Verdict: api.VerdictSimilar, MismatchedFrameCount: mismatched, MaxDistance: maxDist}
}
