package score

import (
	"path/filepath"
	"strings"

	"github.com/darianrosebrook/deduper/internal/api"
)

// Policies toggles the cross-type bonus rules.
type Policies struct {
	RAWJPEGEnabled      bool
	LivePhotoEnabled    bool
	LivePhotoMaxVideoSec float64
}

// DefaultPolicies returns both policies enabled with the documented Live
// Photo video duration ceiling.
func DefaultPolicies() Policies {
	return Policies{RAWJPEGEnabled: true, LivePhotoEnabled: true, LivePhotoMaxVideoSec: api.DefaultLivePhotoMaxVideoSec}
}

var rawExtensions = map[string]bool{
	"raw": true, "cr2": true, "nef": true, "arw": true, "dng": true, "orf": true, "rw2": true,
}

func isRaw(path string) bool {
	return rawExtensions[ext(path)]
}

func isJPEG(path string) bool {
	e := ext(path)
	return e == "jpg" || e == "jpeg"
}

func isHEIC(path string) bool {
	e := ext(path)
	return e == "heic" || e == "heif"
}

func isMOV(path string) bool {
	return ext(path) == "mov"
}

func ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Evaluate checks whether a configured policy link applies between a and
// b, returning the bonus weight and rationale string to attach when it
// does.
func (p Policies) Evaluate(a, b api.Asset) (bonus float64, rationale string, ok bool) {
	if p.RAWJPEGEnabled && rawJPEGPair(a, b) {
		return api.DefaultWeightPolicyBonus, "policy.raw-jpeg", true
	}
	if p.LivePhotoEnabled {
		if bonus, rationale, ok := p.livePhotoPair(a, b); ok {
			return bonus, rationale, ok
		}
	}
	return 0, "", false
}

func rawJPEGPair(a, b api.Asset) bool {
	if stem(a.Path) != stem(b.Path) {
		return false
	}
	return (isRaw(a.Path) && isJPEG(b.Path)) || (isRaw(b.Path) && isJPEG(a.Path))
}

func (p Policies) livePhotoPair(a, b api.Asset) (float64, string, bool) {
	if stem(a.Path) != stem(b.Path) {
		return 0, "", false
	}
	photo, video := a, b
	if isMOV(a.Path) {
		photo, video = b, a
	}
	if !isHEIC(photo.Path) || !isMOV(video.Path) {
		return 0, "", false
	}
	if video.VideoSignature == nil {
		return 0, "", false
	}
	d := video.VideoSignature.DurationSec
	if d <= 0 || d > p.LivePhotoMaxVideoSec {
		return 0, "", false
	}
	return api.DefaultWeightPolicyBonus, "policy.live-photo", true
}
