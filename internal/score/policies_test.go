package score_test

import (
	"testing"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/score"
	"github.com/stretchr/testify/assert"
)

func TestPolicies_LivePhotoPair_FiresWithinDocumentedBound(t *testing.T) {
	p := score.DefaultPolicies()
	photo := api.Asset{ID: "photo", Path: "IMG_0001.heic"}
	video := api.Asset{ID: "video", Path: "IMG_0001.mov", VideoSignature: &api.VideoSignature{DurationSec: 3.8}}

	bonus, rationale, ok := p.Evaluate(photo, video)
	assert.True(t, ok)
	assert.Equal(t, "policy.live-photo", rationale)
	assert.Equal(t, api.DefaultWeightPolicyBonus, bonus)
}

func TestPolicies_LivePhotoPair_AtTheFourSecondBoundStillFires(t *testing.T) {
	p := score.DefaultPolicies()
	photo := api.Asset{ID: "photo", Path: "IMG_0002.heic"}
	video := api.Asset{ID: "video", Path: "IMG_0002.mov", VideoSignature: &api.VideoSignature{DurationSec: 4.0}}

	_, _, ok := p.Evaluate(photo, video)
	assert.True(t, ok, "spec documents the Live Photo video bound as (0, 4] seconds, inclusive of 4.0")
}

func TestPolicies_LivePhotoPair_PastTheBoundDoesNotFire(t *testing.T) {
	p := score.DefaultPolicies()
	photo := api.Asset{ID: "photo", Path: "IMG_0003.heic"}
	video := api.Asset{ID: "video", Path: "IMG_0003.mov", VideoSignature: &api.VideoSignature{DurationSec: 4.2}}

	_, _, ok := p.Evaluate(photo, video)
	assert.False(t, ok)
}

func TestPolicies_LivePhotoPair_DisabledPolicyDoesNotFire(t *testing.T) {
	p := score.Policies{LivePhotoEnabled: false, LivePhotoMaxVideoSec: api.DefaultLivePhotoMaxVideoSec}
	photo := api.Asset{ID: "photo", Path: "IMG_0004.heic"}
	video := api.Asset{ID: "video", Path: "IMG_0004.mov", VideoSignature: &api.VideoSignature{DurationSec: 1.5}}

	_, _, ok := p.Evaluate(photo, video)
	assert.False(t, ok)
}

func TestPolicies_LivePhotoPair_DifferentStemDoesNotFire(t *testing.T) {
	p := score.DefaultPolicies()
	photo := api.Asset{ID: "photo", Path: "IMG_0005.heic"}
	video := api.Asset{ID: "video", Path: "IMG_0006.mov", VideoSignature: &api.VideoSignature{DurationSec: 2.0}}

	_, _, ok := p.Evaluate(photo, video)
	assert.False(t, ok)
}

func TestPolicies_RAWJPEGPair_FiresOnMatchingStem(t *testing.T) {
	p := score.DefaultPolicies()
	raw := api.Asset{ID: "raw", Path: "IMG_0007.cr2"}
	jpeg := api.Asset{ID: "jpeg", Path: "IMG_0007.jpg"}

	bonus, rationale, ok := p.Evaluate(raw, jpeg)
	assert.True(t, ok)
	assert.Equal(t, "policy.raw-jpeg", rationale)
	assert.Equal(t, api.DefaultWeightPolicyBonus, bonus)
}
