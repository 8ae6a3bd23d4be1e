package metadata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_UnsupportedExtensionReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("not a real png"), 0o644))

	e := metadata.NewExtractor(nil)
	extracted, err := e.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, metadata.Extracted{}, extracted)
}

func TestExtractor_JPEGWithNoEXIFSegmentReturnsEmptyWithoutError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not a real jpeg either"), 0o644))

	e := metadata.NewExtractor(nil)
	extracted, err := e.Extract(path)
	require.NoError(t, err)
	assert.False(t, extracted.HasCaptureTime)
	assert.False(t, extracted.HasGPS)
}

func TestExtractor_MissingFileReturnsErr(t *testing.T) {
	e := metadata.NewExtractor(nil)
	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestExtracted_ApplyToOnlyCopiesPopulatedFields(t *testing.T) {
	asset := api.Asset{CameraModel: "existing", HasGPS: false}
	extracted := metadata.Extracted{HasCaptureTime: false, HasGPS: true, GPSLat: 10, GPSLon: 20}

	extracted.ApplyTo(&asset)

	assert.Equal(t, "existing", asset.CameraModel, "empty CameraModel should not overwrite existing value")
	assert.True(t, asset.HasGPS)
	assert.Equal(t, 10.0, asset.GPSLat)
	assert.Equal(t, 20.0, asset.GPSLon)
	assert.False(t, asset.HasCaptureTime)
}
