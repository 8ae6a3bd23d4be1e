package metadata

import (
	"os"

	"github.com/darianrosebrook/deduper/internal/api"
)

// ApplyFileInfo stats path and fills FileSize and ModifiedAt on asset. It
// mirrors the teacher's extractFileInfo step: cheap, always-available
// metadata that doesn't depend on the container format.
func ApplyFileInfo(asset *api.Asset, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	asset.FileSize = info.Size()
	asset.ModifiedAt = info.ModTime()
	return nil
}

// ApplyDimensions sets Width/Height/HasDimensions from a decoded image
// config, when the caller already has one (e.g. from the fingerprinter's
// decode pass) so metadata extraction doesn't need its own decode.
func ApplyDimensions(asset *api.Asset, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	asset.Width = width
	asset.Height = height
	asset.HasDimensions = true
}
