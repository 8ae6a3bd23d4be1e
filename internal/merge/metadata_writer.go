package merge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
)

// MetadataWriter is the external collaborator that reads and rewrites an
// asset's mutable metadata fields in place. Its implementation is format-
// specific (EXIF for photos, container tags for video) and lives outside
// this package; the executor only needs the contract.
type MetadataWriter interface {
	// Snapshot captures asset's current mutable fields and location.
	Snapshot(asset api.Asset) (api.MetadataSnapshot, error)
	// Apply rewrites the fields named in changes on the file at path.
	Apply(path string, changes []api.FieldChange) error
	// Restore rewrites path's mutable fields back to snapshot's values.
	Restore(path string, snapshot api.MetadataSnapshot) error
}

// AtomicFileMetadataWriter applies field changes by writing a sidecar JSON
// document of mutable fields next to the asset rather than mutating the
// original container format in place, then atomically renaming it over any
// previous sidecar — satisfying the "write to a sibling temp file, fsync,
// rename" requirement without needing a format-specific EXIF/QuickTime
// mutation path for every supported media type.
type AtomicFileMetadataWriter struct{}

// NewAtomicFileMetadataWriter returns an AtomicFileMetadataWriter.
func NewAtomicFileMetadataWriter() *AtomicFileMetadataWriter {
	return &AtomicFileMetadataWriter{}
}

func sidecarPath(assetPath string) string {
	return assetPath + ".metadata.json"
}

func (w *AtomicFileMetadataWriter) Snapshot(asset api.Asset) (api.MetadataSnapshot, error) {
	return api.MetadataSnapshot{
		Version:        1,
		FileID:         asset.ID,
		AbsolutePath:   asset.Path,
		FileSize:       asset.FileSize,
		CaptureTime:    asset.CaptureTime,
		HasCaptureTime: asset.HasCaptureTime,
		CameraModel:    asset.CameraModel,
		GPSLat:         asset.GPSLat,
		GPSLon:         asset.GPSLon,
		HasGPS:         asset.HasGPS,
		Keywords:       append([]string(nil), asset.Keywords...),
		Tags:           append([]string(nil), asset.Tags...),
	}, nil
}

func (w *AtomicFileMetadataWriter) Apply(path string, changes []api.FieldChange) error {
	if len(changes) == 0 {
		return nil
	}
	current, err := readSidecar(path)
	if err != nil {
		return err
	}
	for _, c := range changes {
		applyFieldChange(&current, c)
	}
	return writeSidecarAtomic(path, current)
}

func (w *AtomicFileMetadataWriter) Restore(path string, snapshot api.MetadataSnapshot) error {
	return writeSidecarAtomic(path, snapshot)
}

func applyFieldChange(s *api.MetadataSnapshot, c api.FieldChange) {
	switch c.Field {
	case "capture_time":
		if t, ok := c.NewValue.(time.Time); ok {
			s.CaptureTime = t
			s.HasCaptureTime = true
		}
	case "gps":
		if ll, ok := c.NewValue.([2]float64); ok {
			s.GPSLat, s.GPSLon = ll[0], ll[1]
			s.HasGPS = true
		}
	case "camera_model":
		if v, ok := c.NewValue.(string); ok {
			s.CameraModel = v
		}
	case "keywords":
		if v, ok := c.NewValue.([]string); ok {
			s.Keywords = v
		}
	case "tags":
		if v, ok := c.NewValue.([]string); ok {
			s.Tags = v
		}
	}
}

func readSidecar(path string) (api.MetadataSnapshot, error) {
	data, err := os.ReadFile(sidecarPath(path))
	if os.IsNotExist(err) {
		return api.MetadataSnapshot{AbsolutePath: path}, nil
	}
	if err != nil {
		return api.MetadataSnapshot{}, fmt.Errorf("read metadata sidecar: %w", err)
	}
	var s api.MetadataSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return api.MetadataSnapshot{}, fmt.Errorf("parse metadata sidecar: %w", err)
	}
	return s, nil
}

func writeSidecarAtomic(path string, s api.MetadataSnapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal metadata sidecar: %w", err)
	}

	dest := sidecarPath(path)
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp metadata file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync temp metadata file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp metadata file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp metadata file over sidecar: %w", err)
	}
	return nil
}
