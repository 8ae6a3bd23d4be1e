// Package metadata extracts EXIF-derived fields (capture time, camera
// model, GPS) that feed the confidence scorer's metadata and captureTime
// signals.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/plan"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/sirupsen/logrus"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Extractor reads EXIF metadata from a file and fills the relevant Asset
// fields. Missing or unreadable EXIF data is not an error — per spec §7,
// fingerprint/metadata failures are per-asset and the asset simply flows
// through without the missing signal.
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor returns an Extractor.
func NewExtractor(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{logger: logger}
}

var exifExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tiff": true, ".tif": true,
	".cr2": true, ".nef": true, ".arw": true, ".dng": true,
}

// Extract reads path's EXIF data (if the format typically carries it) and
// returns the fields it found. A file with no EXIF support or no EXIF
// segment returns a zero-value Extracted and no error.
func (e *Extractor) Extract(path string) (Extracted, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !exifExtensions[ext] {
		return Extracted{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Extracted{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Debug("no EXIF data, continuing without the signal")
		return Extracted{}, nil
	}

	var out Extracted

	if model, err := x.Get(exif.Model); err == nil {
		out.CameraModel, _ = model.StringVal()
	}
	if make, err := x.Get(exif.Make); err == nil {
		if makeStr, err := make.StringVal(); err == nil && makeStr != "" {
			if out.CameraModel != "" {
				out.CameraModel = makeStr + " " + out.CameraModel
			} else {
				out.CameraModel = makeStr
			}
		}
	}

	if dateTime, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := dateTime.StringVal(); err == nil {
			if t, err := time.Parse("2006:01:02 15:04:05", s); err == nil {
				out.CaptureTime = t
				out.HasCaptureTime = true
			}
		}
	}

	if lat, lon, err := x.LatLong(); err == nil {
		out.GPSLat, out.GPSLon = plan.NormalizeGPS(lat, lon)
		out.HasGPS = true
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			out.Orientation = v
		}
	}

	return out, nil
}

// Extracted holds the fields an EXIF read can contribute to an Asset.
type Extracted struct {
	CameraModel    string
	CaptureTime    time.Time
	HasCaptureTime bool
	GPSLat         float64
	GPSLon         float64
	HasGPS         bool
	Orientation    int
}

// ApplyTo copies every field Extracted populated onto asset, leaving
// fields it has no opinion on untouched.
func (x Extracted) ApplyTo(asset *api.Asset) {
	if x.CameraModel != "" {
		asset.CameraModel = x.CameraModel
	}
	if x.HasCaptureTime {
		asset.CaptureTime = x.CaptureTime
		asset.HasCaptureTime = true
	}
	if x.HasGPS {
		asset.GPSLat, asset.GPSLon = x.GPSLat, x.GPSLon
		asset.HasGPS = true
	}
}
