package catalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/metadata"
	"github.com/sirupsen/logrus"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true, ".webp": true,
	".heic": true, ".heif": true, ".cr2": true, ".nef": true,
	".arw": true, ".dng": true,
}

var videoExtensions = map[string]bool{
	".mov": true, ".mp4": true, ".m4v": true, ".avi": true, ".mkv": true,
}

var excludedDirNames = map[string]bool{
	"@eadir": true, ".thumbnails": true, "$recycle.bin": true,
}

// FilesystemScanner walks one or more root paths with filepath.Walk,
// yielding Asset records for recognized image/video files. It skips
// hidden files and directories, OS system bundles, and — unless
// FollowSymlinks is set — symlinks, and dedupes hardlinks by inode so
// the same file isn't scanned twice under two names.
type FilesystemScanner struct {
	FollowSymlinks bool
	logger         *logrus.Logger
	extractor      *metadata.Extractor
}

// NewFilesystemScanner returns a FilesystemScanner.
func NewFilesystemScanner(logger *logrus.Logger) *FilesystemScanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &FilesystemScanner{logger: logger, extractor: metadata.NewExtractor(logger)}
}

// Scan implements Scanner. It walks roots synchronously and streams
// results over the returned channels; both channels are closed once
// every root has been walked or ctx is cancelled.
func (s *FilesystemScanner) Scan(ctx context.Context, roots []string) (<-chan api.Asset, <-chan error) {
	out := make(chan api.Asset)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		seenInodes := make(map[uint64]bool)

		for _, root := range roots {
			err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return nil // skip unreadable entries, don't abort the whole walk
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				name := info.Name()
				if info.IsDir() {
					if name != "." && (strings.HasPrefix(name, ".") || excludedDirNames[strings.ToLower(name)]) {
						return filepath.SkipDir
					}
					return nil
				}

				if strings.HasPrefix(name, ".") {
					return nil
				}
				if info.Mode()&os.ModeSymlink != 0 && !s.FollowSymlinks {
					return nil
				}

				mediaType, ok := classify(path)
				if !ok {
					return nil
				}

				if ino, ok := inodeOf(info); ok {
					if seenInodes[ino] {
						return nil
					}
					seenInodes[ino] = true
				}

				asset, err := s.buildAsset(path, info, mediaType)
				if err != nil {
					s.logger.WithError(err).WithField("path", path).Warn("failed to build asset, skipping")
					return nil
				}

				select {
				case out <- asset:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			})
			if err != nil && err != context.Canceled {
				errs <- fmt.Errorf("walk %s: %w", root, err)
				return
			}
		}
	}()

	return out, errs
}

func classify(path string) (api.MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return api.MediaPhoto, true
	case videoExtensions[ext]:
		return api.MediaVideo, true
	default:
		return "", false
	}
}

func (s *FilesystemScanner) buildAsset(path string, info os.FileInfo, mediaType api.MediaType) (api.Asset, error) {
	asset := api.Asset{
		ID:        idFor(path),
		Path:      path,
		MediaType: mediaType,
	}
	if err := metadata.ApplyFileInfo(&asset, path); err != nil {
		return asset, err
	}
	if mediaType == api.MediaPhoto {
		if extracted, err := s.extractor.Extract(path); err == nil {
			extracted.ApplyTo(&asset)
		}
	}
	return asset, nil
}

// idFor derives a stable asset id from its absolute path so repeated
// scans of the same tree produce the same ids.
func idFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("%x", sum[:16])
}

func inodeOf(info os.FileInfo) (uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return stat.Ino, true
}
