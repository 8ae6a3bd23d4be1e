// Package catalog declares the external collaborator contracts this
// engine is built against: a Scanner that discovers assets, a Catalog
// that durably stores them, and the Trash/Decoder boundaries merge and
// fingerprinting depend on. FilesystemScanner in this package implements
// Scanner; internal/merge.Trash and internal/imaging.DefaultDecoder fill
// the trash and decode roles with their own method sets and do not
// implement the Trash and Decoder interfaces declared here. This package
// exists so callers can depend on the contract without pulling in every
// implementation.
package catalog

import (
	"context"
	"image"

	"github.com/darianrosebrook/deduper/internal/api"
)

// Scanner yields Asset records by walking one or more root paths. It
// honors exclusion rules: hidden files, OS system bundles, symlinks
// (off by default), and hardlinks deduped by inode.
type Scanner interface {
	Scan(ctx context.Context, roots []string) (<-chan api.Asset, <-chan error)
}

// Decoder is the fingerprinting boundary: turning raw bytes into rasters.
type Decoder interface {
	Decode(data []byte, maxDim int) (image.Image, error)
	ExtractFrame(videoPath string, atSeconds float64, maxDim int) (image.Image, error)
}

// Trash is the execution boundary for reversible file removal.
type Trash interface {
	MoveToTrash(path string) (restoreToken string, err error)
	RestoreFromTrash(restoreToken, originalPath string) error
}

// Catalog is the durable source of truth for assets, groups and
// transactions. All mutations the engine makes against it are
// transactional — BackgroundTransaction wraps a closure in the catalog's
// own commit/rollback semantics so callers never see a half-applied
// write.
type Catalog interface {
	UpsertFile(ctx context.Context, asset api.Asset) error
	GetFileByID(ctx context.Context, id string) (api.Asset, error)
	ResolveURL(ctx context.Context, url string) (api.Asset, error)
	CreateOrUpdateGroup(ctx context.Context, group api.DuplicateGroup) error
	RecordTransaction(ctx context.Context, txn api.MergeTransaction) error
	FetchHistory(ctx context.Context, limit int) ([]api.MergeTransaction, error)
	BackgroundTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
