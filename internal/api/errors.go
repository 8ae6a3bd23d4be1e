package api

import "errors"

// Fingerprinting errors (spec §7 taxonomy).
var (
	ErrUnsupportedFormat = errors.New("unsupported or unrecognized media format")
	ErrDecodeFailed      = errors.New("failed to decode media to a raster")
	ErrBelowMinimumSize  = errors.New("image dimensions below minimum hashable size")
)

// Planning errors.
var (
	ErrGroupNotFound     = errors.New("duplicate group not found")
	ErrKeeperNotFound    = errors.New("keeper file id not found")
	ErrKeeperNotInGroup  = errors.New("keeper file id is not a member of the group")
)

// Execution errors.
var (
	ErrTrashMoveFailed     = errors.New("failed to move file to trash")
	ErrMetadataWriteFailed = errors.New("failed to write keeper metadata")
	ErrTransactionConflict = errors.New("transaction conflicts with an in-flight merge or recovery pass")
)

// Undo errors.
var (
	ErrUndoNotAvailable    = errors.New("undo is not available for this transaction")
	ErrUndoDeadlineExceeded = errors.New("undo retention window has passed")
	ErrSnapshotMissing     = errors.New("metadata snapshot missing from transaction record")
)

// Scoring errors.
var (
	ErrCancelled          = errors.New("operation cancelled")
	ErrTimeBudgetExceeded = errors.New("scoring time budget exceeded")
	ErrIncomplete         = errors.New("scoring limits prevented exhaustive evaluation")
)

// Cross-cutting.
var (
	ErrWrongMediaType = errors.New("operation does not apply to this asset's media type")
	ErrNotFound        = errors.New("not found")
)
