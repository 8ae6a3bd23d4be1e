package merge

import (
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
)

// Undoer reverts committed transactions within their retention window.
type Undoer struct {
	store    *Store
	trash    *Trash
	metadata MetadataWriter
}

// NewUndoer wires an Undoer to the same store/trash/metadata collaborators
// the executor uses.
func NewUndoer(store *Store, trash *Trash, metadata MetadataWriter) *Undoer {
	return &Undoer{store: store, trash: trash, metadata: metadata}
}

// UndoLast reverts the most recently committed, not-yet-undone
// transaction.
func (u *Undoer) UndoLast() (api.UndoResult, error) {
	txn, err := u.store.Last()
	if err != nil {
		return api.UndoResult{}, err
	}
	return u.undoTransaction(txn)
}

// Undo reverts a specific transaction by id.
func (u *Undoer) Undo(id string) (api.UndoResult, error) {
	txn, err := u.store.Get(id)
	if err != nil {
		return api.UndoResult{}, err
	}
	if txn.State != api.TxCommitted || txn.UndoneAt != nil {
		return api.UndoResult{}, api.ErrUndoNotAvailable
	}
	return u.undoTransaction(txn)
}

func (u *Undoer) undoTransaction(txn api.MergeTransaction) (api.UndoResult, error) {
	if txn.UndoDeadline != nil && time.Now().After(*txn.UndoDeadline) {
		return api.UndoResult{}, api.ErrUndoDeadlineExceeded
	}

	restored := make([]string, 0, len(txn.RemovedIDs))
	for _, id := range txn.RemovedIDs {
		token, ok := txn.TrashRestoreTokens[id]
		if !ok {
			return api.UndoResult{}, api.ErrSnapshotMissing
		}
		origPath := txn.TrashPaths[id]
		if err := u.trash.Restore(token, origPath); err != nil {
			return api.UndoResult{}, api.ErrUndoNotAvailable
		}
		restored = append(restored, id)
	}

	var reverted []api.FieldChange
	if keeperSnap, ok := txn.MetadataSnapshots[txn.KeeperID]; ok {
		if err := u.metadata.Restore(keeperSnap.AbsolutePath, keeperSnap); err != nil {
			return api.UndoResult{}, api.ErrSnapshotMissing
		}
		reverted = append(reverted, api.FieldChange{Field: "all", SourceID: txn.KeeperID})
	}

	now := time.Now()
	txn.UndoneAt = &now
	txn.State = api.TxUndone
	if err := u.store.Put(txn); err != nil {
		return api.UndoResult{}, err
	}

	return api.UndoResult{Success: true, RestoredIDs: restored, RevertedFields: reverted}, nil
}
