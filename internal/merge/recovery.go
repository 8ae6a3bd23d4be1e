package merge

import (
	"github.com/darianrosebrook/deduper/internal/api"
)

// Recovery scans and resolves transactions left in an ambiguous state by a
// crash mid-merge.
type Recovery struct {
	store *Store
	trash *Trash
}

// NewRecovery wires a Recovery pass to the same store and trash the
// executor uses.
func NewRecovery(store *Store, trash *Trash) *Recovery {
	return &Recovery{store: store, trash: trash}
}

// DetectIncomplete returns a VerificationResult for every transaction
// whose state is neither committed, failed, nor undone.
func (r *Recovery) DetectIncomplete() ([]api.VerificationResult, error) {
	pending, err := r.store.Pending()
	if err != nil {
		return nil, err
	}
	results := make([]api.VerificationResult, 0, len(pending))
	for _, txn := range pending {
		results = append(results, r.verify(txn))
	}
	return results, nil
}

// verify checks a pending transaction's claimed side effects against
// reality: do the trashed files still exist at their recorded restore
// tokens, and does every removed file have a recorded trash move. The
// keeper's current metadata is not compared against its snapshot.
func (r *Recovery) verify(txn api.MergeTransaction) api.VerificationResult {
	for id, token := range txn.TrashRestoreTokens {
		if !r.trash.Exists(token) {
			return api.VerificationResult{
				TransactionID:   txn.ID,
				State:           api.VerifyMismatch,
				Reason:          "trashed file " + id + " missing from recorded trash location",
				AutoRecoverable: false,
			}
		}
	}

	if len(txn.TrashRestoreTokens) < len(txn.RemovedIDs) {
		return api.VerificationResult{
			TransactionID:   txn.ID,
			State:           api.VerifyIncomplete,
			Reason:          "not every removed file has a recorded trash move",
			AutoRecoverable: true,
		}
	}

	return api.VerificationResult{
		TransactionID:   txn.ID,
		State:           api.VerifyComplete,
		AutoRecoverable: true,
	}
}

// Resolve applies the recovery policy to a verified transaction: Complete
// is marked committed; Incomplete is rolled back by restoring every
// recorded trash move and marking the transaction failed (the keeper's
// metadata is not reverted to its snapshot); Mismatch is left untouched
// for manual resolution.
func (r *Recovery) Resolve(result api.VerificationResult) error {
	txn, err := r.store.Get(result.TransactionID)
	if err != nil {
		return err
	}

	switch result.State {
	case api.VerifyComplete:
		txn.State = api.TxCommitted
		return r.store.Put(txn)
	case api.VerifyIncomplete:
		for id, token := range txn.TrashRestoreTokens {
			_ = r.trash.Restore(token, txn.TrashPaths[id])
		}
		txn.State = api.TxFailed
		return r.store.Put(txn)
	case api.VerifyMismatch:
		return nil
	default:
		return nil
	}
}
