// Package merge executes MergePlans as all-or-nothing transactions with a
// durable log, supporting crash recovery and undo within a retention
// window.
package merge

import (
	"fmt"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Executor applies MergePlans following the strict pre-snapshot -> keeper
// write -> trash moves -> commit protocol, reversing best-effort on
// failure.
type Executor struct {
	store     *Store
	trash     *Trash
	metadata  MetadataWriter
	locks     *lockManager
	retention time.Duration
	log       *logrus.Logger
}

// NewExecutor wires together the transaction log, trash, and metadata
// writer collaborators.
func NewExecutor(store *Store, trash *Trash, metadata MetadataWriter, retention time.Duration, log *logrus.Logger) *Executor {
	if log == nil {
		log = logrus.New()
	}
	return &Executor{store: store, trash: trash, metadata: metadata, locks: newLockManager(), retention: retention, log: log}
}

// Merge applies plan. assetByID must contain the keeper and every trash
// member; callers (the engine facade) resolve MergePlan file ids to full
// Asset records before calling this.
func (e *Executor) Merge(plan api.MergePlan, assetByID map[string]api.Asset) (api.MergeResult, error) {
	keeper, ok := assetByID[plan.KeeperID]
	if !ok {
		return api.MergeResult{}, api.ErrKeeperNotFound
	}

	lockIDs := append([]string{plan.KeeperID}, plan.TrashList...)
	unlock := e.locks.acquireSorted(lockIDs)
	defer unlock()

	now := time.Now()
	deadline := now.Add(e.retention)
	txn := api.MergeTransaction{
		ID:                 uuid.NewString(),
		GroupID:            plan.GroupID,
		KeeperID:           plan.KeeperID,
		RemovedIDs:         plan.TrashList,
		CreatedAt:          now,
		UndoDeadline:       &deadline,
		State:              api.TxPending,
		MetadataSnapshots:  make(map[string]api.MetadataSnapshot),
		TrashPaths:         make(map[string]string),
		TrashRestoreTokens: make(map[string]string),
	}

	// Step 1: pre-snapshot every participant before any side effect.
	for id, asset := range assetByID {
		if id != plan.KeeperID && !contains(plan.TrashList, id) {
			continue
		}
		snap, err := e.metadata.Snapshot(asset)
		if err != nil {
			return api.MergeResult{}, e.fail(txn, fmt.Errorf("snapshot %s: %w", id, err))
		}
		txn.MetadataSnapshots[id] = snap
		if id != plan.KeeperID {
			txn.TrashPaths[id] = asset.Path
		}
	}
	if err := e.store.Put(txn); err != nil {
		return api.MergeResult{}, fmt.Errorf("persist pending transaction: %w", err)
	}

	// Step 2: keeper metadata write, atomic.
	if len(plan.FieldChanges) > 0 {
		if err := e.metadata.Apply(keeper.Path, plan.FieldChanges); err != nil {
			return api.MergeResult{}, e.fail(txn, fmt.Errorf("%w: %v", api.ErrMetadataWriteFailed, err))
		}
	}

	// Step 3: trash moves.
	for _, id := range plan.TrashList {
		asset := assetByID[id]
		token, err := e.trash.Move(asset.Path)
		if err != nil {
			e.reverse(txn)
			return api.MergeResult{}, e.fail(txn, fmt.Errorf("%w: %v", api.ErrTrashMoveFailed, err))
		}
		txn.TrashRestoreTokens[id] = token
		if err := e.store.Put(txn); err != nil {
			e.log.WithError(err).Warn("failed to persist transaction after trash move")
		}
	}

	// Step 4: commit.
	txn.State = api.TxCommitted
	if err := e.store.Put(txn); err != nil {
		return api.MergeResult{}, fmt.Errorf("persist committed transaction: %w", err)
	}

	return api.MergeResult{
		TransactionID: txn.ID,
		KeeperID:      txn.KeeperID,
		RemovedIDs:    txn.RemovedIDs,
		MergedFields:  plan.FieldChanges,
	}, nil
}

// fail marks txn failed via the sentinel and persists it, returning err
// unchanged so the caller can propagate it.
func (e *Executor) fail(txn api.MergeTransaction, err error) error {
	txn.State = api.TxFailed
	if putErr := e.store.Put(txn); putErr != nil {
		e.log.WithError(putErr).Warn("failed to persist failed transaction")
	}
	return err
}

// reverse attempts to undo whatever trash moves already completed, on a
// best-effort basis, when a later step fails.
func (e *Executor) reverse(txn api.MergeTransaction) {
	for id, token := range txn.TrashRestoreTokens {
		origPath := txn.TrashPaths[id]
		if err := e.trash.Restore(token, origPath); err != nil {
			e.log.WithError(err).WithField("file_id", id).Error("failed to reverse trash move during rollback")
		}
	}
	if snap, ok := txn.MetadataSnapshots[txn.KeeperID]; ok {
		if err := e.metadata.Restore(snap.AbsolutePath, snap); err != nil {
			e.log.WithError(err).Warn("failed to revert keeper metadata during rollback")
		}
	}
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
