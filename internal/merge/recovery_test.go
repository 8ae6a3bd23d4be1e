package merge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery_DetectIncomplete_CompleteWhenTrashPresent(t *testing.T) {
	store := newStore(t)
	tr, err := merge.NewTrash(t.TempDir())
	require.NoError(t, err)

	dir := t.TempDir()
	original := filepath.Join(dir, "dup.jpg")
	require.NoError(t, os.WriteFile(original, []byte("x"), 0o644))
	token, err := tr.Move(original)
	require.NoError(t, err)

	txn := api.MergeTransaction{
		ID:                 "t1",
		RemovedIDs:         []string{"dup"},
		State:              api.TxPending,
		TrashPaths:         map[string]string{"dup": original},
		TrashRestoreTokens: map[string]string{"dup": token},
	}
	require.NoError(t, store.Put(txn))

	rec := merge.NewRecovery(store, tr)
	results, err := rec.DetectIncomplete()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, api.VerifyComplete, results[0].State)
	assert.True(t, results[0].AutoRecoverable)
}

func TestRecovery_DetectIncomplete_MismatchWhenTrashMissing(t *testing.T) {
	store := newStore(t)
	tr, err := merge.NewTrash(t.TempDir())
	require.NoError(t, err)

	txn := api.MergeTransaction{
		ID:                 "t1",
		RemovedIDs:         []string{"dup"},
		State:              api.TxPending,
		TrashPaths:         map[string]string{"dup": "/nowhere/dup.jpg"},
		TrashRestoreTokens: map[string]string{"dup": "never-moved"},
	}
	require.NoError(t, store.Put(txn))

	rec := merge.NewRecovery(store, tr)
	results, err := rec.DetectIncomplete()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, api.VerifyMismatch, results[0].State)
	assert.False(t, results[0].AutoRecoverable)
}

func TestRecovery_DetectIncomplete_IncompleteWhenTrashMoveMissingEntirely(t *testing.T) {
	store := newStore(t)
	tr, err := merge.NewTrash(t.TempDir())
	require.NoError(t, err)

	txn := api.MergeTransaction{
		ID:                 "t1",
		RemovedIDs:         []string{"dup1", "dup2"},
		State:              api.TxPending,
		TrashRestoreTokens: map[string]string{},
	}
	require.NoError(t, store.Put(txn))

	rec := merge.NewRecovery(store, tr)
	results, err := rec.DetectIncomplete()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, api.VerifyIncomplete, results[0].State)
	assert.True(t, results[0].AutoRecoverable)
}

func TestRecovery_Resolve_CompleteMarksCommitted(t *testing.T) {
	store := newStore(t)
	tr, err := merge.NewTrash(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(api.MergeTransaction{ID: "t1", State: api.TxPending}))

	rec := merge.NewRecovery(store, tr)
	require.NoError(t, rec.Resolve(api.VerificationResult{TransactionID: "t1", State: api.VerifyComplete}))

	got, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, api.TxCommitted, got.State)
}

func TestRecovery_Resolve_IncompleteRestoresTrashAndMarksFailed(t *testing.T) {
	store := newStore(t)
	tr, err := merge.NewTrash(t.TempDir())
	require.NoError(t, err)

	dir := t.TempDir()
	original := filepath.Join(dir, "dup.jpg")
	require.NoError(t, os.WriteFile(original, []byte("x"), 0o644))
	token, err := tr.Move(original)
	require.NoError(t, err)

	txn := api.MergeTransaction{
		ID:                 "t1",
		RemovedIDs:         []string{"dup"},
		State:              api.TxPending,
		TrashPaths:         map[string]string{"dup": original},
		TrashRestoreTokens: map[string]string{"dup": token},
	}
	require.NoError(t, store.Put(txn))

	rec := merge.NewRecovery(store, tr)
	require.NoError(t, rec.Resolve(api.VerificationResult{TransactionID: "t1", State: api.VerifyIncomplete}))

	assert.FileExists(t, original)
	got, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, api.TxFailed, got.State)
}
