package merge_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUndoer(t *testing.T) (*merge.Undoer, *merge.Store, *merge.Trash) {
	t.Helper()
	store := newStore(t)
	tr, err := merge.NewTrash(t.TempDir())
	require.NoError(t, err)
	writer := merge.NewAtomicFileMetadataWriter()
	return merge.NewUndoer(store, tr, writer), store, tr
}

func TestUndoer_UndoLast_RestoresTrashedFile(t *testing.T) {
	undoer, store, tr := newUndoer(t)

	dir := t.TempDir()
	original := filepath.Join(dir, "dup.jpg")
	require.NoError(t, os.WriteFile(original, []byte("x"), 0o644))
	token, err := tr.Move(original)
	require.NoError(t, err)
	assert.NoFileExists(t, original)

	deadline := time.Now().Add(time.Hour)
	txn := api.MergeTransaction{
		ID:                 "t1",
		KeeperID:           "keep",
		RemovedIDs:         []string{"dup"},
		State:              api.TxCommitted,
		UndoDeadline:       &deadline,
		TrashPaths:         map[string]string{"dup": original},
		TrashRestoreTokens: map[string]string{"dup": token},
	}
	require.NoError(t, store.Put(txn))

	result, err := undoer.UndoLast()
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"dup"}, result.RestoredIDs)
	assert.FileExists(t, original)

	got, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, api.TxUndone, got.State)
	assert.NotNil(t, got.UndoneAt)
}

func TestUndoer_Undo_DeadlineExceededReturnsErr(t *testing.T) {
	undoer, store, _ := newUndoer(t)

	past := time.Now().Add(-time.Hour)
	txn := api.MergeTransaction{
		ID:           "t1",
		State:        api.TxCommitted,
		UndoDeadline: &past,
	}
	require.NoError(t, store.Put(txn))

	_, err := undoer.Undo("t1")
	assert.ErrorIs(t, err, api.ErrUndoDeadlineExceeded)
}

func TestUndoer_Undo_AlreadyUndoneReturnsErr(t *testing.T) {
	undoer, store, _ := newUndoer(t)

	undoneAt := time.Now()
	txn := api.MergeTransaction{
		ID:       "t1",
		State:    api.TxUndone,
		UndoneAt: &undoneAt,
	}
	require.NoError(t, store.Put(txn))

	_, err := undoer.Undo("t1")
	assert.ErrorIs(t, err, api.ErrUndoNotAvailable)
}
