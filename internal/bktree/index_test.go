package bktree_test

import (
	"testing"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/bktree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_SeparatesAlgorithms(t *testing.T) {
	ix := bktree.NewIndex()
	ix.Insert(api.AlgoDHash, "a", 0)
	ix.Insert(api.AlgoPHash, "b", 0)

	assert.Equal(t, 1, ix.Count(api.AlgoDHash))
	assert.Equal(t, 1, ix.Count(api.AlgoPHash))

	dResults := ix.Search(api.AlgoDHash, 0, 0, nil)
	require.Len(t, dResults, 1)
	assert.Equal(t, "a", dResults[0].FileID)

	pResults := ix.Search(api.AlgoPHash, 0, 0, nil)
	require.Len(t, pResults, 1)
	assert.Equal(t, "b", pResults[0].FileID)
}

func TestIndex_SearchOnUnknownAlgorithmIsEmpty(t *testing.T) {
	ix := bktree.NewIndex()
	assert.Empty(t, ix.Search(api.AlgoWHash, 0, 10, nil))
	assert.Equal(t, 0, ix.Count(api.AlgoWHash))
}

func TestIndex_ClearEmptiesEveryTree(t *testing.T) {
	ix := bktree.NewIndex()
	ix.Insert(api.AlgoDHash, "a", 0)
	ix.Insert(api.AlgoPHash, "b", 0)
	ix.Clear()
	assert.Equal(t, 0, ix.Count(api.AlgoDHash))
	assert.Equal(t, 0, ix.Count(api.AlgoPHash))
}
