package bktree

import (
	"sync"

	"github.com/darianrosebrook/deduper/internal/api"
)

// Index keeps one Tree per hash algorithm. Comparing hashes across
// algorithms is undefined, so every lookup is scoped to a single algorithm.
type Index struct {
	mu    sync.RWMutex
	trees map[api.HashAlgorithm]*Tree
}

// NewIndex returns an empty multi-algorithm index.
func NewIndex() *Index {
	return &Index{trees: make(map[api.HashAlgorithm]*Tree)}
}

func (ix *Index) treeFor(algo api.HashAlgorithm) *Tree {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	t, ok := ix.trees[algo]
	if !ok {
		t = New()
		ix.trees[algo] = t
	}
	return t
}

// Insert adds hash (computed under algo) for fileID.
func (ix *Index) Insert(algo api.HashAlgorithm, fileID string, hash uint64) {
	ix.treeFor(algo).Insert(fileID, hash)
}

// Search queries the tree for algo. Searching an algorithm with no inserts
// yet returns no results rather than an error.
func (ix *Index) Search(algo api.HashAlgorithm, query uint64, radius int, exclude map[string]bool) []Result {
	ix.mu.RLock()
	t, ok := ix.trees[algo]
	ix.mu.RUnlock()
	if !ok {
		return nil
	}
	return t.Search(query, radius, exclude)
}

// Count returns the number of entries inserted under algo.
func (ix *Index) Count(algo api.HashAlgorithm) int {
	ix.mu.RLock()
	t, ok := ix.trees[algo]
	ix.mu.RUnlock()
	if !ok {
		return 0
	}
	return t.Count()
}

// Clear empties every per-algorithm tree.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.trees = make(map[api.HashAlgorithm]*Tree)
}
