// Package bktree implements a BK-tree (Burkhard-Keller tree), a metric
// tree that accelerates "find all hashes within distance d of q" queries
// over Hamming space from O(n) linear scan to typically sub-linear, by
// pruning subtrees the triangle inequality rules out.
package bktree

import (
	"sort"
	"sync"

	"github.com/darianrosebrook/deduper/internal/hash/perceptual"
)

// Entry is one hash stored in the tree, identified by the asset it came
// from. Multiple file ids can share a hash value (distance 0); they are
// kept as a list on the same node rather than as separate nodes.
type Entry struct {
	FileID    string
	Hash      uint64
	insertSeq int
}

type node struct {
	hash     uint64
	entries  []Entry
	children map[int]int // edge distance -> child node index
}

// Tree is a BK-tree over 64-bit hashes for a single hash algorithm. Index
// addressing (nodes reference each other by slice index rather than
// pointer) keeps the structure flat and easy to reset. One Tree must be
// kept per hash algorithm — comparing dHash values against pHash values is
// meaningless.
type Tree struct {
	mu       sync.RWMutex
	nodes    []node
	rootSet  bool
	nextSeq  int
	fileToIx map[string]int // file id -> node index holding it, for removal/debugging
}

// New returns an empty BK-tree.
func New() *Tree {
	return &Tree{fileToIx: make(map[string]int)}
}

// Count returns the number of successful inserts (not nodes — a node can
// hold several entries at distance 0 from each other).
func (t *Tree) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextSeq
}

// Clear empties the tree.
func (t *Tree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes = nil
	t.rootSet = false
	t.nextSeq = 0
	t.fileToIx = make(map[string]int)
}

// Insert adds hash under fileID. If an existing entry has distance 0 from
// hash, fileID is attached to that node as an additional duplicate-payload
// entry rather than creating a new node.
func (t *Tree) Insert(fileID string, hash uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seq := t.nextSeq
	t.nextSeq++

	if !t.rootSet {
		t.nodes = append(t.nodes, node{hash: hash, children: make(map[int]int)})
		t.rootSet = true
		ix := len(t.nodes) - 1
		t.nodes[ix].entries = append(t.nodes[ix].entries, Entry{FileID: fileID, Hash: hash, insertSeq: seq})
		t.fileToIx[fileID] = ix
		return
	}

	cur := 0
	for {
		d := perceptual.HammingDistance(t.nodes[cur].hash, hash)
		if d == 0 {
			t.nodes[cur].entries = append(t.nodes[cur].entries, Entry{FileID: fileID, Hash: hash, insertSeq: seq})
			t.fileToIx[fileID] = cur
			return
		}
		if child, ok := t.nodes[cur].children[d]; ok {
			cur = child
			continue
		}
		t.nodes = append(t.nodes, node{hash: hash, children: make(map[int]int)})
		childIx := len(t.nodes) - 1
		t.nodes[cur].children[d] = childIx
		t.nodes[childIx].entries = append(t.nodes[childIx].entries, Entry{FileID: fileID, Hash: hash, insertSeq: seq})
		t.fileToIx[fileID] = childIx
		return
	}
}

// Result is one hit from Search.
type Result struct {
	FileID   string
	Hash     uint64
	Distance int
}

// Search returns every entry within Hamming distance radius of query,
// excluding any file id present in exclude. Results are sorted by distance
// ascending, then by insertion order for ties.
func (t *Tree) Search(query uint64, radius int, exclude map[string]bool) []Result {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.rootSet {
		return nil
	}

	type hit struct {
		r   Result
		seq int
	}
	var hits []hit

	var visit func(ix int)
	visit = func(ix int) {
		n := &t.nodes[ix]
		d := perceptual.HammingDistance(n.hash, query)
		if d <= radius {
			for _, e := range n.entries {
				if exclude != nil && exclude[e.FileID] {
					continue
				}
				hits = append(hits, hit{r: Result{FileID: e.FileID, Hash: e.Hash, Distance: d}, seq: e.insertSeq})
			}
		}
		lo, hi := d-radius, d+radius
		for key, child := range n.children {
			if key >= lo && key <= hi {
				visit(child)
			}
		}
	}
	visit(0)

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].r.Distance != hits[j].r.Distance {
			return hits[i].r.Distance < hits[j].r.Distance
		}
		return hits[i].seq < hits[j].seq
	})

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = h.r
	}
	return results
}
