package merge

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockManager_AcquireSortedLocksAllIDs(t *testing.T) {
	lm := newLockManager()
	unlock := lm.acquireSorted([]string{"c", "a", "b"})

	// Every id should now be held: a second acquire on the same id must block
	// until we unlock.
	acquired := make(chan struct{})
	go func() {
		lm.lockFor("a").Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock for \"a\" should still be held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock for \"a\" was never released")
	}
}

func TestLockManager_ConcurrentAcquireSortedNeverDeadlocks(t *testing.T) {
	lm := newLockManager()
	ids := []string{"x", "y", "z"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lm.acquireSorted(ids)
			unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("acquireSorted deadlocked under concurrent use")
	}
}

func TestLockManager_Idempotent(t *testing.T) {
	lm := newLockManager()
	a := lm.lockFor("same")
	b := lm.lockFor("same")
	assert.Same(t, a, b)
}
