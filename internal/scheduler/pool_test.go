package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darianrosebrook/deduper/internal/scheduler"
	"github.com/stretchr/testify/assert"
)

func TestPool_RunsAllSubmittedJobs(t *testing.T) {
	p := scheduler.New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	var count int32
	const n = 20
	for i := 0; i < n; i++ {
		p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		})
	}
	p.Close()

	assert.Equal(t, int32(n), atomic.LoadInt32(&count))
}

func TestPool_CollectsJobErrors(t *testing.T) {
	p := scheduler.New(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	boom := assert.AnError
	p.Submit(func(ctx context.Context) error { return boom })
	p.Close()

	select {
	case err := <-p.Errors():
		assert.Equal(t, boom, err)
	case <-time.After(time.Second):
		t.Fatal("expected an error on the Errors channel")
	}
}

func TestPool_SetActiveAdjustsConcurrencyBudget(t *testing.T) {
	p := scheduler.New(8)
	assert.Equal(t, int32(8), p.ActiveWorkers())

	p.SetActive(4)
	assert.Equal(t, int32(4), p.ActiveWorkers())

	p.SetActive(0)
	assert.Equal(t, int32(1), p.ActiveWorkers(), "SetActive should floor at 1")
}

func TestPool_NewDefaultsToGOMAXPROCSWhenInvalid(t *testing.T) {
	p := scheduler.New(0)
	assert.GreaterOrEqual(t, p.ActiveWorkers(), int32(1))
}
