package scheduler_test

import (
	"context"
	"testing"

	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/darianrosebrook/deduper/internal/scheduler"
	"github.com/stretchr/testify/assert"
)

func TestCheck_NilUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, scheduler.Check(ctx))

	cancel()
	assert.ErrorIs(t, scheduler.Check(ctx), api.ErrCancelled)
}
