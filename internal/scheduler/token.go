package scheduler

import (
	"context"

	"github.com/darianrosebrook/deduper/internal/api"
)

// Check returns api.ErrCancelled if ctx has been cancelled, nil otherwise.
// Call between items in every loop over assets, bucket expansion, and
// BK-tree traversal per the cooperative-cancellation suspension points.
func Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return api.ErrCancelled
	default:
		return nil
	}
}
