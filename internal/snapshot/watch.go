// internal/snapshot/watch.go
package snapshot

import (
	"context"
	"errors"
	"time"
)

// CaptureFunc produces one fresh snapshot.
type CaptureFunc func(ctx context.Context) Snapshot

// Watch captures immediately and then once per interval, emitting each
// snapshot on out. No overlap: a slow capture delays the next tick.
// Returns when ctx is done.
func Watch(ctx context.Context, interval time.Duration, capture CaptureFunc, out chan<- Snapshot) error {
	if interval <= 0 {
		return errors.New("snapshot: watch interval must be > 0")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap := capture(ctx)
		// A capture cut short by cancellation is not emitted.
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- snap:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
