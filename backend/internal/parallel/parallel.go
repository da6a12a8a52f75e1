package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Settle runs fn for every item with at most limit calls in flight and
// returns one error slot per item. A failing item never cancels its siblings.
func Settle[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) []error {
	results := make([]error, len(items))
	if fn == nil || len(items) == 0 {
		return results
	}

	var group errgroup.Group
	if limit > 0 {
		group.SetLimit(limit)
	}
	for i, item := range items {
		group.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = group.Wait()
	return results
}
