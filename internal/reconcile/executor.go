package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Default concurrency ceilings per kind of bulk operation.
const (
	DefaultUpdateWorkers = 30
	DefaultCloneWorkers  = 5
)

// Completed pairs an item with its successful result.
type Completed[I, O any] struct {
	Item  I
	Value O
}

// RunBounded runs op for every item with at most limit in flight. Items
// are admitted in order. A failing item is handed to onFail and left out
// of the result; it never stops the others. Results keep item order.
// onFail may be called concurrently.
func RunBounded[I, O any](
	ctx context.Context,
	limit int,
	items []I,
	op func(context.Context, I) (O, error),
	onFail func(I, error),
) []Completed[I, O] {
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	results := make([]*Completed[I, O], len(items))

	for i, item := range items {
		g.Go(func() error {
			v, err := op(ctx, item)
			if err != nil {
				onFail(item, err)
				return nil
			}

			results[i] = &Completed[I, O]{Item: item, Value: v}

			return nil
		})
	}

	_ = g.Wait()

	out := make([]Completed[I, O], 0, len(items))

	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}

	return out
}
