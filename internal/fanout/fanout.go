// Package fanout runs independent tasks concurrently and collects their
// outcomes in input order.
package fanout

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one task: either a value or the error that
// replaced it.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Map calls fn once per item with at most limit calls in flight (limit <= 0
// means unbounded). A failing or panicking task is recorded in its own slot
// and never cancels its siblings. The returned slice is index-aligned with
// items.
func Map[I, O any](ctx context.Context, items []I, limit int, fn func(ctx context.Context, i int, item I) (O, error)) []Result[O] {
	out := make([]Result[O], len(items))
	if len(items) == 0 {
		return out
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					out[i] = Result[O]{Err: eris.Errorf("fanout: task %d panicked: %v", i, r)}
				}
			}()
			v, err := fn(ctx, i, item)
			out[i] = Result[O]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
