package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Options tune a ForEach fan-out.
type Options struct {
	// Limit caps the number of goroutines running at once. Zero means GOMAXPROCS.
	Limit int
	// ChunkSize is the number of consecutive items handled by one goroutine.
	// Zero spreads the items evenly over Limit goroutines.
	ChunkSize int
}

func (o Options) normalize(n int) (limit, chunk int) {
	limit = o.Limit
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	chunk = o.ChunkSize
	if chunk <= 0 {
		chunk = (n + limit - 1) / limit
	}
	if chunk < 1 {
		chunk = 1
	}
	return limit, chunk
}

// ForEach runs action for every item and waits for all of them. Items are
// split into contiguous chunks; each chunk runs on its own goroutine and
// visits its items in order. The first error cancels the context handed to
// the remaining actions and is returned.
//
// action receives the item's index so callers can write results into
// per-item slots without locking.
func ForEach[T any](ctx context.Context, items []T, opts Options, action func(ctx context.Context, i int, item T) error) error {
	if len(items) == 0 {
		return nil
	}
	limit, chunk := opts.normalize(len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for lo := 0; lo < len(items); lo += chunk {
		hi := min(lo+chunk, len(items))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := action(gctx, i, items[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
