package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEach calls fn for every index in [0, n), sequentially or on a bounded
// pool. Indexes not started before ctx is cancelled are skipped; the
// returned slice marks the ones that ran to completion.
func (f *Facade) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) []bool {
	done := make([]bool, n)
	if f.workers <= 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				break
			}
			fn(ctx, i)
			done[i] = true
		}
		return done
	}

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, i)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()
	return done
}
