package poll

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds concurrent sub-requests against the server.
const DefaultBatchSize = 5

// Batched runs fn for every query, at most size at a time. Batches run one
// after another and the members of a batch run concurrently. If any member of
// a batch fails the whole batch is dropped and the next batch still runs.
//
// The returned items hold every successful batch in query order. The error,
// when non-nil, is a *multierror.Error with one entry per failed batch.
func Batched[Q, T any](ctx context.Context, queries []Q, size int, fn func(context.Context, Q) ([]T, error)) ([]T, error) {
	if size <= 0 {
		size = DefaultBatchSize
	}

	var (
		items []T
		errs  *multierror.Error
	)
	for start := 0; start < len(queries); start += size {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		end := min(start+size, len(queries))
		batch := queries[start:end]

		results := make([][]T, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, q := range batch {
			g.Go(func() error {
				res, err := fn(gctx, q)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("batch %d-%d: %w", start, end-1, err))
			continue
		}
		for _, res := range results {
			items = append(items, res...)
		}
	}
	return items, errs.ErrorOrNil()
}
