package engine

import (
	"context"
	"fmt"

	"github.com/thrasher-corp/gct-backtester/common"
	"golang.org/x/sync/errgroup"
)

// RunAll executes independent runs in parallel with at most workers running
// at once. Results are returned in the order of runs. A run which fails
// does not stop the others, the first error encountered is returned
func RunAll(ctx context.Context, runs []*BackTest, workers int) ([]*Result, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w, received %d", errInvalidWorkerCount, workers)
	}
	for i := range runs {
		if runs[i] == nil {
			return nil, fmt.Errorf("%w BackTest at index %d", common.ErrNilPointer, i)
		}
	}
	results := make([]*Result, len(runs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range runs {
		i := i
		g.Go(func() error {
			res, err := runs[i].Run(ctx)
			results[i] = res
			if err != nil {
				return fmt.Errorf("run %v: %w", runs[i].MetaData.ID, err)
			}
			return nil
		})
	}
	return results, g.Wait()
}
