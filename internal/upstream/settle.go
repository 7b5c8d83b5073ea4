package upstream

import (
	"context"
	"sync"
)

// Settle runs the independent fetches of one view in parallel and waits for
// all of them, recording each outcome separately -- an all-settled join, not
// all-or-nothing, so one failed resource never blocks the sections that
// succeeded. If the context is canceled before the join completes (the user
// navigated away), every slot reports the context error and callers must
// discard whatever the tasks wrote: stale results never reach the new view.
func Settle(ctx context.Context, tasks ...func(context.Context) error) []error {
	results := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) error) {
			defer wg.Done()
			results[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			results[i] = err
		}
	}

	return results
}
