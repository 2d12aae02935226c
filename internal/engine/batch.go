// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const defaultBatchSize = 5

// Outcome reports the result of one item in a batch run.
type Outcome struct {
	RecordID int64
	Err      error
}

// ItemFunc is one engine operation applied to a single record.
type ItemFunc func(ctx context.Context, recordID int64, w io.Writer) error

// RunBatch applies fn to every record id with bounded concurrency and
// all-settled semantics: one item's failure never cancels its siblings.
// Items start in their original order but may complete out of order. A
// fixed delay separates batches, sized for the most restrictive external
// rate limit rather than per-request timing. The returned channel closes
// after every item has settled.
func (e *Engine) RunBatch(ctx context.Context, ids []int64, fn ItemFunc, w io.Writer) <-chan Outcome {
	size := e.cfg.Batch.Size
	if size <= 0 {
		size = defaultBatchSize
	}

	outcomes := make(chan Outcome, len(ids))
	sem := semaphore.NewWeighted(int64(size))

	go func() {
		defer close(outcomes)
		var wg sync.WaitGroup

		for i, id := range ids {
			if i > 0 && i%size == 0 && e.cfg.Batch.InterBatchDelay > 0 {
				wg.Wait()
				time.Sleep(e.cfg.Batch.InterBatchDelay)
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes <- Outcome{RecordID: id, Err: err}
				continue
			}
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				defer sem.Release(1)
				outcomes <- Outcome{RecordID: id, Err: fn(ctx, id, w)}
			}(id)
		}
		wg.Wait()
	}()

	return outcomes
}
