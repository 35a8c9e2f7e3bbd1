// Package fanout runs one fetch per key with bounded concurrency and a
// single batch deadline, collecting successes and failures separately so
// callers handle partial results explicitly.
package fanout

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// KeyError pairs one key with the error that failed it.
type KeyError[K comparable] struct {
	Key K
	Err error
}

// Result splits a batch into successes and failures. A failed key never
// aborts the batch; it is simply absent from OK.
type Result[K comparable, T any] struct {
	OK     map[K]T
	Failed []KeyError[K]
}

// Map calls fn once per key, at most limit in flight, all under one
// timeout. Keys whose fetch is still unfinished at the deadline are
// reported as failures with the context error; they are not retried.
// Failed preserves the original key order.
func Map[K comparable, T any](
	ctx context.Context,
	keys []K,
	limit int64,
	timeout time.Duration,
	fn func(context.Context, K) (T, error),
) Result[K, T] {
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sem := semaphore.NewWeighted(limit)
	errs := make([]error, len(keys))

	var mu sync.Mutex
	ok := make(map[K]T, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		if err := sem.Acquire(batchCtx, 1); err != nil {
			// Deadline hit while queued: everything not yet started fails.
			errs[i] = err
			continue
		}

		wg.Add(1)
		go func(i int, key K) {
			defer wg.Done()
			defer sem.Release(1)

			value, err := fn(batchCtx, key)
			if err != nil {
				errs[i] = err
				return
			}

			mu.Lock()
			ok[key] = value
			mu.Unlock()
		}(i, key)
	}
	wg.Wait()

	result := Result[K, T]{OK: ok}
	for i, err := range errs {
		if err != nil {
			result.Failed = append(result.Failed, KeyError[K]{Key: keys[i], Err: err})
		}
	}
	return result
}
