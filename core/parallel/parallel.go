package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the item count below which ParallelizeWithThreshold
// stays on the calling goroutine. Copying a few thousand matrix rows is
// cheaper than starting workers.
const DefaultThreshold = 4096

// Parallelize splits [0, items) into contiguous ranges, one per CPU core, and
// calls fn(start, end) for each range on its own goroutine. It returns once
// every range has been processed. fn must only write to disjoint state per range.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with an explicit worker count.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of
// items exceeds the threshold; otherwise fn(0, items) runs sequentially.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
