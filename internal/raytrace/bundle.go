package raytrace

import (
	"context"
	"runtime"
	"sync"
)

// BundleResult holds per-ray outcomes of a bundle trace. Rays[i] is valid
// only where Errs[i] is nil; vignetted or TIR rays are recorded, not fatal.
type BundleResult struct {
	Rays   []Ray
	Errs   []error
	Traced int
}

// TraceBundle traces a batch of rays across workers. It fails only when the
// context is canceled, the input is empty, or every ray fails.
func TraceBundle(ctx context.Context, tr *Tracer, rays []Ray) (*BundleResult, error) {
	if len(rays) == 0 {
		return nil, ErrNoRays
	}

	res := &BundleResult{
		Rays: make([]Ray, len(rays)),
		Errs: make([]error, len(rays)),
	}

	parallelFor(len(rays), 16, func(start, end int) {
		for i := start; i < end; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			res.Rays[i], res.Errs[i] = tr.Trace(rays[i])
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, err := range res.Errs {
		if err == nil {
			res.Traced++
		}
	}
	if res.Traced == 0 {
		return res, ErrNoRays
	}
	return res, nil
}

// parallelFor executes a function in parallel over a range [0, n).
func parallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
