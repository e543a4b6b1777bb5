package placement

import (
	"runtime"
	"sync"
)

// BatchOptions controls concurrent placement of many interactions.
type BatchOptions struct {
	// Parallel enables concurrent placement.
	// When false, interactions are placed one at a time in order.
	Parallel bool

	// Workers specifies the number of placement goroutines.
	// If 0, defaults to runtime.NumCPU().
	// Only used when Parallel is true.
	Workers int

	// Progress is an optional callback called after each placement with the
	// number of interactions placed so far.
	Progress func(placed, total int)
}

// DefaultBatchOptions returns batch options with sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Parallel: true,
		Workers:  runtime.NumCPU(),
	}
}

// PlaceBatch places every interaction against the same view and returns the
// results in input order.
//
// Each interaction goes through PlaceWithFallback, so a result is produced
// for every input even when the map fails. The view must be safe for
// concurrent use when opts.Parallel is set; StaticView is.
//
// Example:
//
//	results := placer.PlaceBatch(view, interactions, placement.BatchOptions{
//	    Parallel: true,
//	    Workers:  4,
//	    Progress: func(placed, total int) {
//	        fmt.Printf("\rPlacing: %d/%d", placed, total)
//	    },
//	})
func (p *Placer) PlaceBatch(view MapView, interactions []Interaction, opts BatchOptions) []Result {
	results := make([]Result, len(interactions))
	if len(interactions) == 0 {
		return results
	}

	if !opts.Parallel {
		for i, in := range interactions {
			results[i] = p.PlaceWithFallback(view, in)
			if opts.Progress != nil {
				opts.Progress(i+1, len(interactions))
			}
		}
		return results
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	// Don't create more workers than interactions
	if workers > len(interactions) {
		workers = len(interactions)
	}

	jobs := make(chan int, len(interactions))
	done := make(chan int, len(interactions))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				// Each worker writes only its own slots
				results[index] = p.PlaceWithFallback(view, interactions[index])
				done <- index
			}
		}()
	}

	for i := range interactions {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	placed := 0
	for range done {
		placed++
		if opts.Progress != nil {
			opts.Progress(placed, len(interactions))
		}
	}
	return results
}
