package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Run is one closed loop of an ensemble. Every run owns its simulator,
// since controllers and integrators keep per-loop state.
type Run struct {
	Sim *Simulator
	X0  dynamo.State
}

// Ensemble runs independent closed loops on a bounded set of workers.
type Ensemble struct {
	build   func(i int) (Run, error)
	numRuns int
	workers int
}

// NewEnsemble prepares numRuns runs built by build. workers <= 0 uses
// GOMAXPROCS.
func NewEnsemble(build func(i int) (Run, error), numRuns, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{build: build, numRuns: numRuns, workers: workers}
}

// Run returns one result per run, in order. errs[i] is the build or
// configuration error of run i; a failed run leaves results[i] nil.
func (e *Ensemble) Run(ctx context.Context, cfg dynamo.Config) (results []*dynamo.Result, errs []error) {
	results = make([]*dynamo.Result, e.numRuns)
	errs = make([]error, e.numRuns)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				run, err := e.build(idx)
				if err != nil {
					errs[idx] = err
					continue
				}
				results[idx], errs[idx] = run.Sim.Run(ctx, run.X0, cfg)
			}
		}()
	}

	for i := 0; i < e.numRuns; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < e.numRuns; j++ {
				errs[j] = ctx.Err()
			}
			close(jobs)
			wg.Wait()
			return results, errs
		}
	}
	close(jobs)
	wg.Wait()

	return results, errs
}
