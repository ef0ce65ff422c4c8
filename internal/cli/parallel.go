package cli

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/hupe1980/inputfilter/internal/inputfilter"
)

// buildResult is the outcome of building one configured input filter.
type buildResult struct {
	name   string
	filter *inputfilter.InputFilter
	err    error
}

// buildAll builds names across a bounded worker pool. Results keep the
// order of names. workers <= 0 means GOMAXPROCS.
func buildAll(env *environment, names []string, workers int) []buildResult {
	results := make([]buildResult, len(names))

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Small workloads are not worth the goroutines.
	if len(names) <= 1 || workers == 1 {
		for i, name := range names {
			f, err := env.build(name)
			results[i] = buildResult{name: name, filter: f, err: err}
		}

		return results
	}

	var wg sync.WaitGroup

	sem := make(chan struct{}, workers)

	for i, name := range names {
		wg.Add(1)

		sem <- struct{}{}

		go func(idx int, name string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					results[idx] = buildResult{
						name: name,
						err:  &ExitError{Code: ExitBuild, Err: fmt.Errorf("panic while building %q: %v", name, r)},
					}
				}
			}()

			f, err := env.build(name)
			results[idx] = buildResult{name: name, filter: f, err: err}
		}(i, name)
	}

	wg.Wait()

	return results
}
