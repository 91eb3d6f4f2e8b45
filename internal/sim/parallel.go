package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Builder creates the simulator for run i. Each run must own its vehicle;
// propagators are not safe to share across goroutines.
type Builder func(i int) (*Simulator, error)

// Ensemble runs independent simulations concurrently with at most limit in
// flight. A non-positive limit means unbounded.
type Ensemble struct {
	build   Builder
	numRuns int
	limit   int
}

func NewEnsemble(build Builder, numRuns, limit int) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, limit: limit}
}

// Run returns one result per run in run order. The first failing run
// cancels the others; results of runs that did not finish may be partial
// or nil.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			s, err := e.build(i)
			if err != nil {
				return err
			}
			results[i], err = s.Run(ctx, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
