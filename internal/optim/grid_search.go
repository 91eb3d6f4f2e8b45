// Package optim searches controller gains for the configuration that
// minimizes a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/sixdof/internal/config"
	"github.com/san-kum/sixdof/internal/experiment"
)

// ErrNoCandidate is returned when every grid point failed to build or run.
var ErrNoCandidate = errors.New("optim: no candidate completed")

// BuildFunc assembles one experiment for a point of the grid.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

// GridSearch evaluates the cartesian product of ranges, one run per point.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters for %d ranges", config.ErrInvalidConfig, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: empty range for %s", config.ErrInvalidConfig, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points returns the number of runs a search performs.
func (g *GridSearch) Points() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search returns the point with the smallest value of metricName. Points
// whose run fails or whose metric is not finite are skipped; a context
// cancellation aborts the search.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		exp, err := build(current)
		if err != nil {
			return nil
		}
		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("%w: unknown metric %q", config.ErrInvalidConfig, metricName)
		}
		if !math.IsNaN(val) && !math.IsInf(val, 0) && val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, build, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// PIDBuilder copies base for every point and sets the kp, ki and kd entries
// present in params on its PID controller.
func PIDBuilder(base *config.Config, registry *experiment.Registry) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		cfg.Controller.Type = "pid"
		for name, v := range params {
			switch name {
			case "kp":
				cfg.Controller.Kp = v
			case "ki":
				cfg.Controller.Ki = v
			case "kd":
				cfg.Controller.Kd = v
			default:
				return nil, fmt.Errorf("%w: unknown gain %q", config.ErrInvalidConfig, name)
			}
		}
		return experiment.Build(&cfg, experiment.WithRegistry(registry))
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
