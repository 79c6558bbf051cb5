package optimization

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// FrontierPoint is one evaluated portfolio on the efficient frontier.
type FrontierPoint struct {
	TargetReturn float64
	Metrics      PortfolioMetrics
	SharpeRatio  float64
}

// FrontierSweeper evaluates many target-return levels of one prepared
// frontier concurrently. Each point is independent, so the sweep needs no
// coordination beyond writing into its own slot.
type FrontierSweeper struct {
	evaluator *PortfolioEvaluator
	sharpe    *SharpeEvaluator
	workers   int
}

// NewFrontierSweeper creates a sweeper running at most workers points at
// a time (workers <= 0 means unbounded).
func NewFrontierSweeper(evaluator *PortfolioEvaluator, sharpe *SharpeEvaluator, workers int) *FrontierSweeper {
	return &FrontierSweeper{evaluator: evaluator, sharpe: sharpe, workers: workers}
}

// Targets spreads points target returns evenly between the
// minimum-variance return and the highest asset return. A frontier whose
// range is empty yields the single minimum-variance target.
func (fs *FrontierSweeper) Targets(f *EfficientFrontier, points int) ([]float64, error) {
	if points < 2 {
		return nil, fmt.Errorf("%w: need at least 2 frontier points, got %d", ErrInvalidInput, points)
	}
	lo := f.MinVarianceReturn()
	hi := floats.Max(f.model.Returns())
	if hi-lo <= f.opts.WeightSumTolerance*math.Max(1, math.Abs(lo)) {
		return []float64{lo}, nil
	}

	targets := make([]float64, points)
	floats.Span(targets, lo, hi)
	return targets, nil
}

// Sweep computes the frontier portfolio, its metrics and Sharpe ratio for
// every target. Results keep the order of targets. The first failure
// cancels the remaining work.
func (fs *FrontierSweeper) Sweep(ctx context.Context, f *EfficientFrontier, targets []float64) ([]FrontierPoint, error) {
	points := make([]FrontierPoint, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	if fs.workers > 0 {
		g.SetLimit(fs.workers)
	}

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			weights, err := f.WeightsForReturn(target)
			if err != nil {
				return fmt.Errorf("frontier point %d (target %.6f): %w", i, target, err)
			}
			metrics, err := fs.evaluator.Evaluate(f.model, weights)
			if err != nil {
				return fmt.Errorf("frontier point %d (target %.6f): %w", i, target, err)
			}
			ratio, err := fs.sharpe.SharpeRatio(metrics, f.model.riskFree)
			if err != nil {
				return fmt.Errorf("frontier point %d (target %.6f): %w", i, target, err)
			}
			points[i] = FrontierPoint{TargetReturn: target, Metrics: metrics, SharpeRatio: ratio}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
