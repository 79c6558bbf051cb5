package optimization

import (
	"fmt"
	"math"
)

// SharpeEvaluator computes excess return per unit of total risk.
type SharpeEvaluator struct {
	opts Options
}

// NewSharpeEvaluator creates a new Sharpe evaluator.
func NewSharpeEvaluator(opts Options) *SharpeEvaluator {
	return &SharpeEvaluator{opts: opts.withDefaults()}
}

// SharpeRatio returns (Rp − Rf) / σp.
// A zero-risk portfolio has no defined ratio: it fails with
// ErrUndefinedRatio instead of returning ±Inf or NaN.
func (se *SharpeEvaluator) SharpeRatio(metrics PortfolioMetrics, riskFree float64) (float64, error) {
	if !isFinite(riskFree) {
		return 0, fmt.Errorf("%w: risk-free rate %v is not finite", ErrInvalidInput, riskFree)
	}
	if !isFinite(metrics.ExpectedReturn) || !isFinite(metrics.StdDev) {
		return 0, fmt.Errorf("%w: portfolio metrics are not finite", ErrInvalidInput)
	}
	if math.Abs(metrics.StdDev) <= se.opts.ZeroTolerance {
		return 0, fmt.Errorf("%w: portfolio standard deviation %.3e is zero", ErrUndefinedRatio, metrics.StdDev)
	}
	return (metrics.ExpectedReturn - riskFree) / metrics.StdDev, nil
}
