package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PortfolioMetrics holds the derived risk/return figures of one weight vector.
type PortfolioMetrics struct {
	Weights        WeightVector
	ExpectedReturn float64
	Variance       float64
	StdDev         float64
}

// PortfolioEvaluator computes expected return and risk of weight vectors.
type PortfolioEvaluator struct {
	opts Options
}

// NewPortfolioEvaluator creates a new evaluator.
func NewPortfolioEvaluator(opts Options) *PortfolioEvaluator {
	return &PortfolioEvaluator{opts: opts.withDefaults()}
}

// Evaluate computes E(Rp) = wᵗR, σp² = wᵗΣw and σp = √σp².
//
// A variance below −ε signals a corrupted covariance matrix and fails with
// ErrNegativeVariance. Values in [−ε, 0) are rounding noise and evaluate to
// zero.
func (pe *PortfolioEvaluator) Evaluate(model *StatisticsModel, weights WeightVector) (PortfolioMetrics, error) {
	if model == nil {
		return PortfolioMetrics{}, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	n := model.N()
	if weights.Len() != n {
		return PortfolioMetrics{}, fmt.Errorf("%w: %d weights for %d assets", ErrDimensionMismatch, weights.Len(), n)
	}
	for i := 0; i < n; i++ {
		if !isFinite(weights.At(i)) {
			return PortfolioMetrics{}, fmt.Errorf("%w: weight %d is not finite", ErrInvalidInput, i)
		}
	}

	w := mat.NewVecDense(n, weights.Values())
	expectedReturn := mat.Dot(w, model.returns)
	variance := mat.Inner(w, model.cov, w)

	if variance < -pe.opts.ZeroTolerance {
		return PortfolioMetrics{}, fmt.Errorf("%w: wᵗΣw = %.3e", ErrNegativeVariance, variance)
	}
	if variance < 0 {
		variance = 0
	}

	return PortfolioMetrics{
		Weights:        weights,
		ExpectedReturn: expectedReturn,
		Variance:       variance,
		StdDev:         math.Sqrt(variance),
	}, nil
}
