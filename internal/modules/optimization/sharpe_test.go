package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharpeEvaluator_SharpeRatio(t *testing.T) {
	sharpe := NewSharpeEvaluator(DefaultOptions())

	ratio, err := sharpe.SharpeRatio(PortfolioMetrics{ExpectedReturn: 0.12, Variance: 0.04, StdDev: 0.2}, 0.02)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ratio, 1e-12)

	ratio, err = sharpe.SharpeRatio(PortfolioMetrics{ExpectedReturn: 0.01, Variance: 0.01, StdDev: 0.1}, 0.02)
	require.NoError(t, err)
	assert.InDelta(t, -0.1, ratio, 1e-12)
}

func TestSharpeEvaluator_ZeroRisk(t *testing.T) {
	sharpe := NewSharpeEvaluator(DefaultOptions())

	ratio, err := sharpe.SharpeRatio(PortfolioMetrics{ExpectedReturn: 0.102}, 0.03)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedRatio)
	assert.False(t, math.IsInf(ratio, 0))
	assert.False(t, math.IsNaN(ratio))

	_, err = sharpe.SharpeRatio(PortfolioMetrics{ExpectedReturn: 0.102, StdDev: 1e-13}, 0.03)
	assert.ErrorIs(t, err, ErrUndefinedRatio)
}

func TestSharpeEvaluator_InvalidInput(t *testing.T) {
	sharpe := NewSharpeEvaluator(DefaultOptions())
	metrics := PortfolioMetrics{ExpectedReturn: 0.1, StdDev: 0.2}

	_, err := sharpe.SharpeRatio(metrics, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = sharpe.SharpeRatio(PortfolioMetrics{ExpectedReturn: math.Inf(1), StdDev: 0.2}, 0.02)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSharpeEvaluator_RoundTrip(t *testing.T) {
	model := twoAssetModel(t)
	evaluator := NewPortfolioEvaluator(DefaultOptions())
	sharpe := NewSharpeEvaluator(DefaultOptions())

	metrics, err := evaluator.Evaluate(model, NewWeightVector([]float64{0.3, 0.7}))
	require.NoError(t, err)
	ratio, err := sharpe.SharpeRatio(metrics, model.RiskFreeRate())
	require.NoError(t, err)

	assert.InDelta(t, metrics.ExpectedReturn, model.RiskFreeRate()+ratio*metrics.StdDev, 1e-12)
}
