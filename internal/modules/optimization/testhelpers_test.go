package optimization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// twoAssetModel is the reference scenario used throughout the tests:
// R = [0.10, 0.15], Σ = [[0.04, 0.01], [0.01, 0.09]], Rf = 0.02.
func twoAssetModel(t *testing.T) *StatisticsModel {
	t.Helper()
	model, err := NewStatisticsModelFromAssets(
		[]Asset{
			{ID: "BOND", ExpectedReturn: 0.10, Beta: floatPtr(0.8)},
			{ID: "EQUITY", ExpectedReturn: 0.15, Beta: floatPtr(1.3)},
		},
		[][]float64{
			{0.04, 0.01},
			{0.01, 0.09},
		},
		0.02,
	)
	require.NoError(t, err)
	return model
}

func threeAssetModel(t *testing.T) *StatisticsModel {
	t.Helper()
	model, err := NewStatisticsModel(
		[]float64{0.12, 0.08, 0.10},
		[][]float64{
			{0.04, 0.01, 0.005},
			{0.01, 0.03, 0.008},
			{0.005, 0.008, 0.025},
		},
		0.02,
	)
	require.NoError(t, err)
	return model
}

// collinearModel has two perfectly correlated assets (σ = 0.2 and 0.3, ρ = 1).
func collinearModel(t *testing.T) *StatisticsModel {
	t.Helper()
	model, err := NewStatisticsModel(
		[]float64{0.10, 0.15},
		[][]float64{
			{0.04, 0.06},
			{0.06, 0.09},
		},
		0.02,
	)
	require.NoError(t, err)
	return model
}

func floatPtr(v float64) *float64 { return &v }
