package formulas

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the default annualisation factor for daily data.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// AnnualizedReturn scales the mean periodic return to a yearly figure.
// Formula: mean(returns) × periodsPerYear
func AnnualizedReturn(returns []float64, periodsPerYear int) float64 {
	return Mean(returns) * float64(periodsPerYear)
}

// AnnualizedVolatility calculates annualized volatility from periodic returns
// Formula: Std Dev of Returns × sqrt(periodsPerYear)
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// CovarianceMatrix calculates the sample covariance matrix of several
// return series of equal length, scaled by factor (e.g. periods per year).
// Returns nil when the series are empty, ragged or shorter than 2.
func CovarianceMatrix(series [][]float64, factor float64) *mat.SymDense {
	if len(series) == 0 {
		return nil
	}
	observations := len(series[0])
	if observations < 2 {
		return nil
	}

	// One row per observation, one column per series.
	data := mat.NewDense(observations, len(series), nil)
	for j, s := range series {
		if len(s) != observations {
			return nil
		}
		for i, v := range s {
			data.Set(i, j, v)
		}
	}

	cov := mat.NewSymDense(len(series), nil)
	stat.CovarianceMatrix(cov, data, nil)
	if factor != 1 {
		cov.ScaleSym(factor, cov)
	}
	return cov
}

// Beta calculates the sensitivity of asset returns to market returns
// Formula: Cov(asset, market) / Var(market)
//
// Returns nil if the series are mismatched or the market has no variance
func Beta(assetReturns, marketReturns []float64) *float64 {
	if len(assetReturns) < 2 || len(assetReturns) != len(marketReturns) {
		return nil
	}
	marketVar := Variance(marketReturns)
	if marketVar == 0 {
		return nil
	}
	beta := Covariance(assetReturns, marketReturns) / marketVar
	return &beta
}
