// Package historical estimates statistics models from price histories.
package historical

import (
	"fmt"
	"math"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/pkg/formulas"
	"github.com/rs/zerolog"
)

// minPrices is the shortest series that yields a sample covariance (two returns).
const minPrices = 3

// PriceSeries is the price history of one asset, oldest first.
type PriceSeries struct {
	ID     string
	Prices []float64
}

// EstimateRequest describes one estimation run. All series, including the
// optional market series, must be sampled at the same points in time.
type EstimateRequest struct {
	Assets       []PriceSeries
	Market       []float64
	RiskFreeRate float64
	// PeriodsPerYear overrides the estimator default when > 0.
	PeriodsPerYear int
}

// AssetSummary describes one asset's history.
type AssetSummary struct {
	ID               string
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      *float64
	MaxDrawdown      *float64
	Beta             *float64
}

// Estimate is the output of an estimation run.
type Estimate struct {
	Model *optimization.StatisticsModel
	// MarketReturn is the annualised mean market return, set when a market
	// series was given.
	MarketReturn   *float64
	Observations   int
	PeriodsPerYear int
	Assets         []AssetSummary
}

// Estimator turns price histories into a StatisticsModel: simple returns,
// annualised mean returns, annualised sample covariance and betas against
// an optional market series.
type Estimator struct {
	periodsPerYear int
	log            zerolog.Logger
}

// NewEstimator creates an estimator annualising with periodsPerYear
// (TradingDaysPerYear when <= 0).
func NewEstimator(periodsPerYear int, log zerolog.Logger) *Estimator {
	if periodsPerYear <= 0 {
		periodsPerYear = formulas.TradingDaysPerYear
	}
	return &Estimator{
		periodsPerYear: periodsPerYear,
		log:            log.With().Str("component", "historical_estimator").Logger(),
	}
}

// Estimate builds a StatisticsModel from req.
func (e *Estimator) Estimate(req EstimateRequest) (*Estimate, error) {
	if len(req.Assets) == 0 {
		return nil, fmt.Errorf("%w: no price series", optimization.ErrInvalidInput)
	}
	periods := e.periodsPerYear
	if req.PeriodsPerYear > 0 {
		periods = req.PeriodsPerYear
	}

	length := len(req.Assets[0].Prices)
	for _, series := range req.Assets {
		if err := validatePrices(series.ID, series.Prices, length, minPrices); err != nil {
			return nil, err
		}
	}

	var marketReturns []float64
	var marketReturn *float64
	if req.Market != nil {
		if err := validatePrices("market", req.Market, length, minPrices); err != nil {
			return nil, err
		}
		marketReturns = formulas.CalculateReturns(req.Market)
		annual := formulas.AnnualizedReturn(marketReturns, periods)
		marketReturn = &annual
	}

	returns := make([][]float64, len(req.Assets))
	assets := make([]optimization.Asset, len(req.Assets))
	summaries := make([]AssetSummary, len(req.Assets))
	for i, series := range req.Assets {
		returns[i] = formulas.CalculateReturns(series.Prices)

		summary := AssetSummary{
			ID:               seriesID(series.ID, i),
			AnnualReturn:     formulas.AnnualizedReturn(returns[i], periods),
			AnnualVolatility: formulas.AnnualizedVolatility(returns[i], periods),
			SharpeRatio:      formulas.CalculateSharpeRatio(returns[i], req.RiskFreeRate, periods),
			MaxDrawdown:      formulas.CalculateMaxDrawdown(series.Prices),
		}
		if marketReturns != nil {
			summary.Beta = formulas.Beta(returns[i], marketReturns)
			if summary.Beta == nil {
				return nil, fmt.Errorf("%w: market series has no variance", optimization.ErrInvalidInput)
			}
		}
		summaries[i] = summary
		assets[i] = optimization.Asset{
			ID:             summary.ID,
			ExpectedReturn: summary.AnnualReturn,
			Beta:           summary.Beta,
		}
	}

	cov := formulas.CovarianceMatrix(returns, float64(periods))
	if cov == nil {
		return nil, fmt.Errorf("%w: cannot estimate covariance", optimization.ErrInvalidInput)
	}

	n := len(assets)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = cov.At(i, j)
		}
	}

	model, err := optimization.NewStatisticsModelFromAssets(assets, rows, req.RiskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics model: %w", err)
	}

	e.log.Debug().
		Int("assets", n).
		Int("observations", length-1).
		Int("periods_per_year", periods).
		Bool("market", marketReturn != nil).
		Msg("Estimated statistics model")

	return &Estimate{
		Model:          model,
		MarketReturn:   marketReturn,
		Observations:   length - 1,
		PeriodsPerYear: periods,
		Assets:         summaries,
	}, nil
}

// seriesID names unnamed series by position, matching unnamed model assets.
func seriesID(id string, i int) string {
	if id == "" {
		return fmt.Sprintf("asset-%d", i)
	}
	return id
}

func validatePrices(id string, prices []float64, length, minLen int) error {
	if len(prices) < minLen {
		return fmt.Errorf("%w: series %q has %d prices, need at least %d", optimization.ErrInvalidInput, id, len(prices), minLen)
	}
	if len(prices) != length {
		return fmt.Errorf("%w: series %q has %d prices, expected %d", optimization.ErrInvalidInput, id, len(prices), length)
	}
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("%w: series %q price %d is %v", optimization.ErrInvalidInput, id, i, p)
		}
	}
	return nil
}
