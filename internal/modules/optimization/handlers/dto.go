package handlers

import (
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// AssetInput is one asset of a statistics model in a request body.
type AssetInput struct {
	ID             string   `json:"id"`
	ExpectedReturn float64  `json:"expected_return"`
	Beta           *float64 `json:"beta,omitempty"`
}

// ModelInput is the JSON form of a StatisticsModel.
type ModelInput struct {
	Assets       []AssetInput `json:"assets"`
	Covariance   [][]float64  `json:"covariance"`
	RiskFreeRate float64      `json:"risk_free_rate"`
}

// ToModel validates the input and builds a StatisticsModel.
func (m ModelInput) ToModel() (*optimization.StatisticsModel, error) {
	assets := make([]optimization.Asset, len(m.Assets))
	for i, a := range m.Assets {
		id := a.ID
		if id == "" {
			id = fmt.Sprintf("asset-%d", i)
		}
		assets[i] = optimization.Asset{ID: id, ExpectedReturn: a.ExpectedReturn, Beta: a.Beta}
	}
	return optimization.NewStatisticsModelFromAssets(assets, m.Covariance, m.RiskFreeRate)
}

// AnalyzeRequest is the body of POST /optimizer/analyze.
type AnalyzeRequest struct {
	ModelInput
	MarketReturn   *float64 `json:"market_return,omitempty"`
	FrontierPoints int      `json:"frontier_points,omitempty"`
}

// EvaluateRequest is the body of POST /optimizer/evaluate.
type EvaluateRequest struct {
	ModelInput
	Weights []float64 `json:"weights"`
}

// FrontierRequest is the body of POST /optimizer/frontier.
type FrontierRequest struct {
	ModelInput
	Points int `json:"points,omitempty"`
}

// PriceSeriesInput is one price history in an estimation request.
type PriceSeriesInput struct {
	ID     string    `json:"id"`
	Prices []float64 `json:"prices"`
}

// EstimateRequest is the body of POST /optimizer/estimate.
type EstimateRequest struct {
	Assets         []PriceSeriesInput `json:"assets"`
	Market         []float64          `json:"market,omitempty"`
	RiskFreeRate   float64            `json:"risk_free_rate"`
	PeriodsPerYear int                `json:"periods_per_year,omitempty"`
}

// ToRequest converts the body to an estimator request.
func (e EstimateRequest) ToRequest() historical.EstimateRequest {
	series := make([]historical.PriceSeries, len(e.Assets))
	for i, a := range e.Assets {
		series[i] = historical.PriceSeries{ID: a.ID, Prices: a.Prices}
	}
	return historical.EstimateRequest{
		Assets:         series,
		Market:         e.Market,
		RiskFreeRate:   e.RiskFreeRate,
		PeriodsPerYear: e.PeriodsPerYear,
	}
}

// SimulateRequest is the body of POST /optimizer/simulate. A missing seed
// is drawn from the clock and echoed in the response.
type SimulateRequest struct {
	ModelInput
	Samples        int     `json:"samples,omitempty"`
	Seed           *uint64 `json:"seed,omitempty"`
	IncludeSamples bool    `json:"include_samples,omitempty"`
}

// ExpectedReturnRequest is the body of POST /capm/expected-return.
type ExpectedReturnRequest struct {
	RiskFreeRate *float64 `json:"risk_free_rate"`
	Beta         *float64 `json:"beta"`
	MarketReturn *float64 `json:"market_return"`
}

// WeightOutput is one asset weight in a response.
type WeightOutput struct {
	AssetID string  `json:"asset_id"`
	Weight  float64 `json:"weight"`
}

// PortfolioOutput is a portfolio with its risk/return figures.
type PortfolioOutput struct {
	Weights        []WeightOutput `json:"weights"`
	ExpectedReturn float64        `json:"expected_return"`
	Variance       float64        `json:"variance"`
	StdDev         float64        `json:"std_dev"`
	SharpeRatio    float64        `json:"sharpe_ratio"`
}

// FrontierPointOutput is one point of an efficient frontier sweep.
type FrontierPointOutput struct {
	TargetReturn float64 `json:"target_return"`
	PortfolioOutput
}

// CAPMOutput prices one asset with CAPM.
type CAPMOutput struct {
	AssetID        string  `json:"asset_id"`
	Beta           float64 `json:"beta"`
	RequiredReturn float64 `json:"required_return"`
	ExpectedReturn float64 `json:"expected_return"`
	Alpha          float64 `json:"alpha"`
}

// AnalysisOutput is the response of POST /optimizer/analyze.
type AnalysisOutput struct {
	ID              string                `json:"id"`
	CreatedAt       string                `json:"created_at"`
	Regularization  string                `json:"regularization"`
	InversionMethod string                `json:"inversion_method"`
	Tangency        PortfolioOutput       `json:"tangency"`
	MinVariance     PortfolioOutput       `json:"min_variance"`
	Frontier        []FrontierPointOutput `json:"frontier,omitempty"`
	CAPM            []CAPMOutput          `json:"capm,omitempty"`
}

// SamplePointOutput is one simulated portfolio in compact form. Weights
// follow the asset order of the request.
type SamplePointOutput struct {
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	StdDev         float64   `json:"std_dev"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
}

// SimulationOutput is the response of POST /optimizer/simulate.
type SimulationOutput struct {
	Seed          uint64              `json:"seed"`
	Count         int                 `json:"count"`
	MaxSharpe     PortfolioOutput     `json:"max_sharpe"`
	MinVolatility PortfolioOutput     `json:"min_volatility"`
	Samples       []SamplePointOutput `json:"samples,omitempty"`
}

// AssetSummaryOutput describes one estimated asset.
type AssetSummaryOutput struct {
	ID               string   `json:"id"`
	AnnualReturn     float64  `json:"annual_return"`
	AnnualVolatility float64  `json:"annual_volatility"`
	SharpeRatio      *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdown      *float64 `json:"max_drawdown,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
}

// EstimateOutput is the response of POST /optimizer/estimate. Model can be
// posted back to the other optimizer endpoints unchanged.
type EstimateOutput struct {
	Model          ModelInput           `json:"model"`
	MarketReturn   *float64             `json:"market_return,omitempty"`
	Observations   int                  `json:"observations"`
	PeriodsPerYear int                  `json:"periods_per_year"`
	Assets         []AssetSummaryOutput `json:"assets"`
}

func toPortfolioOutput(report optimization.PortfolioReport) PortfolioOutput {
	metrics := report.Metrics
	ids := metrics.Weights.AssetIDs()
	weights := make([]WeightOutput, metrics.Weights.Len())
	for i := range weights {
		id := fmt.Sprintf("asset-%d", i)
		if ids != nil {
			id = ids[i]
		}
		weights[i] = WeightOutput{AssetID: id, Weight: metrics.Weights.At(i)}
	}
	return PortfolioOutput{
		Weights:        weights,
		ExpectedReturn: metrics.ExpectedReturn,
		Variance:       metrics.Variance,
		StdDev:         metrics.StdDev,
		SharpeRatio:    report.SharpeRatio,
	}
}

func toFrontierOutput(points []optimization.FrontierPoint) []FrontierPointOutput {
	out := make([]FrontierPointOutput, len(points))
	for i, p := range points {
		out[i] = FrontierPointOutput{
			TargetReturn: p.TargetReturn,
			PortfolioOutput: toPortfolioOutput(optimization.PortfolioReport{
				Metrics:     p.Metrics,
				SharpeRatio: p.SharpeRatio,
			}),
		}
	}
	return out
}

// NewAnalysisOutput converts an analysis result to its wire form.
func NewAnalysisOutput(result *optimization.AnalysisResult) AnalysisOutput {
	out := AnalysisOutput{
		ID:              result.ID,
		CreatedAt:       result.CreatedAt.Format(time.RFC3339),
		Regularization:  result.Regularization,
		InversionMethod: string(result.InversionMethod),
		Tangency:        toPortfolioOutput(result.Tangency),
		MinVariance:     toPortfolioOutput(result.MinVariance),
		Frontier:        toFrontierOutput(result.Frontier),
	}
	for _, c := range result.CAPM {
		out.CAPM = append(out.CAPM, CAPMOutput(c))
	}
	return out
}

// NewSimulationOutput converts a simulation to its wire form, with every
// sample when includeSamples is set.
func NewSimulationOutput(sim *optimization.Simulation, includeSamples bool) SimulationOutput {
	report := func(i int) optimization.PortfolioReport {
		s := sim.Samples[i]
		return optimization.PortfolioReport{Metrics: s.Metrics, SharpeRatio: s.SharpeRatio}
	}
	out := SimulationOutput{
		Seed:          sim.Seed,
		Count:         len(sim.Samples),
		MaxSharpe:     toPortfolioOutput(report(sim.MaxSharpe)),
		MinVolatility: toPortfolioOutput(report(sim.MinVolatility)),
	}
	if includeSamples {
		out.Samples = make([]SamplePointOutput, len(sim.Samples))
		for i, s := range sim.Samples {
			out.Samples[i] = SamplePointOutput{
				Weights:        s.Metrics.Weights.Values(),
				ExpectedReturn: s.Metrics.ExpectedReturn,
				StdDev:         s.Metrics.StdDev,
				SharpeRatio:    s.SharpeRatio,
			}
		}
	}
	return out
}

// NewEstimateOutput converts an estimate to its wire form.
func NewEstimateOutput(estimate *historical.Estimate) EstimateOutput {
	model := estimate.Model
	assets := model.Assets()
	inputs := make([]AssetInput, len(assets))
	for i, a := range assets {
		inputs[i] = AssetInput{ID: a.ID, ExpectedReturn: a.ExpectedReturn, Beta: a.Beta}
	}
	summaries := make([]AssetSummaryOutput, len(estimate.Assets))
	for i, s := range estimate.Assets {
		summaries[i] = AssetSummaryOutput(s)
	}
	return EstimateOutput{
		Model: ModelInput{
			Assets:       inputs,
			Covariance:   model.CovarianceRows(),
			RiskFreeRate: model.RiskFreeRate(),
		},
		MarketReturn:   estimate.MarketReturn,
		Observations:   estimate.Observations,
		PeriodsPerYear: estimate.PeriodsPerYear,
		Assets:         summaries,
	}
}
