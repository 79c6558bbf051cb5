package optimization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PortfolioReport pairs a portfolio's metrics with its Sharpe ratio.
type PortfolioReport struct {
	Metrics     PortfolioMetrics
	SharpeRatio float64
}

// AnalysisRequest selects the optional parts of an analysis run.
type AnalysisRequest struct {
	// MarketReturn enables the CAPM table when set.
	MarketReturn *float64
	// FrontierPoints enables the frontier sweep when non-zero. A sweep needs
	// at least 2 points; smaller values fail with ErrInvalidInput.
	FrontierPoints int
}

// AnalysisResult is the immutable output of one analysis run.
type AnalysisResult struct {
	ID              string
	CreatedAt       time.Time
	Regularization  string
	InversionMethod InversionMethod
	Tangency        PortfolioReport
	MinVariance     PortfolioReport
	Frontier        []FrontierPoint
	CAPM            []CAPMResult
}

// OptimizerService wires the engine components into analysis runs:
// regularize → invert → optimize → evaluate → Sharpe, plus the optional
// frontier sweep and CAPM pricing.
type OptimizerService struct {
	optimizer   *MVOptimizer
	evaluator   *PortfolioEvaluator
	sharpe      *SharpeEvaluator
	capm        *CAPMEvaluator
	sweeper     *FrontierSweeper
	simulator   *PortfolioSimulator
	regularizer Regularizer
	log         zerolog.Logger
}

// NewOptimizerService creates a new optimizer service. A nil regularizer
// disables regularization.
func NewOptimizerService(opts Options, regularizer Regularizer, workers int, log zerolog.Logger) *OptimizerService {
	opts = opts.withDefaults()
	if regularizer == nil {
		regularizer = NoRegularization{}
	}
	evaluator := NewPortfolioEvaluator(opts)
	sharpe := NewSharpeEvaluator(opts)
	return &OptimizerService{
		optimizer:   NewMVOptimizer(NewCovarianceInverter(opts), opts),
		evaluator:   evaluator,
		sharpe:      sharpe,
		capm:        NewCAPMEvaluator(),
		sweeper:     NewFrontierSweeper(evaluator, sharpe, workers),
		simulator:   NewPortfolioSimulator(evaluator, sharpe, workers),
		regularizer: regularizer,
		log:         log.With().Str("component", "optimizer_service").Logger(),
	}
}

// Regularizer returns the configured covariance regularizer.
func (s *OptimizerService) Regularizer() Regularizer { return s.regularizer }

// Analyze runs a full analysis of model.
func (s *OptimizerService) Analyze(ctx context.Context, model *StatisticsModel, req AnalysisRequest) (*AnalysisResult, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Int("assets", model.N()).Logger()
	start := time.Now()

	frontier, err := s.prepare(model)
	if err != nil {
		log.Warn().Err(err).Msg("Analysis rejected")
		return nil, err
	}

	tangency, err := s.report(frontier, frontier.TangencyWeights)
	if err != nil {
		log.Warn().Err(err).Msg("Tangency portfolio failed")
		return nil, fmt.Errorf("tangency portfolio: %w", err)
	}
	minVariance, err := s.report(frontier, frontier.MinVarianceWeights)
	if err != nil {
		log.Warn().Err(err).Msg("Minimum-variance portfolio failed")
		return nil, fmt.Errorf("minimum-variance portfolio: %w", err)
	}

	result := &AnalysisResult{
		ID:              runID,
		CreatedAt:       start.UTC(),
		Regularization:  s.regularizer.Name(),
		InversionMethod: frontier.InversionMethod(),
		Tangency:        tangency,
		MinVariance:     minVariance,
	}

	if req.FrontierPoints != 0 {
		points, err := s.sweep(ctx, frontier, req.FrontierPoints)
		if err != nil {
			log.Warn().Err(err).Msg("Frontier sweep failed")
			return nil, err
		}
		result.Frontier = points
	}

	if req.MarketReturn != nil {
		capm, err := s.capm.EvaluateAssets(model, *req.MarketReturn)
		if err != nil {
			log.Warn().Err(err).Msg("CAPM pricing failed")
			return nil, fmt.Errorf("capm pricing: %w", err)
		}
		result.CAPM = capm
	}

	log.Info().
		Str("regularization", result.Regularization).
		Str("inversion", string(result.InversionMethod)).
		Float64("tangency_sharpe", tangency.SharpeRatio).
		Float64("min_variance_stddev", minVariance.Metrics.StdDev).
		Int("frontier_points", len(result.Frontier)).
		Dur("duration", time.Since(start)).
		Msg("Analysis completed")
	log.Debug().
		Interface("tangency_weights", tangency.Metrics.Weights.Map()).
		Interface("min_variance_weights", minVariance.Metrics.Weights.Map()).
		Msg("Optimal weights")

	return result, nil
}

// Evaluate reports metrics and Sharpe ratio of caller-supplied weights.
func (s *OptimizerService) Evaluate(model *StatisticsModel, weights WeightVector) (PortfolioReport, error) {
	metrics, err := s.evaluator.Evaluate(model, weights)
	if err != nil {
		return PortfolioReport{}, err
	}
	if !weights.IsFullyInvested(s.optimizer.opts.WeightSumTolerance) {
		s.log.Debug().Float64("weight_sum", weights.Sum()).Msg("Evaluating a portfolio that is not fully invested")
	}
	ratio, err := s.sharpe.SharpeRatio(metrics, model.RiskFreeRate())
	if err != nil {
		return PortfolioReport{}, err
	}
	return PortfolioReport{Metrics: metrics, SharpeRatio: ratio}, nil
}

// Frontier sweeps points target returns across the efficient frontier.
func (s *OptimizerService) Frontier(ctx context.Context, model *StatisticsModel, points int) ([]FrontierPoint, error) {
	frontier, err := s.prepare(model)
	if err != nil {
		return nil, err
	}
	return s.sweep(ctx, frontier, points)
}

// Simulate scatters samples random long-only portfolios over model. The
// model is used as given, without regularization, since nothing is
// inverted.
func (s *OptimizerService) Simulate(ctx context.Context, model *StatisticsModel, samples int, seed uint64) (*Simulation, error) {
	start := time.Now()
	sim, err := s.simulator.Simulate(ctx, model, samples, seed)
	if err != nil {
		return nil, fmt.Errorf("portfolio simulation: %w", err)
	}
	best := sim.Samples[sim.MaxSharpe]
	s.log.Debug().
		Int("samples", samples).
		Uint64("seed", seed).
		Float64("max_sharpe", best.SharpeRatio).
		Dur("duration", time.Since(start)).
		Msg("Simulation completed")
	return sim, nil
}

// ExpectedReturn prices a single asset with CAPM.
func (s *OptimizerService) ExpectedReturn(riskFree, beta, marketReturn float64) (float64, error) {
	return s.capm.ExpectedReturn(riskFree, beta, marketReturn)
}

func (s *OptimizerService) prepare(model *StatisticsModel) (*EfficientFrontier, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	regularized, err := RegularizeModel(model, s.regularizer)
	if err != nil {
		return nil, err
	}
	return s.optimizer.Prepare(regularized)
}

func (s *OptimizerService) sweep(ctx context.Context, frontier *EfficientFrontier, points int) ([]FrontierPoint, error) {
	targets, err := s.sweeper.Targets(frontier, points)
	if err != nil {
		return nil, err
	}
	result, err := s.sweeper.Sweep(ctx, frontier, targets)
	if err != nil {
		return nil, fmt.Errorf("frontier sweep: %w", err)
	}
	return result, nil
}

func (s *OptimizerService) report(frontier *EfficientFrontier, weightsFn func() (WeightVector, error)) (PortfolioReport, error) {
	weights, err := weightsFn()
	if err != nil {
		return PortfolioReport{}, err
	}
	metrics, err := s.evaluator.Evaluate(frontier.Model(), weights)
	if err != nil {
		return PortfolioReport{}, err
	}
	ratio, err := s.sharpe.SharpeRatio(metrics, frontier.Model().RiskFreeRate())
	if err != nil {
		return PortfolioReport{}, err
	}
	return PortfolioReport{Metrics: metrics, SharpeRatio: ratio}, nil
}
