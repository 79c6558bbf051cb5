package optimization

import (
	"context"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaxSimulationSamples bounds a single simulation run.
const MaxSimulationSamples = 1_000_000

// simulationChunk is the number of samples one worker evaluates per task.
const simulationChunk = 512

// SimulatedPortfolio is one randomly weighted long-only portfolio.
type SimulatedPortfolio struct {
	Metrics     PortfolioMetrics
	SharpeRatio float64
}

// Simulation is the outcome of a Monte Carlo run. MaxSharpe and
// MinVolatility index into Samples.
type Simulation struct {
	Seed          uint64
	Samples       []SimulatedPortfolio
	MaxSharpe     int
	MinVolatility int
}

// PortfolioSimulator scatters random fully-invested long-only portfolios
// across the risk/return plane. Weights are drawn from a flat Dirichlet
// distribution (normalised unit Gamma draws), so every point of the
// simplex is equally likely.
type PortfolioSimulator struct {
	evaluator *PortfolioEvaluator
	sharpe    *SharpeEvaluator
	workers   int
}

// NewPortfolioSimulator creates a simulator evaluating samples on at most
// workers goroutines (workers <= 0 means unbounded).
func NewPortfolioSimulator(evaluator *PortfolioEvaluator, sharpe *SharpeEvaluator, workers int) *PortfolioSimulator {
	return &PortfolioSimulator{evaluator: evaluator, sharpe: sharpe, workers: workers}
}

// Simulate draws samples portfolios for model. The same seed always yields
// the same samples regardless of the worker count: weights are drawn up
// front from one source and only the evaluation runs concurrently.
func (ps *PortfolioSimulator) Simulate(ctx context.Context, model *StatisticsModel, samples int, seed uint64) (*Simulation, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if samples < 1 || samples > MaxSimulationSamples {
		return nil, fmt.Errorf("%w: samples must be in [1, %d], got %d", ErrInvalidInput, MaxSimulationSamples, samples)
	}

	weights := DirichletWeights(model.N(), samples, seed)
	ids := model.AssetIDs()
	out := make([]SimulatedPortfolio, samples)

	g, ctx := errgroup.WithContext(ctx)
	if ps.workers > 0 {
		g.SetLimit(ps.workers)
	}
	for start := 0; start < samples; start += simulationChunk {
		end := min(start+simulationChunk, samples)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				wv, err := NewNamedWeightVector(ids, weights[i])
				if err != nil {
					return err
				}
				metrics, err := ps.evaluator.Evaluate(model, wv)
				if err != nil {
					return fmt.Errorf("sample %d: %w", i, err)
				}
				ratio, err := ps.sharpe.SharpeRatio(metrics, model.riskFree)
				if err != nil {
					return fmt.Errorf("sample %d: %w", i, err)
				}
				out[i] = SimulatedPortfolio{Metrics: metrics, SharpeRatio: ratio}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sim := &Simulation{Seed: seed, Samples: out}
	for i, s := range out {
		if s.SharpeRatio > out[sim.MaxSharpe].SharpeRatio {
			sim.MaxSharpe = i
		}
		if s.Metrics.StdDev < out[sim.MinVolatility].Metrics.StdDev {
			sim.MinVolatility = i
		}
	}
	return sim, nil
}

// DirichletWeights draws samples long-only weight vectors of n assets, each
// summing to 1, from a flat Dirichlet distribution seeded with seed.
func DirichletWeights(n, samples int, seed uint64) [][]float64 {
	gamma := distuv.Gamma{Alpha: 1, Beta: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	out := make([][]float64, samples)
	for s := range out {
		w := make([]float64, n)
		for {
			for i := range w {
				w[i] = gamma.Rand()
			}
			if sum := floats.Sum(w); sum > 0 {
				floats.Scale(1/sum, w)
				break
			}
		}
		out[s] = w
	}
	return out
}
