// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	if cfg == nil || cfg.Optimizer == nil {
		return nil, fmt.Errorf("missing configuration")
	}

	regularizer, err := cfg.Optimizer.Regularizer()
	if err != nil {
		return nil, fmt.Errorf("failed to configure regularization: %w", err)
	}

	opts := cfg.OptimizerOptions()
	container := &Container{
		Options:          opts,
		Regularizer:      regularizer,
		OptimizerService: optimization.NewOptimizerService(opts, regularizer, cfg.Optimizer.FrontierWorkers, log),
		Estimator:        historical.NewEstimator(cfg.PeriodsPerYear, log),
	}

	log.Info().
		Str("regularization", regularizer.Name()).
		Int("frontier_workers", cfg.Optimizer.FrontierWorkers).
		Int("periods_per_year", cfg.PeriodsPerYear).
		Msg("Services initialized")

	return container, nil
}
