package di

import (
	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// Container holds the wired application services
type Container struct {
	Options     optimization.Options
	Regularizer optimization.Regularizer

	// Services - business logic
	OptimizerService *optimization.OptimizerService // Analysis runs: regularize, optimize, evaluate, sweep, CAPM
	Estimator        *historical.Estimator          // Statistics estimation from price histories
}
