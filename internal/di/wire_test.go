package di

import (
	"testing"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(regularization string) *config.Config {
	return &config.Config{
		Port:           8001,
		PeriodsPerYear: 252,
		Optimizer: &config.OptimizerConfig{
			WeightSumTolerance:   1e-9,
			ZeroTolerance:        1e-12,
			SingularityThreshold: 1e-12,
			Regularization:       regularization,
			RidgeLambda:          1e-3,
			FrontierPoints:       20,
			FrontierWorkers:      2,
			SimulationSamples:    500,
		},
	}
}

func TestWire(t *testing.T) {
	container, err := Wire(testConfig("ridge"), zerolog.Nop())
	require.NoError(t, err)

	assert.NotNil(t, container.OptimizerService)
	assert.NotNil(t, container.Estimator)
	assert.Equal(t, optimization.RegularizationRidge, container.Regularizer.Name())
	assert.Equal(t, optimization.RegularizationRidge, container.OptimizerService.Regularizer().Name())
	assert.Equal(t, 1e-12, container.Options.ZeroTolerance)
}

func TestWire_InvalidConfig(t *testing.T) {
	_, err := Wire(testConfig("bogus"), zerolog.Nop())
	assert.ErrorIs(t, err, optimization.ErrInvalidInput)

	_, err = Wire(nil, zerolog.Nop())
	assert.Error(t, err)
}
