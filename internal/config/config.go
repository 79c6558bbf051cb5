// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel       string
	Port           int
	DevMode        bool
	PeriodsPerYear int // Annualisation factor for price-history estimation (252 for daily data)
	Optimizer      *OptimizerConfig
}

// OptimizerConfig holds the numerical settings of the optimization engine
type OptimizerConfig struct {
	WeightSumTolerance   float64
	ZeroTolerance        float64
	SingularityThreshold float64
	Regularization       string // none, ridge or ledoit_wolf
	RidgeLambda          float64
	FrontierPoints       int // Default number of points in a frontier sweep
	FrontierWorkers      int // Maximum concurrent frontier evaluations
	SimulationSamples    int // Default number of Monte Carlo portfolios
}

// ToOptions converts the tolerances to optimization.Options
func (c *OptimizerConfig) ToOptions() optimization.Options {
	return optimization.Options{
		WeightSumTolerance:   c.WeightSumTolerance,
		ZeroTolerance:        c.ZeroTolerance,
		SingularityThreshold: c.SingularityThreshold,
	}
}

// Regularizer returns the configured covariance regularizer
func (c *OptimizerConfig) Regularizer() (optimization.Regularizer, error) {
	return optimization.ParseRegularizer(c.Regularization, c.RidgeLambda)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("FRONTIER_PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PeriodsPerYear: getEnvAsInt("PERIODS_PER_YEAR", 252),
		Optimizer:      loadOptimizerConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OptimizerOptions returns the engine tolerances
func (c *Config) OptimizerOptions() optimization.Options {
	return c.Optimizer.ToOptions()
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid FRONTIER_PORT %d", c.Port)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("PERIODS_PER_YEAR must be positive, got %d", c.PeriodsPerYear)
	}
	if c.Optimizer == nil {
		return fmt.Errorf("optimizer configuration missing")
	}

	o := c.Optimizer
	if !(o.WeightSumTolerance > 0) {
		return fmt.Errorf("WEIGHT_SUM_TOLERANCE must be positive, got %v", o.WeightSumTolerance)
	}
	if !(o.ZeroTolerance > 0) {
		return fmt.Errorf("ZERO_TOLERANCE must be positive, got %v", o.ZeroTolerance)
	}
	if !(o.SingularityThreshold > 0) {
		return fmt.Errorf("SINGULARITY_THRESHOLD must be positive, got %v", o.SingularityThreshold)
	}
	if o.FrontierPoints < 2 {
		return fmt.Errorf("FRONTIER_POINTS must be at least 2, got %d", o.FrontierPoints)
	}
	if o.FrontierWorkers < 1 {
		return fmt.Errorf("FRONTIER_WORKERS must be at least 1, got %d", o.FrontierWorkers)
	}
	if o.SimulationSamples < 1 || o.SimulationSamples > optimization.MaxSimulationSamples {
		return fmt.Errorf("SIMULATION_SAMPLES must be in [1, %d], got %d", optimization.MaxSimulationSamples, o.SimulationSamples)
	}
	if _, err := o.Regularizer(); err != nil {
		return fmt.Errorf("invalid COVARIANCE_REGULARIZATION: %w", err)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadOptimizerConfig loads engine settings with the library defaults
func loadOptimizerConfig() *OptimizerConfig {
	return &OptimizerConfig{
		WeightSumTolerance:   getEnvAsFloat("WEIGHT_SUM_TOLERANCE", optimization.DefaultWeightSumTolerance),
		ZeroTolerance:        getEnvAsFloat("ZERO_TOLERANCE", optimization.DefaultZeroTolerance),
		SingularityThreshold: getEnvAsFloat("SINGULARITY_THRESHOLD", optimization.DefaultSingularityThreshold),
		Regularization:       getEnv("COVARIANCE_REGULARIZATION", optimization.RegularizationNone),
		RidgeLambda:          getEnvAsFloat("RIDGE_LAMBDA", 1e-4),
		FrontierPoints:       getEnvAsInt("FRONTIER_POINTS", 50),
		FrontierWorkers:      getEnvAsInt("FRONTIER_WORKERS", runtime.NumCPU()),
		SimulationSamples:    getEnvAsInt("SIMULATION_SAMPLES", 10000),
	}
}
