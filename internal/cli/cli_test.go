package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/internal/modules/optimization/handlers"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		Port:           8001,
		PeriodsPerYear: 252,
		Optimizer: &config.OptimizerConfig{
			WeightSumTolerance:   1e-9,
			ZeroTolerance:        1e-12,
			SingularityThreshold: 1e-12,
			Regularization:       "none",
			FrontierPoints:       10,
			FrontierWorkers:      2,
			SimulationSamples:    500,
		},
	}
	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	return NewApp(container, &out, &errOut), &out, &errOut
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const modelJSON = `{
	"assets": [
		{"id": "BOND", "expected_return": 0.10, "beta": 0.8},
		{"id": "EQUITY", "expected_return": 0.15, "beta": 1.3}
	],
	"covariance": [[0.04, 0.01], [0.01, 0.09]],
	"risk_free_rate": 0.02,
	"market_return": 0.09
}`

func TestOptimizeCmd_Table(t *testing.T) {
	app, out, errOut := newTestApp(t)
	input := writeFile(t, "model.json", modelJSON)

	status := run(t, &optimizeCmd{app: app}, "-input", input, "-points", "3")
	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())

	report := out.String()
	assert.Contains(t, report, "regularization: none")
	assert.Contains(t, report, "BOND")
	// Tangency BOND weight 0.0059/0.0103 = 57.28%, min-variance 8/11 = 72.73%.
	assert.Contains(t, report, "57.28%")
	assert.Contains(t, report, "72.73%")
	assert.Contains(t, report, "Efficient frontier")
	assert.Contains(t, report, "CAPM")
}

func TestOptimizeCmd_JSON(t *testing.T) {
	app, out, errOut := newTestApp(t)
	input := writeFile(t, "model.json", modelJSON)

	status := run(t, &optimizeCmd{app: app}, "-input", input, "-json")
	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())

	var result handlers.AnalysisOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.InDelta(t, 8.0/11.0, result.MinVariance.Weights[0].Weight, 1e-9)
	assert.Empty(t, result.Frontier)
	assert.Len(t, result.CAPM, 2)
}

func TestOptimizeCmd_Errors(t *testing.T) {
	app, _, errOut := newTestApp(t)

	status := run(t, &optimizeCmd{app: app}, "-input", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, subcommands.ExitUsageError, status)

	singular := writeFile(t, "singular.json", `{
		"assets": [{"id": "A", "expected_return": 0.1}, {"id": "B", "expected_return": 0.15}],
		"covariance": [[0.04, 0.06], [0.06, 0.09]]
	}`)
	status = run(t, &optimizeCmd{app: app}, "-input", singular)
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut.String(), "singular covariance matrix")
}

func TestSimulateCmd(t *testing.T) {
	app, out, errOut := newTestApp(t)
	input := writeFile(t, "model.json", modelJSON)

	status := run(t, &simulateCmd{app: app}, "-input", input, "-samples", "400", "-seed", "9")
	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
	report := out.String()
	assert.Contains(t, report, "400 portfolios simulated (seed 9)")
	assert.Contains(t, report, "Max Sharpe")
	assert.Contains(t, report, "EQUITY")

	out.Reset()
	status = run(t, &simulateCmd{app: app}, "-input", input, "-samples", "50", "-seed", "9", "-json")
	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
	var sim handlers.SimulationOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &sim))
	assert.Equal(t, uint64(9), sim.Seed)
	assert.Len(t, sim.Samples, 50)

	status = run(t, &simulateCmd{app: app}, "-input", input, "-samples", "0")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, errOut.String(), "invalid input")
}

func TestEstimateCmd(t *testing.T) {
	app, out, errOut := newTestApp(t)
	input := writeFile(t, "prices.json", `{
		"assets": [
			{"id": "A", "prices": [100, 102, 101, 104, 103]},
			{"id": "B", "prices": [50, 50.5, 51, 50.2, 51.5]}
		],
		"risk_free_rate": 0.01
	}`)

	status := run(t, &estimateCmd{app: app}, "-input", input, "-periods", "12")
	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())

	var estimate handlers.EstimateOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &estimate))
	assert.Equal(t, 12, estimate.PeriodsPerYear)
	assert.Equal(t, 4, estimate.Observations)
	assert.InDelta(t, 0.01, estimate.Model.RiskFreeRate, 1e-15)
	assert.Len(t, estimate.Model.Covariance, 2)
}

func TestCapmCmd(t *testing.T) {
	app, out, errOut := newTestApp(t)

	status := run(t, &capmCmd{app: app}, "-rf", "0.03", "-beta", "1.2", "-market", "0.09")
	require.Equal(t, subcommands.ExitSuccess, status, errOut.String())
	assert.Equal(t, "Expected return: 10.20% (0.102000)\n", out.String())

	status = run(t, &capmCmd{app: app}, "-rf", "0.03")
	assert.Equal(t, subcommands.ExitUsageError, status)
	assert.Contains(t, errOut.String(), "required")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "57.28%", percent(0.572815533980582))
	assert.Equal(t, "-5.00%", percent(-0.05))
	assert.Equal(t, "0.1020", fixed(0.102, 4))
}

func TestRegister(t *testing.T) {
	app, _, _ := newTestApp(t)
	commander := subcommands.NewCommander(flag.NewFlagSet("frontier", flag.ContinueOnError), "frontier")
	Register(commander, app)

	var names []string
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		names = append(names, c.Name())
	})
	assert.ElementsMatch(t, []string{"optimize", "simulate", "estimate", "capm"}, names)
}
