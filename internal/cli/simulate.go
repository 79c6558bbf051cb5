package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/optimization/handlers"
	"github.com/google/subcommands"
)

type simulateCmd struct {
	app     *App
	input   string
	samples int
	seed    uint64
	asJSON  bool
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "scatter random long-only portfolios (Monte Carlo)" }
func (*simulateCmd) Usage() string {
	return `simulate -input <model.json> [-samples <n>] [-seed <s>] [-json]

  Draws random fully-invested long-only portfolios for a statistics model
  (the body accepted by POST /api/optimizer/analyze) and prints the best
  Sharpe and lowest volatility draws.
  - seed: 0 draws a seed from the clock; the seed used is always printed.
  - json: print every sample as JSON.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "-", "Model file (JSON), - for standard input")
	f.IntVar(&c.samples, "samples", 10000, "Number of random portfolios")
	f.Uint64Var(&c.seed, "seed", 0, "Random seed, 0 for a clock-based seed")
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table")
}

func (c *simulateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var req handlers.ModelInput
	if err := readJSON(c.input, &req); err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitUsageError
	}

	model, err := req.ToModel()
	if err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}

	seed := c.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sim, err := c.app.container.OptimizerService.Simulate(ctx, model, c.samples, seed)
	if err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		if err := c.app.writeJSON(handlers.NewSimulationOutput(sim, true)); err != nil {
			c.app.failf("%v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	c.printReport(sim)
	return subcommands.ExitSuccess
}

func (c *simulateCmd) printReport(sim *optimization.Simulation) {
	best := sim.Samples[sim.MaxSharpe]
	lowest := sim.Samples[sim.MinVolatility]

	fmt.Fprintf(c.app.out, "%d portfolios simulated (seed %d)\n\n", len(sim.Samples), sim.Seed)

	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Asset\tMax Sharpe\tMin volatility\t")
	for i, id := range best.Metrics.Weights.AssetIDs() {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", id,
			percent(best.Metrics.Weights.At(i)), percent(lowest.Metrics.Weights.At(i)))
	}
	fmt.Fprintf(w, "Expected return\t%s\t%s\t\n",
		percent(best.Metrics.ExpectedReturn), percent(lowest.Metrics.ExpectedReturn))
	fmt.Fprintf(w, "Volatility\t%s\t%s\t\n",
		percent(best.Metrics.StdDev), percent(lowest.Metrics.StdDev))
	fmt.Fprintf(w, "Sharpe ratio\t%s\t%s\t\n", fixed(best.SharpeRatio, 4), fixed(lowest.SharpeRatio, 4))
	w.Flush()
}
