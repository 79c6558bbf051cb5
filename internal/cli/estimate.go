package cli

import (
	"context"
	"flag"

	"github.com/aristath/frontier/internal/modules/optimization/handlers"
	"github.com/google/subcommands"
)

type estimateCmd struct {
	app     *App
	input   string
	periods int
}

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "estimate a statistics model from price histories" }
func (*estimateCmd) Usage() string {
	return `estimate -input <prices.json> [-periods <n>]

  Reads price histories (the body accepted by POST /api/optimizer/estimate:
  assets with id and prices, optional market prices and risk_free_rate) and
  prints the estimated model as JSON. The "model" field can be fed to
  optimize directly.
  - periods: observations per year used for annualisation (default from
    PERIODS_PER_YEAR).
`
}

func (c *estimateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "-", "Price file (JSON), - for standard input")
	f.IntVar(&c.periods, "periods", 0, "Observations per year")
}

func (c *estimateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var req handlers.EstimateRequest
	if err := readJSON(c.input, &req); err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitUsageError
	}
	if c.periods > 0 {
		req.PeriodsPerYear = c.periods
	}

	estimate, err := c.app.container.Estimator.Estimate(req.ToRequest())
	if err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}

	if err := c.app.writeJSON(handlers.NewEstimateOutput(estimate)); err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
