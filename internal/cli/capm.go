package cli

import (
	"context"
	"flag"
	"fmt"
	"math"

	"github.com/google/subcommands"
)

type capmCmd struct {
	app    *App
	rf     float64
	beta   float64
	market float64
}

func (*capmCmd) Name() string     { return "capm" }
func (*capmCmd) Synopsis() string { return "price an asset with the Capital Asset Pricing Model" }
func (*capmCmd) Usage() string {
	return `capm -rf <rate> -beta <beta> -market <return>

  Prints E(Ri) = Rf + β(E(Rm) − Rf). Rates are decimals (0.03 for 3%).
`
}

func (c *capmCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.rf, "rf", math.NaN(), "Risk-free rate (required)")
	f.Float64Var(&c.beta, "beta", math.NaN(), "Asset beta (required)")
	f.Float64Var(&c.market, "market", math.NaN(), "Expected market return (required)")
}

func (c *capmCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if math.IsNaN(c.rf) || math.IsNaN(c.beta) || math.IsNaN(c.market) {
		c.app.failf("-rf, -beta and -market are required")
		return subcommands.ExitUsageError
	}

	expected, err := c.app.container.OptimizerService.ExpectedReturn(c.rf, c.beta, c.market)
	if err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(c.app.out, "Expected return: %s (%s)\n", percent(expected), fixed(expected, 6))
	return subcommands.ExitSuccess
}
