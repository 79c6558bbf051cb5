package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/optimization/handlers"
	"github.com/google/subcommands"
)

type optimizeCmd struct {
	app    *App
	input  string
	points int
	asJSON bool
}

func (*optimizeCmd) Name() string     { return "optimize" }
func (*optimizeCmd) Synopsis() string { return "compute tangency and minimum-variance portfolios" }
func (*optimizeCmd) Usage() string {
	return `optimize -input <model.json> [-points <n>] [-json]

  Reads a statistics model (the body accepted by POST /api/optimizer/analyze:
  assets, covariance, risk_free_rate and optional market_return) and prints
  the tangency and minimum-variance portfolios. With market_return set, the
  CAPM table is printed as well.
  - points: sweep the efficient frontier with n points, overriding
    frontier_points from the input.
  - json: print the full analysis as JSON.
`
}

func (c *optimizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "-", "Model file (JSON), - for standard input")
	f.IntVar(&c.points, "points", 0, "Frontier points, overrides frontier_points in the input")
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table")
}

func (c *optimizeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var req handlers.AnalyzeRequest
	if err := readJSON(c.input, &req); err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitUsageError
	}

	model, err := req.ToModel()
	if err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}

	points := req.FrontierPoints
	if c.points > 0 {
		points = c.points
	}

	result, err := c.app.container.OptimizerService.Analyze(ctx, model, optimization.AnalysisRequest{
		MarketReturn:   req.MarketReturn,
		FrontierPoints: points,
	})
	if err != nil {
		c.app.failf("%v", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		if err := c.app.writeJSON(handlers.NewAnalysisOutput(result)); err != nil {
			c.app.failf("%v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	c.printReport(result)
	return subcommands.ExitSuccess
}

func (c *optimizeCmd) printReport(result *optimization.AnalysisResult) {
	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(c.app.out, "Analysis %s (regularization: %s, inversion: %s)\n\n",
		result.ID, result.Regularization, result.InversionMethod)

	fmt.Fprintln(w, "Asset\tTangency\tMin variance\t")
	ids := result.Tangency.Metrics.Weights.AssetIDs()
	for i, id := range ids {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", id,
			percent(result.Tangency.Metrics.Weights.At(i)),
			percent(result.MinVariance.Metrics.Weights.At(i)))
	}
	fmt.Fprintf(w, "Expected return\t%s\t%s\t\n",
		percent(result.Tangency.Metrics.ExpectedReturn), percent(result.MinVariance.Metrics.ExpectedReturn))
	fmt.Fprintf(w, "Volatility\t%s\t%s\t\n",
		percent(result.Tangency.Metrics.StdDev), percent(result.MinVariance.Metrics.StdDev))
	fmt.Fprintf(w, "Sharpe ratio\t%s\t%s\t\n",
		fixed(result.Tangency.SharpeRatio, 4), fixed(result.MinVariance.SharpeRatio, 4))
	w.Flush()

	if len(result.Frontier) > 0 {
		fmt.Fprintln(c.app.out, "\nEfficient frontier")
		w = tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Return\tVolatility\tSharpe\t")
		for _, p := range result.Frontier {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", percent(p.TargetReturn), percent(p.Metrics.StdDev), fixed(p.SharpeRatio, 4))
		}
		w.Flush()
	}

	if len(result.CAPM) > 0 {
		fmt.Fprintln(c.app.out, "\nCAPM")
		w = tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Asset\tBeta\tRequired\tExpected\tAlpha\t")
		for _, r := range result.CAPM {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", r.AssetID, fixed(r.Beta, 2),
				percent(r.RequiredReturn), percent(r.ExpectedReturn), percent(r.Alpha))
		}
		w.Flush()
	}
}
