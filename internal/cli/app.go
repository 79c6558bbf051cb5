// Package cli implements the frontier command-line subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aristath/frontier/internal/di"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// App carries what every subcommand needs.
type App struct {
	container *di.Container
	out       io.Writer
	errOut    io.Writer
}

// NewApp creates an App writing reports to out and diagnostics to errOut.
func NewApp(container *di.Container, out, errOut io.Writer) *App {
	return &App{container: container, out: out, errOut: errOut}
}

// Register registers the subcommands.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&optimizeCmd{app: app}, "optimization")
	c.Register(&simulateCmd{app: app}, "optimization")
	c.Register(&estimateCmd{app: app}, "optimization")
	c.Register(&capmCmd{app: app}, "pricing")
}

func (a *App) failf(format string, args ...interface{}) {
	fmt.Fprintf(a.errOut, "Error: "+format+"\n", args...)
}

// readJSON decodes path into dst. "-" reads standard input.
func readJSON(path string, dst interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (a *App) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var hundred = decimal.NewFromInt(100)

// percent renders a fraction as a fixed two-decimal percentage.
func percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(2) + "%"
}

// fixed renders v with places decimals.
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
