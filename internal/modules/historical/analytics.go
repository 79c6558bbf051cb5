package historical

import (
	"fmt"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/pkg/formulas"
)

// ReturnSeries holds the simple periodic returns of one asset.
type ReturnSeries struct {
	ID      string
	Returns []float64
}

// CorrelationMatrix is the pairwise return correlation of a set of assets,
// indexed in the order of IDs.
type CorrelationMatrix struct {
	IDs    []string
	Values [][]float64
}

// Returns converts each price series to simple periodic returns. Series may
// differ in length but each needs at least two prices.
func (e *Estimator) Returns(series []PriceSeries) ([]ReturnSeries, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no price series", optimization.ErrInvalidInput)
	}
	out := make([]ReturnSeries, len(series))
	for i, s := range series {
		if err := validatePrices(s.ID, s.Prices, len(s.Prices), 2); err != nil {
			return nil, err
		}
		out[i] = ReturnSeries{ID: seriesID(s.ID, i), Returns: formulas.CalculateReturns(s.Prices)}
	}
	return out, nil
}

// Correlations computes the return correlation matrix of aligned price
// series. A flat series has no defined correlation and is rejected.
func (e *Estimator) Correlations(series []PriceSeries) (*CorrelationMatrix, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no price series", optimization.ErrInvalidInput)
	}
	length := len(series[0].Prices)
	returns := make([][]float64, len(series))
	ids := make([]string, len(series))
	for i, s := range series {
		if err := validatePrices(s.ID, s.Prices, length, minPrices); err != nil {
			return nil, err
		}
		returns[i] = formulas.CalculateReturns(s.Prices)
		if formulas.Variance(returns[i]) == 0 {
			return nil, fmt.Errorf("%w: series %q has no variance", optimization.ErrInvalidInput, s.ID)
		}
		ids[i] = seriesID(s.ID, i)
	}

	n := len(series)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := formulas.Correlation(returns[i], returns[j])
			values[i][j] = c
			values[j][i] = c
		}
	}

	e.log.Debug().Int("assets", n).Int("observations", length-1).Msg("Computed correlation matrix")
	return &CorrelationMatrix{IDs: ids, Values: values}, nil
}
