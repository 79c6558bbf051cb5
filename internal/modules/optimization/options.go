package optimization

// Default numerical tolerances.
const (
	DefaultWeightSumTolerance   = 1e-9
	DefaultZeroTolerance        = 1e-12
	DefaultSingularityThreshold = 1e-12
)

// Options holds the numerical tolerances shared by the engine components.
// Zero fields fall back to the defaults above.
type Options struct {
	// WeightSumTolerance bounds |Σw − 1| for a fully invested portfolio.
	WeightSumTolerance float64
	// ZeroTolerance is the ε used for normalisation scalars, variances and
	// the Sharpe denominator.
	ZeroTolerance float64
	// SingularityThreshold is the minimum reciprocal condition number of Σ
	// accepted by the inverter.
	SingularityThreshold float64
}

// DefaultOptions returns the default tolerances.
func DefaultOptions() Options {
	return Options{
		WeightSumTolerance:   DefaultWeightSumTolerance,
		ZeroTolerance:        DefaultZeroTolerance,
		SingularityThreshold: DefaultSingularityThreshold,
	}
}

func (o Options) withDefaults() Options {
	if o.WeightSumTolerance <= 0 {
		o.WeightSumTolerance = DefaultWeightSumTolerance
	}
	if o.ZeroTolerance <= 0 {
		o.ZeroTolerance = DefaultZeroTolerance
	}
	if o.SingularityThreshold <= 0 {
		o.SingularityThreshold = DefaultSingularityThreshold
	}
	return o
}
