package optimization

import "errors"

// Error kinds returned by the engine. Every failure wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrInvalidModel reports malformed input statistics.
	ErrInvalidModel = errors.New("invalid statistics model")
	// ErrSingularMatrix reports a covariance matrix that cannot be inverted.
	ErrSingularMatrix = errors.New("singular covariance matrix")
	// ErrDegenerateFrontier reports a weight normalisation that is undefined.
	ErrDegenerateFrontier = errors.New("degenerate efficient frontier")
	// ErrDimensionMismatch reports a weight vector that does not match the asset count.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNegativeVariance reports a portfolio variance below the negative tolerance.
	ErrNegativeVariance = errors.New("negative portfolio variance")
	// ErrInvalidInput reports a non-finite or missing scalar input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUndefinedRatio reports a Sharpe ratio with a zero-risk denominator.
	ErrUndefinedRatio = errors.New("undefined ratio")
)

var domainErrors = []error{
	ErrInvalidModel,
	ErrSingularMatrix,
	ErrDegenerateFrontier,
	ErrDimensionMismatch,
	ErrNegativeVariance,
	ErrInvalidInput,
	ErrUndefinedRatio,
}

// IsDomainError reports whether err belongs to the engine's error taxonomy.
func IsDomainError(err error) bool {
	for _, kind := range domainErrors {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// ErrorKind returns the taxonomy kind wrapped by err, or nil.
func ErrorKind(err error) error {
	for _, kind := range domainErrors {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
