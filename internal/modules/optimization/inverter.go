package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// InversionMethod names the decomposition used to invert Σ.
type InversionMethod string

const (
	InversionCholesky InversionMethod = "cholesky"
	InversionLU       InversionMethod = "lu"
)

// Inversion is the result of inverting a covariance matrix.
type Inversion struct {
	Inverse *mat.Dense
	Method  InversionMethod
	// Cond is the condition number estimate of Σ reported by the
	// factorization. Its reciprocal is compared against the singularity
	// threshold.
	Cond float64
}

// CovarianceInverter inverts covariance matrices, preferring Cholesky and
// falling back to LU when Σ is only positive semi-definite.
type CovarianceInverter struct {
	threshold float64
}

// NewCovarianceInverter creates an inverter using opts.SingularityThreshold.
func NewCovarianceInverter(opts Options) *CovarianceInverter {
	return &CovarianceInverter{threshold: opts.withDefaults().SingularityThreshold}
}

// Invert computes Σ⁻¹. It fails with ErrSingularMatrix when the reciprocal
// condition number of Σ is below the threshold. The test depends on
// conditioning only, so it is invariant to the scale of Σ and does not drift
// with the number of assets.
func (ci *CovarianceInverter) Invert(cov mat.Symmetric) (*Inversion, error) {
	n, _ := cov.Dims()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance matrix", ErrInvalidModel)
	}

	allZero := true
	for i := 0; i < n && allZero; i++ {
		allZero = cov.At(i, i) == 0
	}
	if allZero {
		return nil, fmt.Errorf("%w: all variances are zero", ErrSingularMatrix)
	}

	var chol mat.Cholesky
	if chol.Factorize(cov) {
		cond := chol.Cond()
		if err := ci.checkCond(cond); err != nil {
			return nil, err
		}
		var inv mat.SymDense
		if err := chol.InverseTo(&inv); err != nil {
			return nil, fmt.Errorf("%w: cholesky inverse: %v", ErrSingularMatrix, err)
		}
		return &Inversion{
			Inverse: mat.DenseCopyOf(&inv),
			Method:  InversionCholesky,
			Cond:    cond,
		}, nil
	}

	// Not strictly positive definite: fall back to LU.
	var lu mat.LU
	lu.Factorize(cov)
	logDet, sign := lu.LogDet()
	if sign == 0 || math.IsInf(logDet, -1) || math.IsNaN(logDet) {
		return nil, fmt.Errorf("%w: determinant is zero", ErrSingularMatrix)
	}
	cond := lu.Cond()
	if err := ci.checkCond(cond); err != nil {
		return nil, err
	}
	var inv mat.Dense
	if err := inv.Inverse(cov); err != nil {
		return nil, fmt.Errorf("%w: lu inverse: %v", ErrSingularMatrix, err)
	}
	return &Inversion{
		Inverse: &inv,
		Method:  InversionLU,
		Cond:    cond,
	}, nil
}

func (ci *CovarianceInverter) checkCond(cond float64) error {
	if math.IsNaN(cond) || math.IsInf(cond, 1) || 1/cond < ci.threshold {
		return fmt.Errorf("%w: condition number %.3e exceeds 1/threshold %.3e",
			ErrSingularMatrix, cond, 1/ci.threshold)
	}
	return nil
}
