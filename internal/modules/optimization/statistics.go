package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetryTolerance is the relative tolerance applied to Σ[i][j] == Σ[j][i].
const symmetryTolerance = 1e-9

// Asset is one investable asset of a StatisticsModel.
type Asset struct {
	ID             string
	ExpectedReturn float64
	// Beta is only needed for CAPM pricing.
	Beta *float64
}

// StatisticsModel is the validated, read-only set of return statistics
// every other component consumes.
type StatisticsModel struct {
	assets   []Asset
	returns  *mat.VecDense
	cov      *mat.SymDense
	riskFree float64
}

// NewStatisticsModel builds a model from an expected-return vector, a
// covariance matrix and the risk-free rate. Assets get positional IDs
// ("asset-0", "asset-1", ...).
func NewStatisticsModel(returns []float64, cov [][]float64, riskFree float64) (*StatisticsModel, error) {
	assets := make([]Asset, len(returns))
	for i, r := range returns {
		assets[i] = Asset{ID: fmt.Sprintf("asset-%d", i), ExpectedReturn: r}
	}
	return NewStatisticsModelFromAssets(assets, cov, riskFree)
}

// NewStatisticsModelFromAssets builds a model from named assets.
// Asset order defines the order of every weight vector derived from it.
func NewStatisticsModelFromAssets(assets []Asset, cov [][]float64, riskFree float64) (*StatisticsModel, error) {
	n := len(assets)
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets provided", ErrInvalidModel)
	}
	if !isFinite(riskFree) {
		return nil, fmt.Errorf("%w: risk-free rate %v is not finite", ErrInvalidModel, riskFree)
	}

	seen := make(map[string]struct{}, n)
	owned := make([]Asset, n)
	returns := make([]float64, n)
	for i, a := range assets {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: asset %d has an empty id", ErrInvalidModel, i)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate asset id %q", ErrInvalidModel, a.ID)
		}
		seen[a.ID] = struct{}{}
		if !isFinite(a.ExpectedReturn) {
			return nil, fmt.Errorf("%w: expected return of %s is not finite", ErrInvalidModel, a.ID)
		}
		if a.Beta != nil && !isFinite(*a.Beta) {
			return nil, fmt.Errorf("%w: beta of %s is not finite", ErrInvalidModel, a.ID)
		}
		owned[i] = a
		if a.Beta != nil {
			beta := *a.Beta
			owned[i].Beta = &beta
		}
		returns[i] = a.ExpectedReturn
	}

	if len(cov) != n {
		return nil, fmt.Errorf("%w: covariance matrix has %d rows, expected %d", ErrInvalidModel, len(cov), n)
	}
	data := make([]float64, 0, n*n)
	for i, row := range cov {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d columns, expected %d", ErrInvalidModel, i, len(row), n)
		}
		data = append(data, row...)
	}
	if err := validateCovariance(mat.NewDense(n, n, data)); err != nil {
		return nil, err
	}

	return &StatisticsModel{
		assets:   owned,
		returns:  mat.NewVecDense(n, returns),
		cov:      mat.NewSymDense(n, data),
		riskFree: riskFree,
	}, nil
}

// validateCovariance checks that m is square, finite, symmetric within
// tolerance and has a non-negative diagonal.
func validateCovariance(m mat.Matrix) error {
	r, c := m.Dims()
	if r != c {
		return fmt.Errorf("%w: covariance matrix is %dx%d, not square", ErrInvalidModel, r, c)
	}
	for i := 0; i < r; i++ {
		if v := m.At(i, i); v < 0 {
			return fmt.Errorf("%w: negative variance %v at position %d", ErrInvalidModel, v, i)
		}
		for j := 0; j < c; j++ {
			a := m.At(i, j)
			if !isFinite(a) {
				return fmt.Errorf("%w: covariance entry (%d,%d) is not finite", ErrInvalidModel, i, j)
			}
			if j <= i {
				continue
			}
			b := m.At(j, i)
			if math.Abs(a-b) > symmetryTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return fmt.Errorf("%w: covariance matrix not symmetric at (%d,%d): %v != %v", ErrInvalidModel, i, j, a, b)
			}
		}
	}
	return nil
}

// WithCovariance returns a copy of the model with cov replacing Σ.
// The new matrix is validated like a freshly constructed one.
func (m *StatisticsModel) WithCovariance(cov mat.Symmetric) (*StatisticsModel, error) {
	n := m.N()
	if r, c := cov.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: replacement covariance is %dx%d, expected %dx%d", ErrInvalidModel, r, c, n, n)
	}
	if err := validateCovariance(cov); err != nil {
		return nil, err
	}
	owned := mat.NewSymDense(n, nil)
	owned.CopySym(cov)
	return &StatisticsModel{
		assets:   m.assets,
		returns:  m.returns,
		cov:      owned,
		riskFree: m.riskFree,
	}, nil
}

// N returns the number of assets.
func (m *StatisticsModel) N() int { return len(m.assets) }

// RiskFreeRate returns Rf.
func (m *StatisticsModel) RiskFreeRate() float64 { return m.riskFree }

// Assets returns a deep copy of the ordered assets, betas included.
func (m *StatisticsModel) Assets() []Asset {
	out := make([]Asset, len(m.assets))
	copy(out, m.assets)
	for i := range out {
		if out[i].Beta != nil {
			beta := *out[i].Beta
			out[i].Beta = &beta
		}
	}
	return out
}

// AssetIDs returns the asset identifiers in model order.
func (m *StatisticsModel) AssetIDs() []string {
	ids := make([]string, len(m.assets))
	for i, a := range m.assets {
		ids[i] = a.ID
	}
	return ids
}

// Returns returns a copy of the expected-return vector R.
func (m *StatisticsModel) Returns() []float64 {
	return mat.Col(nil, 0, m.returns)
}

// ExcessReturns returns R − Rf·1.
func (m *StatisticsModel) ExcessReturns() []float64 {
	excess := m.Returns()
	for i := range excess {
		excess[i] -= m.riskFree
	}
	return excess
}

// Covariance returns a copy of Σ.
func (m *StatisticsModel) Covariance() *mat.SymDense {
	out := mat.NewSymDense(m.N(), nil)
	out.CopySym(m.cov)
	return out
}

// CovarianceRows returns Σ as row slices.
func (m *StatisticsModel) CovarianceRows() [][]float64 {
	n := m.N()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m.cov)
	}
	return rows
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
