package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MVOptimizer computes closed-form Markowitz mean-variance portfolios.
//
// Mathematical formulation (no bounds, short sales allowed):
//   - tangency:       w = Σ⁻¹(R − Rf·1) / 1ᵗΣ⁻¹(R − Rf·1)
//   - min variance:   w = Σ⁻¹1 / 1ᵗΣ⁻¹1
//   - target return:  w = Σ⁻¹(λ·1 + γ·R), λ = (C − Bμ)/D, γ = (Aμ − B)/D
//     with A = 1ᵗΣ⁻¹1, B = 1ᵗΣ⁻¹R, C = RᵗΣ⁻¹R, D = AC − B²
type MVOptimizer struct {
	inverter *CovarianceInverter
	opts     Options
}

// NewMVOptimizer creates a new mean-variance optimizer. A nil inverter is
// replaced by one built from opts.
func NewMVOptimizer(inverter *CovarianceInverter, opts Options) *MVOptimizer {
	opts = opts.withDefaults()
	if inverter == nil {
		inverter = NewCovarianceInverter(opts)
	}
	return &MVOptimizer{inverter: inverter, opts: opts}
}

// OptimalWeights returns the tangency portfolio of model.
func (mvo *MVOptimizer) OptimalWeights(model *StatisticsModel) (WeightVector, error) {
	f, err := mvo.Prepare(model)
	if err != nil {
		return WeightVector{}, err
	}
	return f.TangencyWeights()
}

// MinVarianceWeights returns the global minimum-variance portfolio of model.
func (mvo *MVOptimizer) MinVarianceWeights(model *StatisticsModel) (WeightVector, error) {
	f, err := mvo.Prepare(model)
	if err != nil {
		return WeightVector{}, err
	}
	return f.MinVarianceWeights()
}

// EfficientReturnWeights returns the minimum-variance portfolio whose
// expected return equals target.
func (mvo *MVOptimizer) EfficientReturnWeights(model *StatisticsModel, target float64) (WeightVector, error) {
	f, err := mvo.Prepare(model)
	if err != nil {
		return WeightVector{}, err
	}
	return f.WeightsForReturn(target)
}

// Prepare inverts Σ once and precomputes the frontier coefficients so
// several portfolios can be derived from a single inversion.
func (mvo *MVOptimizer) Prepare(model *StatisticsModel) (*EfficientFrontier, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	inv, err := mvo.inverter.Invert(model.cov)
	if err != nil {
		return nil, fmt.Errorf("failed to invert covariance: %w", err)
	}

	n := model.N()
	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}
	sinvOnes := mat.NewVecDense(n, nil)
	sinvOnes.MulVec(inv.Inverse, ones)
	sinvR := mat.NewVecDense(n, nil)
	sinvR.MulVec(inv.Inverse, model.returns)

	a := mat.Dot(ones, sinvOnes)
	b := mat.Dot(ones, sinvR)
	c := mat.Dot(model.returns, sinvR)

	return &EfficientFrontier{
		model:     model,
		inversion: inv,
		ones:      ones,
		sinvOnes:  sinvOnes,
		sinvR:     sinvR,
		a:         a,
		b:         b,
		c:         c,
		d:         a*c - b*b,
		opts:      mvo.opts,
	}, nil
}

// EfficientFrontier holds Σ⁻¹ and the frontier coefficients of one model.
// It is read-only and safe for concurrent use.
type EfficientFrontier struct {
	model     *StatisticsModel
	inversion *Inversion
	ones      *mat.VecDense
	sinvOnes  *mat.VecDense
	sinvR     *mat.VecDense
	a, b, c   float64
	d         float64
	opts      Options
}

// Model returns the model the frontier was prepared from.
func (f *EfficientFrontier) Model() *StatisticsModel { return f.model }

// InversionMethod returns the decomposition used to invert Σ.
func (f *EfficientFrontier) InversionMethod() InversionMethod { return f.inversion.Method }

// TangencyWeights computes W = Σ⁻¹E / 1ᵗΣ⁻¹E with E = R − Rf·1.
func (f *EfficientFrontier) TangencyWeights() (WeightVector, error) {
	n := f.model.N()
	excess := mat.NewVecDense(n, f.model.ExcessReturns())
	u := mat.NewVecDense(n, nil)
	u.MulVec(f.inversion.Inverse, excess)

	s := mat.Dot(f.ones, u)
	if math.Abs(s) <= f.opts.ZeroTolerance {
		return WeightVector{}, fmt.Errorf("%w: tangency normaliser 1ᵗΣ⁻¹(R−Rf·1) = %.3e is zero (no net exposure)", ErrDegenerateFrontier, s)
	}
	u.ScaleVec(1/s, u)
	return f.weights(u)
}

// MinVarianceWeights computes W = Σ⁻¹1 / 1ᵗΣ⁻¹1.
func (f *EfficientFrontier) MinVarianceWeights() (WeightVector, error) {
	if math.Abs(f.a) <= f.opts.ZeroTolerance {
		return WeightVector{}, fmt.Errorf("%w: minimum-variance normaliser 1ᵗΣ⁻¹1 = %.3e is zero", ErrDegenerateFrontier, f.a)
	}
	u := mat.NewVecDense(f.model.N(), nil)
	u.ScaleVec(1/f.a, f.sinvOnes)
	return f.weights(u)
}

// MinVarianceReturn is the expected return of the minimum-variance portfolio (B/A).
func (f *EfficientFrontier) MinVarianceReturn() float64 {
	return f.b / f.a
}

// WeightsForReturn computes the minimum-variance portfolio with expected
// return target. When all assets share one expected return (D = 0) the
// frontier collapses to the minimum-variance point, which is the only
// reachable target.
func (f *EfficientFrontier) WeightsForReturn(target float64) (WeightVector, error) {
	if !isFinite(target) {
		return WeightVector{}, fmt.Errorf("%w: target return %v is not finite", ErrInvalidInput, target)
	}
	if math.Abs(f.a) <= f.opts.ZeroTolerance {
		return WeightVector{}, fmt.Errorf("%w: 1ᵗΣ⁻¹1 = %.3e is zero", ErrDegenerateFrontier, f.a)
	}

	if math.Abs(f.d) <= f.opts.ZeroTolerance*math.Max(1, math.Abs(f.a*f.c)) {
		mvRet := f.MinVarianceReturn()
		if math.Abs(target-mvRet) <= f.opts.WeightSumTolerance*math.Max(1, math.Abs(mvRet)) {
			return f.MinVarianceWeights()
		}
		return WeightVector{}, fmt.Errorf("%w: frontier collapses to return %.6f, target %.6f unreachable", ErrDegenerateFrontier, mvRet, target)
	}

	lambda := (f.c - f.b*target) / f.d
	gamma := (f.a*target - f.b) / f.d

	w := mat.NewVecDense(f.model.N(), nil)
	w.AddScaledVec(w, lambda, f.sinvOnes)
	w.AddScaledVec(w, gamma, f.sinvR)
	return f.weights(w)
}

func (f *EfficientFrontier) weights(v *mat.VecDense) (WeightVector, error) {
	return NewNamedWeightVector(f.model.AssetIDs(), v.RawVector().Data)
}
