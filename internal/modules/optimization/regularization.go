package optimization

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Regularizer names accepted by ParseRegularizer.
const (
	RegularizationNone       = "none"
	RegularizationRidge      = "ridge"
	RegularizationLedoitWolf = "ledoit_wolf"
)

// DefaultShrinkage is the Ledoit-Wolf intensity used when it cannot be
// estimated from the matrix structure.
const DefaultShrinkage = 0.2

// Regularizer conditions a covariance matrix before inversion. It is an
// explicit pre-processing step: the inverter never regularizes on its own.
type Regularizer interface {
	Name() string
	Regularize(cov mat.Symmetric) (*mat.SymDense, error)
}

// ParseRegularizer returns the regularizer registered under name.
func ParseRegularizer(name string, ridgeLambda float64) (Regularizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RegularizationNone:
		return NoRegularization{}, nil
	case RegularizationRidge:
		if !(ridgeLambda > 0) || math.IsInf(ridgeLambda, 0) {
			return nil, fmt.Errorf("%w: ridge lambda must be positive, got %v", ErrInvalidInput, ridgeLambda)
		}
		return RidgeRegularizer{Lambda: ridgeLambda}, nil
	case RegularizationLedoitWolf:
		return LedoitWolfShrinkage{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown regularization %q", ErrInvalidInput, name)
	}
}

// RegularizeModel applies reg to the model's covariance and returns a new
// model. The original model is left untouched.
func RegularizeModel(model *StatisticsModel, reg Regularizer) (*StatisticsModel, error) {
	if reg == nil {
		return model, nil
	}
	if _, ok := reg.(NoRegularization); ok {
		return model, nil
	}
	cov, err := reg.Regularize(model.cov)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s regularization: %w", reg.Name(), err)
	}
	return model.WithCovariance(cov)
}

// NoRegularization leaves Σ unchanged.
type NoRegularization struct{}

func (NoRegularization) Name() string { return RegularizationNone }

func (NoRegularization) Regularize(cov mat.Symmetric) (*mat.SymDense, error) {
	n, _ := cov.Dims()
	out := mat.NewSymDense(n, nil)
	out.CopySym(cov)
	return out, nil
}

// RidgeRegularizer adds λ·mean(diag Σ) to every variance. Scaling by the
// average variance keeps λ unit-free.
type RidgeRegularizer struct {
	Lambda float64
}

func (r RidgeRegularizer) Name() string { return RegularizationRidge }

func (r RidgeRegularizer) Regularize(cov mat.Symmetric) (*mat.SymDense, error) {
	n, _ := cov.Dims()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance matrix", ErrInvalidModel)
	}
	avgVar := 0.0
	for i := 0; i < n; i++ {
		avgVar += cov.At(i, i)
	}
	avgVar /= float64(n)
	if avgVar == 0 {
		// All-zero variances: fall back to an absolute ridge.
		avgVar = 1
	}

	out := mat.NewSymDense(n, nil)
	out.CopySym(cov)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, out.At(i, i)+r.Lambda*avgVar)
	}
	return out, nil
}

// LedoitWolfShrinkage shrinks Σ towards a structured target with the
// average variance on the diagonal and the average covariance elsewhere:
//
//	Σ_shrunk = (1−δ)·Σ + δ·T
//
// Intensity fixes δ; zero means estimate it from the matrix.
//
// Reference: Ledoit, O., & Wolf, M. (2004). "A well-conditioned estimator
// for large-dimensional covariance matrices"
type LedoitWolfShrinkage struct {
	Intensity float64
}

func (lw LedoitWolfShrinkage) Name() string { return RegularizationLedoitWolf }

func (lw LedoitWolfShrinkage) Regularize(cov mat.Symmetric) (*mat.SymDense, error) {
	n, _ := cov.Dims()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance matrix", ErrInvalidModel)
	}
	if n == 1 {
		out := mat.NewSymDense(1, nil)
		out.CopySym(cov)
		return out, nil
	}

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += cov.At(i, i)
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += cov.At(i, j)
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			switch {
			case i == j:
				target.SetSym(i, j, avgVar)
			case avgVar > 0:
				target.SetSym(i, j, avgCov)
			}
		}
	}

	delta := lw.Intensity
	if delta <= 0 || delta > 1 {
		delta = estimateShrinkage(cov, target, avgVar)
	}

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (1-delta)*cov.At(i, j)+delta*target.At(i, j))
		}
	}
	return out, nil
}

// estimateShrinkage derives δ from the dispersion of Σ's entries relative
// to their distance from the target, capped at 0.5.
func estimateShrinkage(cov, target mat.Symmetric, avgVar float64) float64 {
	n, _ := cov.Dims()
	if n <= 2 || avgVar <= 0 {
		return DefaultShrinkage
	}

	var sumSqDiff, sum, sumSq float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := cov.At(i, j)
			diff := v - target.At(i, j)
			sumSqDiff += diff * diff
			sum += v
			sumSq += v * v
		}
	}
	count := float64(n * n)
	meanSqDiff := sumSqDiff / count
	mean := sum / count
	dispersion := sumSq/count - mean*mean

	if dispersion <= 0 || meanSqDiff <= 0 {
		return DefaultShrinkage
	}
	return math.Min(0.5, math.Max(0, dispersion/(dispersion+meanSqDiff)))
}
