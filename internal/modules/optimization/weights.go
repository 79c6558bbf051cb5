package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// WeightVector is an immutable, ordered set of portfolio weights aligned
// with the assets of a StatisticsModel. Weights may be negative (short
// positions).
type WeightVector struct {
	ids     []string
	weights []float64
}

// NewWeightVector wraps caller-supplied weights. The slice is copied.
func NewWeightVector(weights []float64) WeightVector {
	w := make([]float64, len(weights))
	copy(w, weights)
	return WeightVector{weights: w}
}

// NewNamedWeightVector wraps weights together with their asset IDs.
func NewNamedWeightVector(ids []string, weights []float64) (WeightVector, error) {
	if len(ids) != len(weights) {
		return WeightVector{}, fmt.Errorf("%w: %d asset ids for %d weights", ErrDimensionMismatch, len(ids), len(weights))
	}
	wv := NewWeightVector(weights)
	wv.ids = make([]string, len(ids))
	copy(wv.ids, ids)
	return wv, nil
}

// Len returns the number of weights.
func (w WeightVector) Len() int { return len(w.weights) }

// At returns the i-th weight.
func (w WeightVector) At(i int) float64 { return w.weights[i] }

// Values returns a copy of the weights.
func (w WeightVector) Values() []float64 {
	out := make([]float64, len(w.weights))
	copy(out, w.weights)
	return out
}

// AssetIDs returns the asset IDs, or nil when the vector is unnamed.
func (w WeightVector) AssetIDs() []string {
	if w.ids == nil {
		return nil
	}
	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

// Sum returns Σw.
func (w WeightVector) Sum() float64 { return floats.Sum(w.weights) }

// IsFullyInvested reports whether the weights sum to 1 within tol.
func (w WeightVector) IsFullyInvested(tol float64) bool {
	return math.Abs(w.Sum()-1) <= tol
}

// Map returns the weights keyed by asset ID. Unnamed vectors use the
// positional index as key.
func (w WeightVector) Map() map[string]float64 {
	out := make(map[string]float64, len(w.weights))
	for i, v := range w.weights {
		key := fmt.Sprintf("%d", i)
		if w.ids != nil {
			key = w.ids[i]
		}
		out[key] = v
	}
	return out
}
