package optimization

import "fmt"

// CAPMResult prices one asset against the market.
type CAPMResult struct {
	AssetID string
	Beta    float64
	// RequiredReturn is Rf + β(E(Rm) − Rf).
	RequiredReturn float64
	// ExpectedReturn is the model's own estimate for the asset.
	ExpectedReturn float64
	// Alpha is ExpectedReturn − RequiredReturn (Jensen's alpha).
	Alpha float64
}

// CAPMEvaluator applies the Capital Asset Pricing Model.
type CAPMEvaluator struct{}

// NewCAPMEvaluator creates a new CAPM evaluator.
func NewCAPMEvaluator() *CAPMEvaluator {
	return &CAPMEvaluator{}
}

// ExpectedReturn returns E(Ri) = Rf + β(E(Rm) − Rf).
func (ce *CAPMEvaluator) ExpectedReturn(riskFree, beta, marketReturn float64) (float64, error) {
	switch {
	case !isFinite(riskFree):
		return 0, fmt.Errorf("%w: risk-free rate %v is not finite", ErrInvalidInput, riskFree)
	case !isFinite(beta):
		return 0, fmt.Errorf("%w: beta %v is not finite", ErrInvalidInput, beta)
	case !isFinite(marketReturn):
		return 0, fmt.Errorf("%w: market return %v is not finite", ErrInvalidInput, marketReturn)
	}
	return riskFree + beta*(marketReturn-riskFree), nil
}

// EvaluateAssets prices every asset of model using its beta and the
// model's risk-free rate. Every asset must carry a beta.
func (ce *CAPMEvaluator) EvaluateAssets(model *StatisticsModel, marketReturn float64) ([]CAPMResult, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	results := make([]CAPMResult, 0, model.N())
	for _, asset := range model.assets {
		if asset.Beta == nil {
			return nil, fmt.Errorf("%w: asset %s has no beta", ErrInvalidInput, asset.ID)
		}
		required, err := ce.ExpectedReturn(model.riskFree, *asset.Beta, marketReturn)
		if err != nil {
			return nil, fmt.Errorf("failed to price %s: %w", asset.ID, err)
		}
		results = append(results, CAPMResult{
			AssetID:        asset.ID,
			Beta:           *asset.Beta,
			RequiredReturn: required,
			ExpectedReturn: asset.ExpectedReturn,
			Alpha:          asset.ExpectedReturn - required,
		})
	}
	return results, nil
}
