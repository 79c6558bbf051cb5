package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const twoAssetModel = `
	"assets": [
		{"id": "BOND", "expected_return": 0.10, "beta": 0.8},
		{"id": "EQUITY", "expected_return": 0.15, "beta": 1.3}
	],
	"covariance": [[0.04, 0.01], [0.01, 0.09]],
	"risk_free_rate": 0.02`

const collinearModel = `
	"assets": [
		{"id": "A", "expected_return": 0.10},
		{"id": "B", "expected_return": 0.15}
	],
	"covariance": [[0.04, 0.06], [0.06, 0.09]],
	"risk_free_rate": 0.02`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	service := optimization.NewOptimizerService(optimization.DefaultOptions(), nil, 2, log)
	handler := NewHandler(service, historical.NewEstimator(252, log), 5, 200, log)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Data     T                      `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Metadata["timestamp"])
	return env.Data
}

func TestRegisterRoutes(t *testing.T) {
	router := newTestRouter(t)

	routes := []string{
		"/api/optimizer/analyze",
		"/api/optimizer/evaluate",
		"/api/optimizer/frontier",
		"/api/optimizer/simulate",
		"/api/optimizer/estimate",
		"/api/capm/expected-return",
	}
	for _, path := range routes {
		t.Run(path, func(t *testing.T) {
			rec := post(t, router, path, "{")
			assert.Equal(t, http.StatusBadRequest, rec.Code, "route should exist and reject malformed JSON")

			req := httptest.NewRequest(http.MethodGet, path, nil)
			get := httptest.NewRecorder()
			router.ServeHTTP(get, req)
			assert.Equal(t, http.StatusMethodNotAllowed, get.Code)
		})
	}
}

func TestHandleAnalyze(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/api/optimizer/analyze", `{`+twoAssetModel+`, "market_return": 0.09, "frontier_points": 4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	out := decodeData[AnalysisOutput](t, rec)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "none", out.Regularization)
	assert.Equal(t, "cholesky", out.InversionMethod)

	require.Len(t, out.Tangency.Weights, 2)
	assert.Equal(t, "BOND", out.Tangency.Weights[0].AssetID)
	assert.InDelta(t, 0.0059/0.0103, out.Tangency.Weights[0].Weight, 1e-9)
	assert.InDelta(t, 8.0/11.0, out.MinVariance.Weights[0].Weight, 1e-9)
	assert.Len(t, out.Frontier, 4)
	require.Len(t, out.CAPM, 2)
	assert.InDelta(t, 0.02+1.3*0.07, out.CAPM[1].RequiredReturn, 1e-12)
}

func TestHandleAnalyze_DomainErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
		kind error
	}{
		{"singular covariance", `{` + collinearModel + `}`, optimization.ErrSingularMatrix},
		{"asymmetric covariance", `{"assets": [{"id": "A"}, {"id": "B"}], "covariance": [[1, 0.5], [0.1, 1]]}`, optimization.ErrInvalidModel},
		{"empty model", `{}`, optimization.ErrInvalidModel},
		{"capm without betas", `{"assets": [{"id": "A", "expected_return": 0.1}, {"id": "B", "expected_return": 0.15}], "covariance": [[0.04, 0.01], [0.01, 0.09]], "market_return": 0.09}`, optimization.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, router, "/api/optimizer/analyze", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind.Error(), body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleAnalyze_FrontierPointsValidation(t *testing.T) {
	router := newTestRouter(t)

	for _, points := range []string{"1", "-2"} {
		t.Run(points, func(t *testing.T) {
			rec := post(t, router, "/api/optimizer/analyze", `{`+twoAssetModel+`, "frontier_points": `+points+`}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "frontier_points")
		})
	}

	rec := post(t, router, "/api/optimizer/analyze", `{`+twoAssetModel+`, "frontier_points": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeData[AnalysisOutput](t, rec).Frontier, 2)
}

func TestHandleAnalyze_Msgpack(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/optimizer/analyze", bytes.NewBufferString(`{`+twoAssetModel+`}`))
	req.Header.Set("Accept", "application/msgpack")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var env map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &env))
	data, ok := env["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "cholesky", data["inversion_method"])
	assert.Contains(t, data, "tangency")
}

func TestHandleEvaluate(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/api/optimizer/evaluate", `{`+twoAssetModel+`, "weights": [0.5, 0.5]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeData[PortfolioOutput](t, rec)
	assert.InDelta(t, 0.125, out.ExpectedReturn, 1e-12)
	assert.InDelta(t, 0.25*0.04+0.5*0.01+0.25*0.09, out.Variance, 1e-12)
	assert.Equal(t, "EQUITY", out.Weights[1].AssetID)

	rec = post(t, router, "/api/optimizer/evaluate", `{`+twoAssetModel+`, "weights": [1]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), optimization.ErrDimensionMismatch.Error())
}

func TestHandleFrontier(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/api/optimizer/frontier", `{`+twoAssetModel+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeData[struct {
		Regularization string                `json:"regularization"`
		Points         []FrontierPointOutput `json:"points"`
	}](t, rec)
	assert.Equal(t, "none", out.Regularization)
	require.Len(t, out.Points, 5, "default sweep size")
	for _, p := range out.Points {
		assert.InDelta(t, p.TargetReturn, p.ExpectedReturn, 1e-9)
	}

	rec = post(t, router, "/api/optimizer/frontier", `{`+twoAssetModel+`, "points": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleSimulate(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/api/optimizer/simulate", `{`+twoAssetModel+`, "seed": 42, "include_samples": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeData[SimulationOutput](t, rec)
	assert.Equal(t, uint64(42), out.Seed)
	assert.Equal(t, 200, out.Count)
	require.Len(t, out.Samples, 200)
	for _, s := range out.Samples {
		require.Len(t, s.Weights, 2)
		assert.InDelta(t, 1.0, s.Weights[0]+s.Weights[1], 1e-9)
		assert.LessOrEqual(t, s.SharpeRatio, out.MaxSharpe.SharpeRatio)
		assert.GreaterOrEqual(t, s.StdDev, out.MinVolatility.StdDev)
	}
	assert.Equal(t, "BOND", out.MaxSharpe.Weights[0].AssetID)

	// Same seed, same result; samples are omitted unless requested.
	rec = post(t, router, "/api/optimizer/simulate", `{`+twoAssetModel+`, "seed": 42}`)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decodeData[SimulationOutput](t, rec)
	assert.Empty(t, again.Samples)
	assert.Equal(t, out.MaxSharpe, again.MaxSharpe)

	rec = post(t, router, "/api/optimizer/simulate", `{`+twoAssetModel+`, "samples": -1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleEstimate(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"assets": [
			{"id": "A", "prices": [100, 102, 101, 104, 103]},
			{"id": "B", "prices": [50, 50.5, 51, 50.2, 51.5]}
		],
		"market": [1000, 1010, 1005, 1020, 1018],
		"risk_free_rate": 0.02,
		"periods_per_year": 12
	}`
	rec := post(t, router, "/api/optimizer/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeData[EstimateOutput](t, rec)
	assert.Equal(t, 4, out.Observations)
	assert.Equal(t, 12, out.PeriodsPerYear)
	require.NotNil(t, out.MarketReturn)
	require.Len(t, out.Model.Assets, 2)
	assert.NotNil(t, out.Model.Assets[0].Beta)
	assert.Len(t, out.Model.Covariance, 2)

	// The estimated model can be posted straight back.
	payload, err := json.Marshal(AnalyzeRequest{ModelInput: out.Model, MarketReturn: out.MarketReturn})
	require.NoError(t, err)
	rec = post(t, router, "/api/optimizer/analyze", string(payload))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = post(t, router, "/api/optimizer/estimate", `{"assets": [{"id": "A", "prices": [100, 101]}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleEstimate_UnnamedAssets(t *testing.T) {
	router := newTestRouter(t)

	body := `{"assets": [{"prices": [100, 102, 101, 104]}, {"prices": [50, 50.5, 51, 50.2]}]}`
	rec := post(t, router, "/api/optimizer/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeData[EstimateOutput](t, rec)
	require.Len(t, out.Model.Assets, 2)
	assert.Equal(t, "asset-0", out.Model.Assets[0].ID)
	assert.Equal(t, "asset-1", out.Model.Assets[1].ID)
}

func TestHandleExpectedReturn(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/api/capm/expected-return", `{"risk_free_rate": 0.03, "beta": 1.2, "market_return": 0.09}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeData[map[string]float64](t, rec)
	assert.InDelta(t, 0.102, out["expected_return"], 1e-12)

	rec = post(t, router, "/api/capm/expected-return", `{"risk_free_rate": 0.03, "beta": 1.2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
