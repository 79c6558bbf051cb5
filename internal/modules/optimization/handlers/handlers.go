// Package handlers provides HTTP handlers for portfolio optimization.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	maxBodyBytes       = 4 << 20
	contentTypeMsgpack = "application/msgpack"
	defaultSweepPoints = 50
	defaultSamples     = 10000
)

// Handler handles optimization HTTP requests
type Handler struct {
	service           *optimization.OptimizerService
	estimator         *historical.Estimator
	frontierPoints    int
	simulationSamples int
	log               zerolog.Logger
}

// NewHandler creates a new optimization handler. frontierPoints and
// simulationSamples are used when a request does not specify its own.
func NewHandler(
	service *optimization.OptimizerService,
	estimator *historical.Estimator,
	frontierPoints int,
	simulationSamples int,
	log zerolog.Logger,
) *Handler {
	if frontierPoints < 2 {
		frontierPoints = defaultSweepPoints
	}
	if simulationSamples < 1 {
		simulationSamples = defaultSamples
	}
	return &Handler{
		service:           service,
		estimator:         estimator,
		frontierPoints:    frontierPoints,
		simulationSamples: simulationSamples,
		log:               log.With().Str("handler", "optimizer").Logger(),
	}
}

// HandleAnalyze handles POST /api/optimizer/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.FrontierPoints != 0 && req.FrontierPoints < 2 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("frontier_points must be 0 or at least 2, got %d", req.FrontierPoints),
		})
		return
	}

	model, err := req.ToModel()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.Analyze(r.Context(), model, optimization.AnalysisRequest{
		MarketReturn:   req.MarketReturn,
		FrontierPoints: req.FrontierPoints,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, r, NewAnalysisOutput(result))
}

// HandleEvaluate handles POST /api/optimizer/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !h.decode(w, r, &req) {
		return
	}

	model, err := req.ToModel()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	weights, err := optimization.NewNamedWeightVector(model.AssetIDs(), req.Weights)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := h.service.Evaluate(model, weights)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, r, toPortfolioOutput(report))
}

// HandleFrontier handles POST /api/optimizer/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req FrontierRequest
	if !h.decode(w, r, &req) {
		return
	}

	model, err := req.ToModel()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	points := req.Points
	if points == 0 {
		points = h.frontierPoints
	}

	frontier, err := h.service.Frontier(r.Context(), model, points)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, r, map[string]interface{}{
		"regularization": h.service.Regularizer().Name(),
		"points":         toFrontierOutput(frontier),
	})
}

// HandleSimulate handles POST /api/optimizer/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !h.decode(w, r, &req) {
		return
	}

	model, err := req.ToModel()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	samples := req.Samples
	if samples == 0 {
		samples = h.simulationSamples
	}
	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}

	sim, err := h.service.Simulate(r.Context(), model, samples, seed)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, r, NewSimulationOutput(sim, req.IncludeSamples))
}

// HandleEstimate handles POST /api/optimizer/estimate
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if !h.decode(w, r, &req) {
		return
	}

	estimate, err := h.estimator.Estimate(req.ToRequest())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, r, NewEstimateOutput(estimate))
}

// HandleExpectedReturn handles POST /api/capm/expected-return
func (h *Handler) HandleExpectedReturn(w http.ResponseWriter, r *http.Request) {
	var req ExpectedReturnRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.RiskFreeRate == nil || req.Beta == nil || req.MarketReturn == nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "risk_free_rate, beta and market_return are required",
		})
		return
	}

	expected, err := h.service.ExpectedReturn(*req.RiskFreeRate, *req.Beta, *req.MarketReturn)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, r, map[string]interface{}{
		"risk_free_rate":  *req.RiskFreeRate,
		"beta":            *req.Beta,
		"market_return":   *req.MarketReturn,
		"expected_return": expected,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected request body")
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return false
	}
	return true
}

// writeError maps engine error kinds to 422 and everything else to 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := optimization.ErrorKind(err)
	if kind == nil {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Optimization request failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("Optimization request rejected")
	h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error": err.Error(),
		"kind":  kind.Error(),
	})
}

// writeData wraps data in the standard envelope and encodes it as msgpack
// when the client asks for it, JSON otherwise.
func (h *Handler) writeData(w http.ResponseWriter, r *http.Request, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	if strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack) {
		h.writeMsgpack(w, http.StatusOK, response)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) writeMsgpack(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error().Err(err).Msg("Failed to write msgpack response")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
