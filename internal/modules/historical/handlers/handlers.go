// Package handlers provides HTTP handlers for historical price analytics.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 4 << 20

// SeriesInput is one price history, oldest first.
type SeriesInput struct {
	ID     string    `json:"id"`
	Prices []float64 `json:"prices"`
}

// SeriesRequest is the body of every historical endpoint.
type SeriesRequest struct {
	Assets []SeriesInput `json:"assets"`
}

func (r SeriesRequest) series() []historical.PriceSeries {
	out := make([]historical.PriceSeries, len(r.Assets))
	for i, a := range r.Assets {
		out[i] = historical.PriceSeries{ID: a.ID, Prices: a.Prices}
	}
	return out
}

// Handler handles historical analytics HTTP requests
type Handler struct {
	estimator *historical.Estimator
	log       zerolog.Logger
}

// NewHandler creates a new historical analytics handler
func NewHandler(estimator *historical.Estimator, log zerolog.Logger) *Handler {
	return &Handler{
		estimator: estimator,
		log:       log.With().Str("handler", "historical").Logger(),
	}
}

// HandleReturns handles POST /api/historical/returns
func (h *Handler) HandleReturns(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if !h.decode(w, r, &req) {
		return
	}

	series, err := h.estimator.Returns(req.series())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	returns := make([]map[string]interface{}, len(series))
	for i, s := range series {
		returns[i] = map[string]interface{}{
			"id":      s.ID,
			"returns": s.Returns,
			"count":   len(s.Returns),
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"series": returns,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCorrelationMatrix handles POST /api/historical/returns/correlation-matrix
func (h *Handler) HandleCorrelationMatrix(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if !h.decode(w, r, &req) {
		return
	}

	corr, err := h.estimator.Correlations(req.series())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	matrix := make(map[string]map[string]float64, len(corr.IDs))
	for i, a := range corr.IDs {
		row := make(map[string]float64, len(corr.IDs))
		for j, b := range corr.IDs {
			row[b] = corr.Values[i][j]
		}
		matrix[a] = row
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"correlation_matrix": matrix,
			"ids":                corr.IDs,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !optimization.IsDomainError(err) {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Historical request failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error": err.Error(),
		"kind":  optimization.ErrorKind(err).Error(),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
