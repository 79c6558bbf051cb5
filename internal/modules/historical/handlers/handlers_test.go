package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/frontier/internal/modules/historical"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(historical.NewEstimator(252, logger), logger)

	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")
	return router
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleReturns(t *testing.T) {
	router := setupRouter(t)

	w := post(router, "/historical/returns", `{"assets":[{"id":"A","prices":[100,110,121]}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Series []struct {
				ID      string    `json:"id"`
				Returns []float64 `json:"returns"`
				Count   int       `json:"count"`
			} `json:"series"`
		} `json:"data"`
		Metadata map[string]string `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data.Series, 1)
	assert.Equal(t, "A", response.Data.Series[0].ID)
	assert.Equal(t, 2, response.Data.Series[0].Count)
	assert.InDelta(t, 0.10, response.Data.Series[0].Returns[1], 1e-12)
	assert.NotEmpty(t, response.Metadata["timestamp"])
}

func TestHandleCorrelationMatrix(t *testing.T) {
	router := setupRouter(t)

	body := `{"assets":[
		{"id":"A","prices":[100,101,99,102]},
		{"id":"B","prices":[50,49.5,50.5,49]}
	]}`
	w := post(router, "/historical/returns/correlation-matrix", body)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Matrix map[string]map[string]float64 `json:"correlation_matrix"`
			IDs    []string                      `json:"ids"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"A", "B"}, response.Data.IDs)
	assert.Equal(t, 1.0, response.Data.Matrix["A"]["A"])
	assert.Equal(t, response.Data.Matrix["A"]["B"], response.Data.Matrix["B"]["A"])
	assert.Less(t, response.Data.Matrix["A"]["B"], 0.0)
}

func TestHistoricalErrors(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{"malformed body", "/historical/returns", "{", http.StatusBadRequest},
		{"no series", "/historical/returns", `{"assets":[]}`, http.StatusUnprocessableEntity},
		{"negative price", "/historical/returns", `{"assets":[{"id":"A","prices":[1,-1]}]}`, http.StatusUnprocessableEntity},
		{"flat series", "/historical/returns/correlation-matrix", `{"assets":[{"id":"A","prices":[2,2,2]}]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
