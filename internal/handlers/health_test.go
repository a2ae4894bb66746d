package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubGames []uuid.UUID

func (s stubGames) List() []uuid.UUID { return s }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		pinger         Pinger
		expectedStatus int
		expectedHealth string
		expectedRedis  string
	}{
		{
			name:           "all healthy",
			pinger:         stubPinger{},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedRedis:  "healthy",
		},
		{
			name:           "unhealthy redis",
			pinger:         stubPinger{err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedRedis:  "unhealthy",
		},
		{
			name:           "no redis configured",
			pinger:         nil,
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.pinger, stubGames{uuid.New(), uuid.New()}, 5, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "defcon", resp.Service)
			assert.Equal(t, tt.expectedRedis, resp.Components["redis"])
			assert.Equal(t, 2, resp.Games)
			assert.Equal(t, 5, resp.Characters)
		})
	}
}

func TestHealthHandler_NoGames(t *testing.T) {
	handler := NewHealthHandler(nil, nil, 0, testLogger())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Zero(t, resp.Games)
	assert.Equal(t, http.StatusOK, rr.Code)
}
