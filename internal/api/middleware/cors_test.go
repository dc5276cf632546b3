package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"algotutor/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSScope(t *testing.T) {
	var reached int
	h := CORS("/api", "/question")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		method, path string
		wantCode     int
		wantCORS     bool
	}{
		{http.MethodOptions, "/api/v1/question", http.StatusOK, true},
		{http.MethodOptions, "/question/two-sum", http.StatusOK, true},
		{http.MethodGet, "/api/v1/question", http.StatusTeapot, true},
		{http.MethodGet, "/apiary", http.StatusTeapot, false},
		{http.MethodOptions, "/health", http.StatusTeapot, false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCORS, rec.Header().Get("Access-Control-Allow-Origin") == "*")
		})
	}
	assert.Equal(t, 3, reached)
}

func TestCORSRecoversPanics(t *testing.T) {
	h := CORS("/api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/question", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Error)
}
