package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_HeaderKey(t *testing.T) {
	h := AuthMiddleware(okHandler(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_QueryKey(t *testing.T) {
	h := AuthMiddleware(okHandler(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/watch?api_key=secret", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_WrongOrMissingKey(t *testing.T) {
	h := AuthMiddleware(okHandler(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scans", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_HealthIsAlwaysOpen(t *testing.T) {
	h := AuthMiddleware(okHandler(), "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_EmptyKeyDisablesAuth(t *testing.T) {
	h := AuthMiddleware(okHandler(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
