package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthMiddleware enforces a shared API key on every endpoint except the
// health probe. An empty configured key disables the check entirely.
// The key is taken from the X-API-Key header or, for websocket clients
// that cannot set headers, the api_key query parameter.
func AuthMiddleware(next http.Handler, apiKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get("X-API-Key")
		if provided == "" {
			provided = r.URL.Query().Get("api_key")
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
