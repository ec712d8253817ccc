package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the service-to-service key
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware validates the API key from the X-API-Key header.
// An empty configured key rejects every request.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providedKey := r.Header.Get(APIKeyHeader)

			if apiKey == "" || providedKey == "" ||
				subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or missing API key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
