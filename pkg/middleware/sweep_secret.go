package middleware

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"marea/pkg/logger"
)

const sweepSecretHeader = "X-Sweep-Secret"

// SweepSecret authorizes scheduler-originated requests. The external cron
// trigger must present the shared secret either in the X-Sweep-Secret header
// or as a bearer token; comparison is constant-time.
func SweepSecret(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := extractSweepSecret(r)

			if presented == "" || !hmac.Equal([]byte(presented), []byte(secret)) {
				requestID := ""
				if rid := r.Context().Value(RequestIDKey); rid != nil {
					if id, ok := rid.(string); ok {
						requestID = id
					}
				}

				log.Warn("Rejected unauthorized sweep request",
					"request_id", requestID,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractSweepSecret(r *http.Request) string {
	if s := r.Header.Get(sweepSecretHeader); s != "" {
		return s
	}

	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}

	return ""
}
