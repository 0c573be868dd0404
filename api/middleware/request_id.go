package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vidora/vidora-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 128
)

// RequestID propagates or assigns a request id and binds it to the logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if reqID == "" || len(reqID) > maxRequestIDLen {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			next.ServeHTTP(w, r.WithContext(logg.WithRequestID(r.Context(), reqID)))
		})
	}
}
