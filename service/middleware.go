package service

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/negroni"

	"github.com/fanout-labs/batch-relay-service/logging"
)

// createRequestLoggingMiddleware returns a handler that assigns each
// request an id and logs the request method, path, response status,
// and duration
func createRequestLoggingMiddleware(h http.HandlerFunc, serviceLogger *logging.ServiceLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		requestStartedAt := time.Now()

		lrw := negroni.NewResponseWriter(w)

		h.ServeHTTP(lrw, r)

		serviceLogger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", lrw.Status()).
			Int64("duration_ms", time.Since(requestStartedAt).Milliseconds()).
			Msg("handled request")
	}
}
