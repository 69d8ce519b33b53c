package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fanout-labs/batch-relay-service/clients/transport"
	"github.com/fanout-labs/batch-relay-service/config"
	"github.com/fanout-labs/batch-relay-service/logging"
)

const healthcheckTimeout = 5 * time.Second

// createHealthcheckHandler creates a health check handler function that
// will respond 200 ok if the relay service is able to reach the backend
// it relays sub-requests to
func createHealthcheckHandler(config config.Config, serviceLogger *logging.ServiceLogger) func(http.ResponseWriter, *http.Request) {
	healthcheckTransport := transport.NewHTTPTransport()

	return func(w http.ResponseWriter, r *http.Request) {
		serviceLogger.Debug().Msg("/healthcheck called")

		ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
		defer cancel()

		_, err := healthcheckTransport.Send(ctx, transport.Request{
			Method: http.MethodGet,
			URL:    config.BatchBackendHostURLParsed.String(),
		})

		if err != nil {
			serviceLogger.Error().
				Err(err).
				Msg("backend healthcheck failed")

			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf("batch relay service unable to connect to backend: %v", err)))

			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("batch relay service is healthy"))
	}
}

// createServicecheckHandler creates a service check handler function that
// will respond 200 ok if the relay service is running
func createServicecheckHandler(serviceLogger *logging.ServiceLogger) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceLogger.Debug().Msg("/servicecheck called")

		w.WriteHeader(http.StatusOK)

		w.Write([]byte("batch relay service is in service"))
	}
}
