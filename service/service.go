// package service provides functions and methods
// for creating and running the api of the batch relay service
package service

import (
	"fmt"
	"net/http"
	"net/http/httputil"

	"github.com/fanout-labs/batch-relay-service/config"
	"github.com/fanout-labs/batch-relay-service/logging"
	"github.com/fanout-labs/batch-relay-service/service/batchmdw"
)

// BatchRelayService represents an instance of the batch relay service API
type BatchRelayService struct {
	httpRelay *http.Server
	*logging.ServiceLogger
}

// New returns a new BatchRelayService with the specified config and error (if any)
func New(config config.Config, serviceLogger *logging.ServiceLogger) (BatchRelayService, error) {
	// create an http router for registering handlers for a given route
	mux := http.NewServeMux()

	// create an http handler that will proxy any sub-request to the
	// configured backend
	proxy := httputil.NewSingleHostReverseProxy(&config.BatchBackendHostURLParsed)

	proxyHandler := func(w http.ResponseWriter, r *http.Request) {
		serviceLogger.Trace().Msg(fmt.Sprintf("relaying sub-request %s %s to backend", r.Method, r.URL.Path))

		proxy.ServeHTTP(w, r)
	}

	// the batch path unpacks multipart batch requests, relays each
	// embedded sub-request to the backend, and repacks the responses
	batchHandler := batchmdw.CreateBatchProcessingMiddleware(proxyHandler, &batchmdw.BatchMiddlewareConfig{
		ServiceLogger: serviceLogger,
	})

	mux.HandleFunc(config.BatchPath, createRequestLoggingMiddleware(batchHandler, serviceLogger))

	mux.HandleFunc("/healthcheck", createHealthcheckHandler(config, serviceLogger))
	mux.HandleFunc("/servicecheck", createServicecheckHandler(serviceLogger))

	// any other request is relayed to the backend unmodified
	mux.HandleFunc("/", createRequestLoggingMiddleware(proxyHandler, serviceLogger))

	// create an http server for the caller to start at their own discretion
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.BatchRelayServicePort),
		Handler: mux,
	}

	return BatchRelayService{
		httpRelay:     server,
		ServiceLogger: serviceLogger,
	}, nil
}

// Run runs the batch relay service, returning error (if any) in the event
// the service stops
func (s *BatchRelayService) Run() error {
	return s.httpRelay.ListenAndServe()
}
