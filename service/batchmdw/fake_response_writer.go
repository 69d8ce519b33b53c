package batchmdw

import (
	"bytes"
	"net/http"
)

// fakeResponseWriter is a custom implementation of http.ResponseWriter
// that captures the status, headers, and body written for one relayed
// sub-request instead of sending them to the client
type fakeResponseWriter struct {
	// body is the response body for the current request
	body *bytes.Buffer
	// header is the response headers for the current request
	header http.Header
	// status is the response status for the current request
	status int
}

var _ http.ResponseWriter = &fakeResponseWriter{}

// newFakeResponseWriter creates a new fakeResponseWriter
func newFakeResponseWriter() *fakeResponseWriter {
	return &fakeResponseWriter{
		header: make(http.Header),
		body:   new(bytes.Buffer),
		status: http.StatusOK,
	}
}

// Write implements the Write method of http.ResponseWriter
// it overrides the Write method to capture the response content for the current request
func (w *fakeResponseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

// Header implements the Header method of http.ResponseWriter
// it overrides the Header method to capture the response headers for the current request
func (w *fakeResponseWriter) Header() http.Header {
	return w.header
}

// WriteHeader implements the WriteHeader method of http.ResponseWriter
// it overrides the WriteHeader method to capture the status code for the current request
func (w *fakeResponseWriter) WriteHeader(status int) {
	w.status = status
}
