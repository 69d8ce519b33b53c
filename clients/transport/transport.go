// package transport provides the single-request http collaborator
// consumed by the batch client: one request in, one response out
//
// connection pooling, tls, and timeouts live here so the batch codec
// stays a pure computation over in-memory buffers
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Request wraps the values needed to send a single HTTP request
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
	Timeout time.Duration
}

// Response wraps a single completed HTTP exchange.
// Any response the server actually produced is returned as a Response,
// regardless of status code; errors are reserved for connection-level failure.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Text returns the raw response body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// Data attempts to parse the response body as JSON,
// returning the parsed value and whether parsing succeeded
func (r *Response) Data() (interface{}, bool) {
	var data interface{}

	if err := json.Unmarshal(r.Body, &data); err != nil {
		return nil, false
	}

	return data, true
}

// Transport sends exactly one HTTP request and returns the response
// the server produced, or an error if the exchange never completed
type Transport interface {
	Send(ctx context.Context, request Request) (*Response, error)
}

// HTTPTransport is the default Transport backed by a net/http client
type HTTPTransport struct {
	client *http.Client
}

var _ Transport = &HTTPTransport{}

// NewHTTPTransport creates a new HTTPTransport using a default http client
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{},
	}
}

// Send sends the request, enforcing the request's timeout (if any)
// via context deadline, and returns the response and error (if any)
func (t *HTTPTransport) Send(ctx context.Context, request Request) (*Response, error) {
	if request.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, request.Timeout)
		defer cancel()
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, request.URL, bytes.NewReader(request.Body))

	if err != nil {
		return nil, err
	}

	for name, value := range request.Headers {
		httpRequest.Header.Set(name, value)
	}

	httpResponse, err := t.client.Do(httpRequest)

	if err != nil {
		return nil, err
	}

	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)

	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResponse.StatusCode,
		Headers:    httpResponse.Header,
		Body:       body,
	}, nil
}
