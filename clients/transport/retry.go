package transport

import (
	"context"

	"github.com/cenkalti/backoff"
)

// RetryTransport decorates a Transport with exponential backoff retries
// for connection-level failures. Completed exchanges are never retried,
// whatever their status code; classifying and reacting to a server's
// response belongs to the caller.
type RetryTransport struct {
	inner      Transport
	maxRetries uint64
}

var _ Transport = &RetryTransport{}

// NewRetryTransport creates a new RetryTransport wrapping inner
// that retries failed sends up to maxRetries times
func NewRetryTransport(inner Transport, maxRetries uint64) *RetryTransport {
	return &RetryTransport{
		inner:      inner,
		maxRetries: maxRetries,
	}
}

// Send sends the request via the wrapped transport, retrying with
// exponential backoff until a response is returned, the retry budget
// is exhausted, or the context is cancelled
func (t *RetryTransport) Send(ctx context.Context, request Request) (*Response, error) {
	var response *Response

	retryable := func() error {
		var err error
		response, err = t.inner.Send(ctx, request)
		return err
	}

	err := backoff.Retry(retryable, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.maxRetries), ctx))

	if err != nil {
		return nil, err
	}

	return response, nil
}
