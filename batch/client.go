package batch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanout-labs/batch-relay-service/clients/transport"
	"github.com/fanout-labs/batch-relay-service/logging"
)

// DefaultTimeout is the timeout applied to the outer batch request
// when the client config doesn't specify one
const DefaultTimeout = 10 * time.Second

// ClientConfig wraps values used to create a new batch Client
type ClientConfig struct {
	// BatchURL is the url of the batch endpoint the outer request is posted to
	BatchURL string
	// CommonHeaders are merged into every sub-request and into the
	// outer request; an individual SubRequest's headers overwrite them
	CommonHeaders map[string]string
	// Timeout bounds the single outer round trip, defaulting to DefaultTimeout
	Timeout time.Duration
	// Transport sends the outer request, defaulting to a plain HTTPTransport
	Transport transport.Transport
	// RandomizeBoundary switches the encoder to a per-client random
	// boundary instead of the fixed default
	RandomizeBoundary bool
}

// Client batches many logical sub-requests into one physical HTTP
// round trip: encode, send via the transport collaborator, decode.
// Clients hold no per-call state; concurrent Send calls are independent.
type Client struct {
	config    ClientConfig
	encoder   *Encoder
	decoder   *Decoder
	transport transport.Transport

	*logging.ServiceLogger
}

// NewClient creates a new Client from the provided config and logger,
// returning the client and error (if any)
func NewClient(config ClientConfig, serviceLogger *logging.ServiceLogger) (*Client, error) {
	if config.BatchURL == "" {
		return nil, fmt.Errorf("no batch url specified")
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	clientTransport := config.Transport
	if clientTransport == nil {
		clientTransport = transport.NewHTTPTransport()
	}

	encoder := NewEncoder()
	if config.RandomizeBoundary {
		encoder = NewEncoderWithRandomBoundary()
	}

	if serviceLogger == nil {
		noopLogger := zerolog.Nop()
		serviceLogger = &logging.ServiceLogger{Logger: &noopLogger}
	}

	return &Client{
		config:        config,
		encoder:       encoder,
		decoder:       NewDecoder(),
		transport:     clientTransport,
		ServiceLogger: serviceLogger,
	}, nil
}

// Send issues the ordered sub-requests as one batch, returning one
// SubResponse per SubRequest in submission order, or an error when the
// batch as a whole failed.
// Exactly one outer round trip is made per call; there are no retries
// and no request splitting.
func (c *Client) Send(ctx context.Context, subRequests []SubRequest) ([]SubResponse, error) {
	if len(subRequests) == 0 {
		return nil, ErrEmptyBatch
	}

	encodedBatch, err := c.encoder.Encode(subRequests, c.config.CommonHeaders)

	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(c.config.CommonHeaders)+1)
	for name, value := range c.config.CommonHeaders {
		headers[name] = value
	}
	headers["Content-Type"] = encodedBatch.ContentType

	c.Debug().Msg(fmt.Sprintf("sending batch of %d sub-requests to %s", len(subRequests), c.config.BatchURL))

	outerResponse, err := c.transport.Send(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     c.config.BatchURL,
		Body:    encodedBatch.Body,
		Headers: headers,
		Timeout: c.config.Timeout,
	})

	if err != nil {
		return nil, NewBatchError(fmt.Sprintf("error %s sending batch request to %s", err, c.config.BatchURL), 0, "")
	}

	subResponses, err := c.decoder.Decode(outerResponse)

	if err != nil {
		return nil, err
	}

	if len(subResponses) != len(subRequests) {
		return nil, NewBatchError(
			fmt.Sprintf("batch response contained %d parts for %d sub-requests", len(subResponses), len(subRequests)),
			outerResponse.StatusCode, outerResponse.Text(),
		)
	}

	c.Debug().Msg(fmt.Sprintf("batch of %d sub-requests decoded successfully", len(subResponses)))

	return subResponses, nil
}
