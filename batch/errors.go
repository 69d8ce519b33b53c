package batch

import "errors"

// ErrEmptyBatch is returned when a batch of zero sub-requests is
// encoded or sent
var ErrEmptyBatch = errors.New("batch must contain at least one sub-request")

// BatchError indicates the batch as a whole failed: the transport rejected
// the outer request, the outer response was not a decodable multipart
// response, or a part could not be parsed as an embedded HTTP message.
// It carries the outer response so the caller can construct a meaningful
// diagnostic.
type BatchError struct {
	message string
	// StatusCode is the status code of the outer HTTP response,
	// or zero if the exchange never completed
	StatusCode int
	// Body is the raw body of the outer HTTP response
	Body string
}

// Error implements the error interface for BatchError
func (err *BatchError) Error() string {
	return err.message
}

// NewBatchError creates a new BatchError
func NewBatchError(message string, statusCode int, body string) *BatchError {
	return &BatchError{
		message:    message,
		StatusCode: statusCode,
		Body:       body,
	}
}
