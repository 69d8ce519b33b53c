package batch

// SubRequest is one logical HTTP request to be carried inside a batch.
// Callers own SubRequests; the codec never mutates them.
type SubRequest struct {
	// URL is the full url the sub-request is addressed to
	URL string
	// Body is the JSON-serializable payload of the sub-request
	Body interface{}
	// Headers are optional per-request headers that overwrite
	// same-named common headers when the batch is encoded
	Headers map[string]string
}

// SubResponse is the decoded outcome of exactly one SubRequest,
// at the same position in the output list as its SubRequest
// held in the input list
type SubResponse struct {
	// Status is the numeric http status of the embedded response
	Status int
	// Headers are the headers of the embedded response
	Headers map[string]string
	// Text is the raw body of the embedded response
	Text string
	// Data is the body parsed as JSON, or nil when the body is not JSON
	Data interface{}

	isJSON bool
}

// IsJSON returns true when the response body was declared as and
// successfully parsed as JSON
func (r SubResponse) IsJSON() bool {
	return r.isJSON
}
