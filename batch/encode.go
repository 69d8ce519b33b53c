package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fanout-labs/batch-relay-service/httpmsg"
)

const (
	// FixedBoundary is the default outer boundary token. It is a constant
	// rather than per-call random value, on the assumption that it never
	// appears inside a JSON-serialized sub-request body.
	FixedBoundary = "__END_OF_PART__"

	// PartContentType is the content type of every part: each part's
	// payload is itself a raw HTTP/1.1 message
	PartContentType = "application/http"

	// SubRequestContentType is the content type of every embedded
	// sub-request body
	SubRequestContentType = "application/json; charset=UTF-8"

	// ContentIDHeader correlates a part to its originating sub-request
	// by 1-based submission index, and must round-trip through the
	// server unchanged
	ContentIDHeader = "content-id"

	contentLengthHeader           = "Content-Length"
	contentTypeHeader             = "Content-Type"
	contentTransferEncodingHeader = "content-transfer-encoding"
	contentTransferEncodingValue  = "binary"

	multipartMixedMediaType = "multipart/mixed"
)

// EncodedBatch is the encoded outgoing request: the multipart body bytes
// and the content type (carrying the boundary) to send them under
type EncodedBatch struct {
	Body        []byte
	ContentType string
}

// Encoder serializes sub-requests into a single multipart/mixed body.
// Encoding is a pure function of its inputs: identical inputs always
// produce byte-identical output.
type Encoder struct {
	boundary string
}

// NewEncoder creates a new Encoder using the fixed default boundary
func NewEncoder() *Encoder {
	return &Encoder{
		boundary: FixedBoundary,
	}
}

// NewEncoderWithRandomBoundary creates a new Encoder with a randomly
// generated boundary, for callers whose payloads could collide with
// the fixed boundary token
func NewEncoderWithRandomBoundary() *Encoder {
	return &Encoder{
		boundary: "batch_" + uuid.New().String(),
	}
}

// Boundary returns the boundary token the encoder frames parts with
func (e *Encoder) Boundary() string {
	return e.boundary
}

// Encode serializes the ordered sub-requests into one multipart/mixed
// body, returning the encoded batch and error (if any).
// Each sub-request becomes one part wrapping a raw HTTP/1.1 request
// message whose headers merge commonHeaders with the sub-request's own
// headers, the sub-request's headers winning any collision.
func (e *Encoder) Encode(subRequests []SubRequest, commonHeaders map[string]string) (*EncodedBatch, error) {
	if len(subRequests) == 0 {
		return nil, ErrEmptyBatch
	}

	var body bytes.Buffer

	for index, subRequest := range subRequests {
		innerMessage, err := encodeSubRequest(subRequest, commonHeaders)

		if err != nil {
			return nil, fmt.Errorf("error %s serializing body of sub-request %d", err, index+1)
		}

		writePart(&body, e.boundary, index+1, innerMessage)
	}

	fmt.Fprintf(&body, "--%s--\r\n", e.boundary)

	return &EncodedBatch{
		Body:        body.Bytes(),
		ContentType: fmt.Sprintf("%s; boundary=%s", multipartMixedMediaType, e.boundary),
	}, nil
}

// writePart frames one inner HTTP message as a MIME part:
// boundary delimiter line, part headers, blank line, the inner message,
// and a trailing CRLF
func writePart(body *bytes.Buffer, boundary string, contentID int, innerMessage []byte) {
	fmt.Fprintf(body, "--%s\r\n", boundary)
	fmt.Fprintf(body, "%s: %d\r\n", contentLengthHeader, len(innerMessage))
	fmt.Fprintf(body, "%s: %s\r\n", contentTypeHeader, PartContentType)
	fmt.Fprintf(body, "%s: %d\r\n", ContentIDHeader, contentID)
	fmt.Fprintf(body, "%s: %s\r\n", contentTransferEncodingHeader, contentTransferEncodingValue)
	body.WriteString("\r\n")
	body.Write(innerMessage)
	body.WriteString("\r\n")
}

// encodeSubRequest builds the raw HTTP/1.1 request message for one
// sub-request, returning the message bytes and error (if any)
func encodeSubRequest(subRequest SubRequest, commonHeaders map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(subRequest.Body)

	if err != nil {
		return nil, err
	}

	// the declared length must be the byte length of the serialized
	// body, not its character length
	headers := []httpmsg.Header{
		{Name: contentLengthHeader, Value: strconv.Itoa(len(jsonBody))},
		{Name: contentTypeHeader, Value: SubRequestContentType},
	}
	headers = append(headers, mergeHeaders(commonHeaders, subRequest.Headers)...)

	var innerMessage bytes.Buffer

	err = httpmsg.WriteRequest(&innerMessage, http.MethodPost, subRequest.URL, headers, jsonBody)

	if err != nil {
		return nil, err
	}

	return innerMessage.Bytes(), nil
}

// mergeHeaders merges the common headers with a sub-request's own headers,
// the sub-request's value winning any same-named collision, returning the
// merged headers in sorted name order so encoding stays deterministic
func mergeHeaders(commonHeaders map[string]string, subRequestHeaders map[string]string) []httpmsg.Header {
	merged := make(map[string]string, len(commonHeaders)+len(subRequestHeaders))

	for name, value := range commonHeaders {
		merged[name] = value
	}

	for name, value := range subRequestHeaders {
		for existing := range merged {
			if strings.EqualFold(existing, name) && existing != name {
				delete(merged, existing)
			}
		}
		merged[name] = value
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]httpmsg.Header, 0, len(merged))
	for _, name := range names {
		headers = append(headers, httpmsg.Header{Name: name, Value: merged[name]})
	}

	return headers
}
