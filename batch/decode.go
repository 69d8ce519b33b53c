package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/fanout-labs/batch-relay-service/clients/transport"
	"github.com/fanout-labs/batch-relay-service/httpmsg"
)

// Decoder parses a multipart batch response back into ordered
// per-sub-request responses
type Decoder struct{}

// NewDecoder creates a new Decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// decodedPart pairs a parsed sub-response with the content-id
// recovered from its part headers
type decodedPart struct {
	contentID   int
	subResponse SubResponse
}

// Decode parses the outer response as a multipart/mixed body whose parts
// are raw HTTP/1.1 response messages, returning one SubResponse per part
// ordered by content-id, or a *BatchError when the outer response is not
// a decodable batch response.
// A part with a non-2xx embedded status is a normal decoded outcome;
// only transport or framing level problems fail the whole batch.
func (d *Decoder) Decode(outerResponse *transport.Response) ([]SubResponse, error) {
	boundary, err := multipartBoundary(outerResponse)

	if err != nil {
		return nil, NewBatchError(err.Error(), outerResponse.StatusCode, outerResponse.Text())
	}

	multipartReader := multipart.NewReader(bytes.NewReader(outerResponse.Body), boundary)

	var parts []decodedPart

	for index := 0; ; index++ {
		part, err := multipartReader.NextPart()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, NewBatchError(
				fmt.Sprintf("error %s reading part %d of batch response", err, index+1),
				outerResponse.StatusCode, outerResponse.Text(),
			)
		}

		rawMessage, err := io.ReadAll(part)

		if err != nil {
			return nil, NewBatchError(
				fmt.Sprintf("error %s reading payload of part %d of batch response", err, index+1),
				outerResponse.StatusCode, outerResponse.Text(),
			)
		}

		// a part that doesn't contain a well-formed embedded response
		// fails the whole batch, otherwise the caller would receive a
		// result list with the wrong count
		embeddedResponse, err := httpmsg.ParseResponse(rawMessage)

		if err != nil {
			return nil, NewBatchError(
				fmt.Sprintf("part %d of batch response does not contain a well-formed http response: %s", index+1, err),
				outerResponse.StatusCode, outerResponse.Text(),
			)
		}

		parts = append(parts, decodedPart{
			contentID:   partContentID(part, index),
			subResponse: buildSubResponse(embeddedResponse),
		})
	}

	if len(parts) == 0 {
		return nil, NewBatchError("batch response contained no parts", outerResponse.StatusCode, outerResponse.Text())
	}

	// order by content-id so results align with submission order even if
	// the server returned parts out of order
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].contentID < parts[j].contentID
	})

	subResponses := make([]SubResponse, 0, len(parts))
	for _, part := range parts {
		subResponses = append(subResponses, part.subResponse)
	}

	return subResponses, nil
}

// multipartBoundary validates that the outer response is a successful
// multipart/mixed response and returns its boundary token
func multipartBoundary(outerResponse *transport.Response) (string, error) {
	if outerResponse.StatusCode < 200 || outerResponse.StatusCode > 299 {
		return "", fmt.Errorf("batch request failed with status %d", outerResponse.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(outerResponse.Headers.Get(contentTypeHeader))

	if err != nil {
		return "", fmt.Errorf("error %s parsing content type of batch response", err)
	}

	if mediaType != multipartMixedMediaType {
		return "", fmt.Errorf("batch response content type is %s, expected %s", mediaType, multipartMixedMediaType)
	}

	boundary, exists := params["boundary"]

	if !exists || boundary == "" {
		return "", fmt.Errorf("batch response content type %s is missing a boundary", mediaType)
	}

	return boundary, nil
}

// partContentID recovers the 1-based content-id from the part headers,
// falling back to the part's found position when the header is absent
// or unparseable
func partContentID(part *multipart.Part, index int) int {
	contentID, err := strconv.Atoi(part.Header.Get(ContentIDHeader))

	if err != nil {
		return index + 1
	}

	return contentID
}

// buildSubResponse converts a parsed embedded response message into a
// SubResponse, parsing the body as JSON when the embedded content type
// denotes JSON. A body that fails to parse as JSON is a normal non-JSON
// outcome for that sub-call, never an error.
func buildSubResponse(embeddedResponse *httpmsg.Response) SubResponse {
	subResponse := SubResponse{
		Status:  embeddedResponse.StatusCode,
		Headers: embeddedResponse.Headers,
		Text:    string(embeddedResponse.Body),
	}

	if !denotesJSON(embeddedResponse.Headers[contentTypeHeader]) {
		return subResponse
	}

	var data interface{}

	if err := json.Unmarshal(embeddedResponse.Body, &data); err != nil {
		return subResponse
	}

	subResponse.Data = data
	subResponse.isJSON = true

	return subResponse
}

// denotesJSON reports whether an embedded response content type
// declares a JSON body
func denotesJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)

	if err != nil {
		return false
	}

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
