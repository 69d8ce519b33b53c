package batchmdw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"

	"github.com/fanout-labs/batch-relay-service/batch"
	"github.com/fanout-labs/batch-relay-service/httpmsg"
	"github.com/fanout-labs/batch-relay-service/logging"
)

// BatchMiddlewareConfig wraps values used to create
// the batch processing middleware
type BatchMiddlewareConfig struct {
	ServiceLogger *logging.ServiceLogger
}

// parsedSubRequest pairs an embedded sub-request with the content-id
// recovered from its part headers, which is echoed back on the
// matching response part
type parsedSubRequest struct {
	contentID string
	request   *httpmsg.Request
}

// CreateBatchProcessingMiddleware returns a handler that parses a
// multipart/mixed request body into its embedded sub-requests, relays
// each one through next as if it were a single request, and combines
// the captured responses into a single multipart/mixed response
func CreateBatchProcessingMiddleware(next http.HandlerFunc, config *BatchMiddlewareConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subRequests, err := parseBatchRequest(r)

		if err != nil {
			config.ServiceLogger.Debug().Msg(fmt.Sprintf("error %s parsing batch request", err))
			writeErrorResponse(w, http.StatusBadRequest, err.Error())

			return
		}

		config.ServiceLogger.Debug().Msg(fmt.Sprintf("relaying batch of %d sub-requests", len(subRequests)))

		responseBody := new(bytes.Buffer)

		for _, subRequest := range subRequests {
			frw := newFakeResponseWriter()

			relayRequest, err := http.NewRequestWithContext(r.Context(), subRequest.request.Method, subRequest.request.URL, bytes.NewReader(subRequest.request.Body))

			if err != nil {
				// an unusable sub-request still gets a part in the
				// response so the client's result count stays correct
				frw.status = http.StatusBadRequest
				frw.header.Set("Content-Type", "application/json")
				frw.body.WriteString(fmt.Sprintf(`{"error":%q}`, err.Error()))
			} else {
				for name, value := range subRequest.request.Headers {
					relayRequest.Header.Set(name, value)
				}

				next.ServeHTTP(frw, relayRequest)
			}

			writeResponsePart(responseBody, subRequest.contentID, frw)
		}

		fmt.Fprintf(responseBody, "--%s--\r\n", batch.FixedBoundary)

		w.Header().Set("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%s", batch.FixedBoundary))
		w.WriteHeader(http.StatusOK)
		w.Write(responseBody.Bytes())
	}
}

// parseBatchRequest splits the multipart request body into its parts and
// parses each part's payload as an embedded HTTP request message,
// returning the ordered sub-requests and error (if any)
func parseBatchRequest(r *http.Request) ([]parsedSubRequest, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if err != nil || mediaType != "multipart/mixed" || params["boundary"] == "" {
		return nil, fmt.Errorf("batch request content type must be multipart/mixed with a boundary, got %s", r.Header.Get("Content-Type"))
	}

	multipartReader := multipart.NewReader(r.Body, params["boundary"])

	var subRequests []parsedSubRequest

	for index := 0; ; index++ {
		part, err := multipartReader.NextPart()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("error %s reading part %d of batch request", err, index+1)
		}

		rawMessage, err := io.ReadAll(part)

		if err != nil {
			return nil, fmt.Errorf("error %s reading payload of part %d of batch request", err, index+1)
		}

		embeddedRequest, err := httpmsg.ParseRequest(rawMessage)

		if err != nil {
			return nil, fmt.Errorf("part %d of batch request does not contain a well-formed http request: %s", index+1, err)
		}

		contentID := part.Header.Get(batch.ContentIDHeader)
		if contentID == "" {
			contentID = strconv.Itoa(index + 1)
		}

		subRequests = append(subRequests, parsedSubRequest{
			contentID: contentID,
			request:   embeddedRequest,
		})
	}

	if len(subRequests) == 0 {
		return nil, fmt.Errorf("batch request contained no parts")
	}

	return subRequests, nil
}

// writeResponsePart frames one captured sub-response as a MIME part
// wrapping a raw HTTP/1.1 response message
func writeResponsePart(responseBody *bytes.Buffer, contentID string, frw *fakeResponseWriter) {
	capturedBody := frw.body.Bytes()

	headers := []httpmsg.Header{
		{Name: "Content-Length", Value: strconv.Itoa(len(capturedBody))},
	}

	// captured headers are written in sorted name order so relaying
	// stays deterministic
	names := make([]string, 0, len(frw.header))
	for name := range frw.header {
		if name == "Content-Length" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		headers = append(headers, httpmsg.Header{Name: name, Value: frw.header.Get(name)})
	}

	var innerMessage bytes.Buffer
	httpmsg.WriteResponse(&innerMessage, frw.status, headers, capturedBody)

	fmt.Fprintf(responseBody, "--%s\r\n", batch.FixedBoundary)
	fmt.Fprintf(responseBody, "Content-Length: %d\r\n", innerMessage.Len())
	fmt.Fprintf(responseBody, "Content-Type: %s\r\n", batch.PartContentType)
	fmt.Fprintf(responseBody, "%s: %s\r\n", batch.ContentIDHeader, contentID)
	fmt.Fprintf(responseBody, "content-transfer-encoding: binary\r\n")
	responseBody.WriteString("\r\n")
	responseBody.Write(innerMessage.Bytes())
	responseBody.WriteString("\r\n")
}

// writeErrorResponse writes a JSON error body with the provided status
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
