// package httpmsg provides functions for serializing and parsing
// the raw HTTP/1.1 messages embedded inside multipart batch bodies
//
// the message grammar (request or status line, header lines, blank line, body)
// lives in this package only, and is shared by the batch encode and decode sides
package httpmsg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
)

const crlf = "\r\n"

// Header is a single header line of an embedded HTTP message.
// Headers are a slice rather than a map so callers control the
// exact order the lines are written in.
type Header struct {
	Name  string
	Value string
}

// Request is a parsed embedded HTTP request message
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a parsed embedded HTTP response message
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// WriteRequest writes a raw HTTP/1.1 request message to w
// with the provided headers in the provided order, returning error (if any).
// Every line is terminated with CRLF and the body follows the blank line
// with no additional framing.
func WriteRequest(w io.Writer, method string, url string, headers []Header, body []byte) error {
	if _, err := fmt.Fprintf(w, "%s %s HTTP/1.1%s", method, url, crlf); err != nil {
		return err
	}

	return writeHeadersAndBody(w, headers, body)
}

// WriteResponse writes a raw HTTP/1.1 response message to w
// with the provided headers in the provided order, returning error (if any)
func WriteResponse(w io.Writer, statusCode int, headers []Header, body []byte) error {
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s%s", statusCode, http.StatusText(statusCode), crlf); err != nil {
		return err
	}

	return writeHeadersAndBody(w, headers, body)
}

func writeHeadersAndBody(w io.Writer, headers []Header, body []byte) error {
	for _, header := range headers {
		if _, err := fmt.Fprintf(w, "%s: %s%s", header.Name, header.Value, crlf); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, crlf); err != nil {
		return err
	}

	_, err := w.Write(body)

	return err
}

// ParseRequest parses raw as an HTTP/1.1 request message
// returning the parsed request and error (if any)
func ParseRequest(raw []byte) (*Request, error) {
	parsedRequest, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(raw)))

	if err != nil {
		return nil, fmt.Errorf("error %s parsing embedded http request", err)
	}

	body, err := io.ReadAll(parsedRequest.Body)

	if err != nil {
		return nil, fmt.Errorf("error %s reading embedded http request body", err)
	}

	return &Request{
		Method:  parsedRequest.Method,
		URL:     parsedRequest.RequestURI,
		Headers: flattenHeader(parsedRequest.Header),
		Body:    body,
	}, nil
}

// ParseResponse parses raw as an HTTP/1.1 response message
// returning the parsed response and error (if any)
func ParseResponse(raw []byte) (*Response, error) {
	parsedResponse, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)

	if err != nil {
		return nil, fmt.Errorf("error %s parsing embedded http response", err)
	}

	defer parsedResponse.Body.Close()

	body, err := io.ReadAll(parsedResponse.Body)

	if err != nil {
		return nil, fmt.Errorf("error %s reading embedded http response body", err)
	}

	return &Response{
		StatusCode: parsedResponse.StatusCode,
		Headers:    flattenHeader(parsedResponse.Header),
		Body:       body,
	}, nil
}

// flattenHeader converts a multi-valued http.Header into the single-valued
// header mapping carried by embedded messages, keeping the first value
// for any repeated header name
func flattenHeader(header http.Header) map[string]string {
	flattened := make(map[string]string, len(header))

	for name, values := range header {
		if len(values) > 0 {
			flattened[name] = values[0]
		}
	}

	return flattened
}
