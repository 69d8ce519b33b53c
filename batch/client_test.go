package batch_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/batch-relay-service/batch"
	"github.com/fanout-labs/batch-relay-service/clients/transport"
)

var testContext = context.Background()

// recordingTransport captures the outer request and returns a canned
// response or error
type recordingTransport struct {
	requests []transport.Request
	response *transport.Response
	err      error
}

func (rt *recordingTransport) Send(ctx context.Context, request transport.Request) (*transport.Response, error) {
	rt.requests = append(rt.requests, request)
	if rt.err != nil {
		return nil, rt.err
	}
	return rt.response, nil
}

func newTestClient(t *testing.T, fakeTransport transport.Transport) *batch.Client {
	t.Helper()

	client, err := batch.NewClient(batch.ClientConfig{
		BatchURL:      "https://api.example.com/batch",
		CommonHeaders: map[string]string{"Authorization": "Bearer token"},
		Transport:     fakeTransport,
	}, nil)

	require.NoError(t, err)

	return client
}

func TestUnitTestClientSendMakesExactlyOneTransportCall(t *testing.T) {
	fakeTransport := &recordingTransport{
		response: multipartResponse(
			responsePart(1, 200, "application/json", `{"foo":1}`),
			responsePart(2, 200, "application/json", `{"foo":2}`),
		),
	}

	client := newTestClient(t, fakeTransport)

	subResponses, err := client.Send(testContext, []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": 2}},
	})

	require.NoError(t, err)
	assert.Len(t, subResponses, 2)
	require.Len(t, fakeTransport.requests, 1, "one batch send is exactly one outer round trip")

	outerRequest := fakeTransport.requests[0]
	assert.Equal(t, http.MethodPost, outerRequest.Method)
	assert.Equal(t, "https://api.example.com/batch", outerRequest.URL)
	assert.Equal(t, "multipart/mixed; boundary="+batch.FixedBoundary, outerRequest.Headers["Content-Type"])
	assert.Equal(t, "Bearer token", outerRequest.Headers["Authorization"])
	assert.Equal(t, batch.DefaultTimeout, outerRequest.Timeout)
}

func TestUnitTestClientSendRejectsEmptyBatch(t *testing.T) {
	fakeTransport := &recordingTransport{}

	client := newTestClient(t, fakeTransport)

	_, err := client.Send(testContext, []batch.SubRequest{})

	assert.ErrorIs(t, err, batch.ErrEmptyBatch)
	assert.Empty(t, fakeTransport.requests, "no transport call should be made for an empty batch")
}

func TestUnitTestClientSendWrapsTransportFailure(t *testing.T) {
	fakeTransport := &recordingTransport{
		err: errors.New("connection refused"),
	}

	client := newTestClient(t, fakeTransport)

	_, err := client.Send(testContext, []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
	})

	var batchErr *batch.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Contains(t, batchErr.Error(), "connection refused")
}

func TestUnitTestClientSendPropagatesDecodeFailure(t *testing.T) {
	fakeTransport := &recordingTransport{
		response: &transport.Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    http.Header{"Content-Type": []string{"application/json"}},
			Body:       []byte(`{"error":"test"}`),
		},
	}

	client := newTestClient(t, fakeTransport)

	_, err := client.Send(testContext, []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
	})

	var batchErr *batch.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, http.StatusInternalServerError, batchErr.StatusCode)
	assert.Equal(t, `{"error":"test"}`, batchErr.Body)
}

func TestUnitTestClientSendRejectsPartCountMismatch(t *testing.T) {
	fakeTransport := &recordingTransport{
		response: multipartResponse(
			responsePart(1, 200, "application/json", `{"foo":1}`),
		),
	}

	client := newTestClient(t, fakeTransport)

	_, err := client.Send(testContext, []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": 2}},
	})

	var batchErr *batch.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Contains(t, batchErr.Error(), "1 parts for 2 sub-requests")
}

func TestUnitTestClientSendMixedOutcomesResolve(t *testing.T) {
	fakeTransport := &recordingTransport{
		response: multipartResponse(
			responsePart(1, 200, "application/json", `{"foo":1}`),
			responsePart(2, 200, "application/json", `{"foo":2}`),
			responsePart(3, 500, "application/json", `{"error":{"status":"UNAVAILABLE"}}`),
		),
	}

	client := newTestClient(t, fakeTransport)

	subResponses, err := client.Send(testContext, []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": 2}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": 3}},
	})

	require.NoError(t, err, "send resolves when the outer response is valid multipart")
	require.Len(t, subResponses, 3)
	assert.Equal(t, 500, subResponses[2].Status)
}

func TestUnitTestNewClientRequiresBatchURL(t *testing.T) {
	_, err := batch.NewClient(batch.ClientConfig{}, nil)

	assert.Error(t, err)
}

func TestUnitTestNewClientAppliesConfiguredTimeout(t *testing.T) {
	fakeTransport := &recordingTransport{
		response: multipartResponse(
			responsePart(1, 200, "application/json", `{"foo":1}`),
		),
	}

	client, err := batch.NewClient(batch.ClientConfig{
		BatchURL:  "https://api.example.com/batch",
		Timeout:   3 * time.Second,
		Transport: fakeTransport,
	}, nil)

	require.NoError(t, err)

	_, err = client.Send(testContext, []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
	})

	require.NoError(t, err)
	require.Len(t, fakeTransport.requests, 1)
	assert.Equal(t, 3*time.Second, fakeTransport.requests[0].Timeout)
}
