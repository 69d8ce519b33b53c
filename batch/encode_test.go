package batch_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanout-labs/batch-relay-service/batch"
)

const testSendURL = "https://api.example.com/v1/send"

func TestUnitTestEncodeRejectsEmptyBatch(t *testing.T) {
	encoder := batch.NewEncoder()

	_, err := encoder.Encode([]batch.SubRequest{}, nil)

	assert.ErrorIs(t, err, batch.ErrEmptyBatch)
}

func TestUnitTestEncodeProducesExactWireFormat(t *testing.T) {
	encoder := batch.NewEncoder()

	encoded, err := encoder.Encode([]batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
	}, nil)

	require.NoError(t, err)

	innerMessage := "POST " + testSendURL + " HTTP/1.1\r\n" +
		"Content-Length: 9\r\n" +
		"Content-Type: application/json; charset=UTF-8\r\n" +
		"\r\n" +
		`{"foo":1}`

	expected := "--__END_OF_PART__\r\n" +
		fmt.Sprintf("Content-Length: %d\r\n", len(innerMessage)) +
		"Content-Type: application/http\r\n" +
		"content-id: 1\r\n" +
		"content-transfer-encoding: binary\r\n" +
		"\r\n" +
		innerMessage + "\r\n" +
		"--__END_OF_PART__--\r\n"

	assert.Equal(t, expected, string(encoded.Body))
	assert.Equal(t, "multipart/mixed; boundary=__END_OF_PART__", encoded.ContentType)
}

func TestUnitTestEncodeIsDeterministic(t *testing.T) {
	encoder := batch.NewEncoder()

	subRequests := []batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"zebra": 1, "apple": 2, "mango": 3}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": "bar"}, Headers: map[string]string{"B-Header": "2", "A-Header": "1"}},
	}
	commonHeaders := map[string]string{"Authorization": "Bearer token", "X-Common": "yes"}

	first, err := encoder.Encode(subRequests, commonHeaders)
	require.NoError(t, err)

	second, err := encoder.Encode(subRequests, commonHeaders)
	require.NoError(t, err)

	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.ContentType, second.ContentType)
}

func TestUnitTestEncodeDeclaresExactByteLengths(t *testing.T) {
	encoder := batch.NewEncoder()

	// multi-byte characters make the byte length differ from the rune count
	encoded, err := encoder.Encode([]batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"título": "señal"}},
		{URL: testSendURL, Body: map[string]interface{}{"plain": "ascii"}},
	}, nil)

	require.NoError(t, err)

	reader := multipart.NewReader(bytes.NewReader(encoded.Body), encoder.Boundary())

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		innerMessage, err := io.ReadAll(part)
		require.NoError(t, err)

		declaredPartLength, err := strconv.Atoi(part.Header.Get("Content-Length"))
		require.NoError(t, err)
		assert.Equal(t, len(innerMessage), declaredPartLength, "part Content-Length must equal the inner message byte length")

		// the inner message declares the byte length of its JSON body
		headerEnd := bytes.Index(innerMessage, []byte("\r\n\r\n"))
		require.NotEqual(t, -1, headerEnd)
		jsonBody := innerMessage[headerEnd+4:]

		assert.Contains(t, string(innerMessage), fmt.Sprintf("Content-Length: %d\r\n", len(jsonBody)))
	}
}

func TestUnitTestEncodeAssignsSequentialContentIDs(t *testing.T) {
	encoder := batch.NewEncoder()

	encoded, err := encoder.Encode([]batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": 2}},
		{URL: testSendURL, Body: map[string]interface{}{"foo": 3}},
	}, nil)

	require.NoError(t, err)

	reader := multipart.NewReader(bytes.NewReader(encoded.Body), encoder.Boundary())

	for expectedID := 1; ; expectedID++ {
		part, err := reader.NextPart()
		if err == io.EOF {
			assert.Equal(t, 4, expectedID, "expected exactly three parts")
			break
		}
		require.NoError(t, err)

		assert.Equal(t, strconv.Itoa(expectedID), part.Header.Get("Content-Id"))
		assert.Equal(t, "application/http", part.Header.Get("Content-Type"))
		assert.Equal(t, "binary", part.Header.Get("Content-Transfer-Encoding"))

		io.Copy(io.Discard, part)
	}
}

func TestUnitTestEncodeSubRequestHeadersOverwriteCommonHeaders(t *testing.T) {
	encoder := batch.NewEncoder()

	encoded, err := encoder.Encode([]batch.SubRequest{
		{
			URL:     testSendURL,
			Body:    map[string]interface{}{"foo": 1},
			Headers: map[string]string{"X-Custom-Header": "overwrite"},
		},
	}, map[string]string{"X-Custom-Header": "value", "X-Common-Only": "kept"})

	require.NoError(t, err)

	assert.Contains(t, string(encoded.Body), "X-Custom-Header: overwrite\r\n")
	assert.NotContains(t, string(encoded.Body), "X-Custom-Header: value")
	assert.Contains(t, string(encoded.Body), "X-Common-Only: kept\r\n")
}

func TestUnitTestEncoderWithRandomBoundaryFramesWithItsOwnBoundary(t *testing.T) {
	first := batch.NewEncoderWithRandomBoundary()
	second := batch.NewEncoderWithRandomBoundary()

	assert.NotEqual(t, first.Boundary(), second.Boundary())

	encoded, err := first.Encode([]batch.SubRequest{
		{URL: testSendURL, Body: map[string]interface{}{"foo": 1}},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed; boundary="+first.Boundary(), encoded.ContentType)
	assert.Contains(t, string(encoded.Body), "--"+first.Boundary()+"--\r\n")
}

func TestUnitTestEncodeRejectsUnserializableBody(t *testing.T) {
	encoder := batch.NewEncoder()

	_, err := encoder.Encode([]batch.SubRequest{
		{URL: testSendURL, Body: make(chan int)},
	}, nil)

	assert.Error(t, err)
}
