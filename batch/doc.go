// Package batch implements the multipart batch codec and client.

// Many independent logical HTTP sub-requests are serialized into a single
// multipart/mixed request body whose parts are raw HTTP/1.1 request messages,
// sent over one physical round trip, and the server's multipart/mixed response
// is parsed back into one ordered SubResponse per submitted SubRequest.

// Failures come in two tiers:
//   - a *BatchError means the batch as a whole failed (transport rejection,
//     a non-multipart outer response, or a malformed part) and carries the
//     outer response for diagnostics
//   - a SubResponse with a non-2xx Status is a normal, successfully decoded
//     outcome for that one sub-call, which the caller must inspect

// Encoding and decoding are pure computations over in-memory buffers; the
// only I/O in a Send call is the single request made through the transport
// collaborator.
package batch
