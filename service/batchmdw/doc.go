// Package batchmdw is responsible for the middleware used to handle
// multipart batch requests.

// The primary export is CreateBatchProcessingMiddleware which parses each
// application/http part of a multipart/mixed request body back into an
// individual sub-request and relays it through the wrapped handler as if it
// had arrived on its own.
// The captured responses are wrapped as application/http parts, each echoing
// the content-id of the part that produced it, and combined into a single
// multipart/mixed response before being sent to the client.

// A sub-request that fails downstream still produces a part carrying its
// error status; parts are never dropped, so the response always contains
// exactly one part per well-formed request part.
package batchmdw
