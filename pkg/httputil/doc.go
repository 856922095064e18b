// Package httputil provides the JSON conventions of the locallore HTTP API.
//
// # Responses
//
// [WriteJSON] encodes a value with a status code. [WriteError] maps a
// structured error from pkg/errors to an HTTP status and writes it as
//
//	{"error": {"code": "INVALID_PATH", "message": "path must be absolute: x"}}
//
// Errors without a code are reported as 500 with a generic message so
// driver details never reach clients.
//
// # Requests
//
// [DecodeJSON] reads a bounded request body into a value and rejects
// unknown fields.
package httputil
