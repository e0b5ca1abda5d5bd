// Package bankapi is a typed HTTP client for the banking API exercised by the load test.
//
// Every endpoint has explicit request and response structs. Responses are validated on receipt:
// a 200 reply that lacks a required field is reported as ErrDecodingResponseFailed instead of
// surfacing as a zero value later. Non-200 replies are reported as *StatusError, which matches
// ErrUnexpectedStatus with errors.Is.
//
// Money values travel as decimal strings with two fractional digits, the way the API serializes them.
package bankapi
