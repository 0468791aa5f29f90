// Package httpserver is the Foxy HTTP/1.1 engine.
//
// It accepts raw TCP connections and parses requests itself:
//
//   - parser.go: reading and parsing the request bytes into a Request
//   - response.go: the response state machine and its serialization
//   - router.go: first-match prefix routing over PathHandlers
//   - pipeline.go: parse, resolve session, route, handle, respond
//   - server.go: listener, accept loop and bounded worker pool
//
// Every connection carries exactly one request and is closed after the
// response is written. Only GET and POST are recognized; chunked transfer
// encoding, keep-alive and TLS are not supported.
package httpserver
