// Package main provides the entry point for foxy-server.
//
// foxy-server runs the Foxy HTTP/1.1 server and administers its
// credential store:
//
//   - serve: start the server with the configured storage backend
//   - user, role: manage accounts in the badger store offline
//   - config show, config check: inspect the effective configuration
//   - hash-password, gen-salt: produce values for the configuration
//
// Usage:
//
//	foxy-server -c foxy.yaml serve
//	foxy-server serve --addr :8080 --root ./html
//	foxy-server -c foxy.yaml -o json user list
//	foxy-server hash-password --stdin < password.txt
package main
