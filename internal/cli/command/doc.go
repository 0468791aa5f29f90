// Package command provides the foxy-server command line.
//
// It uses urfave/cli/v2. `serve` runs the HTTP server; the remaining
// commands prepare secrets and configuration or administer the users of a
// Badger credential store while the server is stopped.
package command
