// Package config provides server configuration for the Foxy server.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation and warnings
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - device.go: Device id resolution for token derivation
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags. The loaded
// value is passed explicitly to every component that needs it.
package config
