// Package logger provides structured logging for the Foxy server.
//
//   - logger.go: log/slog handler setup and the process-wide level
//   - context.go: request-scoped logger and connection ID
//   - redact.go: sensitive data redaction
//
// Passwords, salts, cookies and session tokens never reach the output in
// clear text. Attributes whose key names suggest secrets are fully redacted
// and argon2id hashes are masked wherever they appear.
package logger
