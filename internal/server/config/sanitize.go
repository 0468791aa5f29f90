package config

import (
	"slices"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Security.GuestPermissions = slices.Clone(cfg.Security.GuestPermissions)

	if sanitized.Security.PrivateSalt != "" {
		sanitized.Security.PrivateSalt = maskSecret(sanitized.Security.PrivateSalt)
	}
	if sanitized.Security.AdminPasswordHash != "" {
		sanitized.Security.AdminPasswordHash = "****"
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
