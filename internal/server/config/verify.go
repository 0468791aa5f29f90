package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		verifyServer(&cfg.Server),
		verifySecurity(&cfg.Security),
		verifyStorage(&cfg.Storage),
		verifyMetrics(&cfg.Metrics),
		verifyLog(&cfg.Log),
	)
}

// Warnings returns non-fatal findings worth logging at startup.
func Warnings(cfg *ServerConfig) []string {
	var out []string
	if cfg.Security.PrivateSalt == BuiltInSalt {
		out = append(out, "security.private_salt is the built-in value; set your own salt")
	}
	if cfg.Security.DeviceID == "" {
		out = append(out, "security.device_id not set; derived from the host name")
	}
	if cfg.Security.AdminUser != "" && cfg.Security.AdminPasswordHash == "" {
		out = append(out, "security.admin_user set without admin_password_hash; admin not seeded")
	}
	return out
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.MaxWorkers < 0 {
		return errors.New("server.max_workers must not be negative")
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if cfg.AcceptRate < 0 || cfg.AcceptBurst < 0 {
		return errors.New("server.accept_rate and accept_burst must not be negative")
	}
	if cfg.MaxRequestBytes < 0 {
		return errors.New("server.max_request_bytes must not be negative")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.SessionTimeout <= 0 {
		return errors.New("security.session_timeout must be positive")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("security.sweep_interval must not be negative")
	}
	if cfg.PrivateSalt == "" {
		return errors.New("security.private_salt is required")
	}
	if cfg.AuthCookieName == "" || strings.ContainsAny(cfg.AuthCookieName, "=; \t") {
		return fmt.Errorf("security.auth_cookie_name %q is not a valid cookie name", cfg.AuthCookieName)
	}
	switch cfg.AuthVariant {
	case AuthVariantFull, AuthVariantGuest:
	default:
		return fmt.Errorf("security.auth_variant %q: want %s or %s", cfg.AuthVariant, AuthVariantFull, AuthVariantGuest)
	}
	if cfg.LoginRate < 0 || cfg.LoginBurst < 0 {
		return errors.New("security.login_rate and login_burst must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case BackendMemory:
	case BackendBadger:
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger backend")
		}
	default:
		return fmt.Errorf("storage.backend %q: want %s or %s", cfg.Backend, BackendMemory, BackendBadger)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", cfg.Path)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is unknown", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is unknown", cfg.Format)
	}
	return nil
}
