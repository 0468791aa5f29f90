package config

import "time"

// ServerConfig is the root configuration for foxy-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" json:"server"`
	Security SecuritySection `koanf:"security" json:"security"`
	Files    FilesSection    `koanf:"files" json:"files"`
	Storage  StorageSection  `koanf:"storage" json:"storage"`
	Metrics  MetricsSection  `koanf:"metrics" json:"metrics"`
	Log      LogSection      `koanf:"log" json:"log"`
}

// ServerSection configures the listener and connection handling.
type ServerSection struct {
	Addr string `koanf:"addr" json:"addr"`

	// MaxWorkers bounds concurrently served connections; 0 is unbounded.
	MaxWorkers int64 `koanf:"max_workers" json:"max_workers"`

	ReadTimeout  time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" json:"write_timeout"`

	// AcceptRate limits accepted connections per second; 0 disables it.
	AcceptRate  float64 `koanf:"accept_rate" json:"accept_rate"`
	AcceptBurst int     `koanf:"accept_burst" json:"accept_burst"`

	MaxRequestBytes int `koanf:"max_request_bytes" json:"max_request_bytes"`
}

// SecuritySection configures sessions and authentication.
type SecuritySection struct {
	// PrivateSalt is mixed into every auth token.
	PrivateSalt string `koanf:"private_salt" json:"private_salt"`

	// DeviceID identifies this host in auth tokens. Empty derives it from
	// the host name.
	DeviceID string `koanf:"device_id" json:"device_id"`

	SessionTimeout time.Duration `koanf:"session_timeout" json:"session_timeout"`
	AuthCookieName string        `koanf:"auth_cookie_name" json:"auth_cookie_name"`

	// AuthVariant is "full" (credential provider) or "guest" (guest only).
	AuthVariant string `koanf:"auth_variant" json:"auth_variant"`

	// SweepInterval removes expired sessions periodically; 0 disables it.
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval"`

	// AdminUser and AdminPasswordHash seed an administrator at startup.
	AdminUser         string `koanf:"admin_user" json:"admin_user"`
	AdminPasswordHash string `koanf:"admin_password_hash" json:"admin_password_hash"`

	GuestPermissions []int `koanf:"guest_permissions" json:"guest_permissions"`

	// LoginRate is allowed login attempts per second per host; 0 disables it.
	LoginRate  float64 `koanf:"login_rate" json:"login_rate"`
	LoginBurst int     `koanf:"login_burst" json:"login_burst"`
}

// FilesSection configures static file serving.
type FilesSection struct {
	Root            string `koanf:"root" json:"root"`
	DefaultLanguage string `koanf:"default_language" json:"default_language"`

	// LoginView is the file served by GET /auth/log-on.
	LoginView string `koanf:"login_view" json:"login_view"`
}

// StorageSection configures the credential provider.
type StorageSection struct {
	// Backend is "memory" or "badger".
	Backend string `koanf:"backend" json:"backend"`
	DataDir string `koanf:"data_dir" json:"data_dir"`
}

// MetricsSection configures the metrics endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Path    string `koanf:"path" json:"path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}
