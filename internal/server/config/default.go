package config

import "time"

// Default configuration values.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultMaxWorkers      = 256
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultAcceptBurst     = 100
	DefaultMaxRequestBytes = 1 << 20

	// BuiltInSalt is the salt used when none is configured. Deployments
	// must override it.
	BuiltInSalt = "7y8Mg8eMAA8ji8imGksySnhk8jadq6mkS4kaF0Cgsx2xYPLT0FMK8kOQTrkRnr8"

	DefaultSessionTimeout = time.Hour
	DefaultAuthCookieName = "___foxyAuthToken"
	DefaultSweepInterval  = 5 * time.Minute
	DefaultLoginBurst     = 5

	DefaultFilesRoot   = "./html"
	DefaultLanguage    = "en-US"
	DefaultLoginView   = "/login.html"
	DefaultMetricsPath = "/metrics"
	DefaultDataDir     = "./data"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
)

// Auth variants.
const (
	AuthVariantFull  = "full"
	AuthVariantGuest = "guest"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultAddr,
			MaxWorkers:      DefaultMaxWorkers,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			AcceptBurst:     DefaultAcceptBurst,
			MaxRequestBytes: DefaultMaxRequestBytes,
		},
		Security: SecuritySection{
			PrivateSalt:    BuiltInSalt,
			SessionTimeout: DefaultSessionTimeout,
			AuthCookieName: DefaultAuthCookieName,
			AuthVariant:    AuthVariantFull,
			SweepInterval:  DefaultSweepInterval,
			LoginBurst:     DefaultLoginBurst,
		},
		Files: FilesSection{
			Root:            DefaultFilesRoot,
			DefaultLanguage: DefaultLanguage,
			LoginView:       DefaultLoginView,
		},
		Storage: StorageSection{
			Backend: BackendMemory,
			DataDir: DefaultDataDir,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
