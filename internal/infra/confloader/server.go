package confloader

import (
	"fmt"
	"log/slog"

	"github.com/foxhorn/foxyserver/internal/server/config"
)

// LoadServerConfig loads and verifies the server configuration on top of
// config.Default.
func LoadServerConfig(l *Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ReloadOnChange reloads the configuration through l whenever w reports a
// change and passes the verified result to apply. Invalid files are logged
// and ignored.
func ReloadOnChange(w *Watcher, l *Loader, logger *slog.Logger, apply func(*config.ServerConfig)) {
	w.OnChange(func(path string) {
		cfg, err := LoadServerConfig(l)
		if err != nil {
			logger.Warn("configuration reload failed", "file", path, "error", err)
			return
		}
		apply(cfg)
		logger.Info("configuration reloaded", "file", path)
	})
}
