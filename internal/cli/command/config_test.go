package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/foxhorn/foxyserver/internal/server/config"
)

func TestConfigShow_MasksSecrets(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 127.0.0.1:9090
security:
  private_salt: a-very-private-salt-value
  admin_user: admin
  admin_password_hash: $argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA
`)

	out, err := runApp(t, "", "-c", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "127.0.0.1:9090") {
		t.Errorf("config show = %q, want the configured addr", out)
	}
	if strings.Contains(out, "a-very-private-salt-value") || strings.Contains(out, "argon2id") {
		t.Errorf("config show leaked a secret:\n%s", out)
	}
}

func TestConfigShow_JSON(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	out, err := runApp(t, "", "-c", path, "-o", "json", "config", "show")
	if err != nil {
		t.Fatalf("config show -o json error = %v", err)
	}

	var cfg config.ServerConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Server.Addr != config.DefaultAddr {
		t.Errorf("server.addr = %q, want default %q", cfg.Server.Addr, config.DefaultAddr)
	}
}

func TestConfigCheck(t *testing.T) {
	path := writeConfig(t, "security:\n  device_id: node-1\n")
	out, err := runApp(t, "", "-c", path, "config", "check")
	if err != nil {
		t.Fatalf("config check error = %v", err)
	}
	if !strings.Contains(out, "warning:") {
		t.Errorf("config check = %q, want the built-in salt warning", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "configuration ok") {
		t.Errorf("config check = %q, want configuration ok", out)
	}
}

func TestConfigCheck_Invalid(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: mongo\n")
	if _, err := runApp(t, "", "-c", path, "config", "check"); err == nil {
		t.Error("config check with unknown backend error = nil, want error")
	}
}
