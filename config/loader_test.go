package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFromFile("")
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}

	if cfg.Storage.Type != StorageMemory {
		t.Errorf("Storage.Type = %q, want %q", cfg.Storage.Type, StorageMemory)
	}
	if !cfg.Persistence.Enabled || cfg.Persistence.Path != "./data/locks.json" {
		t.Errorf("Persistence = %+v, want enabled with ./data/locks.json", cfg.Persistence)
	}
	if cfg.Persistence.Interval != 30*time.Second {
		t.Errorf("Persistence.Interval = %v, want 30s", cfg.Persistence.Interval)
	}
	if cfg.Sweep.Interval != 60*time.Second {
		t.Errorf("Sweep.Interval = %v, want 60s", cfg.Sweep.Interval)
	}
	if cfg.Redis.KeyPrefix != "lock:" {
		t.Errorf("Redis.KeyPrefix = %q, want lock:", cfg.Redis.KeyPrefix)
	}
	if len(cfg.Auth.APIKeys) != 0 {
		t.Errorf("Auth.APIKeys = %v, want none", cfg.Auth.APIKeys)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  listen_addr: ":9000"
storage:
  type: redis
redis:
  addr: "redis.internal:6380"
  db: 3
  key_prefix: "svc:"
  dial_timeout: 2s
auth:
  api_keys: ["k1", "k2"]
`)

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("Server.ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Storage.Type != StorageRedis {
		t.Errorf("Storage.Type = %q", cfg.Storage.Type)
	}
	if cfg.Redis.Addr != "redis.internal:6380" || cfg.Redis.DB != 3 || cfg.Redis.KeyPrefix != "svc:" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Redis.DialTimeout != 2*time.Second {
		t.Errorf("Redis.DialTimeout = %v", cfg.Redis.DialTimeout)
	}
	if len(cfg.Auth.APIKeys) != 2 {
		t.Errorf("Auth.APIKeys = %v", cfg.Auth.APIKeys)
	}
	// untouched sections keep their defaults
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"persistence": {"enabled": false}, "sweep": {"interval": "5s"}}`)

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}
	if cfg.Persistence.Enabled {
		t.Error("Persistence.Enabled = true, want false")
	}
	if cfg.Sweep.Interval != 5*time.Second {
		t.Errorf("Sweep.Interval = %v, want 5s", cfg.Sweep.Interval)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "redis:\n  addr: \"file:6379\"\n")
	t.Setenv("LOCKSVC_STORAGE__TYPE", "redis")
	t.Setenv("LOCKSVC_REDIS__ADDR", "env:6379")
	t.Setenv("LOCKSVC_REDIS__KEY_PREFIX", "env:")
	t.Setenv("LOCKSVC_PERSISTENCE__INTERVAL", "45s")
	t.Setenv("LOCKSVC_AUTH__API_KEYS", "alpha, beta,,gamma")

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}

	if cfg.Storage.Type != StorageRedis {
		t.Errorf("Storage.Type = %q", cfg.Storage.Type)
	}
	if cfg.Redis.Addr != "env:6379" {
		t.Errorf("Redis.Addr = %q, want env override", cfg.Redis.Addr)
	}
	if cfg.Redis.KeyPrefix != "env:" {
		t.Errorf("Redis.KeyPrefix = %q", cfg.Redis.KeyPrefix)
	}
	if cfg.Persistence.Interval != 45*time.Second {
		t.Errorf("Persistence.Interval = %v", cfg.Persistence.Interval)
	}
	want := []string{"alpha", "beta", "gamma"}
	if strings.Join(cfg.Auth.APIKeys, ",") != strings.Join(want, ",") {
		t.Errorf("Auth.APIKeys = %v, want %v", cfg.Auth.APIKeys, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*AppConfig) {}},
		{
			name:    "empty listen addr",
			mutate:  func(c *AppConfig) { c.Server.ListenAddr = "" },
			wantErr: "server.listen_addr",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *AppConfig) { c.Storage.Type = "etcd" },
			wantErr: "storage.type",
		},
		{
			name: "redis without addr",
			mutate: func(c *AppConfig) {
				c.Storage.Type = StorageRedis
				c.Redis.Addr = ""
			},
			wantErr: "redis.addr",
		},
		{
			name:    "persistence without path",
			mutate:  func(c *AppConfig) { c.Persistence.Path = "" },
			wantErr: "persistence.path",
		},
		{
			name: "disabled persistence needs no path",
			mutate: func(c *AppConfig) {
				c.Persistence.Enabled = false
				c.Persistence.Path = ""
			},
		},
		{
			name:    "zero sweep interval",
			mutate:  func(c *AppConfig) { c.Sweep.Interval = 0 },
			wantErr: "sweep.interval",
		},
		{
			name:    "cert without key",
			mutate:  func(c *AppConfig) { c.Server.CertFile = "server.crt" },
			wantErr: "cert_file",
		},
		{
			name:    "blank api key",
			mutate:  func(c *AppConfig) { c.Auth.APIKeys = []string{"ok", " "} },
			wantErr: "auth.api_keys",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *AppConfig) { c.Limits.RateLimitBurst = 0 },
			wantErr: "rate_limit_burst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateConfig() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigTLSEnabled(t *testing.T) {
	if (ServerConfig{}).TLSEnabled() {
		t.Error("TLSEnabled() = true for empty config")
	}
	if !(ServerConfig{CertFile: "a", KeyFile: "b"}).TLSEnabled() {
		t.Error("TLSEnabled() = false with cert and key")
	}
}
