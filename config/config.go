// Package config provides configuration management for lockservice.
// It handles loading and validating configuration from YAML or JSON files
// and environment variables.
package config

import "time"

// Storage backend names accepted by storage.type
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server      ServerConfig      `koanf:"server"`
	Auth        AuthConfig        `koanf:"auth"`
	Log         LogConfig         `koanf:"log"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Storage     StorageConfig     `koanf:"storage"`
	Redis       RedisConfig       `koanf:"redis"`
	Persistence PersistenceConfig `koanf:"persistence"`
	Sweep       SweepConfig       `koanf:"sweep"`
	Limits      LimitsConfig      `koanf:"limits"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr      string        `koanf:"listen_addr"`
	ExternalURL     string        `koanf:"external_url"`
	CertFile        string        `koanf:"cert_file"` // TLS is enabled when both cert_file and key_file are set
	KeyFile         string        `koanf:"key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (s ServerConfig) TLSEnabled() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

// AuthConfig holds authentication configuration. Authentication is
// disabled when no API keys are configured.
type AuthConfig struct {
	APIKeys []string `koanf:"api_keys"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Mode   string `koanf:"mode"` // owner id sanitization: production, development, debug
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled    bool   `koanf:"enabled"`
	ListenAddr string `koanf:"listen_addr"` // empty serves /metrics on the API listener
}

// StorageConfig selects the lock store backend
type StorageConfig struct {
	Type string `koanf:"type"` // "memory" or "redis"
}

// RedisConfig holds Redis backend configuration
type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	KeyPrefix    string        `koanf:"key_prefix"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
}

// PersistenceConfig holds snapshot settings for the memory backend
type PersistenceConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Path     string        `koanf:"path"`
	Interval time.Duration `koanf:"interval"`
}

// SweepConfig holds expired lock sweep settings for the memory backend
type SweepConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// LimitsConfig bounds what clients may request
type LimitsConfig struct {
	MaxTimeoutSeconds int64   `koanf:"max_timeout_seconds"`
	RateLimitRPS      float64 `koanf:"rate_limit_rps"` // zero disables rate limiting
	RateLimitBurst    int     `koanf:"rate_limit_burst"`
}
