package config

import "time"

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ExternalURL:     "localhost:8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			APIKeys: []string{},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Mode:   "production",
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: "",
		},
		Storage: StorageConfig{
			Type: StorageMemory,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			Username:     "",
			Password:     "",
			DB:           0,
			KeyPrefix:    "lock:",
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
		},
		Persistence: PersistenceConfig{
			Enabled:  true,
			Path:     "./data/locks.json",
			Interval: 30 * time.Second,
		},
		Sweep: SweepConfig{
			Interval: 60 * time.Second,
		},
		Limits: LimitsConfig{
			MaxTimeoutSeconds: 86400,
			RateLimitRPS:      1000,
			RateLimitBurst:    2000,
		},
	}
}
