package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels, e.g. LOCKSVC_REDIS__KEY_PREFIX.
const EnvPrefix = "LOCKSVC_"

// LoadConfig loads configuration from multiple sources with strict priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml, config.yml or config.json)
// 3. Defaults (lowest priority)
func LoadConfig() (AppConfig, error) {
	return LoadConfigFromFile("")
}

// LoadConfigFromFile loads configuration from multiple sources with a specific config file:
// 1. Environment variables (highest priority)
// 2. Specified config file or default config files
// 3. Defaults (lowest priority)
func LoadConfigFromFile(configFilePath string) (AppConfig, error) {
	k := koanf.New(".")

	// Load default configuration first
	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load default config: %w", err)
	}

	// Load from config file
	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return AppConfig{}, fmt.Errorf("specified config file %s not found: %w", configFilePath, err)
		}
		if err := k.Load(file.Provider(configFilePath), parserFor(configFilePath)); err != nil {
			return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	} else {
		configFiles := []string{"config.yaml", "config.yml", "config.json"}
		for _, configFile := range configFiles {
			if _, err := os.Stat(configFile); err == nil {
				if err := k.Load(file.Provider(configFile), parserFor(configFile)); err != nil {
					return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFile, err)
				}
				break
			}
		}
	}

	// Load environment variables with LOCKSVC_ prefix
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(path, ".json") {
		return json.Parser()
	}
	return yaml.Parser()
}

// envKeyValue maps LOCKSVC_REDIS__KEY_PREFIX to redis.key_prefix. List
// values are comma separated.
func envKeyValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "auth.api_keys" {
		var keys []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				keys = append(keys, part)
			}
		}
		return key, keys
	}
	return key, value
}

// validateConfig validates that required configuration fields are set
func validateConfig(cfg *AppConfig) error {
	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if (cfg.Server.CertFile == "") != (cfg.Server.KeyFile == "") {
		return fmt.Errorf("server.cert_file and server.key_file must be set together")
	}

	switch cfg.Storage.Type {
	case StorageMemory:
		if cfg.Persistence.Enabled {
			if cfg.Persistence.Path == "" {
				return fmt.Errorf("persistence.path is required when persistence is enabled")
			}
			if cfg.Persistence.Interval <= 0 {
				return fmt.Errorf("persistence.interval must be positive")
			}
		}
		if cfg.Sweep.Interval <= 0 {
			return fmt.Errorf("sweep.interval must be positive")
		}
	case StorageRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when storage.type is redis")
		}
		if cfg.Redis.DB < 0 {
			return fmt.Errorf("redis.db must not be negative")
		}
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q", StorageMemory, StorageRedis, cfg.Storage.Type)
	}

	for _, key := range cfg.Auth.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("auth.api_keys must not contain empty keys")
		}
	}

	if cfg.Limits.MaxTimeoutSeconds < 0 {
		return fmt.Errorf("limits.max_timeout_seconds must not be negative")
	}
	if cfg.Limits.RateLimitRPS < 0 {
		return fmt.Errorf("limits.rate_limit_rps must not be negative")
	}
	if cfg.Limits.RateLimitRPS > 0 && cfg.Limits.RateLimitBurst < 1 {
		return fmt.Errorf("limits.rate_limit_burst must be at least 1 when rate limiting is enabled")
	}

	return nil
}
