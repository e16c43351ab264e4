// Package config handles configuration management for driverlink.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gowrishetty09/driverlink/internal/domain"
)

// Config holds all configuration for the agent.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Status  StatusConfig  `mapstructure:"status"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig points at the dispatch backend.
type BackendConfig struct {
	Endpoint string `mapstructure:"endpoint"` // ws:// or wss:// URL
}

// SyncConfig tunes the realtime synchronization core.
type SyncConfig struct {
	QueueCapacity        int           `mapstructure:"queue_capacity"`
	SendTTL              time.Duration `mapstructure:"send_ttl"`
	HeartbeatInterval    time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTTL         time.Duration `mapstructure:"heartbeat_ttl"`
	BatchInterval        time.Duration `mapstructure:"batch_interval"`
	BatchCapacity        int           `mapstructure:"batch_capacity"`
	ReconnectBaseDelay   time.Duration `mapstructure:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `mapstructure:"reconnect_max_delay"`
	ReconnectMaxAttempts int           `mapstructure:"reconnect_max_attempts"`
}

// StatusConfig configures the local read-only status endpoint.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default search paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.driverlink")
		v.AddConfigPath("/etc/driverlink")
	}

	// Environment variable prefix
	v.SetEnvPrefix("DRIVERLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - not an error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.endpoint", "")

	v.SetDefault("sync.queue_capacity", 250)
	v.SetDefault("sync.send_ttl", 5*time.Minute)
	v.SetDefault("sync.heartbeat_interval", 10*time.Second)
	v.SetDefault("sync.heartbeat_ttl", 45*time.Second)
	v.SetDefault("sync.batch_interval", 5*time.Second)
	v.SetDefault("sync.batch_capacity", 100)
	v.SetDefault("sync.reconnect_base_delay", time.Second)
	v.SetDefault("sync.reconnect_max_delay", 5*time.Second)
	v.SetDefault("sync.reconnect_max_attempts", 10)

	v.SetDefault("status.enabled", true)
	v.SetDefault("status.addr", "127.0.0.1:8791")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks the configuration for programming errors.
func Validate(cfg *Config) error {
	if cfg.Backend.Endpoint == "" {
		return domain.ErrMissingEndpoint
	}
	if !strings.HasPrefix(cfg.Backend.Endpoint, "ws://") && !strings.HasPrefix(cfg.Backend.Endpoint, "wss://") {
		return fmt.Errorf("backend.endpoint must be a ws:// or wss:// URL, got %q", cfg.Backend.Endpoint)
	}
	if cfg.Sync.QueueCapacity <= 0 {
		return fmt.Errorf("sync.queue_capacity must be positive, got %d", cfg.Sync.QueueCapacity)
	}
	if cfg.Sync.BatchCapacity <= 0 {
		return fmt.Errorf("sync.batch_capacity must be positive, got %d", cfg.Sync.BatchCapacity)
	}
	if cfg.Sync.ReconnectMaxAttempts <= 0 {
		return fmt.Errorf("sync.reconnect_max_attempts must be positive, got %d", cfg.Sync.ReconnectMaxAttempts)
	}
	return nil
}
