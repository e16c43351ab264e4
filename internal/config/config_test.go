package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gowrishetty09/driverlink/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sync.QueueCapacity != 250 {
		t.Errorf("QueueCapacity = %d, want 250", cfg.Sync.QueueCapacity)
	}
	if cfg.Sync.HeartbeatInterval != 10*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 10s", cfg.Sync.HeartbeatInterval)
	}
	if cfg.Sync.HeartbeatTTL != 45*time.Second {
		t.Errorf("HeartbeatTTL = %v, want 45s", cfg.Sync.HeartbeatTTL)
	}
	if cfg.Sync.BatchInterval != 5*time.Second {
		t.Errorf("BatchInterval = %v, want 5s", cfg.Sync.BatchInterval)
	}
	if cfg.Sync.BatchCapacity != 100 {
		t.Errorf("BatchCapacity = %d, want 100", cfg.Sync.BatchCapacity)
	}
	if cfg.Sync.ReconnectMaxAttempts != 10 {
		t.Errorf("ReconnectMaxAttempts = %d, want 10", cfg.Sync.ReconnectMaxAttempts)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
backend:
  endpoint: wss://dispatch.example.com/ws
sync:
  queue_capacity: 50
  heartbeat_interval: 3s
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.Endpoint != "wss://dispatch.example.com/ws" {
		t.Errorf("Endpoint = %q", cfg.Backend.Endpoint)
	}
	if cfg.Sync.QueueCapacity != 50 {
		t.Errorf("QueueCapacity = %d, want 50", cfg.Sync.QueueCapacity)
	}
	if cfg.Sync.HeartbeatInterval != 3*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 3s", cfg.Sync.HeartbeatInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Sync.BatchCapacity != 100 {
		t.Errorf("BatchCapacity = %d, want default 100", cfg.Sync.BatchCapacity)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, _ := Load("")
		cfg.Backend.Endpoint = "wss://dispatch.example.com/ws"
		return cfg
	}

	if err := Validate(valid()); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}

	cfg := valid()
	cfg.Backend.Endpoint = ""
	if err := Validate(cfg); !errors.Is(err, domain.ErrMissingEndpoint) {
		t.Errorf("Validate(no endpoint) = %v, want ErrMissingEndpoint", err)
	}

	cfg = valid()
	cfg.Backend.Endpoint = "https://not-a-websocket"
	if err := Validate(cfg); err == nil {
		t.Error("Validate(http endpoint) = nil, want error")
	}

	cfg = valid()
	cfg.Sync.QueueCapacity = 0
	if err := Validate(cfg); err == nil {
		t.Error("Validate(zero queue capacity) = nil, want error")
	}

	cfg = valid()
	cfg.Sync.ReconnectMaxAttempts = -1
	if err := Validate(cfg); err == nil {
		t.Error("Validate(negative max attempts) = nil, want error")
	}
}
