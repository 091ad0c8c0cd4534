package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Sessions(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Sessions.HeartbeatInterval != 30*time.Second {
		t.Errorf("Expected default heartbeat interval 30s, got %v", cfg.Sessions.HeartbeatInterval)
	}
	if cfg.Sessions.DefaultPersistenceMode != "PERSISTENT" {
		t.Errorf("Expected default persistence mode 'PERSISTENT', got %q", cfg.Sessions.DefaultPersistenceMode)
	}
	if cfg.Sessions.AllowLowerSeqnumLogon {
		t.Error("AllowLowerSeqnumLogon must default to false")
	}
}

func TestApplyDefaults_FIXP(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.FIXP.KeepAliveInterval != 10*time.Second {
		t.Errorf("Expected default FIXP keepalive 10s, got %v", cfg.FIXP.KeepAliveInterval)
	}
}

func TestApplyDefaults_Logger(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logger.CompactionSize != 4<<20 {
		t.Errorf("Expected default compaction size 4MiB, got %d", cfg.Logger.CompactionSize)
	}
	if cfg.Logger.MaxBufferBytes != 64<<20 {
		t.Errorf("Expected default max buffer bytes 64MiB, got %d", cfg.Logger.MaxBufferBytes)
	}
}

func TestApplyDefaults_Admin(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Admin.ListenAddr != "127.0.0.1:7780" {
		t.Errorf("Expected default admin listen addr '127.0.0.1:7780', got %q", cfg.Admin.ListenAddr)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)

	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090 when enabled, got %d", cfg.Metrics.Port)
	}

	disabled := &Config{}
	ApplyDefaults(disabled)
	if disabled.Metrics.Port != 0 {
		t.Errorf("Expected no default port when metrics disabled, got %d", disabled.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/gateway.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Sessions: SessionsConfig{
			HeartbeatInterval:      45 * time.Second,
			AllowLowerSeqnumLogon:  true,
			DefaultPersistenceMode: "transient",
		},
		Admin: AdminConfig{
			ListenAddr: "0.0.0.0:9999",
		},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Sessions.HeartbeatInterval != 45*time.Second {
		t.Errorf("Expected explicit heartbeat interval to be preserved, got %v", cfg.Sessions.HeartbeatInterval)
	}
	if !cfg.Sessions.AllowLowerSeqnumLogon {
		t.Error("Expected explicit AllowLowerSeqnumLogon=true to be preserved")
	}
	if cfg.Sessions.DefaultPersistenceMode != "TRANSIENT" {
		t.Errorf("Expected persistence mode normalized to 'TRANSIENT', got %q", cfg.Sessions.DefaultPersistenceMode)
	}
	if cfg.Admin.ListenAddr != "0.0.0.0:9999" {
		t.Errorf("Expected explicit admin listen addr to be preserved, got %q", cfg.Admin.ListenAddr)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.Sessions.HeartbeatInterval == 0 {
		t.Error("Default config missing heartbeat interval")
	}
	if cfg.FIXP.KeepAliveInterval == 0 {
		t.Error("Default config missing FIXP keepalive interval")
	}
	if cfg.Logger.CompactionSize == 0 {
		t.Error("Default config missing logger compaction size")
	}
	if cfg.Logger.MaxBufferBytes == 0 {
		t.Error("Default config missing logger max buffer bytes")
	}
	if cfg.Admin.ListenAddr == "" {
		t.Error("Default config missing admin listen addr")
	}
}
