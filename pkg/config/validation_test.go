package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_MissingOutput(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Output = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for missing log output")
	}
}

func TestValidate_ZeroShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero shutdown timeout")
	}
}

func TestValidate_ZeroHeartbeatInterval(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Sessions.HeartbeatInterval = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for zero heartbeat interval")
	}
	if !strings.Contains(err.Error(), "HeartbeatInterval") {
		t.Errorf("Expected error to reference HeartbeatInterval, got: %v", err)
	}
}

func TestValidate_InvalidPersistenceMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Sessions.DefaultPersistenceMode = "STICKY"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid persistence mode")
	}
}

func TestValidate_ZeroFIXPKeepAlive(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.FIXP.KeepAliveInterval = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero FIXP keepalive interval")
	}
}

func TestValidate_ZeroCompactionSize(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logger.CompactionSize = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero compaction size")
	}
}

func TestValidate_MissingAdminListenAddr(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.ListenAddr = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for missing admin listen addr")
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for metrics port out of range")
	}
}

func TestValidate_InvalidSampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for sample rate above 1.0")
	}
}
