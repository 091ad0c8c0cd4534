package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "DEBUG"

sessions:
  heartbeat_interval: 20s
  default_persistence_mode: PERSISTENT

fixp:
  keep_alive_interval: 5s

logger:
  compaction_size: 1048576

admin:
  listen_addr: "127.0.0.1:7780"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG', got %q", cfg.Logging.Level)
	}
	// Format/Output were left unset in the file, so ApplyDefaults fills them in.
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Sessions.HeartbeatInterval != 20*time.Second {
		t.Errorf("Expected heartbeat interval 20s, got %v", cfg.Sessions.HeartbeatInterval)
	}
	if cfg.FIXP.KeepAliveInterval != 5*time.Second {
		t.Errorf("Expected FIXP keepalive 5s, got %v", cfg.FIXP.KeepAliveInterval)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Admin.ListenAddr != "127.0.0.1:7780" {
		t.Errorf("Expected default admin listen addr, got %q", cfg.Admin.ListenAddr)
	}
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "NOT_A_LEVEL"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected Load to fail validation for an invalid log level")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "WARN"
	cfg.Sessions.HeartbeatInterval = 45 * time.Second

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load after SaveConfig failed: %v", err)
	}
	if loaded.Logging.Level != "WARN" {
		t.Errorf("Expected round-tripped level 'WARN', got %q", loaded.Logging.Level)
	}
	if loaded.Sessions.HeartbeatInterval != 45*time.Second {
		t.Errorf("Expected round-tripped heartbeat interval 45s, got %v", loaded.Sessions.HeartbeatInterval)
	}
}

func TestMustLoad_MissingFileReturnsActionableError(t *testing.T) {
	tmpDir := t.TempDir()
	missing := filepath.Join(tmpDir, "missing.yaml")

	_, err := MustLoad(missing)
	if err == nil {
		t.Fatal("Expected MustLoad to fail for a missing explicit config path")
	}
}

func TestByteSizeDecodeHook_HumanReadableSizes(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logger:
  compaction_size: "4MiB"
  max_buffer_bytes: "256Mi"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logger.CompactionSize != 4<<20 {
		t.Errorf("Expected compaction_size 4MiB, got %d", cfg.Logger.CompactionSize)
	}
	if cfg.Logger.MaxBufferBytes != 256<<20 {
		t.Errorf("Expected max_buffer_bytes 256MiB, got %d", cfg.Logger.MaxBufferBytes)
	}
}

func TestByteSizeDecodeHook_RejectsInvalidSize(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logger:
  compaction_size: "not-a-size"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected Load to fail for an unparseable compaction_size")
	}
}

func TestDurationDecodeHook_HumanReadableDurations(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
sessions:
  heartbeat_interval: "1m30s"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Sessions.HeartbeatInterval != 90*time.Second {
		t.Errorf("Expected heartbeat interval 1m30s, got %v", cfg.Sessions.HeartbeatInterval)
	}
}
