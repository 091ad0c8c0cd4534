package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values with sensible
// defaults.
//
// Default Strategy:
//   - Zero values (0, "", false) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applySessionsDefaults(&cfg.Sessions)
	applyFIXPDefaults(&cfg.FIXP)
	applyLoggerDefaults(&cfg.Logger)
	applyAdminDefaults(&cfg.Admin)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applySessionsDefaults sets FIX session engine defaults.
func applySessionsDefaults(cfg *SessionsConfig) {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	// AllowLowerSeqnumLogon defaults to false per the spec's open question
	// on acceptor behavior for a Logon bearing a lower-than-expected
	// MsgSeqNum: do not silently accept it.
	if cfg.DefaultPersistenceMode == "" {
		cfg.DefaultPersistenceMode = "PERSISTENT"
	}
	cfg.DefaultPersistenceMode = strings.ToUpper(cfg.DefaultPersistenceMode)
}

// applyFIXPDefaults sets FIXP connection engine defaults.
func applyFIXPDefaults(cfg *FIXPConfig) {
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = 10 * time.Second
	}
}

// applyLoggerDefaults sets message logger / reordering buffer defaults.
func applyLoggerDefaults(cfg *LoggerConfig) {
	if cfg.CompactionSize == 0 {
		cfg.CompactionSize = 4 << 20 // 4 MiB
	}
	if cfg.MaxBufferBytes == 0 {
		cfg.MaxBufferBytes = 64 << 20 // 64 MiB
	}
}

// applyAdminDefaults sets admin command stream defaults.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:7780"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
