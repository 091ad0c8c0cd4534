package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wadaptive/artio-go/internal/bytesize"
)

// Config represents the gateway configuration.
//
// This structure captures static configuration for the gateway process:
//   - Logging and telemetry/profiling behavior
//   - Prometheus metrics server
//   - Session engine defaults (heartbeat interval, logon reset policy,
//     persistence mode)
//   - FIXP connection defaults (keepalive interval)
//   - Message logger / reordering buffer sizing
//
// Per-counterparty session identity (sender/target comp ids, credentials)
// is supplied at `acquire` time by the admin command stream, not baked
// into this file; Sessions here only carries process-wide defaults.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (GATEWAY_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// See Load for when environment variables are applied.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Sessions contains FIX session engine defaults
	Sessions SessionsConfig `mapstructure:"sessions" yaml:"sessions"`

	// FIXP contains FIXP connection engine defaults
	FIXP FIXPConfig `mapstructure:"fixp" yaml:"fixp"`

	// Logger contains message logger / reordering buffer configuration
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`

	// Admin contains the admin command stream (release/acquire) listener
	// configuration used by gatewayctl.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// SessionsConfig contains FIX session engine defaults applied to every
// session unless overridden at acquire time.
type SessionsConfig struct {
	// HeartbeatInterval is the default HeartBtInt applied to new sessions.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"required,gt=0" yaml:"heartbeat_interval"`

	// AllowLowerSeqnumLogon controls whether an acceptor will accept a
	// Logon whose MsgSeqNum is lower than next_recv_seq_no instead of
	// treating it as a terminal protocol error. Spec default: false.
	AllowLowerSeqnumLogon bool `mapstructure:"allow_lower_seqnum_logon" yaml:"allow_lower_seqnum_logon"`

	// DefaultPersistenceMode is applied to sessions that do not specify
	// one explicitly. Valid values: PERSISTENT, TRANSIENT.
	DefaultPersistenceMode string `mapstructure:"default_persistence_mode" validate:"required,oneof=PERSISTENT TRANSIENT" yaml:"default_persistence_mode"`
}

// FIXPConfig contains FIXP connection engine defaults.
type FIXPConfig struct {
	// KeepAliveInterval is the default keep_alive_interval_ms applied to
	// new FIXP connections.
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval" validate:"required,gt=0" yaml:"keep_alive_interval"`
}

// LoggerConfig contains message logger / reordering buffer sizing.
type LoggerConfig struct {
	// CompactionSize is the byte threshold at which the reordering
	// buffer's live range is relocated to the buffer head after a drain.
	// Accepts a plain byte count or a human-readable size such as "4MiB"
	// or "256Ki" (see internal/bytesize).
	CompactionSize int `mapstructure:"compaction_size" validate:"required,gt=0" yaml:"compaction_size"`

	// MaxBufferBytes bounds the reordering buffer's used byte range
	// (msglog.Logger.BufferPosition, which keeps counting emitted bytes
	// until a compaction) before Append reports back-pressure. Same
	// accepted formats as CompactionSize.
	MaxBufferBytes int `mapstructure:"max_buffer_bytes" validate:"required,gt=0" yaml:"max_buffer_bytes"`
}

// AdminConfig contains admin command stream (release/acquire) listener
// configuration consumed by gatewayctl.
type AdminConfig struct {
	// ListenAddr is the address the admin command stream listens on.
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GATEWAY_*)
//  2. Configuration file
//  3. Default values
//
// Environment variables are applied only when a configuration file is
// found, and only to keys that appear in that file. When no file is
// found, Load returns GetDefaultConfig() without reading the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  gatewayd init\n\n"+
				"Or specify a custom config file:\n"+
				"  gatewayd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  gatewayd init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		byteSizeDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts
// human-readable byte size strings ("4MiB", "256Ki", "1048576") to int,
// via internal/bytesize. This lets buffer-sizing fields like
// logger.compaction_size be written the way an operator would think of
// them instead of as a raw byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Int {
			return data, nil
		}

		size, err := bytesize.ParseByteSize(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid byte size %q: %w", data, err)
		}
		return int(size), nil
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory (.) if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gateway")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "gateway")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the init command).
func GetConfigDir() string {
	return getConfigDir()
}
