package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const sampleConfigTemplate = `# Gateway Configuration File
#
# All values may be overridden with environment variables of the form
# GATEWAY_<SECTION>_<KEY>, e.g. GATEWAY_LOGGING_LEVEL=DEBUG.

logging:
  level: INFO
  format: text
  output: stdout

telemetry:
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: http://localhost:4040

shutdown_timeout: 30s

metrics:
  enabled: false
  port: 9090

sessions:
  heartbeat_interval: 30s
  allow_lower_seqnum_logon: false
  default_persistence_mode: PERSISTENT

fixp:
  keep_alive_interval: 10s

logger:
  # Accepts a plain byte count or a human-readable size ("4MiB", "256Ki")
  # when loaded via gatewayd; written here as plain byte counts.
  compaction_size: 4194304
  max_buffer_bytes: 67108864

admin:
  listen_addr: "127.0.0.1:7780"
`

// InitConfig writes a sample configuration file to the default config
// path, returning that path. It fails if a file already exists there
// unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a sample configuration file to path, failing
// if one already exists there unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfigTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
