package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"faultfs/internal/fault"
)

// getConfigDir returns the config directory path.
// Uses FAULTFS_CONFIG_DIR env var if set, otherwise defaults to ~/.faultfs.
// This is computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("FAULTFS_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".faultfs")
}

// ConfigDir returns the configuration directory path
func ConfigDir() string {
	return getConfigDir()
}

// DefaultConfigPath returns the config file path used when --config is not given
func DefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// PidPath returns the PID file path
func PidPath() string {
	return filepath.Join(getConfigDir(), "daemon.pid")
}

// LockPath returns the lock file path
func LockPath() string {
	return filepath.Join(getConfigDir(), "daemon.lock")
}

// LogPath returns the log file path.
// Uses FAULTFS_DAEMON_LOG env var if set, otherwise defaults to config_dir/daemon.log.
func LogPath() string {
	if envPath := os.Getenv("FAULTFS_DAEMON_LOG"); envPath != "" {
		return envPath
	}
	return filepath.Join(getConfigDir(), "daemon.log")
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(getConfigDir(), 0700)
}

// Config is the daemon configuration from config.yaml.
type Config struct {
	FaultEngine bool     `yaml:"fault_engine"` // master switch for fault interception (default: off)
	LogLevel    string   `yaml:"log_level"`    // logging level: trace, debug, info, warn, off (default: off)
	Export      string   `yaml:"export"`       // directory exported to clients (required)
	Listen      string   `yaml:"listen"`       // NFS listen address (default: 127.0.0.1:0)
	Inject      []string `yaml:"inject"`       // fault directives: "<category> <ERROR> <operation>..."
}

// ApplyDefaults fills zero-value fields with their defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:0"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "off"
	}
}

// LoggingEnabled returns whether logging is enabled (any level other than "off", "none" or empty).
func (cfg *Config) LoggingEnabled() bool {
	level := strings.ToLower(cfg.LogLevel)
	return level != "" && level != "off" && level != "none"
}

// Load reads the config file, applies defaults and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if cfg.Export == "" {
		return nil, fmt.Errorf("config %s: export directory is required", path)
	}
	return &cfg, nil
}

// BuildTable compiles the inject directives into a fault table.
// Each directive line has the form "<category> <ERROR> <operation>...".
// The table built so far is always returned, together with the first error,
// so callers can report which bindings were committed before the bad token.
func (cfg *Config) BuildTable() (*fault.Table, error) {
	table := fault.NewTable()
	for i, line := range cfg.Inject {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return table, fmt.Errorf("inject directive %d: want \"<category> <error> <operation>...\", got %q", i+1, line)
		}
		if err := fault.Apply(table, fields[0], fields[1], fields[2:]); err != nil {
			return table, fmt.Errorf("inject directive %d (%q): %w", i+1, line, err)
		}
	}
	return table, nil
}
