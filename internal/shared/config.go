package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is the prefix for environment overrides, e.g. YTFETCH_BASE_URL.
const EnvPrefix = "ytfetch"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Database  DatabaseConfig  `toml:"database"`
	Intervals IntervalsConfig `toml:"intervals"`
	Downloads DownloadsConfig `toml:"downloads"`
	Log       LogConfig       `toml:"log"`
}

// BackendConfig contains settings for the task backend.
type BackendConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// IntervalsConfig holds the cadence of every timer-driven loop, in milliseconds.
type IntervalsConfig struct {
	PollMS     int `toml:"poll_ms"`
	ProbeMS    int `toml:"probe_ms"`
	DebounceMS int `toml:"debounce_ms"`
}

// DownloadsConfig controls where materialized files are written.
type DownloadsConfig struct {
	Directory string `toml:"directory"`
}

// LogConfig controls logger verbosity and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// envOverrides lists the settings that may be overridden from the environment.
type envOverrides struct {
	BaseURL     string `envconfig:"BASE_URL"`
	DBPath      string `envconfig:"DB_PATH"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	DownloadDir string `envconfig:"DOWNLOAD_DIR"`
}

// PollInterval returns the task poll cadence.
func (c IntervalsConfig) PollInterval() time.Duration { return msOr(c.PollMS, 1000) }

// ProbeInterval returns the connectivity probe cadence.
func (c IntervalsConfig) ProbeInterval() time.Duration { return msOr(c.ProbeMS, 2000) }

// DebounceDelay returns the quiet period for search and suggestion input.
func (c IntervalsConfig) DebounceDelay() time.Duration { return msOr(c.DebounceMS, 300) }

// Timeout returns the HTTP client timeout for backend requests.
func (c BackendConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func msOr(ms, fallback int) time.Duration {
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults, and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays YTFETCH_* environment variables onto config.
func ApplyEnv(config *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if env.BaseURL != "" {
		config.Backend.BaseURL = env.BaseURL
	}
	if env.DBPath != "" {
		config.Database.Path = env.DBPath
	}
	if env.LogLevel != "" {
		config.Log.Level = env.LogLevel
	}
	if env.DownloadDir != "" {
		config.Downloads.Directory = env.DownloadDir
	}
	return nil
}

// Validate reports settings that cannot work at all.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.Backend.BaseURL)
	if base == "" {
		return fmt.Errorf("%w: backend.base_url is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("%w: backend.base_url must be http(s): %s", ErrInvalidConfig, base)
	}
	if c.Backend.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: backend.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
