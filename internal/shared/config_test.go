package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ytfetch.db" {
			t.Errorf("expected database path ./ytfetch.db, got %s", config.Database.Path)
		}
		if config.Backend.BaseURL != "http://127.0.0.1:5000" {
			t.Errorf("expected backend URL http://127.0.0.1:5000, got %s", config.Backend.BaseURL)
		}
		if got := config.Intervals.PollInterval(); got != time.Second {
			t.Errorf("expected poll interval 1s, got %v", got)
		}
		if got := config.Intervals.ProbeInterval(); got != 2*time.Second {
			t.Errorf("expected probe interval 2s, got %v", got)
		}
		if got := config.Intervals.DebounceDelay(); got != 300*time.Millisecond {
			t.Errorf("expected debounce 300ms, got %v", got)
		}
	})

	t.Run("Interval Fallbacks", func(t *testing.T) {
		var iv IntervalsConfig
		if iv.PollInterval() != time.Second || iv.ProbeInterval() != 2*time.Second || iv.DebounceDelay() != 300*time.Millisecond {
			t.Errorf("zero intervals should fall back to defaults, got %v %v %v", iv.PollInterval(), iv.ProbeInterval(), iv.DebounceDelay())
		}

		var backend BackendConfig
		if backend.Timeout() != 30*time.Second {
			t.Errorf("expected default timeout 30s, got %v", backend.Timeout())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[backend]
base_url = "http://media.local:8000"
requests_per_second = 2.5

[intervals]
poll_ms = 500
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.BaseURL != "http://media.local:8000" {
			t.Errorf("expected base URL override, got %s", config.Backend.BaseURL)
		}
		if config.Backend.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 rps, got %v", config.Backend.RequestsPerSecond)
		}
		if config.Intervals.PollInterval() != 500*time.Millisecond {
			t.Errorf("expected poll 500ms, got %v", config.Intervals.PollInterval())
		}
		if config.Intervals.ProbeInterval() != 2*time.Second {
			t.Errorf("unset keys should keep defaults, got probe %v", config.Intervals.ProbeInterval())
		}
		if config.Database.Path != "./ytfetch.db" {
			t.Errorf("unset sections should keep defaults, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[backend]\nbase_url = \"ftp://nope\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("YTFETCH_BASE_URL", "https://env.example.com")
		t.Setenv("YTFETCH_DOWNLOAD_DIR", "/tmp/media")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Backend.BaseURL != "https://env.example.com" {
			t.Errorf("expected env base URL, got %s", config.Backend.BaseURL)
		}
		if config.Downloads.Directory != "/tmp/media" {
			t.Errorf("expected env download dir, got %s", config.Downloads.Directory)
		}
		if config.Database.Path != "./ytfetch.db" {
			t.Errorf("unset env should not change database path, got %s", config.Database.Path)
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "info"},
		{in: "debug", want: "debug"},
		{in: " WARN ", want: "warn"},
		{in: "nonsense", want: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in).String(); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestOpenerCommand(t *testing.T) {
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })

	t.Run("rejects non-http URLs", func(t *testing.T) {
		if _, err := openerCommand("file:///etc/passwd"); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})

	t.Run("linux uses xdg-open", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		cmd, err := openerCommand("https://www.youtube.com/watch?v=abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(cmd.Path) != "xdg-open" && cmd.Args[0] != "xdg-open" {
			t.Errorf("expected xdg-open, got %v", cmd.Args)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if _, err := openerCommand("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
