package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pulseview/pulseview/internal/backend"
	"github.com/pulseview/pulseview/internal/models"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Device  DeviceConfig  `yaml:"device"`
	UI      UIConfig      `yaml:"ui"`
}

// BackendConfig holds backend connection settings
type BackendConfig struct {
	// BaseURL overrides platform resolution when set.
	BaseURL string `yaml:"base_url,omitempty"`

	// Platform picks the default base URL when BaseURL is empty.
	Platform models.Platform `yaml:"platform"`

	Transport      models.TransportMode `yaml:"transport"`
	TimeoutMs      int                  `yaml:"timeout_ms"`
	PollIntervalMs int                  `yaml:"poll_interval_ms"`
}

// DeviceConfig identifies this client to the backend on registration
type DeviceConfig struct {
	DeviceID   string `yaml:"device_id"`
	DeviceType string `yaml:"device_type"`
	AppVersion string `yaml:"app_version"`
	UserID     string `yaml:"user_id,omitempty"`
}

// UIConfig holds UI-related settings
type UIConfig struct {
	Theme        string `yaml:"theme"`
	LogTailLines int    `yaml:"log_tail_lines"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Platform:       models.PlatformLocal,
			Transport:      models.TransportPolling,
			TimeoutMs:      10000,
			PollIntervalMs: 1000,
		},
		Device: DeviceConfig{
			DeviceID:   "pulseview-dev",
			DeviceType: "terminal",
			AppVersion: "0.1.0",
		},
		UI: UIConfig{
			Theme:        "auto",
			LogTailLines: 500,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "pulseview"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Load loads the configuration from disk and applies environment
// overrides. Returns the config, whether this is a first run (no config
// exists), and any error.
func Load() (*Config, bool, error) {
	// Best-effort .env load so PULSEVIEW_* can live next to the repo.
	_ = godotenv.Load()

	path, err := ConfigPath()
	if err != nil {
		return nil, false, err
	}

	cfg := DefaultConfig()
	firstRun := false

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, false, err
		}
		firstRun = true
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, false, err
	}

	cfg.ApplyEnv()
	return cfg, firstRun, nil
}

// ApplyEnv overlays PULSEVIEW_* environment variables onto the config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PULSEVIEW_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("PULSEVIEW_PLATFORM"); v != "" {
		c.Backend.Platform = models.Platform(v)
	}
	if v := os.Getenv("PULSEVIEW_TRANSPORT"); v != "" {
		c.Backend.Transport = models.TransportMode(v)
	}
	if v := os.Getenv("PULSEVIEW_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Backend.PollIntervalMs = n
		}
	}
	if v := os.Getenv("PULSEVIEW_DEVICE_ID"); v != "" {
		c.Device.DeviceID = v
	}
}

// ResolveBaseURL returns the backend base URL: the explicit override if
// set, otherwise the platform default. Called once at startup; the
// result is immutable for the process lifetime.
func (c *Config) ResolveBaseURL() string {
	if c.Backend.BaseURL != "" {
		return c.Backend.BaseURL
	}
	return backend.DefaultBaseURL(c.Backend.Platform)
}

// Save writes the configuration to disk
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Write atomically: write to temp file, then rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
