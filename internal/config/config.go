package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	DataDir    string `json:"data_dir"`

	// Backend connection
	BackendURL     string        `json:"backend_url"`
	RequestTimeout time.Duration `json:"request_timeout"`

	// Dashboard behavior
	WatchInterval  time.Duration `json:"watch_interval"`
	PollInterval   time.Duration `json:"poll_interval"`
	DefaultMode    string        `json:"default_mode"`
	HistoryEnabled bool          `json:"history_enabled"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir: currentDir,
		DataDir:    filepath.Join(currentDir, "data"),

		BackendURL:     "http://127.0.0.1:8000",
		RequestTimeout: 30 * time.Second,

		WatchInterval:  10 * time.Second,
		PollInterval:   2 * time.Second,
		DefaultMode:    "multi_agent",
		HistoryEnabled: true,

		Debug: false,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("MARKETDECK_BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("MARKETDECK_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("MARKETDECK_DEFAULT_MODE"); val != "" {
		c.DefaultMode = val
	}
	if val := os.Getenv("MARKETDECK_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.RequestTimeout = d
		}
	}
	if val := os.Getenv("MARKETDECK_WATCH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.WatchInterval = d
		}
	}
	if val := os.Getenv("MARKETDECK_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.PollInterval = d
		}
	}
	if val := os.Getenv("MARKETDECK_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.HistoryEnabled = b
		}
	}
	if val := os.Getenv("MARKETDECK_DEBUG"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// HistoryDBPath returns the location of the local analysis history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}
