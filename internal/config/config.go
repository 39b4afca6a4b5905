package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the application
type Config struct {
	// ListenAddr is the address and port for the web server
	ListenAddr string `toml:"listen_addr"`

	// BaseURL is the externally-visible URL of this instance. The OAuth
	// redirect URI is derived from it.
	BaseURL string `toml:"base_url"`

	// GoogleClientID is the OAuth2 client ID from the Google Cloud console
	GoogleClientID string `toml:"google_client_id"`

	// GoogleClientSecret is the OAuth2 client secret
	GoogleClientSecret string `toml:"google_client_secret"`

	// GoogleProjectID is the Google Cloud project the credentials belong to
	GoogleProjectID string `toml:"google_project_id"`

	// SessionSecret signs the session cookie. Left empty, the server
	// generates a random key at startup, which invalidates sessions on
	// restart.
	SessionSecret string `toml:"session_secret"`

	// ScanWorkers is the number of concurrent thumbnail fetches during a scan
	ScanWorkers int `toml:"scan_workers"`

	// ThumbnailSize is the Slides API thumbnail size: SMALL, MEDIUM or LARGE
	ThumbnailSize string `toml:"thumbnail_size"`

	// LogDir is where log files are written in development mode
	LogDir string `toml:"log_dir"`
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		ListenAddr:    DefaultListenAddr,
		BaseURL:       "http://localhost:8000",
		ScanWorkers:   DefaultScanWorkers,
		ThumbnailSize: "MEDIUM",
		LogDir:        "./logs",
	}
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	// Start with default configuration
	config := defaultConfig()

	// Try to load from config.toml if it exists
	configPath := "config.toml"
	if path := os.Getenv("CHOMIKAI_CONFIG"); path != "" {
		configPath = path
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	// Override with environment variables if set
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if base := os.Getenv("BASE_URL"); base != "" {
		config.BaseURL = base
	}
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
		config.GoogleClientID = id
	}
	if secret := os.Getenv("GOOGLE_CLIENT_SECRET"); secret != "" {
		config.GoogleClientSecret = secret
	}
	if project := os.Getenv("GOOGLE_PROJECT_ID"); project != "" {
		config.GoogleProjectID = project
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		config.SessionSecret = secret
	}
	if workers := os.Getenv("SCAN_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid SCAN_WORKERS value %q: %w", workers, err)
		}
		config.ScanWorkers = n
	}
	if size := os.Getenv("THUMBNAIL_SIZE"); size != "" {
		config.ThumbnailSize = size
	}
	if logDir := os.Getenv("LOG_DIR"); logDir != "" {
		config.LogDir = logDir
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.ScanWorkers < 1 {
		return fmt.Errorf("scan_workers must be at least 1, got %d", c.ScanWorkers)
	}

	c.ThumbnailSize = strings.ToUpper(c.ThumbnailSize)
	switch c.ThumbnailSize {
	case "SMALL", "MEDIUM", "LARGE":
	default:
		return fmt.Errorf("thumbnail_size must be SMALL, MEDIUM or LARGE, got %q", c.ThumbnailSize)
	}

	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	return nil
}

// RedirectURI returns the OAuth2 callback URL for this instance
func (c *Config) RedirectURI() string {
	return c.BaseURL + "/oauth2callback"
}
