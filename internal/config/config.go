// Package config handles loading and resolving hws configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--feed-url, --db, --width, ...)
//  2. Environment variables HWS_FEED_URL, HWS_DB_PATH
//  3. config.json in the current working directory
//  4. Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultConfigFile  = "config.json"
	DefaultFormat      = "table"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
	DefaultRate        = 5.0
	DefaultFeedURL     = "https://data.hws.example/feed/"
	DefaultWidth       = 72
	DefaultHeight      = 16
	DefaultHControls   = "bottom"
	DefaultVControls   = "left"
	EnvFeedURL         = "HWS_FEED_URL"
	EnvDBPath          = "HWS_DB_PATH"
)

// File is the on-disk representation of config.json.
type File struct {
	DefaultFormat string  `json:"default_format"`
	Timeout       string  `json:"timeout"`
	Concurrency   int     `json:"concurrency"`
	Rate          float64 `json:"rate"`
	FeedURL       string  `json:"feed_url"`
	DBPath        string  `json:"db_path"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	HControls     string  `json:"hcontrols"`
	VControls     string  `json:"vcontrols"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Format      string
	Timeout     time.Duration
	Concurrency int
	Rate        float64
	FeedURL     string
	DBPath      string
	Width       int
	Height      int
	HControls   string
	VControls   string
	ConfigPath  string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
	Trace   bool
}

// Load resolves configuration. feedURLFlag and dbFlag are the raw --feed-url
// and --db values (empty when not given). Other flag overrides are applied
// by the caller afterwards.
func Load(feedURLFlag, dbFlag string) (*Config, error) {
	cfg := &Config{
		Format:      DefaultFormat,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		Rate:        DefaultRate,
		FeedURL:     DefaultFeedURL,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		HControls:   DefaultHControls,
		VControls:   DefaultVControls,
	}

	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if v := os.Getenv(EnvFeedURL); v != "" {
		cfg.FeedURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if feedURLFlag != "" {
		cfg.FeedURL = feedURLFlag
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".hws", "hws.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if a setting is out of range.
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return errors.New("feed URL not set: use --feed-url, " + EnvFeedURL + " or \"feed_url\" in config.json")
	}
	if c.Width < 20 || c.Height < 4 {
		return fmt.Errorf("chart size %dx%d too small (minimum 20x4)", c.Width, c.Height)
	}
	switch c.HControls {
	case "top", "bottom", "off":
	default:
		return fmt.Errorf("hcontrols %q: use top, bottom or off", c.HControls)
	}
	switch c.VControls {
	case "left", "right", "off":
	default:
		return fmt.Errorf("vcontrols %q: use left, right or off", c.VControls)
	}
	return nil
}

// loadFile attempts to read config.json from the current working directory.
// A missing file is reported with an error wrapping os.ErrNotExist.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.FeedURL != "" {
		cfg.FeedURL = f.FeedURL
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.Width > 0 {
		cfg.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Height = f.Height
	}
	if f.HControls != "" {
		cfg.HControls = f.HControls
	}
	if f.VControls != "" {
		cfg.VControls = f.VControls
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `hws config init`.
func Template() File {
	return File{
		DefaultFormat: DefaultFormat,
		Timeout:       DefaultTimeout.String(),
		Concurrency:   DefaultConcurrency,
		Rate:          DefaultRate,
		FeedURL:       DefaultFeedURL,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		HControls:     DefaultHControls,
		VControls:     DefaultVControls,
	}
}

// ReadFile parses the config file at path.
func ReadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
