package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mergebox/mergebox/internal/filelist"
	"github.com/mergebox/mergebox/internal/logging"
	"github.com/mergebox/mergebox/internal/mergesdk"
	"github.com/mergebox/mergebox/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".mergebox", "config.json")
	DefaultDownloadDir = filepath.Join(home, "Downloads")
	DefaultServerURL   = mergesdk.DefaultBaseURL
)

var (
	ErrNoServerURL      = errors.New("config: server url missing")
	ErrInvalidServerURL = errors.New("config: invalid server url")
	ErrNegativeTimeout  = errors.New("config: timeout must not be negative")
)

type Config struct {
	ServerURL      string
	DownloadDir    string
	RequestTimeout time.Duration // 0 means no timeout
	AlertTimeout   time.Duration
	LogFile        string
	Debug          bool
	Path           string
}

// fileConfig is the on-disk form. Durations are stored as strings ("30s")
// so the file stays readable and viper can parse it back.
type fileConfig struct {
	ServerURL      string `json:"server_url"`
	DownloadDir    string `json:"download_dir"`
	RequestTimeout string `json:"request_timeout,omitempty"`
	AlertTimeout   string `json:"alert_timeout,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
	Debug          bool   `json:"debug,omitempty"`
}

// Validate checks the config and fills in defaults. Paths are made absolute.
func (c *Config) Validate() error {
	c.ServerURL = strings.TrimSpace(c.ServerURL)
	if c.ServerURL == "" {
		return ErrNoServerURL
	}
	if err := utils.ValidateURL(c.ServerURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidServerURL, err)
	}
	c.ServerURL = utils.NormalizeURL(c.ServerURL)

	if c.RequestTimeout < 0 || c.AlertTimeout < 0 {
		return ErrNegativeTimeout
	}
	if c.AlertTimeout == 0 {
		c.AlertTimeout = filelist.DefaultAlertTimeout
	}

	if c.DownloadDir == "" {
		c.DownloadDir = DefaultDownloadDir
	}
	if c.LogFile == "" {
		c.LogFile = logging.DefaultLogFilePath
	}

	var err error
	if c.DownloadDir, err = utils.ResolvePath(c.DownloadDir); err != nil {
		return fmt.Errorf("config: download dir: %w", err)
	}
	if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
		return fmt.Errorf("config: log file: %w", err)
	}
	if c.Path != "" {
		if c.Path, err = utils.ResolvePath(c.Path); err != nil {
			return fmt.Errorf("config: path: %w", err)
		}
	}

	return nil
}

// SDKConfig returns the client settings for the SDK
func (c *Config) SDKConfig() *mergesdk.Config {
	return &mergesdk.Config{
		BaseURL: c.ServerURL,
		Timeout: c.RequestTimeout,
		Debug:   c.Debug,
	}
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	fc := fileConfig{
		ServerURL:   c.ServerURL,
		DownloadDir: c.DownloadDir,
		LogFile:     c.LogFile,
		Debug:       c.Debug,
	}
	if c.RequestTimeout > 0 {
		fc.RequestTimeout = c.RequestTimeout.String()
	}
	if c.AlertTimeout > 0 {
		fc.AlertTimeout = c.AlertTimeout.String()
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
