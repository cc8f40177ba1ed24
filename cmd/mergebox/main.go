package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mergebox/mergebox/internal/config"
	"github.com/mergebox/mergebox/internal/filelist"
	"github.com/mergebox/mergebox/internal/logging"
	"github.com/mergebox/mergebox/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
	envPrefix      = "MERGEBOX"
)

var rootCmd = &cobra.Command{
	Use:     "mergebox",
	Short:   "Upload PDFs to a MergeBox server and download the merged document",
	Version: version.Detailed(),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// the TUI owns the terminal, logs only go to the file
		cfg, closeLog, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer closeLog()

		cmd.SilenceUsage = true
		defer slog.Info("Bye!")
		return runTUI(cmd.Context(), cfg)
	},
}

func init() {
	addGlobalFlags(rootCmd)
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("server", "s", config.DefaultServerURL, "MergeBox server URL")
	flags.StringP("download-dir", "o", config.DefaultDownloadDir, "Directory merged PDFs are saved to")
	flags.StringP("config", "c", config.DefaultConfigPath, "MergeBox config file")
	flags.Duration("timeout", 0, "Request timeout, 0 waits forever")
	flags.Duration("alert-timeout", filelist.DefaultAlertTimeout, "How long alerts stay visible")
	flags.Bool("debug", false, "Verbose logs and HTTP dumps")
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges flags, MERGEBOX_* env vars and the config file, in that
// order of precedence. The result is not validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(f.Value.String())
	} else if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		v.SetConfigFile(envPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".mergebox"))
		v.AddConfigPath(filepath.Join(home, ".config", "mergebox"))
		v.SetConfigName(configFileName)
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	v.BindPFlag("server_url", cmd.Flag("server"))
	v.BindPFlag("download_dir", cmd.Flag("download-dir"))
	v.BindPFlag("request_timeout", cmd.Flag("timeout"))
	v.BindPFlag("alert_timeout", cmd.Flag("alert-timeout"))
	v.BindPFlag("debug", cmd.Flag("debug"))

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	path := v.ConfigFileUsed()
	if path == "" {
		path = config.DefaultConfigPath
	}

	return &config.Config{
		Path:           path,
		ServerURL:      v.GetString("server_url"),
		DownloadDir:    v.GetString("download_dir"),
		RequestTimeout: v.GetDuration("request_timeout"),
		AlertTimeout:   v.GetDuration("alert_timeout"),
		LogFile:        v.GetString("log_file"),
		Debug:          v.GetBool("debug"),
	}, nil
}

// setup loads and validates the config, then starts logging. console may be
// nil to log only to the file.
func setup(cmd *cobra.Command, console io.Writer) (*config.Config, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	closeLog, err := logging.Setup(logging.Options{
		Level:    level,
		Console:  console,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("config loaded", "path", cfg.Path, "server", cfg.ServerURL, "downloads", cfg.DownloadDir)
	return cfg, closeLog, nil
}
