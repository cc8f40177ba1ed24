// Package logging wires log/slog for the mergebox binary: a colored console
// handler for humans and a plain text handler appending to a log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/mergebox/mergebox/internal/utils"
)

const consoleTimeFormat = "15:04:05.000"

var (
	home, _            = os.UserHomeDir()
	DefaultLogFilePath = filepath.Join(home, ".mergebox", "logs", "mergebox.log")
)

type Options struct {
	Level slog.Level

	// Console receives colored output. nil disables console logging, which the
	// TUI needs while it owns the terminal.
	Console io.Writer

	// FilePath is appended to. Empty disables file logging.
	FilePath string
}

// Setup builds the handler chain and installs it as the slog default.
// The returned func closes the log file.
func Setup(opts Options) (func() error, error) {
	var handlers []slog.Handler
	closer := func() error { return nil }

	if opts.Console != nil {
		handlers = append(handlers, tint.NewHandler(opts.Console, &tint.Options{
			Level:      opts.Level,
			TimeFormat: consoleTimeFormat,
			NoColor:    !isTerminal(opts.Console),
		}))
	}

	if opts.FilePath != "" {
		if err := utils.EnsureParent(opts.FilePath); err != nil {
			return closer, fmt.Errorf("create log directory: %w", err)
		}

		file, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, fmt.Errorf("open log file: %w", err)
		}
		closer = file.Close

		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{
			Level: opts.Level,
		}))
	}

	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(io.Discard, nil))
	}

	slog.SetDefault(slog.New(newFanoutHandler(handlers...)))
	return closer, nil
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
