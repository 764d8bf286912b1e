package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep (default: 5).
	MaxFiles int
	// WriteToStderr whether to also write to stderr.
	WriteToStderr bool
	// Stderr overrides os.Stderr, mainly for tests.
	Stderr io.Writer
}

// Mode selects where logs go for a given command.
type Mode int

const (
	// ModeCLI writes warnings and errors to stderr only.
	ModeCLI Mode = iota
	// ModeDebug writes everything at the configured level to the log file and stderr.
	ModeDebug
	// ModeInteractive never touches stderr; the UI owns the terminal.
	// With debug enabled logs go to the file, otherwise they are discarded.
	ModeInteractive
)

// DefaultConfig returns sensible defaults for file logging.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// ConfigFor returns the logging configuration for a mode.
func ConfigFor(mode Mode, level string, debug bool) Config {
	cfg := DefaultConfig()
	cfg.Level = level
	switch mode {
	case ModeDebug:
		cfg.Level = "debug"
	case ModeInteractive:
		cfg.WriteToStderr = false
		if debug {
			cfg.Level = "debug"
		} else {
			cfg.FilePath = ""
		}
	default:
		if debug {
			cfg.Level = "debug"
		} else {
			cfg.FilePath = ""
			if parseLevel(level) < slog.LevelWarn {
				cfg.Level = "warn"
			}
		}
	}
	return cfg
}

// Setup initializes logging and returns the logger and a cleanup function.
// The cleanup function should be called to close the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	var writers []io.Writer
	cleanup := func() {}

	if cfg.FilePath != "" {
		writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, writer)
		cleanup = func() {
			_ = writer.Sync()
			_ = writer.Close()
		}
	}

	if cfg.WriteToStderr {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	return slog.New(handler), cleanup, nil
}

// SetupDefault sets up logging for mode and installs it as the default logger.
// Returns cleanup function.
func SetupDefault(mode Mode, level string, debug bool) (func(), error) {
	cfg := ConfigFor(mode, level, debug)
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	if cfg.FilePath != "" {
		slog.Debug("logging_initialized",
			slog.String("log_file", cfg.FilePath),
			slog.String("level", cfg.Level),
			slog.Bool("stderr", cfg.WriteToStderr))
	}
	return cleanup, nil
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
