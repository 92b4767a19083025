package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"taskdash/internal/config"
)

// cliLogger is the process logger. The dashboard, api client, demo store and
// web server all receive root and tag their own "component"; the level can be
// changed after they were built.
type cliLogger struct {
	level *slog.LevelVar
	root  *slog.Logger
}

var logs = newCLILogger(os.Stderr)

func newCLILogger(w io.Writer) *cliLogger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return &cliLogger{
		level: level,
		root:  slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// configure applies --log-level, else cfg.LogLevel (which already carries
// TASKDASH_LOG_LEVEL). A bad flag is an error. A bad configured value falls
// back to info and yields a warning naming where it was set.
func (l *cliLogger) configure(flagLevel string, cfg *config.Config) (string, error) {
	slog.SetDefault(l.root)

	if strings.TrimSpace(flagLevel) != "" {
		level, err := config.ParseLogLevel(flagLevel)
		if err != nil {
			return "", fmt.Errorf("invalid --log-level %q", flagLevel)
		}
		l.level.Set(level)
		return "", nil
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		l.level.Set(slog.LevelInfo)
		return fmt.Sprintf("warning: invalid log_level %q from %s; defaulting to %s",
			cfg.LogLevel, cfg.LogLevelSource, config.DefaultLogLevel), nil
	}
	l.level.Set(level)
	return "", nil
}

// component is the logger for the CLI's own lines.
func (l *cliLogger) component(name string) *slog.Logger {
	return l.root.With("component", name)
}
