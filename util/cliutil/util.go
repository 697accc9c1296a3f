package cliutil

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type LogOptions struct {
	// path to write to; "-" or "" for stdout
	LogPath string

	// text|json
	LogFormat string

	// info|debug|warn|error
	LogLevel string
}

func firstenv(env_var_names ...string) string {
	for _, env_var_name := range env_var_names {
		val := os.Getenv(env_var_name)
		if val != "" {
			return val
		}
	}
	return ""
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %#v", s)
	}
}

// SetupSlog integrates passed in options and env vars, and installs the result as the default logger.
//
// passing default cliutil.LogOptions{} is ok.
//
// KAIDO_LOG_LEVEL=info|debug|warn|error
//
// KAIDO_LOG_FMT=text|json (default json)
//
// KAIDO_LOG_FILE=path (or "-" or "" for stdout)
func SetupSlog(options LogOptions) (*slog.Logger, error) {
	if options.LogLevel == "" {
		options.LogLevel = firstenv("KAIDO_LOG_LEVEL", "GOLOG_LOG_LEVEL")
	}
	level, err := parseLevel(options.LogLevel)
	if err != nil {
		return nil, err
	}
	hopts := slog.HandlerOptions{Level: level}

	if options.LogFormat == "" {
		options.LogFormat = firstenv("KAIDO_LOG_FMT", "GOLOG_LOG_FMT")
	}
	format := strings.ToLower(options.LogFormat)
	if format == "" {
		format = "json"
	}

	if options.LogPath == "" {
		options.LogPath = os.Getenv("KAIDO_LOG_FILE")
	}
	var out io.Writer = os.Stdout
	if options.LogPath != "" && options.LogPath != "-" {
		if err := os.MkdirAll(filepath.Dir(options.LogPath), os.ModePerm); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(options.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", options.LogPath, err)
		}
		out = f
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(out, &hopts)
	case "json":
		handler = slog.NewJSONHandler(out, &hopts)
	default:
		return nil, fmt.Errorf("invalid log format: %#v", options.LogFormat)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// SetupSessionDB opens (creating if needed) the SQLite database which holds the chat session keys.
//
// Examples:
// - "data/kaido/session.db"
// - "sqlite://data/kaido/session.db"
// - ":memory:"
func SetupSessionDB(dbpath string) (*sql.DB, error) {
	dbpath = strings.TrimPrefix(dbpath, "sqlite://")
	dbpath = strings.TrimPrefix(dbpath, "sqlite=")
	if dbpath == "" {
		return nil, fmt.Errorf("session database path is required")
	}
	// if this isn't ":memory:", ensure that directory exists (eg, if db file is being initialized)
	if !strings.Contains(dbpath, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(dbpath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("creating session database directory: %w", err)
		}
	}

	dsn := "file:" + dbpath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA synchronous=normal;"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
