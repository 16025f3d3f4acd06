// Package main is the entry point for the goldendays journal server.
//
// The main package is kept minimal — its job is to:
// 1. Read configuration (env vars)
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server wires the
// store; the handlers under internal/handler expose it). The cmd/ directory
// is the Go convention for executable entry points.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sakif/goldendays/internal/server"
)

func main() {
	// slog.NewTextHandler outputs human-readable structured logs to the
	// terminal. LOG_LEVEL=debug turns on everything; the default Info keeps
	// per-request noise out of normal runs.
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// PORT defaults to 8080. os.Getenv returns "" when unset.
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// DB_PATH overrides the default database location, e.g. for a
	// deployment: DB_PATH=/var/lib/goldendays/journal.db
	dbPath := "data/goldendays.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// os.MkdirAll creates parent directories as needed (like `mkdir -p`),
	// so a fresh checkout can start without manual setup.
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:   port,
		DBPath: dbPath,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
