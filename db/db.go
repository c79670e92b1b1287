// Package db archives chat traffic in SQLite so commands can look back at
// history and last-seen information.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Chat types, matching the message_type of the event.
const (
	ChatPrivate = "private"
	ChatGroup   = "group"
)

type DB struct {
	*sql.DB
}

// Open opens or creates the archive at path and applies the schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps busy errors away under concurrent dispatch.
	sqlDB.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	slog.Info("archive opened", "path", path)
	return &DB{sqlDB}, nil
}
