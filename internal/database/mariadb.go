// Package database provides connection setup for MariaDB and Redis, schema
// migrations, and small helpers for interpreting driver errors. Connections
// are created once at startup and shared across the application via
// dependency injection.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/foodgram/foodgram/internal/config"
)

// erDupEntry is the MariaDB/MySQL error number for unique key violations.
const erDupEntry = 1062

// erNoReferencedRow is raised when a foreign key points at a missing row.
const erNoReferencedRow = 1452

// pingAttempts bounds how long startup waits for MariaDB to accept connections.
const pingAttempts = 10

// NewMariaDB opens a connection pool with the configured limits and waits
// for the server to answer a ping, backing off exponentially between tries
// so container cold-starts don't crash-loop the API.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	backoff := time.Second
	var pingErr error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		if attempt == pingAttempts {
			break
		}

		slog.Warn("mariadb not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, 30*time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("pinging mariadb after %d attempts: %w", pingAttempts, pingErr)
}

// IsDuplicateEntry reports whether err is a unique constraint violation.
// Repositories rely on this to turn a lost insert race into a conflict.
func IsDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erDupEntry
}

// IsMissingReference reports whether err is a foreign key violation caused
// by referencing a row that doesn't exist.
func IsMissingReference(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erNoReferencedRow
}

// DuplicateKey returns the name of the unique key a duplicate-entry error
// collided with (e.g. "uq_tags_slug"), or "" if err is not one. MariaDB
// reports it as "... for key 'uq_tags_slug'"; MySQL 8 prefixes the table
// ("'tags.uq_tags_slug'"), which is stripped.
func DuplicateKey(err error) string {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != erDupEntry {
		return ""
	}
	_, after, found := strings.Cut(myErr.Message, "for key '")
	if !found {
		return ""
	}
	key := strings.TrimSuffix(after, "'")
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	return key
}
