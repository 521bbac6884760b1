// Package sqlite provides embedded SQLite persistence for workflows, versions and runs.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence/sqlbase"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Persistence implements the persistence layer for an embedded SQLite database.
type Persistence struct {
	*sqlbase.Persistence
}

// NewPersistence opens (or creates) the database file and brings the schema up to date.
// databaseURL may carry a sqlite:// prefix.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path == "" {
		return nil, errors.New("sqlite database path is empty")
	}

	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0750)
		if err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows one writer; a single connection turns concurrent appends into a queue.
	database.SetMaxOpenConns(1)

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	err = sqlbase.NewMigrationManager(logger, database, Dialect{}, migrations()).RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{Persistence: sqlbase.NewPersistence(logger, database, Dialect{})}, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// Dialect is the SQLite flavour of sqlbase.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Rebind(query string) string { return sqlbase.QuestionPlaceholders(query) }

func (Dialect) IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	code := sqliteErr.Code()

	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// RowLock is empty: the single writer connection already serializes transactions.
func (Dialect) RowLock() string { return "" }

func (Dialect) Time(t time.Time) driver.Value { return t.UTC().Format(sqlbase.TimestampLayout) }
