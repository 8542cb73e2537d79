// Package sqlstore implements the repositories on top of database/sql for
// SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

// Open opens the database described by dialect and source (a file path for
// sqlite, a DSN for postgres) and applies pending schema migrations.
func Open(ctx context.Context, dialect Dialect, source string, logger *logrus.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case SQLite:
		db, err = openSQLite(source)
	case Postgres:
		db, err = sql.Open("pgx", source)
		if err != nil {
			err = fmt.Errorf("open postgres db: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(ctx, db, dialect, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := path
	if strings.ContainsRune(dsn, '?') {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// goose keeps its dialect, filesystem and logger in package state.
var migrateMu sync.Mutex

func migrate(ctx context.Context, db *sql.DB, dialect Dialect, logger *logrus.Logger) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(dialect.goose()); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/"+string(dialect)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
