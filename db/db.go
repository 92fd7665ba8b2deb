package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Connect opens a MySQL pool for dsn and verifies it with a ping bounded by
// pingTimeout. parseTime is always enabled so DATETIME columns scan into time.Time.
func Connect(ctx context.Context, dsn string, pingTimeout time.Duration) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

const usersTable = `
CREATE TABLE IF NOT EXISTS users (
	id CHAR(36) PRIMARY KEY,
	email VARCHAR(255) UNIQUE NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at DATETIME(3) NOT NULL
)`

const notesTable = `
CREATE TABLE IF NOT EXISTS notes (
	id CHAR(36) PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	tags JSON NOT NULL,
	ai_summary TEXT NULL,
	owner_id CHAR(36) NOT NULL,
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL,
	INDEX idx_notes_owner (owner_id),
	FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
)`

// Migrate creates the users and notes tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, usersTable); err != nil {
		return fmt.Errorf("error creating users table: %w", err)
	}
	if _, err := db.ExecContext(ctx, notesTable); err != nil {
		return fmt.Errorf("error creating notes table: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
