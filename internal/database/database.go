package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// connection options: foreign keys for cascading sample deletes, WAL so the
// stats tool can read while the coach writes
const dsnOptions = "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

// DB is the SQLite sample index
type DB struct {
	conn *sql.DB
	path string
}

// Stats summarizes the index contents
type Stats struct {
	Version     int
	Matches     int64
	OpenMatches int64 // matches without an end time
	Samples     int64
	FileBytes   int64
}

// Open opens or creates the index at dbPath, creating parent directories
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// one writer: the pipeline appends from a single goroutine
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// ExecTx runs fn in a transaction, rolling back when it fails
func (db *DB) ExecTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Version returns the applied schema version
func (db *DB) Version() (int, error) {
	return db.getCurrentVersion()
}

// Stats counts matches and samples
func (db *DB) Stats() (Stats, error) {
	var stats Stats

	version, err := db.getCurrentVersion()
	if err != nil {
		return stats, err
	}
	stats.Version = version

	err = db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM matches WHERE ended_at IS NULL),
			(SELECT COUNT(*) FROM samples)
	`).Scan(&stats.Matches, &stats.OpenMatches, &stats.Samples)
	if err != nil {
		return stats, fmt.Errorf("failed to count rows: %w", err)
	}

	if info, err := os.Stat(db.path); err == nil {
		stats.FileBytes = info.Size()
	}
	return stats, nil
}

// Compact folds the write-ahead log into the main file and reclaims free pages
func (db *DB) Compact() error {
	if _, err := db.conn.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	if _, err := db.conn.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	return nil
}
