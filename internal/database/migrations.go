package database

import (
	"database/sql"
	"fmt"
	"time"

	"jordanella.com/royale-coach/internal/logging"
)

var log = logging.NewLogger("Database")

// Migration is one schema step. Up and Down may hold several statements.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// schema is applied in order; versions are never reused
var schema = []Migration{
	{
		Version:     1,
		Description: "schema version bookkeeping",
		Up: `CREATE TABLE IF NOT EXISTS schema_version (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  DATETIME NOT NULL
		)`,
		Down: `DROP TABLE IF EXISTS schema_version`,
	},
	{
		Version:     2,
		Description: "matches",
		Up: `CREATE TABLE matches (
			id           TEXT PRIMARY KEY,
			started_at   DATETIME NOT NULL,
			ended_at     DATETIME,
			dataset_path TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX idx_matches_started ON matches(started_at);`,
		Down: `DROP TABLE IF EXISTS matches`,
	},
	{
		Version:     3,
		Description: "training samples",
		Up: `CREATE TABLE samples (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id        TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
			frame_index     INTEGER NOT NULL,
			elapsed_ms      INTEGER NOT NULL,
			recorded_at     DATETIME NOT NULL,
			card_id         TEXT NOT NULL,
			lane            TEXT NOT NULL,
			x01             REAL,
			y01             REAL,
			elixir          INTEGER NOT NULL,
			phase           TEXT NOT NULL,
			prev_frame_path TEXT,
			curr_frame_path TEXT,
			payload         TEXT NOT NULL
		);
		CREATE INDEX idx_samples_match ON samples(match_id, frame_index);
		CREATE INDEX idx_samples_card ON samples(card_id);`,
		Down: `DROP TABLE IF EXISTS samples`,
	},
}

// LatestVersion is the schema version after every migration
func LatestVersion() int {
	return schema[len(schema)-1].Version
}

// Pending lists the migrations RunMigrations would apply
func (db *DB) Pending() ([]Migration, error) {
	current, err := db.getCurrentVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	var pending []Migration
	for _, m := range schema {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RunMigrations applies pending migrations, each in its own transaction
func (db *DB) RunMigrations() error {
	pending, err := db.Pending()
	if err != nil {
		return err
	}

	for _, m := range pending {
		log.InfoWithContext("Applying migration", map[string]interface{}{
			"version":     m.Version,
			"description": m.Description,
		})

		err := db.ExecTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.Up); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`,
				m.Version, m.Description, time.Now().UTC())
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// Rollback reverts migrations newer than target, newest first
func (db *DB) Rollback(target int) error {
	current, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := len(schema) - 1; i >= 0; i-- {
		m := schema[i]
		if m.Version > current || m.Version <= target {
			continue
		}

		log.InfoWithContext("Reverting migration", map[string]interface{}{"version": m.Version})

		err := db.ExecTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.Down); err != nil {
				return err
			}
			if m.Version == 1 {
				// the bookkeeping table itself is gone
				return nil
			}
			_, err := tx.Exec(`DELETE FROM schema_version WHERE version = ?`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to revert migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func (db *DB) getCurrentVersion() (int, error) {
	var version int
	err := db.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err == nil {
		return version, nil
	}

	var tables int
	if qerr := db.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`).Scan(&tables); qerr != nil {
		return 0, qerr
	}
	if tables == 0 {
		return 0, nil
	}
	return 0, err
}
