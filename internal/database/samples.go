package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jordanella.com/royale-coach/internal/dataset"
)

// ErrMatchNotFound is returned when a match id is unknown
var ErrMatchNotFound = errors.New("match not found")

// Match is one recorded match
type Match struct {
	ID          string     `db:"id"`
	StartedAt   time.Time  `db:"started_at"`
	EndedAt     *time.Time `db:"ended_at"`
	DatasetPath string     `db:"dataset_path"`
	SampleCount int        `db:"-"`
}

// SampleStore indexes training samples in SQLite. It implements dataset.Sink.
type SampleStore struct {
	db *DB
}

var _ dataset.Sink = (*SampleStore)(nil)

// NewSampleStore wraps a migrated database
func NewSampleStore(db *DB) *SampleStore {
	return &SampleStore{db: db}
}

// StartMatch records a new match
func (s *SampleStore) StartMatch(id string, startedAt time.Time, datasetPath string) error {
	_, err := s.db.conn.Exec(`
		INSERT INTO matches (id, started_at, dataset_path)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET dataset_path = excluded.dataset_path
	`, id, startedAt, datasetPath)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// EndMatch stamps the end time of a match
func (s *SampleStore) EndMatch(id string, endedAt time.Time) error {
	result, err := s.db.conn.Exec(`UPDATE matches SET ended_at = ? WHERE id = ?`, endedAt, id)
	if err != nil {
		return fmt.Errorf("failed to end match: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// Append stores one sample. Samples without a match id are ignored.
// A match row is created on demand when StartMatch was not called.
func (s *SampleStore) Append(sample dataset.TrainingSample) error {
	if sample.MatchID == "" {
		return nil
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	var x, y sql.NullFloat64
	if sample.Action.HasPosition() {
		x = sql.NullFloat64{Float64: float64(*sample.Action.X), Valid: true}
		y = sql.NullFloat64{Float64: float64(*sample.Action.Y), Valid: true}
	}

	return s.db.ExecTx(func(tx *sql.Tx) error {
		started := sample.Timestamp.Add(-time.Duration(sample.MatchElapsedMs) * time.Millisecond)
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO matches (id, started_at) VALUES (?, ?)
		`, sample.MatchID, started); err != nil {
			return fmt.Errorf("failed to ensure match: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO samples (
				match_id, frame_index, elapsed_ms, recorded_at,
				card_id, lane, x01, y01, elixir, phase,
				prev_frame_path, curr_frame_path, payload
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sample.MatchID, sample.FrameIndex, sample.MatchElapsedMs, sample.Timestamp,
			sample.Action.CardID, sample.Action.Lane.String(), x, y,
			sample.State.Elixir, sample.State.Phase.String(),
			nullString(sample.PrevFramePath), nullString(sample.CurrFramePath), string(payload))
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
		return nil
	})
}

// ListSamples returns a match's samples in frame order
func (s *SampleStore) ListSamples(matchID string) ([]dataset.TrainingSample, error) {
	rows, err := s.db.conn.Query(`
		SELECT payload FROM samples
		WHERE match_id = ?
		ORDER BY frame_index, id
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := []dataset.TrainingSample{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sample dataset.TrainingSample
		if err := json.Unmarshal([]byte(payload), &sample); err != nil {
			return nil, fmt.Errorf("failed to decode sample: %w", err)
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

// CountSamples counts samples for one match, or all samples when matchID is empty
func (s *SampleStore) CountSamples(matchID string) (int, error) {
	var count int
	var err error
	if matchID == "" {
		err = s.db.conn.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&count)
	} else {
		err = s.db.conn.QueryRow(`SELECT COUNT(*) FROM samples WHERE match_id = ?`, matchID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}

// CountByCard returns how often each card was played
func (s *SampleStore) CountByCard() (map[string]int, error) {
	rows, err := s.db.conn.Query(`SELECT card_id, COUNT(*) FROM samples GROUP BY card_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count cards: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var card string
		var n int
		if err := rows.Scan(&card, &n); err != nil {
			return nil, err
		}
		counts[card] = n
	}
	return counts, rows.Err()
}

// GetMatch loads a match with its sample count
func (s *SampleStore) GetMatch(id string) (*Match, error) {
	match := &Match{}
	err := s.db.conn.QueryRow(`
		SELECT m.id, m.started_at, m.ended_at, m.dataset_path,
			(SELECT COUNT(*) FROM samples WHERE match_id = m.id)
		FROM matches m
		WHERE m.id = ?
	`, id).Scan(&match.ID, &match.StartedAt, &match.EndedAt, &match.DatasetPath, &match.SampleCount)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// ListMatches returns the most recent matches first
func (s *SampleStore) ListMatches(limit int) ([]*Match, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.conn.Query(`
		SELECT m.id, m.started_at, m.ended_at, m.dataset_path,
			(SELECT COUNT(*) FROM samples WHERE match_id = m.id)
		FROM matches m
		ORDER BY m.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := []*Match{}
	for rows.Next() {
		match := &Match{}
		if err := rows.Scan(&match.ID, &match.StartedAt, &match.EndedAt, &match.DatasetPath, &match.SampleCount); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
