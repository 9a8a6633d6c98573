package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/dataset"
	"jordanella.com/royale-coach/internal/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "samples.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.Version()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	pending, err := db.Pending()
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending = %v, %v", pending, err)
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Version != LatestVersion() || stats.Matches != 0 || stats.Samples != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
}

func TestRollback(t *testing.T) {
	db := openTestDB(t)

	if err := db.Rollback(1); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	version, _ := db.Version()
	if version != 1 {
		t.Fatalf("version after rollback = %d, want 1", version)
	}
	pending, err := db.Pending()
	if err != nil || len(pending) != LatestVersion()-1 || pending[0].Version != 2 {
		t.Fatalf("pending after rollback = %v, %v", pending, err)
	}

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	version, _ = db.Version()
	if version != LatestVersion() {
		t.Fatalf("version = %d", version)
	}
}

var start = time.Date(2026, 1, 3, 12, 34, 56, 0, time.UTC)

func testSample(matchID, cardID string, frame int64, resolved bool) dataset.TrainingSample {
	action := actions.ActionSnapshot{CardID: cardID, Lane: game.LaneUnknown}
	if resolved {
		x, y := float32(0.25), float32(0.5)
		action = actions.ActionSnapshot{CardID: cardID, Lane: game.LaneLeft, X: &x, Y: &y}
	}

	return dataset.TrainingSample{
		Timestamp: start.Add(time.Duration(frame) * 100 * time.Millisecond),
		State: dataset.StateSnapshot{
			Phase:          game.PhaseEarly,
			Elixir:         6,
			EnemySpawns:    []dataset.SpawnSnapshot{},
			FriendlySpawns: []dataset.SpawnSnapshot{},
			Hand:           []dataset.HandCardSnapshot{{CardID: cardID, Cost: 4}},
		},
		Action:         action,
		MatchID:        matchID,
		MatchElapsedMs: frame * 100,
		FrameIndex:     frame,
	}
}

func TestSampleStoreRoundTrip(t *testing.T) {
	store := NewSampleStore(openTestDB(t))

	if err := store.StartMatch("m1", start, "data/m1.jsonl"); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	for _, s := range []dataset.TrainingSample{
		testSample("m1", "log", 9, true),
		testSample("m1", "hog", 3, false),
	} {
		if err := store.Append(s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	samples, err := store.ListSamples("m1")
	if err != nil {
		t.Fatalf("ListSamples: %v", err)
	}
	if len(samples) != 2 || samples[0].Action.CardID != "hog" || samples[1].FrameIndex != 9 {
		t.Fatalf("samples = %+v", samples)
	}
	if samples[0].Action.HasPosition() || !samples[1].Action.HasPosition() || *samples[1].Action.X != 0.25 {
		t.Fatalf("positions not preserved: %+v", samples)
	}
	if samples[1].State.Phase != game.PhaseEarly || !samples[1].Timestamp.Equal(start.Add(900*time.Millisecond)) {
		t.Fatalf("state not preserved: %+v", samples[1])
	}

	if err := store.EndMatch("m1", start.Add(3*time.Minute)); err != nil {
		t.Fatalf("EndMatch: %v", err)
	}

	match, err := store.GetMatch("m1")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if match.SampleCount != 2 || match.DatasetPath != "data/m1.jsonl" || match.EndedAt == nil {
		t.Fatalf("match = %+v", match)
	}
	if !match.StartedAt.Equal(start) {
		t.Fatalf("started = %v, want %v", match.StartedAt, start)
	}
}

func TestSampleStoreCreatesMatchOnDemand(t *testing.T) {
	store := NewSampleStore(openTestDB(t))

	if err := store.Append(testSample("m2", "hog", 20, false)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(testSample("", "hog", 21, false)); err != nil {
		t.Fatalf("sample without match should be ignored: %v", err)
	}

	match, err := store.GetMatch("m2")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if !match.StartedAt.Equal(start) {
		t.Fatalf("started = %v, want elapsed subtracted from timestamp", match.StartedAt)
	}

	total, _ := store.CountSamples("")
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}

	counts, err := store.CountByCard()
	if err != nil || counts["hog"] != 1 {
		t.Fatalf("counts = %v, %v", counts, err)
	}

	matches, err := store.ListMatches(0)
	if err != nil || len(matches) != 1 || matches[0].SampleCount != 1 {
		t.Fatalf("matches = %+v, %v", matches, err)
	}
}

func TestSampleStoreUnknownMatch(t *testing.T) {
	store := NewSampleStore(openTestDB(t))

	if _, err := store.GetMatch("missing"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("GetMatch err = %v", err)
	}
	if err := store.EndMatch("missing", start); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("EndMatch err = %v", err)
	}
}
