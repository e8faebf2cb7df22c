package stats

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amalg/proutman/internal/game"
)

func record(id, winner string, names map[string]string) GameRecord {
	players := make(map[string]*PlayerRecord, len(names))
	for pid, name := range names {
		players[pid] = &PlayerRecord{Name: name, Bombs: 1, Survived: pid == winner}
	}
	return GameRecord{ID: id, Start: time.Unix(1700000000, 0).UTC(), WinnerID: winner, Players: players}
}

func TestSessionRecord(t *testing.T) {
	s := NewSession()
	names := map[string]string{"a": "Alice", "b": "Bob"}

	s.Record(record("g1", "a", names))
	s.Record(record("g2", "a", names))
	s.Record(record("g3", "", names))
	s.Record(record("g4", "b", names))

	if s.TotalGames != 4 || s.Draws != 1 {
		t.Errorf("expected 4 games and 1 draw, got %d and %d", s.TotalGames, s.Draws)
	}
	alice := s.Players["Alice"]
	if alice.Wins != 2 || alice.BestStreak != 2 || alice.CurrentStreak != 0 {
		t.Errorf("unexpected Alice totals %+v", alice)
	}
	bob := s.Players["Bob"]
	if bob.Wins != 1 || bob.CurrentStreak != 1 || bob.Bombs != 4 {
		t.Errorf("unexpected Bob totals %+v", bob)
	}
	if got := s.WinRate("Alice"); got != 0.5 {
		t.Errorf("Alice win rate = %v, want 0.5", got)
	}
	if got := s.WinRate("Nobody"); got != 0 {
		t.Errorf("unknown win rate = %v, want 0", got)
	}
}

func TestSessionHistoryBounded(t *testing.T) {
	s := NewSession()
	for i := 0; i < MaxHistory+5; i++ {
		s.Record(record(fmt.Sprintf("g%d", i), "", map[string]string{"a": "Alice"}))
	}
	if len(s.Games) != MaxHistory {
		t.Fatalf("expected %d records, got %d", MaxHistory, len(s.Games))
	}
	if s.Games[0].ID != "g5" {
		t.Errorf("oldest kept record = %s, want g5", s.Games[0].ID)
	}
	if s.TotalGames != MaxHistory+5 {
		t.Errorf("totals should count every game, got %d", s.TotalGames)
	}
}

func TestTracker(t *testing.T) {
	config := game.DefaultConfig()
	config.SoftWallDensity = 0
	state := game.NewGameState(config)
	state.AddPlayer("a", "Alice")
	state.AddPlayer("b", "Bob")

	start := time.Now()
	tr := NewTracker("g1", state.Clone(), start)
	tr.Action(game.Action{PlayerID: "a", Type: game.ActionMove})
	tr.Action(game.Action{PlayerID: "a", Type: game.ActionPlaceBomb})
	tr.Observe([]game.Event{
		{Type: game.EventBombPlaced, PlayerID: "a"},
		{Type: game.EventWallDestroyed, OwnerID: "a"},
		{Type: game.EventPowerUpCollected, PlayerID: "b"},
		{Type: game.EventPlayerKilled, PlayerID: "b", OwnerID: "a"},
		{Type: game.EventPlayerKilled, PlayerID: "a", OwnerID: "a"},
	})

	state.Winner = "a"
	rec := tr.Finish(state.Clone(), start.Add(3*time.Second))

	a, b := rec.Players["a"], rec.Players["b"]
	if a.Moves != 1 || a.Bombs != 1 || a.Walls != 1 || a.Kills != 1 {
		t.Errorf("unexpected record for a: %+v", a)
	}
	if b.PowerUps != 1 || b.Survived {
		t.Errorf("unexpected record for b: %+v", b)
	}
	if rec.Winner != "Alice" || rec.Duration != 3*time.Second {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestTrackerLeaverDidNotSurvive(t *testing.T) {
	state := game.NewGameState(game.DefaultConfig())
	state.AddPlayer("a", "Alice")
	state.AddPlayer("b", "Bob")

	tr := NewTracker("g2", state.Clone(), time.Now())
	state.RemovePlayer("b")
	state.Winner = "a"
	rec := tr.Finish(state.Clone(), time.Now())

	if rec.Players["b"].Survived {
		t.Error("a player who left should not count as surviving")
	}
	if !rec.Players["a"].Survived {
		t.Error("the winner survived")
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.json")
	store := NewJSONStore(path)

	s := NewSession()
	s.Record(record("g1", "a", map[string]string{"a": "Alice", "b": "Bob"}))
	if err := store.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.TotalGames != 1 || loaded.Players["Alice"].Wins != 1 {
		t.Errorf("unexpected loaded session %+v", loaded)
	}
	if len(loaded.Games) != 1 || loaded.Games[0].Players["b"].Name != "Bob" {
		t.Errorf("game history not restored: %+v", loaded.Games)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestJSONStoreFallback(t *testing.T) {
	dir := t.TempDir()

	missing, err := NewJSONStore(filepath.Join(dir, "missing.json")).Load()
	if err != nil || missing.TotalGames != 0 || missing.Players == nil {
		t.Errorf("missing file should give empty stats, got %+v, %v", missing, err)
	}

	corruptPath := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corruptPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	corrupt, err := NewJSONStore(corruptPath).Load()
	if err != nil || corrupt.TotalGames != 0 {
		t.Errorf("corrupt file should give empty stats, got %+v, %v", corrupt, err)
	}
}

func TestIgnoreNoRows(t *testing.T) {
	if err := ignoreNoRows(fmt.Errorf("scan: %w", sql.ErrNoRows)); err != nil {
		t.Errorf("wrapped ErrNoRows should be ignored, got %v", err)
	}
	if err := ignoreNoRows(sql.ErrConnDone); !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("other errors should pass through, got %v", err)
	}
	if err := ignoreNoRows(nil); err != nil {
		t.Errorf("nil should stay nil, got %v", err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STATS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STATS_TEST_POSTGRES_DSN not set")
	}
	store, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer store.Close()

	s := NewSession()
	s.Record(record(fmt.Sprintf("test-%d", time.Now().UnixNano()), "a", map[string]string{"a": "pg-alice"}))
	if err := store.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Players["pg-alice"] == nil {
		t.Error("player totals not stored")
	}
}

func TestService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	svc, err := NewService(NewJSONStore(path))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Add(record("g1", "a", map[string]string{"a": "Alice"})); err != nil {
		t.Fatalf("Add: %v", err)
	}

	snap := svc.Snapshot()
	snap.Players["Alice"].Wins = 99
	if svc.Snapshot().Players["Alice"].Wins != 1 {
		t.Error("snapshot should not alias the live session")
	}

	// A second service sees what the first saved.
	again, err := NewService(NewJSONStore(path))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if again.Snapshot().TotalGames != 1 {
		t.Error("saved game not reloaded")
	}
}

func TestOpenStoreDefaultsToJSON(t *testing.T) {
	store, err := OpenStore("", filepath.Join(t.TempDir(), "stats.json"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, ok := store.(*JSONStore); !ok {
		t.Errorf("expected a JSON store, got %T", store)
	}
}
