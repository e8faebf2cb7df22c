package stats

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore keeps the session in PostgreSQL. Every game is kept; Load
// returns the most recent MaxHistory of them.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects and creates the schema if needed.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	log.Printf("[STATS] connected to postgres")
	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_totals (
		id INTEGER PRIMARY KEY,
		total_games INTEGER NOT NULL,
		draws INTEGER NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS player_totals (
		name TEXT PRIMARY KEY,
		games INTEGER NOT NULL,
		wins INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		bombs INTEGER NOT NULL,
		current_streak INTEGER NOT NULL,
		best_streak INTEGER NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		duration_ms BIGINT NOT NULL,
		frames BIGINT NOT NULL,
		winner_id TEXT NOT NULL,
		winner TEXT NOT NULL,
		players JSONB NOT NULL
	);
	`

	_, err := ps.db.Exec(schema)
	return err
}

// ignoreNoRows treats an empty result as success: a fresh database has no totals.
func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// Load reads the totals and the latest games.
func (ps *PostgresStore) Load() (*Session, error) {
	s := NewSession()

	err := ps.db.QueryRow(`SELECT total_games, draws FROM session_totals WHERE id = 1`).
		Scan(&s.TotalGames, &s.Draws)
	if err := ignoreNoRows(err); err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}

	rows, err := ps.db.Query(`SELECT name, games, wins, kills, bombs, current_streak, best_streak FROM player_totals`)
	if err != nil {
		return nil, fmt.Errorf("load player totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		t := &PlayerTotals{}
		if err := rows.Scan(&name, &t.Games, &t.Wins, &t.Kills, &t.Bombs, &t.CurrentStreak, &t.BestStreak); err != nil {
			return nil, fmt.Errorf("scan player totals: %w", err)
		}
		s.Players[name] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load player totals: %w", err)
	}

	games, err := ps.db.Query(`
	SELECT id, started_at, duration_ms, frames, winner_id, winner, players FROM (
		SELECT * FROM games ORDER BY started_at DESC LIMIT $1
	) recent ORDER BY started_at ASC`, MaxHistory)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	defer games.Close()
	for games.Next() {
		var rec GameRecord
		var durationMS int64
		var playersJSON []byte
		if err := games.Scan(&rec.ID, &rec.Start, &durationMS, &rec.Frames, &rec.WinnerID, &rec.Winner, &playersJSON); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal(playersJSON, &rec.Players); err != nil {
			return nil, fmt.Errorf("unmarshal players of game %s: %w", rec.ID, err)
		}
		s.Games = append(s.Games, rec)
	}
	if err := games.Err(); err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}

	return s, nil
}

// Save upserts the totals and inserts games not stored yet.
func (ps *PostgresStore) Save(s *Session) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO session_totals (id, total_games, draws) VALUES (1, $1, $2)
	ON CONFLICT (id)
	DO UPDATE SET total_games = $1, draws = $2, updated_at = NOW()`,
		s.TotalGames, s.Draws)
	if err != nil {
		return fmt.Errorf("save totals: %w", err)
	}

	for name, t := range s.Players {
		_, err := tx.Exec(`
		INSERT INTO player_totals (name, games, wins, kills, bombs, current_streak, best_streak)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name)
		DO UPDATE SET
			games = $2, wins = $3, kills = $4, bombs = $5,
			current_streak = $6, best_streak = $7,
			updated_at = NOW()`,
			name, t.Games, t.Wins, t.Kills, t.Bombs, t.CurrentStreak, t.BestStreak)
		if err != nil {
			return fmt.Errorf("save player %s: %w", name, err)
		}
	}

	for _, rec := range s.Games {
		playersJSON, err := json.Marshal(rec.Players)
		if err != nil {
			return fmt.Errorf("marshal players of game %s: %w", rec.ID, err)
		}
		_, err = tx.Exec(`
		INSERT INTO games (id, started_at, duration_ms, frames, winner_id, winner, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.Start, rec.Duration.Milliseconds(), rec.Frames, rec.WinnerID, rec.Winner, string(playersJSON))
		if err != nil {
			return fmt.Errorf("save game %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
