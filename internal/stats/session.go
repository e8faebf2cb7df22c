// Package stats keeps per-session match statistics and persists them.
package stats

import (
	"time"
)

// MaxHistory is how many finished games a Session remembers in detail.
const MaxHistory = 50

// PlayerRecord is one player's line in a finished game.
type PlayerRecord struct {
	Name     string `json:"name"`
	Moves    int    `json:"moves"`
	Bombs    int    `json:"bombs"`
	Cacas    int    `json:"cacas"`
	Kills    int    `json:"kills"`
	Walls    int    `json:"walls"`
	PowerUps int    `json:"powerups"`
	Survived bool   `json:"survived"`
}

// GameRecord describes a finished game.
type GameRecord struct {
	ID       string                   `json:"id"`
	Start    time.Time                `json:"start"`
	Duration time.Duration            `json:"duration"`
	Frames   int64                    `json:"frames"`
	WinnerID string                   `json:"winner_id,omitempty"`
	Winner   string                   `json:"winner,omitempty"` // name, empty on a draw
	Players  map[string]*PlayerRecord `json:"players"`          // keyed by player ID
}

// Draw reports whether nobody won.
func (r GameRecord) Draw() bool {
	return r.WinnerID == ""
}

// PlayerTotals aggregates every game a player name took part in.
type PlayerTotals struct {
	Games         int `json:"games"`
	Wins          int `json:"wins"`
	Kills         int `json:"kills"`
	Bombs         int `json:"bombs"`
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`
}

// Session is the persisted statistics document.
type Session struct {
	TotalGames int                      `json:"total_games"`
	Draws      int                      `json:"draws"`
	Players    map[string]*PlayerTotals `json:"players"` // keyed by name
	Games      []GameRecord             `json:"games"`
}

// NewSession returns empty statistics.
func NewSession() *Session {
	return &Session{
		Players: make(map[string]*PlayerTotals),
		Games:   make([]GameRecord, 0),
	}
}

// Record folds a finished game into the totals and the history.
func (s *Session) Record(rec GameRecord) {
	if s.Players == nil {
		s.Players = make(map[string]*PlayerTotals)
	}

	s.TotalGames++
	if rec.Draw() {
		s.Draws++
	}

	for id, pr := range rec.Players {
		t, ok := s.Players[pr.Name]
		if !ok {
			t = &PlayerTotals{}
			s.Players[pr.Name] = t
		}
		t.Games++
		t.Kills += pr.Kills
		t.Bombs += pr.Bombs
		if id == rec.WinnerID {
			t.Wins++
			t.CurrentStreak++
			t.BestStreak = max(t.BestStreak, t.CurrentStreak)
		} else {
			t.CurrentStreak = 0
		}
	}

	s.Games = append(s.Games, rec)
	if len(s.Games) > MaxHistory {
		s.Games = append([]GameRecord(nil), s.Games[len(s.Games)-MaxHistory:]...)
	}
}

// WinRate returns the share of games name has won, or 0 when unknown.
func (s *Session) WinRate(name string) float64 {
	t, ok := s.Players[name]
	if !ok || t.Games == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Games)
}

// Store persists a Session.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Close() error
}
