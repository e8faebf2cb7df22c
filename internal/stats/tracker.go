package stats

import (
	"time"

	"github.com/amalg/proutman/internal/game"
)

// Tracker builds a GameRecord from the engine's action and event streams.
// It is not safe for concurrent use.
type Tracker struct {
	rec GameRecord
}

// NewTracker starts a record for the players in state.
func NewTracker(id string, state game.GameState, start time.Time) *Tracker {
	players := make(map[string]*PlayerRecord, len(state.Players))
	for pid, p := range state.Players {
		players[pid] = &PlayerRecord{Name: p.Name, Survived: p.Alive}
	}
	return &Tracker{rec: GameRecord{ID: id, Start: start, Players: players}}
}

// Action counts an applied move.
func (t *Tracker) Action(a game.Action) {
	if a.Type != game.ActionMove {
		return
	}
	if pr, ok := t.rec.Players[a.PlayerID]; ok {
		pr.Moves++
	}
}

// Observe folds one tick's events into the record.
func (t *Tracker) Observe(events []game.Event) {
	for _, ev := range events {
		switch ev.Type {
		case game.EventBombPlaced:
			t.inc(ev.PlayerID, func(pr *PlayerRecord) { pr.Bombs++ })
		case game.EventCacaPlaced:
			t.inc(ev.PlayerID, func(pr *PlayerRecord) { pr.Cacas++ })
		case game.EventWallDestroyed:
			t.inc(ev.OwnerID, func(pr *PlayerRecord) { pr.Walls++ })
		case game.EventPowerUpCollected:
			t.inc(ev.PlayerID, func(pr *PlayerRecord) { pr.PowerUps++ })
		case game.EventPlayerKilled:
			t.inc(ev.PlayerID, func(pr *PlayerRecord) { pr.Survived = false })
			// Self-kills do not count.
			if ev.OwnerID != ev.PlayerID {
				t.inc(ev.OwnerID, func(pr *PlayerRecord) { pr.Kills++ })
			}
		}
	}
}

func (t *Tracker) inc(playerID string, fn func(*PlayerRecord)) {
	if pr, ok := t.rec.Players[playerID]; ok {
		fn(pr)
	}
}

// Finish closes the record against the final state.
func (t *Tracker) Finish(state game.GameState, end time.Time) GameRecord {
	rec := t.rec
	rec.Duration = end.Sub(rec.Start)
	rec.Frames = state.Frame
	rec.WinnerID = state.Winner
	// Players who left mid-game did not survive it.
	for pid, pr := range rec.Players {
		if p, ok := state.Players[pid]; !ok || !p.Alive {
			pr.Survived = false
		}
	}
	if p, ok := state.Players[state.Winner]; ok {
		rec.Winner = p.Name
	}
	return rec
}
