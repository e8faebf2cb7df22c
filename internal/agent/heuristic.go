package agent

import (
	"math/rand"
	"time"

	"github.com/amalg/proutman/internal/game"
)

// DefaultThinkInterval is how often a Heuristic re-plans.
const DefaultThinkInterval = 200 * time.Millisecond

// Heuristic is a rule-based opponent. In priority order it flees danger,
// bombs soft walls or enemies when it can still get away, picks up revealed
// power-ups, closes in on the nearest enemy, and otherwise wanders.
type Heuristic struct {
	ThinkInterval time.Duration

	rng        *rand.Rand
	sinceThink time.Duration
	lastDir    game.Direction
	moving     bool
}

// NewHeuristic returns a heuristic agent. A zero seed picks one from the clock.
func NewHeuristic(seed int64) *Heuristic {
	return &Heuristic{
		ThinkInterval: DefaultThinkInterval,
		rng:           game.NewRand(seed),
		sinceThink:    DefaultThinkInterval,
	}
}

// Decide implements Agent.
func (h *Heuristic) Decide(state *game.GameState, playerID string, dt time.Duration) []game.Action {
	p, ok := state.Players[playerID]
	if !ok || !p.Alive {
		return nil
	}

	danger := buildDanger(state)

	h.sinceThink += dt
	if h.sinceThink < h.ThinkInterval {
		// Keep walking between decisions unless the next cell turned hot.
		if h.moving && danger.at(p.Pos.Add(h.lastDir.Delta())) <= danger.at(p.Pos) {
			return []game.Action{h.move(playerID, h.lastDir)}
		}
		return nil
	}
	h.sinceThink = 0
	h.moving = false

	notBurning := func(pos game.Position) bool { return danger.at(pos) != burning }
	isSafe := func(pos game.Position) bool { return danger.at(pos) == safe }

	if danger.at(p.Pos) != safe {
		if dir, ok := firstStep(state, p.Pos, 0, notBurning, isSafe); ok {
			return []game.Action{h.move(playerID, dir)}
		}
		return nil
	}

	if h.shouldBomb(state, p, danger) {
		return []game.Action{{PlayerID: playerID, Type: game.ActionPlaceBomb}}
	}

	// Only step onto cells that are safe now.
	if dir, ok := firstStep(state, p.Pos, 0, isSafe, func(pos game.Position) bool {
		pu, ok := state.PowerUps[pos]
		return ok && pu.Revealed
	}); ok {
		return []game.Action{h.move(playerID, dir)}
	}

	if dir, ok := firstStep(state, p.Pos, 0, isSafe, func(pos game.Position) bool {
		return enemyAt(state, playerID, pos)
	}); ok {
		return []game.Action{h.move(playerID, dir)}
	}

	return h.wander(state, p, danger)
}

func (h *Heuristic) move(playerID string, dir game.Direction) game.Action {
	h.lastDir = dir
	h.moving = true
	return game.Action{PlayerID: playerID, Type: game.ActionMove, Dir: dir}
}

// shouldBomb reports whether a bomb here would hit something and the player
// could still reach a safe cell before it goes off.
func (h *Heuristic) shouldBomb(state *game.GameState, p *game.Player, danger dangerMap) bool {
	if p.BombsUsed >= p.BombMax || state.BombAt(p.Pos) != nil {
		return false
	}

	worth := false
	for _, cell := range state.BlastCells(p.Pos, p.BombRange) {
		if state.Tile(cell) == game.SoftWall || enemyAt(state, p.ID, cell) {
			worth = true
			break
		}
	}
	if !worth {
		return false
	}

	after := danger.with(state, p.Pos, p.BombRange)
	_, ok := firstStep(state, p.Pos, escapeSteps(state, p),
		func(pos game.Position) bool { return after.at(pos) != burning },
		func(pos game.Position) bool { return after.at(pos) == safe })
	return ok
}

// escapeSteps is how many cells the player can cover before a fresh bomb
// explodes, keeping one step in hand.
func escapeSteps(state *game.GameState, p *game.Player) int {
	if p.Speed <= 0 {
		return 1
	}
	step := time.Second / time.Duration(p.Speed)
	n := int(state.Config.BombTimer/step) - 1
	if n < 1 {
		n = 1
	}
	return n
}

func (h *Heuristic) wander(state *game.GameState, p *game.Player, danger dangerMap) []game.Action {
	var options []game.Direction
	for _, d := range game.Directions {
		next := p.Pos.Add(d.Delta())
		if state.IsWalkable(next) && danger.at(next) == safe {
			options = append(options, d)
		}
	}
	if len(options) == 0 {
		return nil
	}
	return []game.Action{h.move(p.ID, options[h.rng.Intn(len(options))])}
}

func enemyAt(state *game.GameState, self string, pos game.Position) bool {
	for id, other := range state.Players {
		if id != self && other.Alive && other.Pos == pos {
			return true
		}
	}
	return false
}
