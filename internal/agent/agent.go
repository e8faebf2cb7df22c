// Package agent holds computer-controlled players. Agents see the same
// frame-stepped state a human client does and answer with actions.
package agent

import (
	"time"

	"github.com/amalg/proutman/internal/game"
)

// Agent decides the actions of one player for the current frame.
// Implementations are called from inside the engine tick and must not block.
type Agent interface {
	Decide(state *game.GameState, playerID string, dt time.Duration) []game.Action
}

var _ game.Controller = (Agent)(nil)
