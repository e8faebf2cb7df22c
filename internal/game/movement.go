package game

import "time"

// IsWalkable reports whether a player may step onto pos: the tile must be
// Empty and no bomb or caca may occupy it. It does not modify state.
func (s *GameState) IsWalkable(pos Position) bool {
	if s.Tile(pos) != Empty {
		return false
	}
	if s.BombAt(pos) != nil {
		return false
	}
	return s.CacaAt(pos) == nil
}

// MovePlayer attempts to move a player one cell in the given direction.
// Movement is blocked by walls, bombs, cacas, board edges and the player's
// move cooldown. It reports whether the player moved.
func (s *GameState) MovePlayer(playerID string, dir Direction) bool {
	p, ok := s.Players[playerID]
	if !ok || !p.Alive {
		return false
	}
	if p.MoveCooldown > 0 {
		return false
	}

	newPos := p.Pos.Add(dir.Delta())
	if !s.IsWalkable(newPos) {
		return false
	}

	p.Pos = newPos
	p.MoveCooldown = stepInterval(p.Speed)

	// Walking into fire is fatal straight away.
	if e := s.ExplosionAt(newPos); e != nil {
		s.kill(p, e.OwnerID)
	}
	return true
}

// stepInterval is the time one cell takes at speed tiles per second.
func stepInterval(speed int) time.Duration {
	if speed <= 0 {
		return 0
	}
	return time.Second / time.Duration(speed)
}
