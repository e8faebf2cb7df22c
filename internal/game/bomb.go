package game

import "time"

// PlaceBomb places a bomb at the player's current position.
// It returns false when nothing was placed: the player is unknown or dead,
// is at their bomb limit, or the cell already holds a bomb.
func (s *GameState) PlaceBomb(playerID string) (*Bomb, bool) {
	p, ok := s.Players[playerID]
	if !ok || !p.Alive {
		return nil, false
	}
	if p.BombsUsed >= p.BombMax {
		return nil, false
	}
	if s.BombAt(p.Pos) != nil {
		return nil, false
	}

	bomb := &Bomb{
		OwnerID: playerID,
		Pos:     p.Pos,
		Range:   p.BombRange,
		Timer:   s.Config.BombTimer,
	}
	s.Bombs = append(s.Bombs, bomb)
	p.BombsUsed++
	s.emit(Event{Type: EventBombPlaced, Pos: p.Pos, PlayerID: playerID})
	return bomb, true
}

// BombAt returns the bomb on pos, or nil.
func (s *GameState) BombAt(pos Position) *Bomb {
	for _, b := range s.Bombs {
		if b.Pos == pos {
			return b
		}
	}
	return nil
}

// ExplosionAt returns the explosion burning on pos, or nil.
func (s *GameState) ExplosionAt(pos Position) *Explosion {
	for _, e := range s.Explosions {
		if e.Pos == pos {
			return e
		}
	}
	return nil
}

// BlastCells returns the cells a blast of the given range at origin would
// cover on the current board, without changing anything.
func (s *GameState) BlastCells(origin Position, blastRange int) []Position {
	return traceBlast(s.Tile, origin, blastRange)
}

// traceBlast walks the four rays out from origin. A ray stops before a hard
// wall and on the first soft wall it meets.
func traceBlast(tile func(Position) TileType, origin Position, blastRange int) []Position {
	cells := []Position{origin}
	for _, d := range Directions {
		step := d.Delta()
		pos := origin
		for dist := 1; dist <= blastRange; dist++ {
			pos = pos.Add(step)
			t := tile(pos)
			if t == HardWall {
				break
			}
			cells = append(cells, pos)
			if t == SoftWall {
				break
			}
		}
	}
	return cells
}

// tickBombs counts down every bomb and detonates those that ran out, along
// with any bomb sitting in fire.
func (s *GameState) tickBombs(dt time.Duration) {
	var wave []*Bomb
	for _, b := range s.Bombs {
		b.Timer -= dt
		if b.Timer <= 0 || s.ExplosionAt(b.Pos) != nil {
			wave = append(wave, b)
		}
	}
	if len(wave) > 0 {
		s.detonate(wave)
	}
}

// detonate resolves one wave of bombs, including every bomb their blasts
// reach. All rays are traced against the board as it was before the wave and
// walls are only removed once tracing is done, so the outcome does not depend
// on the order bombs are visited in.
func (s *GameState) detonate(wave []*Bomb) {
	snapshot := make([][]TileType, len(s.Board))
	for y := range s.Board {
		snapshot[y] = append([]TileType(nil), s.Board[y]...)
	}
	tile := func(pos Position) TileType {
		if !s.InBounds(pos) {
			return HardWall
		}
		return snapshot[pos.Y][pos.X]
	}

	bombAt := make(map[Position]*Bomb, len(s.Bombs))
	for _, b := range s.Bombs {
		bombAt[b.Pos] = b
	}
	queued := make(map[*Bomb]bool, len(wave))
	for _, b := range wave {
		queued[b] = true
	}

	fireOwner := make(map[Position]string)
	var fireCells []Position
	destroyed := make(map[Position]bool)
	var destroyedCells []Position

	// wave grows while we iterate: chained bombs are appended and traced too.
	for i := 0; i < len(wave); i++ {
		b := wave[i]
		for _, cell := range traceBlast(tile, b.Pos, b.Range) {
			if _, seen := fireOwner[cell]; !seen {
				fireOwner[cell] = b.OwnerID
				fireCells = append(fireCells, cell)
			}
			if tile(cell) == SoftWall && !destroyed[cell] {
				destroyed[cell] = true
				destroyedCells = append(destroyedCells, cell)
			}
			if other, ok := bombAt[cell]; ok && !queued[other] {
				queued[other] = true
				wave = append(wave, other)
			}
		}
	}

	// Remove detonated bombs and return bomb count to owners.
	remaining := make([]*Bomb, 0, len(s.Bombs))
	for _, b := range s.Bombs {
		if !queued[b] {
			remaining = append(remaining, b)
			continue
		}
		if p, ok := s.Players[b.OwnerID]; ok && p.BombsUsed > 0 {
			p.BombsUsed--
		}
		s.emit(Event{Type: EventBombExploded, Pos: b.Pos, OwnerID: b.OwnerID})
	}
	s.Bombs = remaining

	for _, cell := range destroyedCells {
		s.Board[cell.Y][cell.X] = Empty
		s.emit(Event{Type: EventWallDestroyed, Pos: cell, OwnerID: fireOwner[cell]})
		if pu, ok := s.PowerUps[cell]; ok && !pu.Revealed {
			pu.Revealed = true
			s.emit(Event{Type: EventPowerUpRevealed, Pos: cell, OwnerID: fireOwner[cell], Detail: pu.Kind.String()})
		}
	}

	for _, cell := range fireCells {
		s.ignite(cell, fireOwner[cell])
	}
}

// ignite sets cell on fire for the configured duration. A cell that is
// already burning keeps a single explosion with its timer refreshed.
func (s *GameState) ignite(cell Position, ownerID string) {
	if e := s.ExplosionAt(cell); e != nil {
		e.Timer = s.Config.FireDuration
		e.OwnerID = ownerID
		return
	}
	s.Explosions = append(s.Explosions, &Explosion{
		Pos:     cell,
		Timer:   s.Config.FireDuration,
		OwnerID: ownerID,
	})
}
