package game

// PlaceCaca drops a caca on the player's cell. Nothing is placed when the
// player is unknown or dead, has all their cacas out, or the cell already
// holds a caca or a bomb.
func (s *GameState) PlaceCaca(playerID string) (*Caca, bool) {
	p, ok := s.Players[playerID]
	if !ok || !p.Alive {
		return nil, false
	}
	if p.CacasUsed >= p.CacaMax {
		return nil, false
	}
	if s.CacaAt(p.Pos) != nil || s.BombAt(p.Pos) != nil {
		return nil, false
	}

	caca := &Caca{
		OwnerID: playerID,
		Pos:     p.Pos,
		Timer:   s.Config.CacaDuration,
	}
	s.Cacas = append(s.Cacas, caca)
	p.CacasUsed++
	s.emit(Event{Type: EventCacaPlaced, Pos: p.Pos, PlayerID: playerID})
	return caca, true
}

// CacaAt returns the caca on pos, or nil.
func (s *GameState) CacaAt(pos Position) *Caca {
	for _, c := range s.Cacas {
		if c.Pos == pos {
			return c
		}
	}
	return nil
}
