package game

// checkCollisions kills players standing in fire and hands revealed
// power-ups to the living players standing on them.
func (s *GameState) checkCollisions() {
	ids := s.PlayerIDs()

	for _, id := range ids {
		p := s.Players[id]
		if !p.Alive {
			continue
		}
		if e := s.ExplosionAt(p.Pos); e != nil {
			s.kill(p, e.OwnerID)
		}
	}

	for _, id := range ids {
		p := s.Players[id]
		if !p.Alive {
			continue
		}
		pu, ok := s.PowerUps[p.Pos]
		if !ok || !pu.Revealed {
			continue
		}
		s.applyPowerUp(p, pu.Kind)
		delete(s.PowerUps, p.Pos)
		s.emit(Event{Type: EventPowerUpCollected, Pos: p.Pos, PlayerID: p.ID, Detail: pu.Kind.String()})
	}
}

func (s *GameState) kill(p *Player, ownerID string) {
	p.Alive = false
	s.emit(Event{Type: EventPlayerKilled, Pos: p.Pos, PlayerID: p.ID, OwnerID: ownerID})
}

// applyPowerUp raises one stat by a single step, capped by the config maxima.
func (s *GameState) applyPowerUp(p *Player, kind PowerUpKind) {
	switch kind {
	case ExtraBomb:
		p.BombMax = min(p.BombMax+1, s.Config.MaxBombs)
	case ExtraRange:
		p.BombRange = min(p.BombRange+1, s.Config.MaxRange)
	case ExtraSpeed:
		p.Speed = min(p.Speed+1, s.Config.MaxSpeed)
	}
}

// checkWinCondition checks if the game is over.
func (s *GameState) checkWinCondition() {
	if s.Status != StatusRunning {
		return
	}

	alive := make([]*Player, 0)
	for _, id := range s.PlayerIDs() {
		if p := s.Players[id]; p.Alive {
			alive = append(alive, p)
		}
	}

	switch len(alive) {
	case 0:
		// Draw, everyone died in the same frame
		s.Status = StatusOver
		s.Winner = ""
		s.emit(Event{Type: EventGameOver, Detail: "draw"})
	case 1:
		// A winner only if the game started with several players; players
		// who left mid-game count as beaten.
		if s.StartPlayers > 1 {
			s.Status = StatusOver
			s.Winner = alive[0].ID
			s.emit(Event{Type: EventGameOver, PlayerID: alive[0].ID, Pos: alive[0].Pos})
		}
	}
}
