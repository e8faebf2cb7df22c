package game

import "time"

// machineSearchRadius bounds how far from the centre a drop may land.
const machineSearchRadius = 2

// tickBombMachine drops an ownerless bomb near the centre every interval.
func (s *GameState) tickBombMachine(dt time.Duration) {
	mc := s.Config.BombMachine
	if !mc.Enabled || mc.Interval <= 0 {
		return
	}
	s.machineTimer += dt
	if s.machineTimer < mc.Interval {
		return
	}
	s.machineTimer = 0

	pos, ok := s.machineDropPosition()
	if !ok {
		return
	}
	s.Bombs = append(s.Bombs, &Bomb{Pos: pos, Range: mc.Range, Timer: mc.Timer})
	s.emit(Event{Type: EventBombDropped, Pos: pos})
}

// MachineCountdown returns the time left before the next drop, or zero when
// the machine is disabled.
func (s *GameState) MachineCountdown() time.Duration {
	mc := s.Config.BombMachine
	if !mc.Enabled {
		return 0
	}
	return mc.Interval - s.machineTimer
}

// machineDropPosition picks the centre cell, or a random free cell on the
// nearest ring around it.
func (s *GameState) machineDropPosition() (Position, bool) {
	center := Position{X: s.Width / 2, Y: s.Height / 2}
	if s.canDrop(center) {
		return center, true
	}

	for radius := 1; radius <= machineSearchRadius; radius++ {
		var candidates []Position
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if abs(dx) != radius && abs(dy) != radius {
					continue
				}
				pos := Position{X: center.X + dx, Y: center.Y + dy}
				if s.canDrop(pos) {
					candidates = append(candidates, pos)
				}
			}
		}
		if len(candidates) > 0 {
			return candidates[s.rand().Intn(len(candidates))], true
		}
	}
	return Position{}, false
}

func (s *GameState) canDrop(pos Position) bool {
	if !s.IsWalkable(pos) {
		return false
	}
	for _, p := range s.Players {
		if p.Alive && p.Pos == pos {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
