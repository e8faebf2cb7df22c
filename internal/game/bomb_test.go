package game

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

// newTestState returns a running 13x13 game with no soft walls.
func newTestState(t *testing.T, players ...string) *GameState {
	t.Helper()
	config := DefaultConfig()
	config.SoftWallDensity = 0
	config.Seed = 1
	s := NewGameState(config)
	for _, id := range players {
		if _, err := s.AddPlayer(id, id); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	s.Start()
	return s
}

func explosionCells(s *GameState) []Position {
	cells := make([]Position, 0, len(s.Explosions))
	for _, e := range s.Explosions {
		cells = append(cells, e.Pos)
	}
	sortPositions(cells)
	return cells
}

func sortPositions(ps []Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Y != ps[j].Y {
			return ps[i].Y < ps[j].Y
		}
		return ps[i].X < ps[j].X
	})
}

func TestPlaceBomb(t *testing.T) {
	s := newTestState(t, "p1")
	p := s.Players["p1"]
	p.BombMax = 1

	if _, ok := s.PlaceBomb("p1"); !ok {
		t.Fatal("first bomb should be placed")
	}
	if p.BombsUsed != 1 {
		t.Errorf("expected BombsUsed=1, got %d", p.BombsUsed)
	}

	// At the limit
	if _, ok := s.PlaceBomb("p1"); ok {
		t.Error("should not place second bomb when at limit")
	}

	// Same cell, with capacity left
	p.BombMax = 2
	if _, ok := s.PlaceBomb("p1"); ok {
		t.Error("should not place two bombs on one cell")
	}
	if len(s.Bombs) != 1 {
		t.Errorf("expected 1 bomb, got %d", len(s.Bombs))
	}

	if _, ok := s.PlaceBomb("ghost"); ok {
		t.Error("unknown player should not place a bomb")
	}
	p.Alive = false
	if _, ok := s.PlaceBomb("p1"); ok {
		t.Error("dead player should not place a bomb")
	}
}

func TestBlastShape(t *testing.T) {
	s := newTestState(t, "p1")

	got := s.BlastCells(Position{X: 1, Y: 1}, 2)
	sortPositions(got)
	want := []Position{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 3}}
	sortPositions(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("blast cells = %v, want %v", got, want)
	}
}

func TestBlastOpenCross(t *testing.T) {
	s := newTestState(t, "p1")

	// (5,5) is an odd/odd cell with open corridors both ways.
	for r := 1; r <= 3; r++ {
		got := s.BlastCells(Position{X: 5, Y: 5}, r)
		if len(got) != 4*r+1 {
			t.Errorf("range %d: expected %d cells, got %d: %v", r, 4*r+1, len(got), got)
		}
	}

	got := s.BlastCells(Position{X: 5, Y: 5}, 1)
	sortPositions(got)
	want := []Position{{X: 5, Y: 4}, {X: 4, Y: 5}, {X: 5, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 6}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("blast cells = %v, want %v", got, want)
	}
}

func TestExplosion(t *testing.T) {
	s := newTestState(t, "p1")
	p := s.Players["p1"]

	s.PlaceBomb("p1")
	// Move far enough away (range=2)
	p.Pos = Position{X: 5, Y: 5}

	s.Update(s.Config.BombTimer)

	want := []Position{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 3}}
	sortPositions(want)
	if got := explosionCells(s); !reflect.DeepEqual(got, want) {
		t.Errorf("explosion cells = %v, want %v", got, want)
	}
	if len(s.Bombs) != 0 {
		t.Errorf("bomb should be removed, %d left", len(s.Bombs))
	}
	if p.BombsUsed != 0 {
		t.Errorf("bomb count should be returned, BombsUsed=%d", p.BombsUsed)
	}
	if !p.Alive {
		t.Error("player should be alive after moving away from bomb")
	}

	// Explosions fade after their duration
	s.Update(s.Config.FireDuration)
	if len(s.Explosions) != 0 {
		t.Errorf("explosions should expire, %d left", len(s.Explosions))
	}
}

func TestBombCountdown(t *testing.T) {
	s := newTestState(t, "p1")
	s.PlaceBomb("p1")
	s.Players["p1"].Pos = Position{X: 5, Y: 5}

	s.Update(s.Config.BombTimer - time.Millisecond)
	if len(s.Bombs) != 1 {
		t.Fatal("bomb should not explode before its timer runs out")
	}
	s.Update(time.Millisecond)
	if len(s.Bombs) != 0 {
		t.Error("bomb should explode once its timer runs out")
	}
}

func TestPlayerDamage(t *testing.T) {
	s := newTestState(t, "p1")
	p := s.Players["p1"]

	// Player at (1,1), place bomb, DON'T move
	s.PlaceBomb("p1")
	s.Update(s.Config.BombTimer)

	if p.Alive {
		t.Error("player standing on bomb should be killed by explosion")
	}
	if s.Status != StatusOver || s.Winner != "" {
		t.Errorf("single player death should end in a draw, got %s winner=%q", s.Status, s.Winner)
	}
}

func TestSoftWallDestruction(t *testing.T) {
	s := newTestState(t, "p1")
	s.Players["p1"].Pos = Position{X: 5, Y: 5}

	// Soft wall right next to the bomb stops the ray
	s.Board[1][2] = SoftWall
	s.PowerUps[Position{X: 2, Y: 1}] = &PowerUp{Pos: Position{X: 2, Y: 1}, Kind: ExtraRange}
	s.Bombs = append(s.Bombs, &Bomb{Pos: Position{X: 1, Y: 1}, Range: 2})

	s.Update(time.Millisecond)

	if s.Board[1][2] != Empty {
		t.Errorf("soft wall at (2,1) should be destroyed, got %d", s.Board[1][2])
	}
	if s.ExplosionAt(Position{X: 2, Y: 1}) == nil {
		t.Error("destroyed wall cell should burn")
	}
	if s.ExplosionAt(Position{X: 3, Y: 1}) != nil {
		t.Error("ray should stop at the soft wall")
	}
	if pu := s.PowerUps[Position{X: 2, Y: 1}]; pu == nil || !pu.Revealed {
		t.Error("power-up under the wall should be revealed")
	}
}

func TestChainReaction(t *testing.T) {
	s := newTestState(t, "p1")
	s.Players["p1"].Pos = Position{X: 11, Y: 11}

	s.Bombs = append(s.Bombs,
		&Bomb{Pos: Position{X: 1, Y: 1}, Range: 2},
		&Bomb{Pos: Position{X: 3, Y: 1}, Range: 2, Timer: 10 * time.Second},
	)
	s.Update(time.Millisecond)

	if len(s.Bombs) != 0 {
		t.Fatalf("chained bomb should detonate in the same tick, %d left", len(s.Bombs))
	}
	if s.ExplosionAt(Position{X: 5, Y: 1}) == nil {
		t.Error("chained bomb's blast should reach (5,1)")
	}
}

func TestBombInFireDetonates(t *testing.T) {
	s := newTestState(t, "p1")
	s.Players["p1"].Pos = Position{X: 11, Y: 11}

	s.Explosions = append(s.Explosions, &Explosion{Pos: Position{X: 5, Y: 5}, Timer: time.Second})
	s.Bombs = append(s.Bombs, &Bomb{Pos: Position{X: 5, Y: 5}, Range: 1, Timer: 10 * time.Second})
	s.Update(time.Millisecond)

	if len(s.Bombs) != 0 {
		t.Error("bomb sitting in fire should detonate")
	}
}

func TestChainOrderIndependent(t *testing.T) {
	run := func(reverse bool) *GameState {
		s := newTestState(t)
		s.Board[1][5] = SoftWall
		a := &Bomb{Pos: Position{X: 3, Y: 1}, Range: 3}
		b := &Bomb{Pos: Position{X: 7, Y: 1}, Range: 3}
		if reverse {
			s.Bombs = append(s.Bombs, b, a)
		} else {
			s.Bombs = append(s.Bombs, a, b)
		}
		s.Update(time.Millisecond)
		return s
	}

	s1, s2 := run(false), run(true)

	if !reflect.DeepEqual(s1.Board, s2.Board) {
		t.Error("board differs with bomb order")
	}
	if !reflect.DeepEqual(explosionCells(s1), explosionCells(s2)) {
		t.Errorf("explosions differ with bomb order: %v vs %v", explosionCells(s1), explosionCells(s2))
	}
	if s1.Board[1][5] != Empty {
		t.Error("shared soft wall should be destroyed")
	}
	// Both rays stopped at the wall, so (4,1) and (6,1) burn only from their own bomb.
	for _, pos := range []Position{{X: 4, Y: 1}, {X: 5, Y: 1}, {X: 6, Y: 1}} {
		if s1.ExplosionAt(pos) == nil {
			t.Errorf("expected fire at %v", pos)
		}
	}
}

func TestOneExplosionPerCell(t *testing.T) {
	s := newTestState(t, "p1")
	s.Players["p1"].Pos = Position{X: 11, Y: 11}

	s.Bombs = append(s.Bombs,
		&Bomb{Pos: Position{X: 1, Y: 3}, Range: 2},
		&Bomb{Pos: Position{X: 3, Y: 3}, Range: 2},
	)
	s.Update(time.Millisecond)

	seen := make(map[Position]bool)
	for _, e := range s.Explosions {
		if seen[e.Pos] {
			t.Errorf("duplicate explosion at %v", e.Pos)
		}
		seen[e.Pos] = true
	}
}

func TestReigniteRefreshesTimer(t *testing.T) {
	s := newTestState(t, "p1")
	s.Players["p1"].Pos = Position{X: 11, Y: 11}

	s.Explosions = append(s.Explosions, &Explosion{Pos: Position{X: 2, Y: 1}, Timer: 100 * time.Millisecond})
	s.Bombs = append(s.Bombs, &Bomb{Pos: Position{X: 1, Y: 1}, Range: 2})
	s.Update(time.Millisecond)

	e := s.ExplosionAt(Position{X: 2, Y: 1})
	if e == nil {
		t.Fatal("expected fire at (2,1)")
	}
	if e.Timer != s.Config.FireDuration {
		t.Errorf("timer should be refreshed to %v, got %v", s.Config.FireDuration, e.Timer)
	}
}

func TestBombEvents(t *testing.T) {
	s := newTestState(t, "p1")
	s.PlaceBomb("p1")
	s.Players["p1"].Pos = Position{X: 5, Y: 5}
	s.Update(s.Config.BombTimer)

	var placed, exploded int
	for _, ev := range s.DrainEvents() {
		switch ev.Type {
		case EventBombPlaced:
			placed++
		case EventBombExploded:
			exploded++
			if ev.OwnerID != "p1" {
				t.Errorf("exploded event owner = %q, want p1", ev.OwnerID)
			}
		}
	}
	if placed != 1 || exploded != 1 {
		t.Errorf("expected 1 placed and 1 exploded event, got %d and %d", placed, exploded)
	}
	if len(s.DrainEvents()) != 0 {
		t.Error("DrainEvents should clear the buffer")
	}
}
