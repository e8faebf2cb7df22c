package game

import (
	"reflect"
	"testing"
)

func TestNewBoard(t *testing.T) {
	config := DefaultConfig()
	board, _ := NewBoard(config, NewRand(42))

	// Check dimensions
	if len(board) != config.Height {
		t.Fatalf("expected height %d, got %d", config.Height, len(board))
	}
	if len(board[0]) != config.Width {
		t.Fatalf("expected width %d, got %d", config.Width, len(board[0]))
	}

	// Check border walls
	for x := 0; x < config.Width; x++ {
		if board[0][x] != HardWall {
			t.Errorf("top border at (%d,0) should be HardWall", x)
		}
		if board[config.Height-1][x] != HardWall {
			t.Errorf("bottom border at (%d,%d) should be HardWall", x, config.Height-1)
		}
	}
	for y := 0; y < config.Height; y++ {
		if board[y][0] != HardWall {
			t.Errorf("left border at (0,%d) should be HardWall", y)
		}
		if board[y][config.Width-1] != HardWall {
			t.Errorf("right border at (%d,%d) should be HardWall", config.Width-1, y)
		}
	}

	// Check pillar pattern (even,even interior positions)
	for y := 2; y < config.Height-1; y += 2 {
		for x := 2; x < config.Width-1; x += 2 {
			if board[y][x] != HardWall {
				t.Errorf("pillar at (%d,%d) should be HardWall, got %d", x, y, board[y][x])
			}
		}
	}

	// Spawn corners and their neighbours are clear
	for pos := range SafeZones(config.Width, config.Height) {
		if board[pos.Y][pos.X] != Empty {
			t.Errorf("safe cell (%d,%d) should be Empty, got %d", pos.X, pos.Y, board[pos.Y][pos.X])
		}
	}
}

func TestNewBoardDeterministic(t *testing.T) {
	config := DefaultConfig()

	b1, pu1 := NewBoard(config, NewRand(7))
	b2, pu2 := NewBoard(config, NewRand(7))

	if !reflect.DeepEqual(b1, b2) {
		t.Error("same seed should give the same board")
	}
	if !reflect.DeepEqual(pu1, pu2) {
		t.Error("same seed should hide the same power-ups")
	}
}

func TestNewBoardDensity(t *testing.T) {
	config := DefaultConfig()
	safe := SafeZones(config.Width, config.Height)

	config.SoftWallDensity = 0
	board, powerUps := NewBoard(config, NewRand(1))
	for y := range board {
		for x := range board[y] {
			if board[y][x] == SoftWall {
				t.Fatalf("density 0 placed a soft wall at (%d,%d)", x, y)
			}
		}
	}
	if len(powerUps) != 0 {
		t.Errorf("expected no power-ups without soft walls, got %d", len(powerUps))
	}

	config.SoftWallDensity = 1
	board, _ = NewBoard(config, NewRand(1))
	for y := 1; y < config.Height-1; y++ {
		for x := 1; x < config.Width-1; x++ {
			pos := Position{X: x, Y: y}
			if x%2 == 0 && y%2 == 0 || safe[pos] {
				continue
			}
			if board[y][x] != SoftWall {
				t.Errorf("density 1 should fill (%d,%d), got %d", x, y, board[y][x])
			}
		}
	}
}

func TestPowerUpsHiddenUnderSoftWalls(t *testing.T) {
	config := DefaultConfig()
	config.SoftWallDensity = 0.8
	config.PowerUpChance = 1

	board, powerUps := NewBoard(config, NewRand(3))
	if len(powerUps) == 0 {
		t.Fatal("expected power-ups with chance 1")
	}
	for pos, pu := range powerUps {
		if board[pos.Y][pos.X] != SoftWall {
			t.Errorf("power-up at (%d,%d) is not under a soft wall", pos.X, pos.Y)
		}
		if pu.Revealed {
			t.Errorf("power-up at (%d,%d) should start hidden", pos.X, pos.Y)
		}
		if pu.Pos != pos {
			t.Errorf("power-up keyed at %v reports %v", pos, pu.Pos)
		}
	}
}

func TestTileOutOfBounds(t *testing.T) {
	s := NewGameState(DefaultConfig())

	for _, pos := range []Position{{X: -1, Y: 0}, {X: 0, Y: -1}, {X: 13, Y: 5}, {X: 5, Y: 13}} {
		if s.Tile(pos) != HardWall {
			t.Errorf("out-of-bounds %v should read as HardWall", pos)
		}
		if s.IsWalkable(pos) {
			t.Errorf("out-of-bounds %v should not be walkable", pos)
		}
	}
}
