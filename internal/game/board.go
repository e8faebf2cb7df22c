package game

import (
	"math/rand"
	"time"
)

// NewRand returns the random source for a game. A zero seed picks one from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NewBoard generates a classic Bomberman grid layout and the power-ups hidden in it.
//
// Layout rules:
//   - Border is all HardWall
//   - HardWall at every position where both X and Y are even
//   - Random SoftWall fill at the given density
//   - Player spawn corners (and their adjacent tiles) are kept clear
//   - Each soft wall hides a power-up with probability PowerUpChance
func NewBoard(config GameConfig, rng *rand.Rand) ([][]TileType, map[Position]*PowerUp) {
	board := make([][]TileType, config.Height)
	for y := 0; y < config.Height; y++ {
		board[y] = make([]TileType, config.Width)
		for x := 0; x < config.Width; x++ {
			switch {
			case x == 0 || y == 0 || x == config.Width-1 || y == config.Height-1:
				board[y][x] = HardWall
			case x%2 == 0 && y%2 == 0:
				board[y][x] = HardWall
			default:
				board[y][x] = Empty
			}
		}
	}

	safeSet := SafeZones(config.Width, config.Height)
	powerUps := make(map[Position]*PowerUp)

	// Row-major order keeps the draw sequence stable for a given seed.
	for y := 1; y < config.Height-1; y++ {
		for x := 1; x < config.Width-1; x++ {
			if board[y][x] != Empty {
				continue
			}
			pos := Position{X: x, Y: y}
			if safeSet[pos] {
				continue
			}
			if rng.Float64() >= config.SoftWallDensity {
				continue
			}
			board[y][x] = SoftWall
			if rng.Float64() < config.PowerUpChance {
				powerUps[pos] = &PowerUp{
					Pos:  pos,
					Kind: PowerUpKind(rng.Intn(powerUpKinds)),
				}
			}
		}
	}

	return board, powerUps
}

// SafeZones returns the set of positions that must remain clear for player spawning.
// Each spawn corner is kept clear along with its orthogonal neighbours.
func SafeZones(width, height int) map[Position]bool {
	safe := make(map[Position]bool)
	for _, sp := range SpawnPositions(width, height) {
		safe[sp] = true
		for _, d := range Directions {
			safe[sp.Add(d.Delta())] = true
		}
	}
	return safe
}
