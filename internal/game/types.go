package game

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TileType represents the type of a cell on the game board.
type TileType int

const (
	Empty    TileType = iota
	HardWall          // Indestructible
	SoftWall          // Destructible by bombs, may hide a power-up
)

// Direction represents a movement direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Delta returns the unit step for the direction.
func (d Direction) Delta() Position {
	switch d {
	case DirUp:
		return Position{X: 0, Y: -1}
	case DirDown:
		return Position{X: 0, Y: 1}
	case DirLeft:
		return Position{X: -1, Y: 0}
	case DirRight:
		return Position{X: 1, Y: 0}
	}
	return Position{}
}

// Directions lists the four cardinal directions in blast order.
var Directions = []Direction{DirUp, DirDown, DirLeft, DirRight}

// ActionType represents the type of player action.
type ActionType int

const (
	ActionMove ActionType = iota
	ActionPlaceBomb
	ActionPlaceCaca
)

func (a ActionType) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionPlaceBomb:
		return "bomb"
	case ActionPlaceCaca:
		return "caca"
	}
	return "unknown"
}

// Action represents a player's input action.
type Action struct {
	PlayerID string     `json:"player_id"`
	Type     ActionType `json:"type"`
	Dir      Direction  `json:"dir,omitempty"` // Only relevant for ActionMove
}

// Position represents a coordinate on the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Player represents a participant, human or agent.
type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Pos       Position `json:"pos"`
	Alive     bool     `json:"alive"`
	BombMax   int      `json:"bomb_max"`   // Max simultaneous bombs
	BombRange int      `json:"bomb_range"` // Explosion range in tiles
	BombsUsed int      `json:"bombs_used"` // Currently active bombs
	Speed     int      `json:"speed"`      // Tiles per second
	CacaMax   int      `json:"caca_max"`
	CacasUsed int      `json:"cacas_used"`
	Color     int      `json:"color"` // Player color index (0-3)

	// MoveCooldown is the time left before the next step is allowed.
	MoveCooldown time.Duration `json:"-"`
}

// Bomb represents an active bomb on the board.
// OwnerID is empty for bombs dropped by the bomb machine.
type Bomb struct {
	OwnerID string        `json:"owner_id,omitempty"`
	Pos     Position      `json:"pos"`
	Range   int           `json:"range"`
	Timer   time.Duration `json:"timer"`
}

// Explosion is one burning cell left by a detonation.
type Explosion struct {
	Pos     Position      `json:"pos"`
	Timer   time.Duration `json:"timer"`
	OwnerID string        `json:"owner_id,omitempty"`
}

// PowerUpKind is the stat a power-up increments.
type PowerUpKind int

const (
	ExtraBomb PowerUpKind = iota
	ExtraRange
	ExtraSpeed

	powerUpKinds = 3
)

func (k PowerUpKind) String() string {
	switch k {
	case ExtraBomb:
		return "bomb+"
	case ExtraRange:
		return "fire+"
	case ExtraSpeed:
		return "speed+"
	}
	return "unknown"
}

// PowerUp sits under a soft wall until the wall is destroyed.
type PowerUp struct {
	Pos      Position    `json:"pos"`
	Kind     PowerUpKind `json:"kind"`
	Revealed bool        `json:"revealed"`
}

// Caca is a temporary obstacle a player drops to block movement.
type Caca struct {
	OwnerID string        `json:"owner_id"`
	Pos     Position      `json:"pos"`
	Timer   time.Duration `json:"timer"`
}

// GameStatus represents the current game phase.
type GameStatus int

const (
	StatusLobby   GameStatus = iota // Waiting for players
	StatusRunning                   // Game in progress
	StatusOver                      // Game finished
)

func (s GameStatus) String() string {
	switch s {
	case StatusLobby:
		return "lobby"
	case StatusRunning:
		return "running"
	case StatusOver:
		return "over"
	}
	return "unknown"
}

// BombMachineConfig controls the centre bomb dropper.
type BombMachineConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Interval time.Duration `json:"interval" yaml:"interval"`
	Timer    time.Duration `json:"timer" yaml:"timer"`
	Range    int           `json:"range" yaml:"range"`
}

// GameConfig holds configurable parameters for a game session.
type GameConfig struct {
	Width           int           `json:"width" yaml:"width"`
	Height          int           `json:"height" yaml:"height"`
	TileSize        int           `json:"tile_size" yaml:"tile_size"`
	TickRate        int           `json:"tick_rate" yaml:"tick_rate"` // Ticks per second
	BombTimer       time.Duration `json:"bomb_timer" yaml:"bomb_timer"`
	FireDuration    time.Duration `json:"fire_duration" yaml:"fire_duration"`
	MaxPlayers      int           `json:"max_players" yaml:"max_players"`
	SoftWallDensity float64       `json:"soft_wall_density" yaml:"soft_wall_density"` // 0.0 to 1.0
	PowerUpChance   float64       `json:"powerup_chance" yaml:"powerup_chance"`
	Seed            int64         `json:"seed" yaml:"seed"` // 0 picks a time-based seed

	InitialBombs int `json:"initial_bombs" yaml:"initial_bombs"`
	InitialRange int `json:"initial_range" yaml:"initial_range"`
	InitialSpeed int `json:"initial_speed" yaml:"initial_speed"`
	MaxBombs     int `json:"max_bombs" yaml:"max_bombs"`
	MaxRange     int `json:"max_range" yaml:"max_range"`
	MaxSpeed     int `json:"max_speed" yaml:"max_speed"`

	MaxCacas     int           `json:"max_cacas" yaml:"max_cacas"`
	CacaDuration time.Duration `json:"caca_duration" yaml:"caca_duration"`

	BombMachine BombMachineConfig `json:"bomb_machine" yaml:"bomb_machine"`
}

// DefaultConfig returns a sensible default game configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		Width:           13,
		Height:          13,
		TileSize:        32,
		TickRate:        30,
		BombTimer:       3 * time.Second,
		FireDuration:    500 * time.Millisecond,
		MaxPlayers:      4,
		SoftWallDensity: 0.25,
		PowerUpChance:   0.5,

		InitialBombs: 2,
		InitialRange: 2,
		InitialSpeed: 7,
		MaxBombs:     8,
		MaxRange:     10,
		MaxSpeed:     10,

		MaxCacas:     3,
		CacaDuration: 5 * time.Second,

		BombMachine: BombMachineConfig{
			Enabled:  false,
			Interval: 10 * time.Second,
			Timer:    10 * time.Second,
			Range:    3,
		},
	}
}

// SpawnPositions returns the corner spawn positions for players.
// These corners and their adjacent tiles are kept clear of soft walls.
func SpawnPositions(width, height int) []Position {
	return []Position{
		{X: 1, Y: 1},                  // Top-left
		{X: width - 2, Y: height - 2}, // Bottom-right
		{X: width - 2, Y: 1},          // Top-right
		{X: 1, Y: height - 2},         // Bottom-left
	}
}

// MarshalText encodes the position as "x,y" so it can key JSON objects.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)), nil
}

// UnmarshalText decodes the "x,y" form written by MarshalText.
func (p *Position) UnmarshalText(text []byte) error {
	xs, ys, ok := strings.Cut(string(text), ",")
	if !ok {
		return fmt.Errorf("invalid position %q", text)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", text, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", text, err)
	}
	p.X, p.Y = x, y
	return nil
}

// positionJSON keeps the object form for positions used as values.
type positionJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionJSON(p))
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var pj positionJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	*p = Position(pj)
	return nil
}
