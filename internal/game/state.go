package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// GameState owns the board and every entity on it. It is not safe for
// concurrent use; the Engine serialises access.
type GameState struct {
	Board      [][]TileType          `json:"board"`
	Players    map[string]*Player    `json:"players"`
	Bombs      []*Bomb               `json:"bombs"`
	Explosions []*Explosion          `json:"explosions"`
	Cacas      []*Caca               `json:"cacas"`
	PowerUps   map[Position]*PowerUp `json:"powerups"`
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Status     GameStatus            `json:"status"`
	Winner     string                `json:"winner,omitempty"`
	Frame      int64                 `json:"frame"`
	Elapsed    time.Duration         `json:"elapsed"`

	// StartPlayers is the player count when the game left the lobby.
	StartPlayers int `json:"start_players"`

	Config GameConfig `json:"-"`

	rng          *rand.Rand
	events       []Event
	machineTimer time.Duration
}

// NewGameState generates a fresh board from config.
func NewGameState(config GameConfig) *GameState {
	rng := NewRand(config.Seed)
	board, powerUps := NewBoard(config, rng)
	return &GameState{
		Board:      board,
		Players:    make(map[string]*Player),
		Bombs:      make([]*Bomb, 0),
		Explosions: make([]*Explosion, 0),
		Cacas:      make([]*Caca, 0),
		PowerUps:   powerUps,
		Width:      config.Width,
		Height:     config.Height,
		Status:     StatusLobby,
		Config:     config,
		rng:        rng,
	}
}

// AddPlayer places a new player on the next free spawn corner.
func (s *GameState) AddPlayer(id, name string) (*Player, error) {
	if _, exists := s.Players[id]; exists {
		return nil, fmt.Errorf("player %s already exists", id)
	}
	if s.Config.MaxPlayers > 0 && len(s.Players) >= s.Config.MaxPlayers {
		return nil, fmt.Errorf("game is full (%d/%d players)", len(s.Players), s.Config.MaxPlayers)
	}

	slot := s.freeSlot()
	spawns := SpawnPositions(s.Width, s.Height)

	p := &Player{
		ID:        id,
		Name:      name,
		Pos:       spawns[slot%len(spawns)],
		Alive:     true,
		BombMax:   s.Config.InitialBombs,
		BombRange: s.Config.InitialRange,
		Speed:     s.Config.InitialSpeed,
		CacaMax:   s.Config.MaxCacas,
		Color:     slot,
	}
	s.Players[id] = p
	return p, nil
}

// freeSlot returns the lowest colour index no current player holds. The
// index also picks the spawn corner.
func (s *GameState) freeSlot() int {
	taken := make(map[int]bool, len(s.Players))
	for _, p := range s.Players {
		taken[p.Color] = true
	}
	slot := 0
	for taken[slot] {
		slot++
	}
	return slot
}

// Start moves the game out of the lobby.
func (s *GameState) Start() {
	if s.Status == StatusLobby {
		s.Status = StatusRunning
		s.StartPlayers = len(s.Players)
	}
}

// RemovePlayer drops a player from the game.
func (s *GameState) RemovePlayer(id string) {
	delete(s.Players, id)
}

// PlayerIDs returns player IDs in join order.
func (s *GameState) PlayerIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.Players[ids[i]].Color < s.Players[ids[j]].Color
	})
	return ids
}

// InBounds reports whether pos lies on the board.
func (s *GameState) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < s.Width && pos.Y >= 0 && pos.Y < s.Height
}

// Tile returns the tile at pos. Out-of-bounds reads as HardWall.
func (s *GameState) Tile(pos Position) TileType {
	if !s.InBounds(pos) {
		return HardWall
	}
	return s.Board[pos.Y][pos.X]
}

// Update advances every entity by dt, then resolves collisions and the win
// condition. It does nothing unless the game is running.
func (s *GameState) Update(dt time.Duration) {
	if s.Status != StatusRunning {
		return
	}
	s.Frame++
	s.Elapsed += dt

	s.tickPlayers(dt)
	s.tickExplosions(dt)
	s.tickCacas(dt)
	s.tickBombMachine(dt)
	s.tickBombs(dt)
	s.checkCollisions()
	s.checkWinCondition()
}

func (s *GameState) tickPlayers(dt time.Duration) {
	for _, p := range s.Players {
		if p.MoveCooldown > 0 {
			p.MoveCooldown -= dt
			if p.MoveCooldown < 0 {
				p.MoveCooldown = 0
			}
		}
	}
}

// tickExplosions fades explosions and removes those whose timer ran out.
func (s *GameState) tickExplosions(dt time.Duration) {
	remaining := s.Explosions[:0]
	for _, e := range s.Explosions {
		e.Timer -= dt
		if e.Timer > 0 {
			remaining = append(remaining, e)
		}
	}
	clearTail(s.Explosions, len(remaining))
	s.Explosions = remaining
}

// tickCacas ages cacas and refunds the owner's counter once per expiry.
func (s *GameState) tickCacas(dt time.Duration) {
	remaining := s.Cacas[:0]
	for _, c := range s.Cacas {
		c.Timer -= dt
		if c.Timer > 0 {
			remaining = append(remaining, c)
			continue
		}
		if p, ok := s.Players[c.OwnerID]; ok && p.CacasUsed > 0 {
			p.CacasUsed--
		}
		s.emit(Event{Type: EventCacaExpired, Pos: c.Pos, PlayerID: c.OwnerID})
	}
	clearTail(s.Cacas, len(remaining))
	s.Cacas = remaining
}

func (s *GameState) rand() *rand.Rand {
	if s.rng == nil {
		s.rng = NewRand(s.Config.Seed)
	}
	return s.rng
}

// clearTail nils out the slots past n so filtered-out entities can be collected.
func clearTail[T any](s []*T, n int) {
	for i := n; i < len(s); i++ {
		s[i] = nil
	}
}

// Clone returns a deep copy of the state safe for serialization and for
// reading outside the engine lock.
func (s *GameState) Clone() GameState {
	board := make([][]TileType, len(s.Board))
	for y := range board {
		board[y] = make([]TileType, len(s.Board[y]))
		copy(board[y], s.Board[y])
	}

	players := make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		players[id] = &cp
	}

	bombs := make([]*Bomb, len(s.Bombs))
	for i, b := range s.Bombs {
		cb := *b
		bombs[i] = &cb
	}

	explosions := make([]*Explosion, len(s.Explosions))
	for i, e := range s.Explosions {
		ce := *e
		explosions[i] = &ce
	}

	cacas := make([]*Caca, len(s.Cacas))
	for i, c := range s.Cacas {
		cc := *c
		cacas[i] = &cc
	}

	powerUps := make(map[Position]*PowerUp, len(s.PowerUps))
	for pos, pu := range s.PowerUps {
		cp := *pu
		powerUps[pos] = &cp
	}

	return GameState{
		Board:      board,
		Players:    players,
		Bombs:      bombs,
		Explosions: explosions,
		Cacas:      cacas,
		PowerUps:   powerUps,
		Width:      s.Width,
		Height:     s.Height,
		Status:     s.Status,
		Winner:     s.Winner,
		Frame:      s.Frame,
		Elapsed:    s.Elapsed,
		Config:     s.Config,

		StartPlayers: s.StartPlayers,
	}
}
