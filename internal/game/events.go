package game

// EventType names something that happened during a tick.
type EventType string

const (
	EventBombPlaced       EventType = "bomb_placed"
	EventBombDropped      EventType = "bomb_dropped" // by the bomb machine
	EventBombExploded     EventType = "bomb_exploded"
	EventCacaPlaced       EventType = "caca_placed"
	EventCacaExpired      EventType = "caca_expired"
	EventWallDestroyed    EventType = "wall_destroyed"
	EventPowerUpRevealed  EventType = "powerup_revealed"
	EventPowerUpCollected EventType = "powerup_collected"
	EventPlayerKilled     EventType = "player_killed"
	EventGameOver         EventType = "game_over"
)

// Event is emitted by state changes for stats and replay consumers.
//
// PlayerID is the acting or affected player. OwnerID is the owner of the
// bomb responsible, when there is one.
type Event struct {
	Type     EventType `json:"type"`
	Frame    int64     `json:"frame"`
	Pos      Position  `json:"pos"`
	PlayerID string    `json:"player_id,omitempty"`
	OwnerID  string    `json:"owner_id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

func (s *GameState) emit(ev Event) {
	ev.Frame = s.Frame
	s.events = append(s.events, ev)
}

// DrainEvents returns the events recorded since the last call and clears them.
func (s *GameState) DrainEvents() []Event {
	evs := s.events
	s.events = nil
	return evs
}
