package game

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Controller decides actions for one player each tick. It is called with the
// engine lock held and must not call back into the engine.
type Controller interface {
	Decide(state *GameState, playerID string, dt time.Duration) []Action
}

// Engine is the authoritative game loop that processes all game logic.
type Engine struct {
	State    *GameState
	Config   GameConfig
	actions  chan Action
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	bots     map[string]Controller
	onTick   func(GameState, []Event) // Callback after each tick with a COPY of state
	onAction func(int64, Action)
}

// NewEngine creates a new game engine with the given config.
func NewEngine(config GameConfig) *Engine {
	return &Engine{
		State:   NewGameState(config),
		Config:  config,
		actions: make(chan Action, 256),
		done:    make(chan struct{}),
		bots:    make(map[string]Controller),
	}
}

// OnTick sets a callback that is invoked after every game tick with a copy of the
// state and the events the tick produced.
// Used by the network server to broadcast state to clients.
func (e *Engine) OnTick(fn func(GameState, []Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// OnAction sets a callback invoked, under the engine lock, for every action
// applied. The replay recorder hooks in here.
func (e *Engine) OnAction(fn func(frame int64, a Action)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAction = fn
}

// Run starts the game loop at the configured tick rate.
// This blocks until Stop() is called.
func (e *Engine) Run() {
	ticker := time.NewTicker(e.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.Step(e.TickInterval())
		}
	}
}

// Stop halts the game loop. It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

// TickInterval is the simulated time of one tick.
func (e *Engine) TickInterval() time.Duration {
	if e.Config.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(e.Config.TickRate)
}

// EnqueueAction sends a player action to be processed on the next tick.
func (e *Engine) EnqueueAction(a Action) {
	select {
	case e.actions <- a:
	default:
		// Drop action if buffer is full (prevents blocking)
	}
}

// AddPlayer adds a new player to the game.
// Returns an error if the game is full or already running.
func (e *Engine) AddPlayer(id, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State.Status == StatusRunning {
		return fmt.Errorf("game already in progress")
	}
	if _, err := e.State.AddPlayer(id, name); err != nil {
		return err
	}
	log.Printf("[ENGINE] %s joined as %s", name, id)
	return nil
}

// AddBot adds a player driven by ctrl instead of queued actions.
func (e *Engine) AddBot(id, name string, ctrl Controller) error {
	if err := e.AddPlayer(id, name); err != nil {
		return err
	}
	e.mu.Lock()
	e.bots[id] = ctrl
	e.mu.Unlock()
	return nil
}

// RemovePlayer removes a player from the game.
func (e *Engine) RemovePlayer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.State.RemovePlayer(id)
	delete(e.bots, id)
}

// StartGame transitions the game from lobby to running.
func (e *Engine) StartGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.State.Players) < 1 {
		return fmt.Errorf("need at least 1 player to start")
	}
	e.State.Start()
	log.Printf("[ENGINE] game started with %d players", len(e.State.Players))
	return nil
}

// Step runs one tick of dt: drain actions, ask bots, advance the state.
// IMPORTANT: We copy the state while holding the lock, then release the lock
// BEFORE calling onTick to avoid deadlock (onTick may call back into the engine).
func (e *Engine) Step(dt time.Duration) {
	e.mu.Lock()

	wasRunning := e.State.Status == StatusRunning
	if wasRunning {
		e.drainActions()
		e.runBots(dt)
		e.State.Update(dt)
	}
	events := e.State.DrainEvents()
	if wasRunning && e.State.Status == StatusOver {
		if e.State.Winner == "" {
			log.Printf("[ENGINE] game over after %d frames: draw", e.State.Frame)
		} else {
			log.Printf("[ENGINE] game over after %d frames: %s wins", e.State.Frame, e.State.Winner)
		}
	}

	// Copy state while still holding the lock
	stateCopy := e.State.Clone()
	onTick := e.onTick

	// Release lock BEFORE calling the callback
	e.mu.Unlock()

	if onTick != nil {
		onTick(stateCopy, events)
	}
}

// drainActions processes all queued player actions.
func (e *Engine) drainActions() {
	for {
		select {
		case a := <-e.actions:
			e.apply(a)
		default:
			return
		}
	}
}

// runBots asks every bot for its actions, in join order.
func (e *Engine) runBots(dt time.Duration) {
	ids := make([]string, 0, len(e.bots))
	for id := range e.bots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return e.State.Players[ids[i]].Color < e.State.Players[ids[j]].Color
	})
	for _, id := range ids {
		if p, ok := e.State.Players[id]; !ok || !p.Alive {
			continue
		}
		for _, a := range e.bots[id].Decide(e.State, id, dt) {
			a.PlayerID = id
			e.apply(a)
		}
	}
}

func (e *Engine) apply(a Action) {
	var ok bool
	switch a.Type {
	case ActionMove:
		ok = e.State.MovePlayer(a.PlayerID, a.Dir)
	case ActionPlaceBomb:
		_, ok = e.State.PlaceBomb(a.PlayerID)
	case ActionPlaceCaca:
		_, ok = e.State.PlaceCaca(a.PlayerID)
	}
	if ok && e.onAction != nil {
		e.onAction(e.State.Frame, a)
	}
}

// GetStateCopy returns a deep copy of the game state safe for serialization.
func (e *Engine) GetStateCopy() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.State.Clone()
}
