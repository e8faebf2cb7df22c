package web

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/amalg/proutman/internal/game"
)

// spectator is one websocket watching the game.
type spectator struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub fans state frames out to every spectator.
type Hub struct {
	mu         sync.Mutex
	spectators map[*spectator]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{spectators: make(map[*spectator]bool)}
}

// Count returns the number of connected spectators.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spectators)
}

// Broadcast sends state to every spectator. Spectators that fall behind are
// dropped.
func (h *Hub) Broadcast(state game.GameState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.spectators) == 0 {
		return
	}

	msg, err := json.Marshal(state)
	if err != nil {
		log.Printf("[WEB] Failed to marshal state: %v", err)
		return
	}

	for sp := range h.spectators {
		select {
		case sp.send <- msg:
		default:
			log.Printf("[WEB] Dropping slow spectator %s", sp.ws.RemoteAddr())
			h.removeLocked(sp)
		}
	}
}

func (h *Hub) add(ws *websocket.Conn) *spectator {
	sp := &spectator{ws: ws, send: make(chan []byte, 16)}
	h.mu.Lock()
	h.spectators[sp] = true
	h.mu.Unlock()
	return sp
}

func (h *Hub) remove(sp *spectator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sp)
}

func (h *Hub) removeLocked(sp *spectator) {
	if !h.spectators[sp] {
		return
	}
	delete(h.spectators, sp)
	close(sp.send)
}

// readPump discards incoming messages and unregisters the spectator when the
// socket closes.
func (h *Hub) readPump(sp *spectator) {
	defer func() {
		h.remove(sp)
		sp.ws.Close()
	}()

	for {
		if _, _, err := sp.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WEB] Spectator read error: %v", err)
			}
			return
		}
	}
}

// writePump writes queued frames until the hub closes the send channel.
func (h *Hub) writePump(sp *spectator) {
	defer sp.ws.Close()

	for message := range sp.send {
		if err := sp.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	sp.ws.WriteMessage(websocket.CloseMessage, []byte{})
}
