package network

import (
	"fmt"
	"net"
	"sync"

	"github.com/amalg/proutman/internal/game"
)

// Client connects to a game server and provides methods to send actions
// and receive state updates.
type Client struct {
	conn      net.Conn
	playerID  string
	config    game.GameConfig
	stateCh   chan game.GameState
	done      chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex

	errMu   sync.Mutex
	lastErr string
}

// NewClient dials addr over proto and joins the lobby as name.
func NewClient(proto, addr, name string) (*Client, error) {
	conn, err := Dial(proto, addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	welcome, err := handshake(conn, name)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Client{
		conn:     conn,
		playerID: welcome.PlayerID,
		config:   welcome.Config,
		stateCh:  make(chan game.GameState, 10),
		done:     make(chan struct{}),
	}
	go c.receiveLoop()
	return c, nil
}

// handshake sends the join and waits for the welcome.
func handshake(conn net.Conn, name string) (WelcomeMsg, error) {
	var welcome WelcomeMsg
	if err := Encode(conn, MsgJoin, JoinMsg{Name: name}); err != nil {
		return welcome, fmt.Errorf("send join: %w", err)
	}

	env, err := Decode(conn)
	if err != nil {
		return welcome, fmt.Errorf("read welcome: %w", err)
	}
	switch env.Type {
	case MsgWelcome:
		if err := DecodePayload(env, &welcome); err != nil {
			return welcome, fmt.Errorf("decode welcome: %w", err)
		}
		return welcome, nil
	case MsgError:
		var msg ErrorMsg
		DecodePayload(env, &msg)
		return welcome, fmt.Errorf("server error: %s", msg.Message)
	default:
		return welcome, fmt.Errorf("expected welcome, got %s", env.Type)
	}
}

// PlayerID returns the client's assigned player ID.
func (c *Client) PlayerID() string {
	return c.playerID
}

// Config returns the game configuration received from the server.
func (c *Client) Config() game.GameConfig {
	return c.config
}

// StateChan yields state updates. Only the latest few are kept; it is
// closed when the connection ends.
func (c *Client) StateChan() <-chan game.GameState {
	return c.stateCh
}

// LastError returns the most recent error message sent by the server.
func (c *Client) LastError() string {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

// SendAction sends a player action to the server.
func (c *Client) SendAction(actionType game.ActionType, dir game.Direction) error {
	return c.send(MsgAction, ActionMsg{ActionType: actionType, Direction: dir})
}

// SendStart requests the server to start the game.
func (c *Client) SendStart() error {
	return c.send(MsgStart, struct{}{})
}

func (c *Client) send(t MsgType, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return Encode(c.conn, t, payload)
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) receiveLoop() {
	defer close(c.stateCh)

	for {
		env, err := Decode(c.conn)
		if err != nil {
			return
		}

		switch env.Type {
		case MsgState:
			var msg StateMsg
			if err := DecodePayload(env, &msg); err != nil {
				continue
			}
			c.pushState(msg.State)
		case MsgError:
			var msg ErrorMsg
			if err := DecodePayload(env, &msg); err != nil {
				continue
			}
			c.errMu.Lock()
			c.lastErr = msg.Message
			c.errMu.Unlock()
		}
	}
}

// pushState never blocks: when the consumer lags the oldest state is dropped.
func (c *Client) pushState(state game.GameState) {
	for {
		select {
		case c.stateCh <- state:
			return
		case <-c.done:
			return
		default:
		}
		select {
		case <-c.stateCh:
		default:
		}
	}
}
