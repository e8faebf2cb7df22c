package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/proutman/internal/game"
)

// Conn is the client side of a game session. *network.Client satisfies it.
type Conn interface {
	PlayerID() string
	StateChan() <-chan game.GameState
	LastError() string
	SendAction(actionType game.ActionType, dir game.Direction) error
	SendStart() error
}

// stateUpdateMsg carries a new game state from the network client.
type stateUpdateMsg game.GameState

// errMsg carries an error.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// Model is the Bubbletea model for the game client.
type Model struct {
	conn     Conn
	state    *game.GameState
	playerID string
	err      error
	quitting bool
}

// NewModel creates a new TUI model on top of conn.
func NewModel(conn Conn) Model {
	return Model{
		conn:     conn,
		playerID: conn.PlayerID(),
	}
}

// Init starts listening for state updates from the server.
func (m Model) Init() tea.Cmd {
	return waitForState(m.conn)
}

// Update handles incoming messages (key presses, state updates).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateUpdateMsg:
		state := game.GameState(msg)
		m.state = &state
		return m, waitForState(m.conn)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the current game state.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye! 👋\n"
	}

	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	board := RenderBoard(m.state, m.playerID)
	hud := RenderHUD(m.state, m.playerID)

	view := lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", hud)
	if e := m.conn.LastError(); e != "" {
		view += "\n" + errorStyle.Render("Server: "+e)
	}
	return view + "\n"
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "w":
		m.conn.SendAction(game.ActionMove, game.DirUp)
	case "down", "s":
		m.conn.SendAction(game.ActionMove, game.DirDown)
	case "left", "a":
		m.conn.SendAction(game.ActionMove, game.DirLeft)
	case "right", "d":
		m.conn.SendAction(game.ActionMove, game.DirRight)
	case " ":
		m.conn.SendAction(game.ActionPlaceBomb, 0)
	case "c":
		m.conn.SendAction(game.ActionPlaceCaca, 0)
	case "enter":
		m.conn.SendStart()
	}

	return m, nil
}

// waitForState returns a Cmd that waits for the next state update from the server.
func waitForState(conn Conn) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-conn.StateChan()
		if !ok {
			return errMsg{err: fmt.Errorf("server connection closed")}
		}
		return stateUpdateMsg(state)
	}
}
