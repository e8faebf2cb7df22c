package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/proutman/internal/game"
)

const floor = lipgloss.Color("#1a1a2e")

// onFloor is a bold glyph drawn over the empty floor colour.
func onFloor(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Background(floor).Foreground(lipgloss.Color(fg)).Bold(true)
}

// cellKind is what a board cell shows, highest priority first.
type cellKind int

const (
	cellFire cellKind = iota
	cellBomb
	cellMachineBomb
	cellCaca
	cellBombUp
	cellFireUp
	cellSpeedUp
	cellHardWall
	cellSoftWall
	cellEmpty
)

type glyph struct {
	text  string
	style lipgloss.Style
}

// Each cell is 2 characters wide for a square-ish appearance.
var glyphs = map[cellKind]glyph{
	cellFire:        {"░░", lipgloss.NewStyle().Background(lipgloss.Color("#ff6600")).Foreground(lipgloss.Color("#ffcc00")).Bold(true)},
	cellBomb:        {"()", onFloor("#ff4444")},
	cellMachineBomb: {"<>", onFloor("#cc66ff")},
	cellCaca:        {"@@", onFloor("#8b5a2b")},
	cellBombUp:      {"B+", onFloor("#44ffff")},
	cellFireUp:      {"F+", onFloor("#ffaa44")},
	cellSpeedUp:     {"S+", onFloor("#aaff44")},
	cellHardWall:    {"██", lipgloss.NewStyle().Background(lipgloss.Color("#3a3a3a")).Foreground(lipgloss.Color("#555555"))},
	cellSoftWall:    {"▒▒", lipgloss.NewStyle().Background(lipgloss.Color("#8B6914")).Foreground(lipgloss.Color("#A0772B"))},
	cellEmpty:       {"  ", lipgloss.NewStyle().Background(floor).Foreground(floor)},
}

var powerUpCells = map[game.PowerUpKind]cellKind{
	game.ExtraBomb:  cellBombUp,
	game.ExtraRange: cellFireUp,
	game.ExtraSpeed: cellSpeedUp,
}

var tileCells = map[game.TileType]cellKind{
	game.HardWall: cellHardWall,
	game.SoftWall: cellSoftWall,
}

// One colour per spawn corner.
var playerColors = []lipgloss.Color{
	lipgloss.Color("#00ff88"),
	lipgloss.Color("#4488ff"),
	lipgloss.Color("#ff44ff"),
	lipgloss.Color("#ffff44"),
}

var (
	deadPlayerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff8844")).Bold(true)
	lobbyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#44aaff")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	winnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true).Blink(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// layer maps every occupied cell to what it shows. Players are kept apart
// since their style depends on who is looking.
type layer struct {
	cells   map[game.Position]cellKind
	players map[game.Position]*game.Player
}

func buildLayer(state *game.GameState) layer {
	l := layer{
		cells:   make(map[game.Position]cellKind),
		players: make(map[game.Position]*game.Player, len(state.Players)),
	}
	// put keeps the higher-priority kind when two entities share a cell.
	put := func(pos game.Position, k cellKind) {
		if cur, ok := l.cells[pos]; !ok || k < cur {
			l.cells[pos] = k
		}
	}

	for _, e := range state.Explosions {
		put(e.Pos, cellFire)
	}
	for _, b := range state.Bombs {
		if b.OwnerID == "" {
			put(b.Pos, cellMachineBomb)
		} else {
			put(b.Pos, cellBomb)
		}
	}
	for _, c := range state.Cacas {
		put(c.Pos, cellCaca)
	}
	for pos, pu := range state.PowerUps {
		if pu.Revealed {
			put(pos, powerUpCells[pu.Kind])
		}
	}
	for _, p := range state.Players {
		if p.Alive {
			l.players[p.Pos] = p
		}
	}
	return l
}

// RenderBoard converts the game state into a styled terminal string.
func RenderBoard(state *game.GameState, myID string) string {
	if state == nil || len(state.Board) == 0 {
		return "Waiting for game state..."
	}

	l := buildLayer(state)
	rows := make([]string, 0, state.Height)
	for y := 0; y < state.Height; y++ {
		var row strings.Builder
		for x := 0; x < state.Width; x++ {
			pos := game.Position{X: x, Y: y}
			row.WriteString(l.render(pos, state.Board[y][x], myID))
		}
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}

func (l layer) render(pos game.Position, tile game.TileType, myID string) string {
	if p, ok := l.players[pos]; ok {
		return renderPlayer(p, myID)
	}
	kind, ok := l.cells[pos]
	if !ok {
		kind, ok = tileCells[tile]
		if !ok {
			kind = cellEmpty
		}
	}
	g := glyphs[kind]
	return g.style.Render(g.text)
}

func renderPlayer(p *game.Player, myID string) string {
	c := playerColors[p.Color%len(playerColors)]
	if p.ID == myID {
		return lipgloss.NewStyle().Foreground(c).Background(c).Render("██")
	}
	return lipgloss.NewStyle().Background(floor).Foreground(c).Bold(true).Render(fmt.Sprintf("P%d", p.Color+1))
}

// RenderHUD renders the side panel: status, timers and the player list.
func RenderHUD(state *game.GameState, myID string) string {
	if state == nil {
		return ""
	}

	lines := []string{titleStyle.Render("💩 PROUTMAN"), ""}
	lines = append(lines, statusLines(state)...)
	lines = append(lines, "", mutedStyle.Render("Players:"))
	for _, id := range state.PlayerIDs() {
		lines = append(lines, playerLine(state.Players[id], myID))
	}
	lines = append(lines, "",
		helpStyle.Render("WASD/Arrows: Move | Space: Bomb | C: Caca | Q: Quit"),
		helpStyle.Render("B+ F+ S+: power-ups | <>: machine bomb"),
	)
	return hudBorderStyle.Render(strings.Join(lines, "\n"))
}

func statusLines(state *game.GameState) []string {
	switch state.Status {
	case game.StatusLobby:
		return []string{
			lobbyStyle.Render("⏳ LOBBY, waiting for players..."),
			"   Press [Enter] to start!",
		}
	case game.StatusRunning:
		lines := []string{
			runningStyle.Render("🔥 GAME IN PROGRESS"),
			fmt.Sprintf("   %s elapsed", state.Elapsed.Truncate(time.Second)),
		}
		if next, ok := nextBlast(state); ok {
			lines = append(lines, fmt.Sprintf("   next blast in %.1fs", next.Seconds()))
		}
		return lines
	case game.StatusOver:
		if p, ok := state.Players[state.Winner]; ok {
			return []string{winnerStyle.Render(fmt.Sprintf("🏆 %s WINS!", p.Name))}
		}
		return []string{mutedStyle.Render("💀 DRAW, everyone died!")}
	}
	return nil
}

func nextBlast(state *game.GameState) (time.Duration, bool) {
	if len(state.Bombs) == 0 {
		return 0, false
	}
	next := state.Bombs[0].Timer
	for _, b := range state.Bombs[1:] {
		next = min(next, b.Timer)
	}
	return next, true
}

func playerLine(p *game.Player, myID string) string {
	marker := "  "
	if p.ID == myID {
		marker = "→ "
	}
	status := "❤️ "
	name := lipgloss.NewStyle().Foreground(playerColors[p.Color%len(playerColors)])
	if !p.Alive {
		status = "💀"
		name = deadPlayerStyle
	}
	return fmt.Sprintf("%s%s %s [💣×%d 🔥%d ⚡%d 💩×%d]",
		marker, status, name.Render(p.Name),
		p.BombMax-p.BombsUsed, p.BombRange, p.Speed, p.CacaMax-p.CacasUsed)
}
