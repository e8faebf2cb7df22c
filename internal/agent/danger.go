package agent

import "github.com/amalg/proutman/internal/game"

type dangerLevel uint8

const (
	safe dangerLevel = iota
	threatened        // inside the blast preview of a live bomb
	burning           // on fire right now
)

// dangerMap marks cells that are burning or will burn.
type dangerMap map[game.Position]dangerLevel

func buildDanger(state *game.GameState) dangerMap {
	danger := make(dangerMap)
	for _, b := range state.Bombs {
		danger.addBlast(state, b.Pos, b.Range)
	}
	for _, e := range state.Explosions {
		danger[e.Pos] = burning
	}
	return danger
}

func (d dangerMap) addBlast(state *game.GameState, origin game.Position, blastRange int) {
	for _, cell := range state.BlastCells(origin, blastRange) {
		if d[cell] == safe {
			d[cell] = threatened
		}
	}
}

func (d dangerMap) at(pos game.Position) dangerLevel {
	return d[pos]
}

// with returns a copy of d that also covers a blast from origin.
func (d dangerMap) with(state *game.GameState, origin game.Position, blastRange int) dangerMap {
	out := make(dangerMap, len(d))
	for pos, lvl := range d {
		out[pos] = lvl
	}
	out.addBlast(state, origin, blastRange)
	return out
}
