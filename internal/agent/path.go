package agent

import (
	"container/list"

	"github.com/amalg/proutman/internal/game"
)

type stepNode struct {
	Pos   game.Position
	First game.Direction // direction of the first step from the start
	Depth int
}

// firstStep runs a breadth-first search from start over walkable cells and
// returns the first move of the shortest path to a cell matching goal.
// Cells rejected by pass are never entered. maxDepth <= 0 means unbounded.
func firstStep(state *game.GameState, start game.Position, maxDepth int,
	pass func(game.Position) bool, goal func(game.Position) bool) (game.Direction, bool) {

	queue := list.New()
	visited := map[game.Position]bool{start: true}

	for _, d := range game.Directions {
		npos := start.Add(d.Delta())
		if !state.IsWalkable(npos) || !pass(npos) {
			continue
		}
		visited[npos] = true
		queue.PushBack(&stepNode{Pos: npos, First: d, Depth: 1})
	}

	for queue.Len() > 0 {
		n := queue.Remove(queue.Front()).(*stepNode)
		if goal(n.Pos) {
			return n.First, true
		}
		if maxDepth > 0 && n.Depth >= maxDepth {
			continue
		}
		for _, d := range game.Directions {
			npos := n.Pos.Add(d.Delta())
			if visited[npos] {
				continue
			}
			if !state.IsWalkable(npos) || !pass(npos) {
				continue
			}
			visited[npos] = true
			queue.PushBack(&stepNode{Pos: npos, First: n.First, Depth: n.Depth + 1})
		}
	}
	return game.DirUp, false
}
