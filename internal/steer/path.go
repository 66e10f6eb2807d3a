// Bounded-expansion shortest-path search over passable tiles. Used when
// direct attraction would wedge an agent behind an obstacle; the node budget
// guarantees termination, and a budget miss marks the goal invalid rather
// than stalling forever.
package steer

import (
	"container/heap"

	"github.com/ferune/wildmere/internal/world"
)

// FindPath runs A* from start to goal over passable tiles, expanding at most
// budget nodes. Returns the path excluding start (first element is the next
// step) and false when no path exists within budget.
func FindPath(g *world.Grid, start, goal world.Pos, budget int) ([]world.Pos, bool) {
	if start == goal {
		return nil, true
	}
	if !g.Passable(goal) {
		return nil, false
	}

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{pos: start, f: heuristic(start, goal)})

	cameFrom := map[world.Pos]world.Pos{start: start}
	gScore := map[world.Pos]int{start: 0}
	expanded := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.pos == goal {
			return rebuild(cameFrom, start, goal), true
		}

		expanded++
		if expanded > budget {
			return nil, false
		}

		for _, next := range cur.pos.Neighbors() {
			if !g.Passable(next) {
				continue
			}
			// Uniform step cost; diagonals count the same under Chebyshev
			// movement.
			tentative := gScore[cur.pos] + 1
			if old, seen := gScore[next]; seen && tentative >= old {
				continue
			}
			cameFrom[next] = cur.pos
			gScore[next] = tentative
			heap.Push(open, &pathNode{
				pos: next,
				f:   float64(tentative) + heuristic(next, goal),
			})
		}
	}

	return nil, false
}

func heuristic(a, b world.Pos) float64 {
	return float64(world.ChebyshevDist(a, b))
}

func rebuild(cameFrom map[world.Pos]world.Pos, start, goal world.Pos) []world.Pos {
	var rev []world.Pos
	for cur := goal; cur != start; cur = cameFrom[cur] {
		rev = append(rev, cur)
	}
	path := make([]world.Pos, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}

type pathNode struct {
	pos   world.Pos
	f     float64
	index int
}

type nodeQueue []*pathNode

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].f < q[j].f }
func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
