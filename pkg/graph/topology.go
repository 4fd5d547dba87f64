package graph

import (
	"fmt"
	"strings"
)

// IsConnected reports whether the undirected version of the graph has
// exactly one connected component. The empty graph is not connected.
func (g *Graph) IsConnected() bool {
	if len(g.nodeOrder) == 0 {
		return false
	}

	visited := make(map[string]bool, len(g.nodes))
	stack := []string{g.nodeOrder[0]}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range g.out[current] {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
		for _, prev := range g.in[current] {
			if !visited[prev] {
				stack = append(stack, prev)
			}
		}
	}
	return len(visited) == len(g.nodes)
}

// Cycle is a detected cycle as a sequence of node ids; the last node has an
// edge back to the first.
type Cycle []string

// String renders the cycle as "a -> b -> a".
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), c...), c[0]), " -> ")
}

const (
	white = iota // unvisited
	gray         // on the recursion stack
	black        // finished
)

// FindCycle returns the first directed cycle found, or nil for a DAG.
//
// Algorithm: depth-first search with three-colour marking, started from
// every unvisited node in insertion order. Reaching a GRAY node closes a
// back edge, which is a cycle; the cycle is rebuilt from parent pointers.
func (g *Graph) FindCycle() Cycle {
	color := make(map[string]int, len(g.nodes))
	parent := make(map[string]string, len(g.nodes))

	for _, id := range g.nodeOrder {
		if color[id] != white {
			continue
		}
		if c := g.dfsFindCycle(id, color, parent); c != nil {
			return c
		}
	}
	return nil
}

func (g *Graph) dfsFindCycle(id string, color map[string]int, parent map[string]string) Cycle {
	color[id] = gray
	for _, next := range g.out[id] {
		if next == id {
			return Cycle{id}
		}
		switch color[next] {
		case white:
			parent[next] = id
			if c := g.dfsFindCycle(next, color, parent); c != nil {
				return c
			}
		case gray:
			return extractCycle(next, id, parent)
		}
	}
	color[id] = black
	return nil
}

// extractCycle reconstructs the cycle closed by the back edge end -> start.
func extractCycle(start, end string, parent map[string]string) Cycle {
	reversed := Cycle{end}
	for current := end; current != start; {
		p, ok := parent[current]
		if !ok {
			break
		}
		reversed = append(reversed, p)
		current = p
	}
	cycle := make(Cycle, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		cycle = append(cycle, reversed[i])
	}
	return cycle
}

// IsDAG reports whether the graph contains no directed cycle.
func (g *Graph) IsDAG() bool {
	return g.FindCycle() == nil
}

// Validate checks that the graph is connected and acyclic and names the
// condition that failed.
func (g *Graph) Validate() error {
	if !g.IsConnected() {
		return NewError("Validate").Context(fmt.Sprintf("%d nodes", len(g.nodes))).Cause(ErrNotConnected).Err()
	}
	if c := g.FindCycle(); c != nil {
		return NewError("Validate").Context(c.String()).Cause(ErrCycleDetected).Err()
	}
	return nil
}

// TopologicalSort returns node ids in topological order using Kahn's
// algorithm; ties are resolved by insertion order.
// The ordering ensures that for every directed edge u->v, u comes before v.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for _, k := range g.edgeOrder {
		inDegree[k.Target]++
	}

	queue := make([]string, 0)
	for _, id := range g.nodeOrder {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.nodeOrder))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, next := range g.out[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) != len(g.nodeOrder) {
		return nil, NewError("TopologicalSort").Cause(ErrCycleDetected).Err()
	}
	return sorted, nil
}
