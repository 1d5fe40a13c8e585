package graph

import "strings"

// traversal is the state of one depth-first walk. It is owned by a single
// FindCycles call, which keeps the detector reentrant.
type traversal struct {
	visited map[string]bool
	onStack map[string]int // node -> index in path
	path    []string
	seen    map[string]bool // canonical cycle keys
	cycles  [][]string
}

type frame struct {
	node string
	next int // index of the next outgoing edge to explore
}

// FindCycles reports every circular handoff chain found by a depth-first walk
// of the handoff graph. Each cycle is returned as the node sequence closed by
// its first node, e.g. [a b a]; a self-loop is [a a]. Rotations of the same
// cycle are reported once.
func (m *Model) FindCycles() [][]string {
	t := &traversal{
		visited: make(map[string]bool),
		onStack: make(map[string]int),
		seen:    make(map[string]bool),
	}
	for _, start := range m.Nodes() {
		if !t.visited[start] {
			m.walk(t, start)
		}
	}
	return t.cycles
}

func (m *Model) walk(t *traversal, start string) {
	stack := []frame{t.enter(start)}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := m.HandoffsByFrom[top.node]
		if top.next >= len(edges) {
			t.leave(top.node)
			stack = stack[:len(stack)-1]
			continue
		}
		nb := edges[top.next].To
		top.next++

		if idx, ok := t.onStack[nb]; ok {
			cycle := make([]string, 0, len(t.path)-idx+1)
			cycle = append(cycle, t.path[idx:]...)
			cycle = append(cycle, nb)
			t.record(cycle)
			continue
		}
		if !t.visited[nb] {
			stack = append(stack, t.enter(nb))
		}
	}
}

func (t *traversal) enter(node string) frame {
	t.visited[node] = true
	t.onStack[node] = len(t.path)
	t.path = append(t.path, node)
	return frame{node: node}
}

func (t *traversal) leave(node string) {
	delete(t.onStack, node)
	t.path = t.path[:len(t.path)-1]
}

func (t *traversal) record(cycle []string) {
	key := canonicalKey(cycle[:len(cycle)-1])
	if t.seen[key] {
		return
	}
	t.seen[key] = true
	t.cycles = append(t.cycles, cycle)
}

// canonicalKey rotates an open cycle so it starts at its smallest node.
func canonicalKey(nodes []string) string {
	if len(nodes) == 0 {
		return ""
	}
	lo := 0
	for i := range nodes {
		if nodes[i] < nodes[lo] {
			lo = i
		}
	}
	rotated := make([]string, 0, len(nodes))
	rotated = append(rotated, nodes[lo:]...)
	rotated = append(rotated, nodes[:lo]...)
	return strings.Join(rotated, "\x00")
}
