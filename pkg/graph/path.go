package graph

import "github.com/ormasoftchile/meshcheck/pkg/solution"

// FindPath runs a breadth-first search over the handoff graph and returns the
// first path from -> to discovered in FIFO order. Outgoing edges are explored
// in handoff declaration order. The returned path always has at least one
// edge: from == to is satisfied only by a cycle back to from.
func (m *Model) FindPath(from, to string) ([]solution.Handoff, bool) {
	if from == "" || to == "" {
		return nil, false
	}
	type step struct {
		node string
		path []solution.Handoff
	}
	// from is not pre-marked visited: when from == to only a cycle matches.
	visited := make(map[string]bool)
	queue := []step{{node: from}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, h := range m.HandoffsByFrom[cur.node] {
			next := make([]solution.Handoff, len(cur.path)+1)
			copy(next, cur.path)
			next[len(cur.path)] = h
			if h.To == to {
				return next, true
			}
			if visited[h.To] {
				continue
			}
			visited[h.To] = true
			queue = append(queue, step{node: h.To, path: next})
		}
	}
	return nil, false
}

// PathNodes returns the skill ids visited along a path, starting with the
// source of the first edge.
func PathNodes(path []solution.Handoff) []string {
	if len(path) == 0 {
		return nil
	}
	nodes := make([]string, 0, len(path)+1)
	nodes = append(nodes, path[0].From)
	for _, h := range path {
		nodes = append(nodes, h.To)
	}
	return nodes
}
