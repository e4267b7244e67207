// Package graph derives a deterministic execution order for a workflow's
// nodes from its connections.
package graph

import "github.com/nodeflow/nodeflow/pkg/models"

// Order computes a topological execution order over the given nodes using
// Kahn's algorithm. Ties are broken by declaration order, so the result is
// deterministic for a given definition. The returned sequence always covers
// every node exactly once.
//
// When the graph contains a cycle (or connections reference nodes that keep
// part of the graph unreachable from an in-degree-zero seed), the order falls
// back to the nodes' original declaration order and the second return value
// is true. Callers are expected to surface the fallback rather than treat it
// as a normal topological run.
func Order(nodes []*models.Node, connections []*models.Connection) ([]string, bool) {
	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))

	for _, node := range nodes {
		inDegree[node.ID] = 0
	}

	for _, conn := range connections {
		adjacency[conn.Source] = append(adjacency[conn.Source], conn.Target)
		inDegree[conn.Target]++
	}

	queue := make([]string, 0, len(nodes))

	for _, node := range nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	order := make([]string, 0, len(nodes))

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(order) != len(nodes) {
		return declarationOrder(nodes), true
	}

	return order, false
}

func declarationOrder(nodes []*models.Node) []string {
	order := make([]string, len(nodes))
	for i, node := range nodes {
		order[i] = node.ID
	}

	return order
}
