// topo.go - Topologische Reihenfolge
//
// Enthaelt:
// - TopologicalOrder: Kahn mit FIFO-Warteschlange in Einfuege-Reihenfolge
// - findCycle: Deterministische Tiefensuche fuer einen Zyklus-Zeugen
package graph

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
)

// TopologicalOrder gibt alle Knoten so zurueck, dass jeder Knoten nach all
// seinen Vorgaengern kommt. Bei mehreren bereiten Knoten entscheidet die
// Reihenfolge, in der sie bereit wurden; anfangs die Einfuege-Reihenfolge.
func (g *Graph) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, g.nodes.Len())
	for _, e := range g.edges {
		indegree[e.To]++
	}

	ready := linkedlistqueue.New[string]()
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if indegree[pair.Key] == 0 {
			ready.Enqueue(pair.Key)
		}
	}

	order := make([]string, 0, g.nodes.Len())
	for !ready.Empty() {
		id, _ := ready.Dequeue()
		order = append(order, id)

		for _, i := range g.outgoing[id] {
			to := g.edges[i].To
			indegree[to]--
			if indegree[to] == 0 {
				ready.Enqueue(to)
			}
		}
	}

	if len(order) != g.nodes.Len() {
		return nil, &CycleDetectedError{Path: g.findCycle()}
	}
	return order, nil
}

// findCycle gibt einen Zyklus als Pfad zurueck, z.B. [a b c a]
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.nodes.Len())
	parent := make(map[string]string, g.nodes.Len())

	var cycle []string

	var dfs func(u string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, v := range g.Successors(u) {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Rueckwaertskante u -> v
				cycle = []string{v}
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if color[pair.Key] == white && dfs(pair.Key) {
			break
		}
	}

	// cycle ist [v u ... v] rueckwaerts, umdrehen
	for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
	return cycle
}
