// Package graph - Knoten-Graph eines Workflows
//
// Dieses Modul enthaelt:
// - Node/Edge: Knoten mit Funktion und Widget-Eingaben, benannte Kanten
// - Graph: Gerichteter Multigraph mit Einfuege-Reihenfolge
// - Predecessors/Successors: Nachbarn in Kanten-Reihenfolge
//
// Knoten und Kanten behalten ihre Einfuege-Reihenfolge, mehrere Kanten
// zwischen denselben Knoten sind erlaubt.
package graph

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node ist ein Berechnungsschritt
type Node struct {
	ID       string         `json:"id"`
	Function string         `json:"function"`
	Path     string         `json:"path,omitempty"`
	Widgets  map[string]any `json:"widget_inputs,omitempty"`
}

// Edge fuehrt den Ausgang Output von From in den Eingang Input von To
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Output string `json:"output,omitempty"`
	Input  string `json:"input,omitempty"`
}

// Graph ist ein gerichteter Multigraph. Nach dem Aufbau darf parallel
// gelesen werden, Aenderungen muessen synchronisiert werden.
type Graph struct {
	nodes *orderedmap.OrderedMap[string, *Node]
	edges []Edge

	incoming map[string][]int
	outgoing map[string][]int
}

// New erstellt einen leeren Graph
func New() *Graph {
	return &Graph{
		nodes:    orderedmap.New[string, *Node](),
		incoming: make(map[string][]int),
		outgoing: make(map[string][]int),
	}
}

// AddNode fuegt n hinzu. Ids muessen eindeutig und nicht leer sein.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return invalidf("node without id")
	}
	if _, ok := g.nodes.Get(n.ID); ok {
		return invalidf("duplicate node %q", n.ID)
	}

	g.nodes.Set(n.ID, &n)
	return nil
}

// AddEdge verbindet zwei vorhandene Knoten. Schleifen auf sich selbst
// werden abgelehnt.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes.Get(e.From); !ok {
		return invalidf("edge from unknown node %q", e.From)
	}
	if _, ok := g.nodes.Get(e.To); !ok {
		return invalidf("edge to unknown node %q", e.To)
	}
	if e.From == e.To {
		return &CycleDetectedError{Path: []string{e.From, e.To}}
	}

	i := len(g.edges)
	g.edges = append(g.edges, e)
	g.incoming[e.To] = append(g.incoming[e.To], i)
	g.outgoing[e.From] = append(g.outgoing[e.From], i)
	return nil
}

func (g *Graph) Node(id string) (*Node, bool) {
	return g.nodes.Get(id)
}

// Nodes gibt alle Knoten in Einfuege-Reihenfolge zurueck
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, g.nodes.Len())
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		nodes = append(nodes, pair.Value)
	}
	return nodes
}

// Edges gibt alle Kanten in Einfuege-Reihenfolge zurueck
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

func (g *Graph) Len() int {
	return g.nodes.Len()
}

// Predecessors gibt die direkten Vorgaenger von id in Kanten-Reihenfolge
// zurueck. Ein Vorgaenger mit mehreren Kanten erscheint einmal, an der
// Position seiner ersten Kante.
func (g *Graph) Predecessors(id string) []string {
	return g.neighbours(g.incoming[id], func(e Edge) string { return e.From })
}

// Successors gibt die direkten Nachfolger von id in Kanten-Reihenfolge zurueck
func (g *Graph) Successors(id string) []string {
	return g.neighbours(g.outgoing[id], func(e Edge) string { return e.To })
}

func (g *Graph) neighbours(indices []int, end func(Edge) string) []string {
	var out []string
	seen := make(map[string]bool, len(indices))
	for _, i := range indices {
		id := end(g.edges[i])
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
