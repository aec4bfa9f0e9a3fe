// document.go - JSON-Darstellung eines Graphen
//
// Enthaelt:
// - Document: Knoten und Kanten als JSON
// - Build: Baut einen Graph, vergibt fehlende Ids per UUID
// - Decode/Encode: Lesen und Schreiben von Documents
package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Document ist die serialisierte Form eines Graphen
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build baut den Graph. Knoten ohne Id erhalten eine zufaellige UUID; Kanten
// koennen solche Knoten nur ueber ihre Position als "#<index>" erreichen.
func (d *Document) Build() (*Graph, error) {
	g := New()

	ids := make(map[string]string, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		ids[fmt.Sprintf("#%d", i)] = n.ID

		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	resolve := func(id string) string {
		if real, ok := ids[id]; ok {
			return real
		}
		return id
	}

	for _, e := range d.Edges {
		e.From, e.To = resolve(e.From), resolve(e.To)
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Document gibt die serialisierbare Form des Graphen zurueck
func (g *Graph) Document() Document {
	d := Document{Edges: g.Edges()}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, *n)
	}
	return d
}

// Decode liest ein Document aus r und baut den Graph
func Decode(r io.Reader) (*Graph, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, invalidf("decode: %v", err)
	}
	return d.Build()
}

// Encode schreibt den Graph als Document nach w
func Encode(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.Document())
}
