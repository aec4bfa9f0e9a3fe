// propagate.go - Getunte Parameter der Vorgaenger zusammenfuehren
//
// Enthaelt:
// - Lookup: Zugriff auf bereits berechnete Parameter eines Knotens
// - Propagate: Eingaben eines Knotens aus seinen Vorgaengern
package graph

import (
	"maps"

	"github.com/mgua/sdbx/tuner"
)

// Lookup gibt die getunten Parameter eines bereits ausgewerteten Knotens zurueck
type Lookup func(id string) (tuner.TunedParameters, bool)

// MapLookup erstellt einen Lookup aus einer Map
func MapLookup(m map[string]tuner.TunedParameters) Lookup {
	return func(id string) (tuner.TunedParameters, bool) {
		tp, ok := m[id]
		return tp, ok
	}
}

// Propagate fuehrt fuer target die Parameter aller direkten Vorgaenger
// zusammen, die an die Funktion von target adressiert sind.
//
// Vorgaenger werden in Kanten-Reihenfolge zusammengefuehrt, bei gleichen
// Keys gewinnt der spaetere. Fehlt das Ergebnis eines Vorgaengers, wird
// nichts zusammengefuehrt und ein MissingPredecessorResultError zurueckgegeben.
func Propagate(g *Graph, target string, lookup Lookup) (tuner.Parameters, error) {
	node, ok := g.Node(target)
	if !ok {
		return nil, invalidf("unknown node %q", target)
	}

	predecessors := g.Predecessors(target)
	contributions := make([]tuner.Parameters, 0, len(predecessors))
	for _, p := range predecessors {
		tp, ok := lookup(p)
		if !ok {
			return nil, &MissingPredecessorResultError{Node: target, Predecessor: p}
		}
		contributions = append(contributions, tp[node.Function])
	}

	merged := make(tuner.Parameters)
	for _, c := range contributions {
		maps.Copy(merged, c)
	}
	return merged, nil
}
