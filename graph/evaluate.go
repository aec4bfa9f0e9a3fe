// evaluate.go - Auswertung eines Graphen
//
// Enthaelt:
// - EvalFunc: Berechnet die getunten Parameter eines Knotens
// - Evaluation: Reihenfolge, Eingaben und Parameter aller Knoten
// - Evaluate: Topologische Auswertung mit Propagation
// - TunerFunc: EvalFunc auf Basis eines tuner.Tuner
package graph

import (
	"context"
	"fmt"

	"github.com/mgua/sdbx/logutil"
	"github.com/mgua/sdbx/tuner"
)

// EvalFunc berechnet die getunten Parameter von n. inputs sind die bereits
// zusammengefuehrten Parameter der Vorgaenger.
type EvalFunc func(ctx context.Context, n *Node, inputs tuner.Parameters) (tuner.TunedParameters, error)

// Evaluation ist das Ergebnis einer Auswertung
type Evaluation struct {
	Order  []string                         `json:"order"`
	Inputs map[string]tuner.Parameters      `json:"inputs"`
	Tuned  map[string]tuner.TunedParameters `json:"tuned"`
}

// Evaluate wertet alle Knoten in topologischer Reihenfolge aus. Fuer jeden
// Knoten werden zuerst die Parameter der Vorgaenger propagiert, danach wird
// fn aufgerufen. Der Kontext wird zwischen den Knoten geprueft.
func Evaluate(ctx context.Context, g *Graph, fn EvalFunc) (*Evaluation, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	ev := Evaluation{
		Order:  order,
		Inputs: make(map[string]tuner.Parameters, len(order)),
		Tuned:  make(map[string]tuner.TunedParameters, len(order)),
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inputs, err := Propagate(g, id, MapLookup(ev.Tuned))
		if err != nil {
			return nil, err
		}

		node, _ := g.Node(id)
		tp, err := fn(ctx, node, inputs)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", id, err)
		}
		if tp == nil {
			tp = tuner.TunedParameters{}
		}

		logutil.TraceContext(ctx, "evaluated node", "id", id, "function", node.Function, "inputs", len(inputs))
		ev.Inputs[id] = inputs
		ev.Tuned[id] = tp
	}

	return &ev, nil
}

// TunerFunc gibt eine EvalFunc zurueck, die Knoten mit Modell-Pfad ueber t
// tuned. Knoten ohne Pfad liefern keine Parameter.
func TunerFunc(t *tuner.Tuner) EvalFunc {
	return func(_ context.Context, n *Node, _ tuner.Parameters) (tuner.TunedParameters, error) {
		if n.Path == "" {
			return nil, nil
		}

		tuning, err := t.Tune(n.Path, n.Function, n.Widgets)
		if err != nil {
			return nil, err
		}
		return tuning.Parameters, nil
	}
}
