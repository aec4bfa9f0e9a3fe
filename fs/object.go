// Package fs - Gemeinsame Typen fuer Container-Decoder
//
// Dieses Modul enthaelt:
// - Object: geordnete Key-Value-Struktur eines dekodierten Header-Objekts
// - Visitor: Callback pro dekodiertem Objekt (innerstes zuerst)
// - Shape/Strings: Hilfsfunktionen zum Lesen von Werten
// - Plain: Wandelt Objects rekursiv in map[string]any um
package fs

import (
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object ist ein dekodiertes Header-Objekt mit erhaltener Dokument-Reihenfolge.
//
// Werte sind string, json.Number, bool, nil, []any oder *Object. Decoder fuer
// binaere Formate (GGUF, Pickle) duerfen zusaetzlich native Zahlentypen und
// []uint64 ablegen.
type Object = orderedmap.OrderedMap[string, any]

// NewObject erstellt ein leeres Object
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Visitor wird fuer jedes dekodierte Objekt aufgerufen. Verschachtelte
// Objekte werden vor ihrem Eltern-Objekt besucht, Geschwister in
// Dokument-Reihenfolge.
type Visitor func(*Object)

// Visitors fasst mehrere Visitor zu einem zusammen
func Visitors(vs ...Visitor) Visitor {
	return func(o *Object) {
		for _, v := range vs {
			if v != nil {
				v(o)
			}
		}
	}
}

// Keys gibt die Keys eines Objects in Dokument-Reihenfolge zurueck
func Keys(o *Object) []string {
	keys := make([]string, 0, o.Len())
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Shape liest einen Shape-Wert als []uint64.
// Gibt false zurueck wenn der Wert keine Liste nicht-negativer Ganzzahlen ist.
func Shape(v any) ([]uint64, bool) {
	switch v := v.(type) {
	case []uint64:
		return v, true
	case []int:
		shape := make([]uint64, len(v))
		for i, n := range v {
			if n < 0 {
				return nil, false
			}
			shape[i] = uint64(n)
		}
		return shape, true
	case []any:
		shape := make([]uint64, len(v))
		for i, e := range v {
			n, ok := dim(e)
			if !ok {
				return nil, false
			}
			shape[i] = n
		}
		return shape, true
	default:
		return nil, false
	}
}

func dim(v any) (uint64, bool) {
	switch v := v.(type) {
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		return n, err == nil
	case float64:
		if v < 0 || v != float64(uint64(v)) {
			return 0, false
		}
		return uint64(v), true
	case int:
		return uint64(v), v >= 0
	case int64:
		return uint64(v), v >= 0
	case uint64:
		return v, true
	default:
		return 0, false
	}
}

// Strings gibt alle String-Werte eines Objects zurueck (nicht rekursiv)
func Strings(o *Object) []string {
	var out []string
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		if s, ok := pair.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Plain wandelt v rekursiv in einfache Go-Werte um: *Object wird zu
// map[string]any, []any wird elementweise umgewandelt. Andere Werte bleiben
// unveraendert.
func Plain(v any) any {
	switch v := v.(type) {
	case *Object:
		m := make(map[string]any, v.Len())
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			m[pair.Key] = Plain(pair.Value)
		}
		return m
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Plain(e)
		}
		return out
	default:
		return v
	}
}
