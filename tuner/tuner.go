// Package tuner - Getunte Parameter pro Modell-Datei
//
// Dieses Modul enthaelt:
// - Parameters/TunedParameters: Parameter eines Knotens bzw. pro Funktion
// - Tuning: Ergebnis fuer eine Datei (ModelTag, Klassifikation, Parameter)
// - Tuner: Klassifiziert ueber den Cache und wendet die Regeln an
package tuner

import (
	"log/slog"

	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/metadata"
)

// Parameters bildet Parameter-Namen auf Werte ab
type Parameters map[string]any

// TunedParameters ordnet jeder Downstream-Funktion ihre Parameter zu
type TunedParameters map[string]Parameters

// For gibt die Parameter fuer die Funktion zurueck, leer wenn keine existieren
func (tp TunedParameters) For(function string) Parameters {
	if p, ok := tp[function]; ok {
		return p
	}
	return Parameters{}
}

// Tuning ist das gecachte Ergebnis fuer eine Datei. Es wird nach dem
// Speichern nicht mehr veraendert.
type Tuning struct {
	Function   string             `json:"function"`
	Tag        *metadata.ModelTag `json:"tag"`
	Result     *classify.Result   `json:"result"`
	Parameters TunedParameters    `json:"parameters"`
}

// Tuner berechnet Tunings ueber einen Cache
type Tuner struct {
	classifier *classify.Classifier
	rules      Rules
	cache      *Cache[*Tuning]
}

// New erstellt einen Tuner. Bei rules == nil gelten die DefaultRules.
func New(c *classify.Classifier, rules Rules) *Tuner {
	if rules == nil {
		rules = DefaultRules()
	}

	return &Tuner{
		classifier: c,
		rules:      rules,
		cache:      NewCache[*Tuning](),
	}
}

// Tune gibt das Tuning fuer path zurueck. Der Knoten mit der Funktion
// function und den Widget-Eingaben widgets bildet zusammen mit dem Pfad den
// Cache-Key.
func (t *Tuner) Tune(path, function string, widgets map[string]any) (*Tuning, error) {
	key, err := NewKey(path, function, widgets)
	if err != nil {
		return nil, err
	}

	return t.cache.GetOrCompute(key, func() (*Tuning, error) {
		tag, result, err := t.classifier.Classify(key.Path)
		if err != nil {
			return nil, err
		}

		slog.Debug("tuned model", "path", key.Path, "function", function, "best", result.Best)
		return &Tuning{
			Function:   function,
			Tag:        tag,
			Result:     result,
			Parameters: t.rules.Apply(tag, result, widgets),
		}, nil
	})
}

// Cached meldet die Anzahl gespeicherter Tunings
func (t *Tuner) Cached() int {
	return t.cache.Len()
}

// Clear leert den Cache
func (t *Tuner) Clear() {
	t.cache.Clear()
	slog.Info("tuning cache cleared")
}
