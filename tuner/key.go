// key.go - Cache-Schluessel fuer getunte Parameter
//
// Enthaelt:
// - Key: Absoluter Pfad, Hash der Widget-Eingaben, Funktion des Knotens
// - NewKey: Normalisiert Pfad und Eingaben
package tuner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Key identifiziert einen Cache-Eintrag
type Key struct {
	Path     string
	Inputs   string
	Function string
}

// String gibt eine eindeutige Darstellung fuer singleflight zurueck
func (k Key) String() string {
	return k.Function + "\x00" + k.Path + "\x00" + k.Inputs
}

// NewKey erstellt einen Key. Der Pfad wird absolut gemacht, die
// Widget-Eingaben werden als JSON mit sortierten Keys gehasht, sodass
// gleiche Eingaben unabhaengig von ihrer Reihenfolge denselben Key ergeben.
func NewKey(path, function string, widgets map[string]any) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, err
	}

	inputs, err := HashInputs(widgets)
	if err != nil {
		return Key{}, err
	}

	return Key{Path: abs, Inputs: inputs, Function: function}, nil
}

// HashInputs gibt den SHA-256 der kanonischen JSON-Form der Eingaben zurueck
func HashInputs(widgets map[string]any) (string, error) {
	if widgets == nil {
		widgets = map[string]any{}
	}

	b, err := json.Marshal(widgets)
	if err != nil {
		return "", fmt.Errorf("widget inputs: %w", err)
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
