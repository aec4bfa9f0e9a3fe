// kind.go - Logische Modell-Typen
//
// Enthaelt:
// - Kind: Geschlossene Menge von Modell-Rollen (LLM, DIF, TRA, VAE, LOR)
// - ParseKind: Prueft und normalisiert einen Typ-String
package index

import (
	"errors"
	"fmt"
	"strings"
)

// Kind ist die Rolle einer Modell-Datei im Workflow
type Kind string

const (
	KindLLM         Kind = "LLM" // Sprachmodell
	KindDiffusion   Kind = "DIF" // Diffusionsmodell
	KindTransformer Kind = "TRA" // Text-Encoder
	KindVAE         Kind = "VAE"
	KindLoRA        Kind = "LOR"
)

// Kinds enthaelt alle gueltigen Typen
var Kinds = []Kind{KindLLM, KindDiffusion, KindTransformer, KindVAE, KindLoRA}

// ErrInvalidKind fuer unbekannte Typen
var ErrInvalidKind = errors.New("invalid model kind")

// ParseKind parst s ohne Beachtung der Gross-/Kleinschreibung
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}
