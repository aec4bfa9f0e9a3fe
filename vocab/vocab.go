// Package vocab - Katalog der Modell-Familien fuer die Klassifikation
//
// Dieses Modul enthaelt:
// - Catalogue/Family: Unveraenderlicher Katalog Familie -> Token-Liste
// - Parse: Liest einen TOML-Katalog aus Bytes
// - Load: Liest einen TOML-Katalog aus einer Datei
// - Default: Eingebetteter Standard-Katalog
// - FromEnvironment: Katalog gemaess SDBX_VOCABULARY
package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/mgua/sdbx/envconfig"
)

//go:embed classify.toml
var defaultCatalogue []byte

// Family ist eine Modell-Familie mit ihren Tokens in Dokument-Reihenfolge.
// Gleiche Tokens an verschiedenen Positionen bleiben erhalten.
type Family struct {
	Label  string   `json:"label"`
	Tokens []string `json:"tokens"`
}

// Catalogue ist nach dem Laden unveraenderlich und kann von beliebig vielen
// Goroutinen gleichzeitig gelesen werden.
type Catalogue struct {
	families []Family
	index    map[string]int
}

// Families gibt alle Familien in Dokument-Reihenfolge zurueck. Die
// Klassifikation prueft Familien in dieser Reihenfolge.
// Die Slices duerfen nicht veraendert werden.
func (c *Catalogue) Families() []Family {
	return c.families
}

// Family gibt die Familie mit dem Label zurueck
func (c *Catalogue) Family(label string) (Family, bool) {
	i, ok := c.index[label]
	if !ok {
		return Family{}, false
	}
	return c.families[i], true
}

// Labels gibt alle Labels in Dokument-Reihenfolge zurueck
func (c *Catalogue) Labels() []string {
	labels := make([]string, len(c.families))
	for i, f := range c.families {
		labels[i] = f.Label
	}
	return labels
}

// Len gibt die Anzahl der Familien zurueck
func (c *Catalogue) Len() int {
	return len(c.families)
}

// New erstellt einen Katalog aus Familien in der gegebenen Reihenfolge.
// Labels muessen eindeutig sein.
func New(families ...Family) (*Catalogue, error) {
	c := &Catalogue{index: make(map[string]int, len(families))}
	for _, f := range families {
		if f.Label == "" {
			return nil, &VocabularyLoadError{Err: fmt.Errorf("empty family label")}
		}
		if _, ok := c.index[f.Label]; ok {
			return nil, &VocabularyLoadError{Err: fmt.Errorf("duplicate family %q", f.Label)}
		}
		c.index[f.Label] = len(c.families)
		c.families = append(c.families, Family{Label: f.Label, Tokens: slices.Clone(f.Tokens)})
	}
	return c, nil
}

// Parse liest einen Katalog im TOML-Format. Jeder Top-Level-Eintrag ist ein
// Familien-Label mit einem mehrzeiligen String (eine Zeile pro Token) oder
// einem String-Array. Zeilen werden getrimmt, Leerzeilen entfallen.
func Parse(data []byte) (*Catalogue, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &VocabularyLoadError{Err: err}
	}

	families := make([]Family, 0, len(doc))
	for _, label := range documentOrder(data, doc) {
		v := doc[label]
		var tokens []string
		switch v := v.(type) {
		case string:
			tokens = splitTokens(v)
		case []any:
			for _, e := range v {
				s, ok := e.(string)
				if !ok {
					return nil, &VocabularyLoadError{Err: fmt.Errorf("family %q: token %v is not a string", label, e)}
				}
				tokens = append(tokens, splitTokens(s)...)
			}
		default:
			slog.Debug("skipping vocabulary entry", "family", label, "type", fmt.Sprintf("%T", v))
			continue
		}

		families = append(families, Family{Label: label, Tokens: tokens})
	}

	return New(families...)
}

// documentOrder gibt die Keys von doc in der Reihenfolge zurueck, in der sie
// als Top-Level-Eintraege in data stehen. Keys, die nur ueber Tabellen oder
// gepunktete Keys entstehen, folgen sortiert am Ende.
func documentOrder(data []byte, doc map[string]any) []string {
	keys := make([]string, 0, len(doc))
	seen := make(map[string]bool, len(doc))

	var p unstable.Parser
	p.Reset(data)
	for p.NextExpression() {
		e := p.Expression()
		if e.Kind == unstable.Table || e.Kind == unstable.ArrayTable {
			// ab hier gehoeren alle Eintraege zu einer Tabelle
			break
		}
		if e.Kind != unstable.KeyValue {
			continue
		}

		it := e.Key()
		if it.Next() && it.IsLast() {
			k := string(it.Node().Data)
			if _, ok := doc[k]; ok && !seen[k] {
				keys = append(keys, k)
				seen[k] = true
			}
		}
	}

	var rest []string
	for k := range doc {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func splitTokens(s string) []string {
	var tokens []string
	for line := range strings.Lines(s) {
		if line = strings.TrimSpace(line); line != "" {
			tokens = append(tokens, line)
		}
	}
	return tokens
}

// Load liest einen Katalog aus path
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &VocabularyLoadError{Path: path, Err: err}
	}

	c, err := Parse(data)
	if err != nil {
		var vle *VocabularyLoadError
		if errors.As(err, &vle) {
			vle.Path = path
		}
		return nil, err
	}

	slog.Debug("loaded vocabulary", "path", path, "families", c.Len())
	return c, nil
}

// Default gibt den eingebetteten Standard-Katalog zurueck
var Default = sync.OnceValue(func() *Catalogue {
	c, err := Parse(defaultCatalogue)
	if err != nil {
		panic(err)
	}
	return c
})

// FromEnvironment laedt den Katalog aus SDBX_VOCABULARY oder gibt den
// Standard-Katalog zurueck
func FromEnvironment() (*Catalogue, error) {
	if path := envconfig.Vocabulary(); path != "" {
		return Load(path)
	}
	return Default(), nil
}
