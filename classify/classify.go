// Package classify - Bestimmt die Modell-Familie einer Datei
//
// Dieses Modul enthaelt:
// - Classifier: Bindet einen Vokabular-Katalog an die Klassifikation
// - Classify: Liest den Header einer Datei und bewertet alle Familien
// - Objects: Bewertet bereits dekodierte Objekte
// - Result: Scores pro Familie und die besten Familien
package classify

import (
	"maps"
	"slices"
	"strings"

	"github.com/mgua/sdbx/fs"
	"github.com/mgua/sdbx/metadata"
	"github.com/mgua/sdbx/vocab"
)

// Result enthaelt die Scores aller Familien des Katalogs und die Labels mit
// dem hoechsten Score. Best ist leer wenn kein Token getroffen wurde.
type Result struct {
	Scores map[string]int `json:"scores"`
	Best   []string       `json:"best"`
}

// Unknown meldet ob keine Familie erkannt wurde
func (r *Result) Unknown() bool {
	return len(r.Best) == 0
}

// Classifier ist zustandslos bis auf den unveraenderlichen Katalog und kann
// parallel verwendet werden
type Classifier struct {
	catalogue *vocab.Catalogue
}

// New erstellt einen Classifier fuer den Katalog
func New(c *vocab.Catalogue) *Classifier {
	return &Classifier{catalogue: c}
}

// Catalogue gibt den verwendeten Katalog zurueck
func (c *Classifier) Catalogue() *vocab.Catalogue {
	return c.catalogue
}

// Classify liest den Header von path und bewertet ihn gegen den Katalog.
// Fehler kommen ausschliesslich vom Lesen der Datei.
func (c *Classifier) Classify(path string) (*metadata.ModelTag, *Result, error) {
	s := newScorer(c.catalogue)
	tag, _, err := metadata.Read(path, s.visit)
	if err != nil {
		return nil, nil, err
	}

	return tag, s.result(), nil
}

// Objects bewertet die Objekte in der gegebenen Reihenfolge
func (c *Classifier) Objects(objects ...*fs.Object) *Result {
	s := newScorer(c.catalogue)
	for _, o := range objects {
		s.visit(o)
	}
	return s.result()
}

// scorer haelt den Zustand genau eines Klassifikations-Aufrufs
type scorer struct {
	catalogue   *vocab.Catalogue
	occurrences map[string]int
	scores      map[string]int
}

func newScorer(c *vocab.Catalogue) *scorer {
	s := &scorer{
		catalogue:   c,
		occurrences: make(map[string]int),
		scores:      make(map[string]int, c.Len()),
	}
	for _, label := range c.Labels() {
		s.scores[label] = 0
	}
	return s
}

// visit zaehlt fuer jedes Token die Teilstring-Treffer in Keys und
// String-Werten des Objekts. Die Trefferzahlen laufen ueber alle Objekte
// des Aufrufs weiter. Der Score einer Familie ist die Trefferzahl ihres
// zuletzt geprueften Tokens.
func (s *scorer) visit(o *fs.Object) {
	texts := append(fs.Keys(o), fs.Strings(o)...)

	for _, f := range s.catalogue.Families() {
		for _, token := range f.Tokens {
			for _, text := range texts {
				if strings.Contains(text, token) {
					s.occurrences[token]++
				}
			}
			s.scores[f.Label] = s.occurrences[token]
		}
	}
}

func (s *scorer) result() *Result {
	r := Result{Scores: maps.Clone(s.scores), Best: []string{}}

	best := 0
	for _, score := range r.Scores {
		best = max(best, score)
	}

	if best > 0 {
		for label, score := range r.Scores {
			if score == best {
				r.Best = append(r.Best, label)
			}
		}
		slices.Sort(r.Best)
	}

	return &r
}
