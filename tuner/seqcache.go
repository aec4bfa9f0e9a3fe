// seqcache.go - Memoisierung lazy erzeugter Sequenzen
//
// Enthaelt:
// - SeqCache: Speichert eine Sequenz erst, wenn sie vollstaendig gelesen wurde
// - Seq/Len/Clear
package tuner

import (
	"iter"
	"slices"
	"sync"
)

// SeqCache speichert Sequenzen pro Key.
//
// Eine Sequenz wird erst veroeffentlicht, wenn ein Konsument sie bis zum Ende
// gelesen hat. Bricht der Konsument ab, wird nichts gespeichert und der
// naechste Aufruf erzeugt die Sequenz neu.
type SeqCache[T any] struct {
	mu         sync.RWMutex
	entries    map[Key][]T
	generation uint64
}

// NewSeqCache erstellt einen leeren SeqCache
func NewSeqCache[T any]() *SeqCache[T] {
	return &SeqCache[T]{entries: make(map[Key][]T)}
}

// Seq gibt die gespeicherte Sequenz fuer key zurueck oder eine Sequenz, die
// produce() liest und dabei mitschreibt. produce wird erst beim Iterieren
// aufgerufen.
func (c *SeqCache[T]) Seq(key Key, produce func() iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		c.mu.RLock()
		items, ok := c.entries[key]
		gen := c.generation
		c.mu.RUnlock()

		if ok {
			for _, v := range items {
				if !yield(v) {
					return
				}
			}
			return
		}

		var buf []T
		for v := range produce() {
			buf = append(buf, v)
			if !yield(v) {
				return
			}
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.entries[key]; !ok && c.generation == gen {
			c.entries[key] = slices.Clip(buf)
		}
	}
}

// Len gibt die Anzahl gespeicherter Sequenzen zurueck
func (c *SeqCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear entfernt alle gespeicherten Sequenzen. Sequenzen, die gerade
// gelesen werden, werden danach nicht mehr gespeichert.
func (c *SeqCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.entries)
}
