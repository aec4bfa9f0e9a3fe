// cache.go - Memoisierung einzelner Werte
//
// Enthaelt:
// - Cache: Ergebnis pro Key, hoechstens eine Berechnung pro Key
// - GetOrCompute/Get/Len/Clear
package tuner

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache speichert pro Key genau ein fertig berechnetes Ergebnis.
//
// Gleichzeitige Aufrufe mit demselben Key warten auf dieselbe Berechnung.
// Fehlgeschlagene Berechnungen werden nicht gespeichert. Eintraege bleiben
// bis zum naechsten Clear erhalten.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[Key]V
	group   singleflight.Group

	// generation zaehlt Clear-Aufrufe. Berechnungen einer aelteren
	// Generation werden nicht mehr gespeichert.
	generation uint64
}

// NewCache erstellt einen leeren Cache
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[Key]V)}
}

// Get gibt den gespeicherten Wert fuer key zurueck
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// GetOrCompute gibt den gespeicherten Wert zurueck oder berechnet ihn mit fn.
// Ist fuer key bereits eine Berechnung unterwegs, wird auf deren Ergebnis
// gewartet statt fn erneut aufzurufen.
func (c *Cache[V]) GetOrCompute(key Key, fn func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	// nach Clear startet ein neuer Flug statt auf den alten zu warten
	v, err, _ := c.group.Do(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		// ein vorheriger Flug kann zwischen Get und Do fertig geworden sein
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		v, err := fn()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	res, _ := v.(V)
	return res, nil
}

// Len gibt die Anzahl gespeicherter Eintraege zurueck
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear entfernt alle Eintraege. Laufende Berechnungen liefern ihr Ergebnis
// noch an ihre Aufrufer, speichern es aber nicht mehr.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	clear(c.entries)
}
