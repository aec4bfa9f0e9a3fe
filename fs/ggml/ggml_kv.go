// Package ggml - KV (Key-Value) Metadaten
//
// Dieses Modul enthaelt den KV-Typ und die Getter:
// - KV: Map fuer GGUF Key-Value Metadaten
// - Architecture: Modell-Architektur fuer Keys ohne Namespace
// - Generische Getter (String, Uint)
// - Plain: Wandelt einen KV-Wert in einen JSON-nahen Wert um
package ggml

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/mgua/sdbx/logutil"
)

// KV repraesentiert GGUF Key-Value Metadaten
type KV map[string]any

// Architecture gibt die Modell-Architektur zurueck
func (kv KV) Architecture() string {
	return kv.String("general.architecture", "unknown")
}

// String liest einen String-Wert
func (kv KV) String(key string, defaultValue ...string) string {
	val, _ := keyValue(kv, key, append(defaultValue, "")...)
	return val
}

// Uint liest einen uint32-Wert
func (kv KV) Uint(key string, defaultValue ...uint32) uint32 {
	val, _ := keyValue(kv, key, append(defaultValue, 0)...)
	return val
}

// Len gibt die Anzahl der KV-Paare zurueck
func (kv KV) Len() int {
	return len(kv)
}

// Keys gibt alle Keys sortiert zurueck
func (kv KV) Keys() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(kv)))
}

// Value gibt den Rohwert eines Keys zurueck
func (kv KV) Value(key string) any {
	return kv[key]
}

// Plain gibt den Wert eines Keys in einer Form zurueck, die sich wie
// dekodiertes JSON verhaelt. Arrays ueber dem Groessenlimit werden zu nil.
func (kv KV) Plain(key string) any {
	if a, ok := kv[key].(interface{ plain() any }); ok {
		return a.plain()
	}
	return kv[key]
}

type valueTypes interface {
	uint8 | int8 | uint16 | int16 |
		uint32 | int32 | uint64 | int64 |
		string | float32 | float64 | bool
}

// keyValue ist eine generische Hilfsfunktion zum Lesen von KV-Werten
func keyValue[T valueTypes](kv KV, key string, defaultValue ...T) (T, bool) {
	// Keys ohne Namespace gehoeren zur Architektur des Modells
	if ns, _, _ := strings.Cut(key, "."); ns != "general" && ns != "tokenizer" {
		key = kv.Architecture() + "." + key
	}

	val, ok := kv[key].(T)
	if !ok {
		logutil.Trace("kv key missing or mistyped", "key", key)
		return defaultValue[0], false
	}
	return val, true
}
