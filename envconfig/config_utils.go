// config_utils.go - Zahlen-Getter und Uebersicht aller SDBX_* Variablen
//
// Enthaelt:
// - Uint/Uint64: Getter mit Default, ungueltige Werte werden geloggt
// - EnvVar/AsMap: Name, Wert und Hilfetext pro Variable (fuer cobra)
// - Values: Aktuelle Werte als Strings
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// parseUint liest key als vorzeichenlose Zahl. Ungueltige Werte werden
// geloggt und durch defaultValue ersetzt.
func parseUint[T uint | uint64](key string, defaultValue T) T {
	s := Var(key)
	if s == "" {
		return defaultValue
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		slog.Warn("ignoring invalid number", "key", key, "value", s, "default", defaultValue)
		return defaultValue
	}
	return T(n)
}

// Uint liefert einen Getter fuer key
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		return parseUint(key, defaultValue)
	}
}

// Uint64 liefert einen Getter fuer key
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		return parseUint(key, defaultValue)
	}
}

// EnvVar beschreibt eine SDBX_* Variable
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Variablen mit aktuellem Wert und Hilfetext zurueck
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SDBX_DEBUG":               {"SDBX_DEBUG", LogLevel(), "Show additional debug information (e.g. SDBX_DEBUG=1)"},
		"SDBX_HOST":                {"SDBX_HOST", Host(), "IP Address for the sdbx server (default 127.0.0.1:8188)"},
		"SDBX_ORIGINS":             {"SDBX_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"SDBX_MODELS":              {"SDBX_MODELS", Models(), "The path to the models directory"},
		"SDBX_VOCABULARY":          {"SDBX_VOCABULARY", Vocabulary(), "Classification catalogue (TOML); empty uses the built-in one"},
		"SDBX_INDEX":               {"SDBX_INDEX", Index(), "The path to the model index database"},
		"SDBX_MAX_HEADER_SIZE":     {"SDBX_MAX_HEADER_SIZE", MaxHeaderSize(), "Largest accepted safetensors header in bytes"},
		"SDBX_MAX_ARRAY_SIZE":      {"SDBX_MAX_ARRAY_SIZE", MaxArraySize(), "GGUF array values kept per metadata key"},
		"SDBX_MAX_CHECKPOINT_SIZE": {"SDBX_MAX_CHECKPOINT_SIZE", MaxCheckpointSize(), "Largest .pt/.pth/.ckpt file loaded, in bytes"},
		"SDBX_SCAN_PARALLEL":       {"SDBX_SCAN_PARALLEL", ScanParallel(), "Maximum number of files classified in parallel"},
	}
}

// Values gibt die aktuellen Werte formatiert zurueck
func Values() map[string]string {
	envs := AsMap()
	out := make(map[string]string, len(envs))
	for name, e := range envs {
		out[name] = fmt.Sprint(e.Value)
	}
	return out
}
