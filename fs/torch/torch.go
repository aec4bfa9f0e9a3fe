// Package torch - Header-Leser fuer PyTorch-Checkpoints (.pt, .pth, .ckpt)
//
// Dieses Modul enthaelt:
// - Decode: Laedt einen Checkpoint via gopickle und baut den Objekt-Baum
// - walk: Wandelt Pickle-Werte rekursiv in fs.Objects um
// - dtype: Leitet den Datentyp aus dem Storage-Typ ab
package torch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nlpodyssey/gopickle/pytorch"

	"github.com/mgua/sdbx/fs"
)

var (
	// ErrNoStateDict wenn der Checkpoint kein Dictionary enthaelt
	ErrNoStateDict = errors.New("checkpoint does not contain a state dict")

	// ErrInvalidCheckpoint wenn gopickle die Datei nicht laden kann
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")

	// ErrCheckpointTooLarge wenn die Datei groesser als das Limit ist
	ErrCheckpointTooLarge = errors.New("checkpoint too large")
)

// CheckpointTooLargeError nennt Dateigroesse und Limit
type CheckpointTooLargeError struct {
	Size  int64
	Limit uint64
}

func (e *CheckpointTooLargeError) Error() string {
	return fmt.Sprintf("%s: %d > %d bytes", ErrCheckpointTooLarge, e.Size, e.Limit)
}

func (e *CheckpointTooLargeError) Unwrap() error {
	return ErrCheckpointTooLarge
}

// StateDictKey ist der Key unter dem Lightning/LDM-Checkpoints die Gewichte ablegen
const StateDictKey = "state_dict"

// mapping deckt die Dictionary-Typen von gopickle ab
type mapping interface {
	Keys() []any
	Get(key any) (any, bool)
}

// Decode laedt den Checkpoint und gibt die Wurzel des Objekt-Baums zurueck.
//
// Jeder Tensor wird zu einem Objekt mit dtype und shape. Verschachtelte
// Dictionaries werden zu verschachtelten Objekten. Liegt die Wurzel unter
// state_dict, wird dieses Dictionary verwendet.
//
// Anders als bei safetensors und GGUF laedt gopickle alle Tensor-Storages
// in den Speicher; der Bedarf entspricht etwa der Dateigroesse. Dateien
// ueber maxSize Bytes werden deshalb vor dem Laden abgelehnt, 0 bedeutet
// kein Limit.
func Decode(path string, maxSize uint64, visit fs.Visitor) (*fs.Object, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if maxSize > 0 && uint64(info.Size()) > maxSize {
		return nil, &CheckpointTooLargeError{Size: info.Size(), Limit: maxSize}
	}

	v, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}

	return FromPickle(v, visit)
}

// load ruft pytorch.Load auf. gopickle bricht bei manchen Eingaben (z.B.
// Legacy-Tar-Archiven) mit panic ab, das hier zum Fehler wird.
func load(path string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unpickle: %v", r)
		}
	}()

	return pytorch.Load(path)
}

// FromPickle baut den Objekt-Baum aus einem bereits geladenen Pickle-Wert
func FromPickle(v any, visit fs.Visitor) (*fs.Object, error) {
	if visit == nil {
		visit = func(*fs.Object) {}
	}

	m, ok := v.(mapping)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNoStateDict, v)
	}

	if sd, ok := m.Get(StateDictKey); ok {
		if inner, ok := sd.(mapping); ok {
			m = inner
		}
	}

	return walkMapping(m, visit), nil
}

func walkMapping(m mapping, visit fs.Visitor) *fs.Object {
	o := fs.NewObject()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if value, ok := walk(v, visit); ok {
			o.Set(fmt.Sprint(k), value)
		}
	}

	visit(o)
	return o
}

// walk gibt false zurueck fuer Werte ohne sinnvolle Darstellung (z.B. Optimizer-Objekte)
func walk(v any, visit fs.Visitor) (any, bool) {
	switch v := v.(type) {
	case *pytorch.Tensor:
		t := fs.NewObject()
		t.Set("dtype", dtype(v.Source))
		t.Set("shape", shape(v.Size))
		visit(t)
		return t, true
	case mapping:
		return walkMapping(v, visit), true
	case string, bool, int, int64, float64:
		return v, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func shape(size []int) []uint64 {
	s := make([]uint64, len(size))
	for i, n := range size {
		s[i] = uint64(max(n, 0))
	}
	return s
}

var storageTypes = map[string]string{
	"Half":     "F16",
	"BFloat16": "BF16",
	"Float":    "F32",
	"Double":   "F64",
	"Char":     "I8",
	"Short":    "I16",
	"Int":      "I32",
	"Long":     "I64",
	"Byte":     "U8",
	"Bool":     "BOOL",
}

// dtype leitet den safetensors-Namen aus dem Storage-Typ ab, z.B.
// *pytorch.HalfStorage -> F16
func dtype(source any) string {
	name := fmt.Sprintf("%T", source)
	name = name[strings.LastIndex(name, ".")+1:]
	name = strings.TrimSuffix(name, "Storage")
	if t, ok := storageTypes[name]; ok {
		return t
	}
	return strings.ToUpper(name)
}
