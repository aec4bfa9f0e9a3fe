// Package ggml - GGUF Write Operations
//
// Dieses Modul enthaelt Funktionen zum Schreiben von GGUF-Headern:
// - WriteGGUF: Schreibt Magic, KV-Paare und Tensor-Deskriptoren (V3)
// - writeGGUF: Generische Write-Funktion fuer Basistypen
// - writeGGUFString: String-Serialisierung
// - writeGGUFArray: Array-Serialisierung
// - ggufWriteKV: Key-Value Paar Serialisierung
// - ggufWriteTensorInfo: Tensor-Metadaten Serialisierung
package ggml

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mgua/sdbx/logutil"
)

// countingWriter zaehlt geschriebene Bytes fuer das Alignment
type countingWriter struct {
	io.Writer
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.Writer.Write(p)
	w.n += int64(n)
	return n, err
}

// WriteGGUF schreibt einen GGUF-Header (V3) mit KV-Paaren in sortierter
// Key-Reihenfolge und Tensor-Deskriptoren mit fortlaufenden Offsets.
// Tensor-Daten werden nicht geschrieben, nur das Padding bis zum
// Daten-Offset.
func WriteGGUF(w io.Writer, kv KV, ts []*Tensor) error {
	cw := &countingWriter{Writer: w}

	// Magic: "GGUF"
	if err := binary.Write(cw, binary.LittleEndian, []byte("GGUF")); err != nil {
		return err
	}

	// Version: 3
	if err := binary.Write(cw, binary.LittleEndian, uint32(3)); err != nil {
		return err
	}

	if err := binary.Write(cw, binary.LittleEndian, uint64(len(ts))); err != nil {
		return err
	}

	if err := binary.Write(cw, binary.LittleEndian, uint64(kv.Len())); err != nil {
		return err
	}

	for key := range kv.Keys() {
		if err := ggufWriteKV(cw, key, kv.Value(key)); err != nil {
			return err
		}
	}

	alignment := uint64(kv.Uint("general.alignment", 32))

	var s uint64
	for _, t := range ts {
		t.Offset = s
		if err := ggufWriteTensorInfo(cw, t); err != nil {
			return err
		}
		s += t.Size()
		s += uint64(ggufPadding(int64(s), int64(alignment)))
	}

	pad := ggufPadding(cw.n, int64(alignment))
	_, err := cw.Write(make([]byte, pad))
	return err
}

// writeGGUF schreibt einen typisierten Wert mit Typ-Prefix
func writeGGUF[V any](w io.Writer, t uint32, v V) error {
	if err := binary.Write(w, binary.LittleEndian, t); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v)
}

// writeGGUFString schreibt einen String mit Typ-Prefix und Laenge
func writeGGUFString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, ggufTypeString); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// writeGGUFArray schreibt ein Array mit Typ-Prefix
func writeGGUFArray[S ~[]E, E any](w io.Writer, t uint32, s S) error {
	if err := binary.Write(w, binary.LittleEndian, ggufTypeArray); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, t); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}

	// Strings muessen einzeln geschrieben werden
	if t == ggufTypeString {
		for _, e := range any(s).([]string) {
			if err := binary.Write(w, binary.LittleEndian, uint64(len(e))); err != nil {
				return err
			}
			if _, err := io.WriteString(w, e); err != nil {
				return err
			}
		}
		return nil
	}

	return binary.Write(w, binary.LittleEndian, s)
}

// ggufWriteKV schreibt ein Key-Value Paar
func ggufWriteKV(w io.Writer, k string, v any) error {
	logutil.Trace(k, "type", fmt.Sprintf("%T", v))

	if err := binary.Write(w, binary.LittleEndian, uint64(len(k))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, k); err != nil {
		return err
	}

	var err error
	switch v := v.(type) {
	case uint8:
		err = writeGGUF(w, ggufTypeUint8, v)
	case int32:
		err = writeGGUF(w, ggufTypeInt32, v)
	case int64:
		err = writeGGUF(w, ggufTypeInt64, v)
	case uint32:
		err = writeGGUF(w, ggufTypeUint32, v)
	case uint64:
		err = writeGGUF(w, ggufTypeUint64, v)
	case float32:
		err = writeGGUF(w, ggufTypeFloat32, v)
	case float64:
		err = writeGGUF(w, ggufTypeFloat64, v)
	case bool:
		err = writeGGUF(w, ggufTypeBool, v)
	case string:
		err = writeGGUFString(w, v)
	case []int32:
		err = writeGGUFArray(w, ggufTypeInt32, v)
	case []uint32:
		err = writeGGUFArray(w, ggufTypeUint32, v)
	case []float32:
		err = writeGGUFArray(w, ggufTypeFloat32, v)
	case []string:
		err = writeGGUFArray(w, ggufTypeString, v)
	case []bool:
		err = writeGGUFArray(w, ggufTypeBool, v)
	default:
		return fmt.Errorf("improper type for '%s'", k)
	}
	return err
}

// ggufWriteTensorInfo schreibt die Tensor-Metadaten
func ggufWriteTensorInfo(w io.Writer, t *Tensor) error {
	logutil.Trace(t.Name, "kind", t.Kind, "shape", t.Shape, "offset", t.Offset)

	if err := binary.Write(w, binary.LittleEndian, uint64(len(t.Name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, t.Name); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(t.Shape))); err != nil {
		return err
	}
	for _, n := range t.Shape {
		if err := binary.Write(w, binary.LittleEndian, n); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, t.Kind); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, t.Offset)
}
