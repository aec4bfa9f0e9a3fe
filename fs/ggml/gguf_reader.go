// gguf_reader.go - Low-Level Decoder fuer GGUF-Werte
//
// Enthaelt:
// - ggufType*: Identifikatoren der GGUF-Datentypen
// - array[T]: Array-Wert mit Groessenlimit
// - decoder: Liest typisierte Werte, Strings und Arrays in der
//   Byte-Reihenfolge der Datei
package ggml

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	ggufTypeUint8 uint32 = iota
	ggufTypeInt8
	ggufTypeUint16
	ggufTypeInt16
	ggufTypeUint32
	ggufTypeInt32
	ggufTypeFloat32
	ggufTypeBool
	ggufTypeString
	ggufTypeArray
	ggufTypeUint64
	ggufTypeInt64
	ggufTypeFloat64
)

// maxStringLength begrenzt einzelne Strings; laengere Werte deuten auf eine
// kaputte Datei hin
const maxStringLength = 1 << 30

// array haelt einen Array-Wert. Ueber dem Limit bleibt nur size erhalten.
type array[T any] struct {
	size   uint64
	values []T
}

// newArray legt values nur an, wenn size das Limit nicht ueberschreitet.
// size muss vorher gegen die Restlaenge der Datei geprueft sein.
func newArray[T any](size uint64, maxSize int) *array[T] {
	a := &array[T]{size: size}
	if maxSize < 0 || size <= uint64(maxSize) {
		a.values = make([]T, size)
	}
	return a
}

// plain gibt die Werte als []any zurueck, nil wenn sie verworfen wurden
func (a *array[T]) plain() any {
	if a.values == nil {
		return nil
	}

	out := make([]any, len(a.values))
	for i, v := range a.values {
		out[i] = v
	}
	return out
}

// decoder liest aus einem LimitedReader, dessen N die noch verbleibenden
// Bytes der Datei angibt. Laengen und Zaehler aus der Datei werden dagegen
// geprueft, bevor Speicher reserviert wird.
type decoder struct {
	r       *io.LimitedReader
	order   binary.ByteOrder
	version uint32

	// maxArraySize < 0 behaelt alle Array-Werte
	maxArraySize int

	scratch [16 << 10]byte
}

func read[T any](d *decoder) (T, error) {
	var v T
	err := binary.Read(d.r, d.order, &v)
	return v, err
}

// length liest das Laengenfeld eines Strings
func (d *decoder) length() (uint64, error) {
	buf := d.scratch[:8]
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return 0, err
	}

	n := d.order.Uint64(buf)
	if n > maxStringLength || n > uint64(d.r.N) || (d.version == 1 && n == 0) {
		return 0, fmt.Errorf("invalid string length %d", n)
	}
	return n, nil
}

// fits prueft, ob n Elemente mit mindestens elemSize Bytes noch in der
// Datei Platz haben
func (d *decoder) fits(n uint64, elemSize int) error {
	if n > uint64(d.r.N)/uint64(max(elemSize, 1)) {
		return fmt.Errorf("array of %d elements exceeds the %d remaining bytes", n, d.r.N)
	}
	return nil
}

// str liest einen String. Version 1 zaehlt den Null-Terminator mit.
func (d *decoder) str() (string, error) {
	n, err := d.length()
	if err != nil {
		return "", err
	}

	var buf []byte
	if n > uint64(len(d.scratch)) {
		buf = make([]byte, n)
	} else {
		buf = d.scratch[:n]
	}

	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}

	if d.version == 1 {
		buf = buf[:n-1]
	}
	return string(buf), nil
}

func (d *decoder) skipString() error {
	n, err := d.length()
	if err != nil {
		return err
	}

	_, err = io.CopyN(io.Discard, d.r, int64(n))
	return err
}

// value liest einen Wert vom GGUF-Typ t
func (d *decoder) value(t uint32) (any, error) {
	switch t {
	case ggufTypeUint8:
		return read[uint8](d)
	case ggufTypeInt8:
		return read[int8](d)
	case ggufTypeUint16:
		return read[uint16](d)
	case ggufTypeInt16:
		return read[int16](d)
	case ggufTypeUint32:
		return read[uint32](d)
	case ggufTypeInt32:
		return read[int32](d)
	case ggufTypeUint64:
		return read[uint64](d)
	case ggufTypeInt64:
		return read[int64](d)
	case ggufTypeFloat32:
		return read[float32](d)
	case ggufTypeFloat64:
		return read[float64](d)
	case ggufTypeBool:
		return read[bool](d)
	case ggufTypeString:
		return d.str()
	case ggufTypeArray:
		return d.array()
	default:
		return nil, fmt.Errorf("invalid type %d", t)
	}
}

func (d *decoder) array() (any, error) {
	t, err := read[uint32](d)
	if err != nil {
		return nil, err
	}

	n, err := read[uint64](d)
	if err != nil {
		return nil, err
	}

	switch t {
	case ggufTypeUint8:
		return readArray[uint8](d, n)
	case ggufTypeInt8:
		return readArray[int8](d, n)
	case ggufTypeUint16:
		return readArray[uint16](d, n)
	case ggufTypeInt16:
		return readArray[int16](d, n)
	case ggufTypeUint32:
		return readArray[uint32](d, n)
	case ggufTypeInt32:
		return readArray[int32](d, n)
	case ggufTypeUint64:
		return readArray[uint64](d, n)
	case ggufTypeInt64:
		return readArray[int64](d, n)
	case ggufTypeFloat32:
		return readArray[float32](d, n)
	case ggufTypeFloat64:
		return readArray[float64](d, n)
	case ggufTypeBool:
		return readArray[bool](d, n)
	case ggufTypeString:
		return d.strings(n)
	default:
		return nil, fmt.Errorf("invalid array type %d", t)
	}
}

func readArray[T any](d *decoder, n uint64) (*array[T], error) {
	var zero T
	if err := d.fits(n, binary.Size(zero)); err != nil {
		return nil, err
	}

	a := newArray[T](n, d.maxArraySize)
	for i := range n {
		v, err := read[T](d)
		if err != nil {
			return nil, err
		}
		if a.values != nil {
			a.values[i] = v
		}
	}
	return a, nil
}

// strings liest ein String-Array; Werte ueber dem Limit werden uebersprungen
func (d *decoder) strings(n uint64) (*array[string], error) {
	// jeder String belegt mindestens sein Laengenfeld
	if err := d.fits(n, 8); err != nil {
		return nil, err
	}

	a := newArray[string](n, d.maxArraySize)
	for i := range n {
		if a.values == nil {
			if err := d.skipString(); err != nil {
				return nil, err
			}
			continue
		}

		s, err := d.str()
		if err != nil {
			return nil, err
		}
		a.values[i] = s
	}
	return a, nil
}
