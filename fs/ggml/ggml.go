// Package ggml liest GGUF-Header: Metadaten-KV und Tensor-Deskriptoren.
// Tensor-Daten werden nie gelesen.
//
// Dieses Modul enthaelt:
// - GGML: Dekodierter Header
// - Magic Constants und DetectContentType
// - Decode: Einstieg fuer io.ReadSeeker
package ggml

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// GGML ist ein dekodierter GGUF-Header
type GGML struct {
	*gguf
}

// Magic Constants der ggml-Dateiformate. Nur GGUF wird dekodiert, die
// aelteren Formate werden lediglich erkannt.
const (
	FILE_MAGIC_GGML    = 0x67676d6c
	FILE_MAGIC_GGMF    = 0x67676d66
	FILE_MAGIC_GGJT    = 0x67676a74
	FILE_MAGIC_GGLA    = 0x67676C61
	FILE_MAGIC_GGUF_LE = 0x46554747
	FILE_MAGIC_GGUF_BE = 0x47475546
)

var (
	// ErrInvalidMagic wenn die Datei nicht mit einem GGUF-Magic beginnt
	ErrInvalidMagic = errors.New("invalid file magic")

	// ErrMalformed wenn der Header abgeschnitten ist oder Laengen enthaelt,
	// die nicht zur Datei passen
	ErrMalformed = errors.New("malformed gguf header")
)

// DetectContentType erkennt das ggml-Format anhand der ersten vier Bytes
func DetectContentType(b []byte) string {
	if len(b) < 4 {
		return ""
	}

	switch binary.LittleEndian.Uint32(b[:4]) {
	case FILE_MAGIC_GGML:
		return "ggml"
	case FILE_MAGIC_GGMF:
		return "ggmf"
	case FILE_MAGIC_GGJT:
		return "ggjt"
	case FILE_MAGIC_GGLA:
		return "ggla"
	case FILE_MAGIC_GGUF_LE, FILE_MAGIC_GGUF_BE:
		return "gguf"
	default:
		return ""
	}
}

// Decode dekodiert den GGUF-Header aus rs.
//
// maxArraySize begrenzt die gespeicherten Werte pro Array-KV, bei negativem
// Wert bleiben alle erhalten. Fehler im Header werden als ErrMalformed
// gemeldet.
func Decode(rs io.ReadSeeker, maxArraySize int) (*GGML, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(rs, 32<<10)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagic, err)
	}

	if kind := DetectContentType(magic[:]); kind != "gguf" {
		if kind == "" {
			kind = fmt.Sprintf("%#x", binary.LittleEndian.Uint32(magic[:]))
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidMagic, kind)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if binary.LittleEndian.Uint32(magic[:]) == FILE_MAGIC_GGUF_BE {
		order = binary.BigEndian
	}

	g, err := decodeGGUF(br, size-int64(len(magic)), order, maxArraySize)
	if errors.Is(err, ErrUnsupportedVersion) {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return &GGML{gguf: g}, nil
}
