// Package safetensors - Header-Decoder fuer Safetensors-Container
//
// Format:
// [8 Bytes: Header-Laenge H (uint64 LE)]
// [H Bytes: JSON-Header]
// [Tensor-Daten: werden nie gelesen]
//
// Enthaelt:
// - Decode: liest und dekodiert den Header mit Visitor pro Objekt
// - ErrHeaderTooLarge/ErrInvalidHeader: Fehler-Sentinels
package safetensors

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mgua/sdbx/fs"
)

// MetadataKey ist der reservierte Key fuer den freien Metadaten-Block
const MetadataKey = "__metadata__"

var (
	ErrHeaderTooLarge = errors.New("safetensors header too large")
	ErrInvalidHeader  = errors.New("invalid safetensors header")
)

// Decode liest den Safetensors-Header aus r.
//
// maxHeaderSize begrenzt H; 0 bedeutet kein Limit. visit wird fuer jedes
// JSON-Objekt aufgerufen, verschachtelte zuerst, das Top-Level-Objekt zuletzt.
// Tensor-Daten hinter dem Header werden nicht gelesen.
func Decode(r io.Reader, maxHeaderSize uint64, visit fs.Visitor) (*fs.Object, error) {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("%w: read header length: %v", ErrInvalidHeader, err)
	}

	if maxHeaderSize > 0 && size > maxHeaderSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrHeaderTooLarge, size, maxHeaderSize)
	}

	var b bytes.Buffer
	if _, err := io.CopyN(&b, r, int64(size)); err != nil {
		return nil, fmt.Errorf("%w: read %d header bytes: %v", ErrInvalidHeader, size, err)
	}

	// Writer polstern den Header mit Leerzeichen auf 8-Byte-Grenzen
	data := bytes.TrimSpace(b.Bytes())
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: header is not a JSON object", ErrInvalidHeader)
	}

	if visit == nil {
		visit = func(*fs.Object) {}
	}

	header, err := decodeHeader(data, visit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	return header, nil
}

// container ist ein offenes Objekt oder Array waehrend des Dekodierens
type container struct {
	obj *fs.Object
	arr []any

	// key ist der Key des naechsten Werts in obj, gueltig wenn hasKey
	key    string
	hasKey bool
}

// decodeHeader dekodiert data in einem Durchlauf ueber die JSON-Tokens. Ein
// Objekt wird dem Visitor gemeldet, sobald es geschlossen ist; verschachtelte
// Objekte kommen dadurch vor ihrem Eltern-Objekt, Geschwister in
// Dokument-Reihenfolge.
func decodeHeader(data []byte, visit fs.Visitor) (*fs.Object, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var (
		stack []*container
		root  *fs.Object
	)

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		if root != nil {
			return nil, fmt.Errorf("unexpected data after header at offset %d", d.InputOffset())
		}

		var value any
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				stack = append(stack, &container{obj: fs.NewObject()})
				continue
			case '[':
				stack = append(stack, &container{arr: []any{}})
				continue
			}

			// '}' oder ']'; der Decoder garantiert passende Klammern
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.obj != nil {
				visit(top.obj)
				value = top.obj
			} else {
				value = top.arr
			}

			if len(stack) == 0 {
				root = top.obj
				continue
			}
		default:
			top := stack[len(stack)-1]
			if top.obj != nil && !top.hasKey {
				top.key, top.hasKey = t.(string), true
				continue
			}
			value = tok
		}

		top := stack[len(stack)-1]
		if top.obj != nil {
			top.obj.Set(top.key, value)
			top.key, top.hasKey = "", false
		} else {
			top.arr = append(top.arr, value)
		}
	}

	if root == nil {
		return nil, errors.New("incomplete header object")
	}
	return root, nil
}
