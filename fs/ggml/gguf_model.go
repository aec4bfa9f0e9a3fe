// gguf_model.go - Dekodierter GGUF-Header
//
// Enthaelt:
// - gguf: Version, KV-Paare in Datei-Reihenfolge und Tensor-Deskriptoren
// - decodeGGUF: Liest Zaehler, KV und Tensors; Tensor-Daten bleiben ungelesen
// - ggufPadding: Padding bis zum Alignment
package ggml

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedVersion fuer GGUF-Versionen ausserhalb 1..3
var ErrUnsupportedVersion = errors.New("unsupported gguf version")

// maxTensorDims begrenzt die Dimensionen eines Tensor-Deskriptors
const maxTensorDims = 8

type gguf struct {
	Version   uint32
	NumTensor uint64
	NumKV     uint64

	kv      KV
	keys    []string
	tensors []*Tensor
}

func (llm *gguf) KV() KV {
	return llm.kv
}

// KeyOrder gibt die KV-Keys in Datei-Reihenfolge zurueck
func (llm *gguf) KeyOrder() []string {
	return llm.keys
}

func (llm *gguf) Tensors() Tensors {
	return Tensors{items: llm.tensors}
}

// decodeGGUF liest den Header nach dem Magic. remaining ist die Anzahl der
// Bytes ab der aktuellen Position bis zum Dateiende.
func decodeGGUF(r io.Reader, remaining int64, order binary.ByteOrder, maxArraySize int) (*gguf, error) {
	d := &decoder{r: &io.LimitedReader{R: r, N: remaining}, order: order, maxArraySize: maxArraySize}

	version, err := read[uint32](d)
	if err != nil {
		return nil, err
	}
	d.version = version

	llm := &gguf{Version: version, kv: make(KV)}
	switch version {
	case 1:
		var counts struct{ NumTensor, NumKV uint32 }
		if err := binary.Read(d.r, order, &counts); err != nil {
			return nil, err
		}
		llm.NumTensor, llm.NumKV = uint64(counts.NumTensor), uint64(counts.NumKV)
	case 2, 3:
		var counts struct{ NumTensor, NumKV uint64 }
		if err := binary.Read(d.r, order, &counts); err != nil {
			return nil, err
		}
		llm.NumTensor, llm.NumKV = counts.NumTensor, counts.NumKV
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if err := llm.decodeKV(d); err != nil {
		return nil, err
	}

	if err := llm.decodeTensors(d); err != nil {
		return nil, err
	}
	return llm, nil
}

// decodeKV liest alle KV-Paare. Doppelte Keys behalten ihre erste Position,
// der spaetere Wert gewinnt.
func (llm *gguf) decodeKV(d *decoder) error {
	llm.keys = make([]string, 0, min(llm.NumKV, 1<<10))
	for i := range llm.NumKV {
		k, err := d.str()
		if err != nil {
			return fmt.Errorf("failed to read key %d: %w", i, err)
		}

		t, err := read[uint32](d)
		if err != nil {
			return fmt.Errorf("failed to read type for %q: %w", k, err)
		}

		v, err := d.value(t)
		if err != nil {
			return fmt.Errorf("failed to read value for %q: %w", k, err)
		}

		if _, ok := llm.kv[k]; !ok {
			llm.keys = append(llm.keys, k)
		}
		llm.kv[k] = v
	}
	return nil
}

func (llm *gguf) decodeTensors(d *decoder) error {
	llm.tensors = make([]*Tensor, 0, min(llm.NumTensor, 1<<12))
	for range llm.NumTensor {
		name, err := d.str()
		if err != nil {
			return fmt.Errorf("failed to read tensor name: %w", err)
		}

		dims, err := read[uint32](d)
		if err != nil {
			return fmt.Errorf("failed to read dimensions of %q: %w", name, err)
		}
		if dims > maxTensorDims {
			return fmt.Errorf("tensor %q has %d dimensions", name, dims)
		}

		shape := make([]uint64, dims)
		for i := range shape {
			if shape[i], err = read[uint64](d); err != nil {
				return fmt.Errorf("failed to read shape of %q: %w", name, err)
			}
		}

		kind, err := read[uint32](d)
		if err != nil {
			return fmt.Errorf("failed to read type of %q: %w", name, err)
		}

		offset, err := read[uint64](d)
		if err != nil {
			return fmt.Errorf("failed to read offset of %q: %w", name, err)
		}

		llm.tensors = append(llm.tensors, &Tensor{
			Name:   name,
			Kind:   kind,
			Offset: offset,
			Shape:  shape,
		})
	}
	return nil
}

func ggufPadding(offset, align int64) int64 {
	return (align - offset%align) % align
}
