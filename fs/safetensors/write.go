// write.go - Safetensors-Header schreiben
//
// Enthaelt:
// - Encode: schreibt Laengen-Praefix und JSON-Header (8-Byte-aligned)
// - TensorEntry: baut einen Tensor-Deskriptor als Object
package safetensors

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/mgua/sdbx/fs"
)

// Encode schreibt header als Safetensors-Header nach w.
// Die Key-Reihenfolge des Objects bleibt erhalten, Tensor-Daten werden
// nicht geschrieben.
func Encode(w io.Writer, header *fs.Object) error {
	data, err := json.Marshal(header)
	if err != nil {
		return err
	}

	if pad := len(data) % 8; pad != 0 {
		data = append(data, bytes.Repeat([]byte{' '}, 8-pad)...)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(data))); err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// TensorEntry erstellt einen Tensor-Deskriptor mit dtype, shape und data_offsets
func TensorEntry(dtype string, shape []uint64, begin, end uint64) *fs.Object {
	o := fs.NewObject()
	o.Set("dtype", dtype)
	o.Set("shape", shape)
	o.Set("data_offsets", []uint64{begin, end})
	return o
}
