// objects.go - GGUF-Header als Objekt-Baum
//
// Enthaelt:
// - Walk: Baut aus KV und Tensor-Deskriptoren denselben Objekt-Baum, den
//   ein safetensors-Header liefert, und meldet jedes Objekt dem Visitor
package ggml

import (
	"github.com/mgua/sdbx/fs"
)

// MetadataKey ist der Key des Metadaten-Blocks im Objekt-Baum
const MetadataKey = "__metadata__"

// Walk erzeugt den Objekt-Baum des Headers. Die Reihenfolge der Visits
// entspricht einem JSON-Decoder: zuerst der Metadaten-Block, dann jeder
// Tensor in Datei-Reihenfolge, zuletzt das Wurzel-Objekt.
//
// Ein Tensor-Objekt enthaelt dtype, shape und data_offsets relativ zum
// Beginn der Tensor-Daten.
func (g *GGML) Walk(visit fs.Visitor) *fs.Object {
	if visit == nil {
		visit = func(*fs.Object) {}
	}

	root := fs.NewObject()

	kv := g.KV()
	meta := fs.NewObject()
	for _, k := range g.KeyOrder() {
		meta.Set(k, kv.Plain(k))
	}
	visit(meta)
	root.Set(MetadataKey, meta)

	for _, t := range g.Tensors().Items() {
		o := fs.NewObject()
		o.Set("dtype", t.Type())
		o.Set("shape", append([]uint64(nil), t.Shape...))
		o.Set("data_offsets", []uint64{t.Offset, t.Offset + t.Size()})
		visit(o)
		root.Set(t.Name, o)
	}

	visit(root)
	return root
}
