// Package ggml - Tensor Datenstrukturen
//
// Dieses Modul enthaelt Tensor-bezogene Typen und Methoden:
// - Tensor: Einzelner Tensor-Deskriptor mit Name, Shape, Kind
// - Tensors: Deskriptoren in Datei-Reihenfolge
// - Elements/Size/Type: Abgeleitete Werte eines Tensors
package ggml

// Tensors repraesentiert die Tensor-Deskriptoren eines Headers
type Tensors struct {
	items []*Tensor
}

// Items gibt die Tensors in Datei-Reihenfolge zurueck
func (s Tensors) Items() []*Tensor {
	return s.items
}

// Tensor repraesentiert einen einzelnen GGML-Tensor-Deskriptor
type Tensor struct {
	Name   string `json:"name"`
	Kind   uint32 `json:"kind"`
	Offset uint64 `json:"-"`

	// Shape ist die Anzahl der Elemente in jeder Dimension
	Shape []uint64 `json:"shape"`
}

// Elements ist das Produkt der Shape; ein Skalar hat ein Element
func (t Tensor) Elements() uint64 {
	n := uint64(1)
	for _, dim := range t.Shape {
		n *= dim
	}
	return n
}

// Size ist die Groesse der Tensor-Daten in Bytes
func (t Tensor) Size() uint64 {
	tt := TensorType(t.Kind)
	return t.Elements() / tt.BlockSize() * tt.TypeSize()
}

// Type ist der dtype-Name wie in safetensors-Headern
func (t Tensor) Type() string {
	return TensorType(t.Kind).String()
}
