// tag.go - ModelTag und Aufbau waehrend des Dekodierens
//
// Enthaelt:
// - ModelTag: Normalisierter Metadaten-Datensatz einer Datei
// - WellKnownKeys: Keys, die in den ModelTag uebernommen werden
// - builder: Visitor, der den ModelTag pro Objekt fortschreibt
package metadata

import (
	"slices"

	"github.com/mgua/sdbx/fs"
)

// ModelTag beschreibt eine Modell-Datei. Ein ModelTag wird pro Lesevorgang
// neu erzeugt und danach nicht mehr veraendert.
type ModelTag struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`

	// TensorCount zaehlt Objekte mit dtype-Feld
	TensorCount int `json:"tensor_count"`

	// MaxShape ist die lexikographisch groesste Shape, bei Gleichstand die erste
	MaxShape []uint64 `json:"max_shape,omitempty"`

	// Dtype ist der zuerst gesehene dtype
	Dtype string `json:"dtype,omitempty"`

	// RawMetadata enthaelt die bekannten Keys mit ihrem ersten Wert
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`

	// MetadataBlock ist der __metadata__ Block, falls vorhanden
	MetadataBlock map[string]any `json:"metadata_block,omitempty"`
}

// Keys fuer dtype, shape und den Metadaten-Block
const (
	KeyDtype    = "dtype"
	KeyShape    = "shape"
	KeyMetadata = "__metadata__"
)

// WellKnownKeys sind die Keys, deren erster Wert in RawMetadata landet.
// dtype, shape und __metadata__ haben eigene Felder.
var WellKnownKeys = []string{
	KeyDtype,
	KeyShape,
	KeyMetadata,
	"info.files_metadata",
	"file_metadata",
	"name",
	"info.sharded",
	"info.metadata",
	"file_metadata.tensors",
	"modelspec.title",
	"modelspec.architecture",
	"modelspec.author",
	"modelspec.hash_sha256",
	"modelspec.resolution",
	"resolution",
	"ss_resolution",
	"ss_mixed_precision",
	"ss_base_model_version",
	"ss_network_module",
	"model.safetensors",
	"ds_config",
	"general.architecture",
	"general.name",
}

// builder schreibt den ModelTag fuer genau einen Lesevorgang fort
type builder struct {
	tag *ModelTag
}

func newBuilder(tag *ModelTag) *builder {
	tag.RawMetadata = make(map[string]any)
	return &builder{tag: tag}
}

// visit wird fuer jedes dekodierte Objekt aufgerufen
func (b *builder) visit(o *fs.Object) {
	for _, key := range WellKnownKeys {
		v, ok := o.Get(key)
		if !ok {
			continue
		}

		switch key {
		case KeyDtype:
			b.tag.TensorCount++
			if s, ok := v.(string); ok && b.tag.Dtype == "" {
				b.tag.Dtype = s
			}
		case KeyShape:
			if shape, ok := fs.Shape(v); ok && slices.Compare(shape, b.tag.MaxShape) > 0 {
				b.tag.MaxShape = slices.Clone(shape)
			}
		case KeyMetadata:
			if b.tag.MetadataBlock == nil {
				if m, ok := fs.Plain(v).(map[string]any); ok {
					b.tag.MetadataBlock = m
				}
			}
		default:
			if _, seen := b.tag.RawMetadata[key]; !seen {
				b.tag.RawMetadata[key] = fs.Plain(v)
			}
		}
	}
}
