// tensortype.go - GGML TensorType Definitionen
//
// Enthaelt:
// - TensorType Konstanten
// - String: Namen wie in safetensors-Headern (F16, BF16, ...)
// - BlockSize/TypeSize: Speicherbedarf pro Block

package ggml

// TensorType ist aequivalent zu ggml_type fuer einzelne Tensor-Typen
// Hinweis: Diese sind nicht identisch mit FileType
type TensorType uint32

const (
	TensorTypeF32 TensorType = iota
	TensorTypeF16
	TensorTypeQ4_0
	TensorTypeQ4_1
	tensorTypeQ4_2
	tensorTypeQ4_3 // unbenutzt
	TensorTypeQ5_0
	TensorTypeQ5_1
	TensorTypeQ8_0
	TensorTypeQ8_1
	TensorTypeQ2_K
	TensorTypeQ3_K
	TensorTypeQ4_K
	TensorTypeQ5_K
	TensorTypeQ6_K
	TensorTypeQ8_K
	tensorTypeIQ2_XXS // nicht unterstuetzt
	tensorTypeIQ2_XS  // nicht unterstuetzt
	tensorTypeIQ3_XXS // nicht unterstuetzt
	tensorTypeIQ1_S   // nicht unterstuetzt
	tensorTypeIQ4_NL  // nicht unterstuetzt
	tensorTypeIQ3_S   // nicht unterstuetzt
	tensorTypeIQ2_S   // nicht unterstuetzt
	tensorTypeIQ4_XS  // nicht unterstuetzt
	TensorTypeI8
	TensorTypeI16
	TensorTypeI32
	TensorTypeI64
	TensorTypeF64
	tensorTypeIQ1_M // nicht unterstuetzt
	TensorTypeBF16
	tensorTypeQ4_0_4_4   // unbenutzt
	tensorTypeQ4_0_4_8   // unbenutzt
	tensorTypeQ4_0_8_8   // unbenutzt
	tensorTypeTQ1_0      // nicht unterstuetzt
	tensorTypeTQ2_0      // nicht unterstuetzt
	tensorTypeIQ4_NL_4_4 // unbenutzt
	tensorTypeIQ4_NL_4_8 // unbenutzt
	tensorTypeIQ4_NL_8_8 // unbenutzt
	TensorTypeMXFP4
)

// tensorTypeNames enthaelt die Namen, unter denen Typen auch in
// safetensors-Headern erscheinen
var tensorTypeNames = map[TensorType]string{
	TensorTypeF32:   "F32",
	TensorTypeF16:   "F16",
	TensorTypeQ4_0:  "Q4_0",
	TensorTypeQ4_1:  "Q4_1",
	TensorTypeQ5_0:  "Q5_0",
	TensorTypeQ5_1:  "Q5_1",
	TensorTypeQ8_0:  "Q8_0",
	TensorTypeQ8_1:  "Q8_1",
	TensorTypeQ2_K:  "Q2_K",
	TensorTypeQ3_K:  "Q3_K",
	TensorTypeQ4_K:  "Q4_K",
	TensorTypeQ5_K:  "Q5_K",
	TensorTypeQ6_K:  "Q6_K",
	TensorTypeQ8_K:  "Q8_K",
	TensorTypeF64:   "F64",
	TensorTypeBF16:  "BF16",
	TensorTypeI8:    "I8",
	TensorTypeI16:   "I16",
	TensorTypeI32:   "I32",
	TensorTypeI64:   "I64",
	TensorTypeMXFP4: "MXFP4",
}

func (t TensorType) String() string {
	if t == tensorTypeQ4_2 {
		// alte MXFP4-Dateien verwenden den freien Slot 4
		t = TensorTypeMXFP4
	}

	if name, ok := tensorTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// BlockSize gibt die Block-Groesse fuer einen TensorType zurueck
// Quantisierte Typen haben BlockSize 32 oder 256
func (t TensorType) BlockSize() uint64 {
	switch t {
	case TensorTypeF32, TensorTypeF16, TensorTypeBF16, TensorTypeF64,
		TensorTypeI8, TensorTypeI16, TensorTypeI32, TensorTypeI64:
		return 1
	case TensorTypeQ4_0, TensorTypeQ4_1, TensorTypeQ5_0, TensorTypeQ5_1,
		TensorTypeQ8_0, TensorTypeQ8_1, tensorTypeQ4_2, TensorTypeMXFP4:
		return 32
	default:
		return 256
	}
}

// TypeSize gibt die Byte-Groesse pro Block zurueck
func (t TensorType) TypeSize() uint64 {
	blockSize := t.BlockSize()

	switch t {
	case TensorTypeF32, TensorTypeI32:
		return 4
	case TensorTypeF16, TensorTypeBF16, TensorTypeI16:
		return 2
	case TensorTypeF64, TensorTypeI64:
		return 8
	case TensorTypeI8:
		return 1
	case TensorTypeQ4_0:
		return 2 + blockSize/2
	case TensorTypeQ4_1:
		return 2 + 2 + blockSize/2
	case TensorTypeQ5_0:
		return 2 + 4 + blockSize/2
	case TensorTypeQ5_1:
		return 2 + 2 + 4 + blockSize/2
	case TensorTypeQ8_0:
		return 2 + blockSize
	case TensorTypeQ8_1:
		return 2 + 2 + blockSize
	case TensorTypeQ2_K:
		return blockSize/16 + blockSize/4 + 2 + 2
	case TensorTypeQ3_K:
		return blockSize/8 + blockSize/4 + 12 + 2
	case TensorTypeQ4_K:
		return 2 + 2 + 12 + blockSize/2
	case TensorTypeQ5_K:
		return 2 + 2 + 12 + blockSize/8 + blockSize/2
	case TensorTypeQ6_K:
		return blockSize/2 + blockSize/4 + blockSize/16 + 2
	case TensorTypeQ8_K:
		return 4 + blockSize + 2*blockSize/16
	case tensorTypeQ4_2, TensorTypeMXFP4:
		return 1 + blockSize/2
	default:
		return 0
	}
}
