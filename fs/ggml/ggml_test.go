package ggml

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgua/sdbx/fs"
)

func writeTestModel(t *testing.T) *bytes.Reader {
	t.Helper()

	var b bytes.Buffer
	err := WriteGGUF(&b, KV{
		"general.architecture":  "llama",
		"general.name":          "tiny",
		"general.alignment":     uint32(32),
		"llama.block_count":     uint32(2),
		"tokenizer.ggml.tokens": []string{"a", "b"},
	}, []*Tensor{
		{Name: "token_embd.weight", Kind: uint32(TensorTypeF16), Shape: []uint64{4, 8}},
		{Name: "output.weight", Kind: uint32(TensorTypeF32), Shape: []uint64{8}},
	})
	require.NoError(t, err)
	require.Zero(t, b.Len()%32)

	return bytes.NewReader(b.Bytes())
}

func TestDecode(t *testing.T) {
	g, err := Decode(writeTestModel(t), -1)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), g.Version)
	assert.Equal(t, "llama", g.KV().Architecture())
	assert.Equal(t, "tiny", g.KV().String("general.name"))
	assert.Equal(t, uint32(2), g.KV().Uint("block_count"))
	assert.Equal(t, []any{"a", "b"}, g.KV().Plain("tokenizer.ggml.tokens"))

	if diff := cmp.Diff([]string{
		"general.alignment",
		"general.architecture",
		"general.name",
		"llama.block_count",
		"tokenizer.ggml.tokens",
	}, g.KeyOrder()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}

	ts := g.Tensors().Items()
	require.Len(t, ts, 2)
	assert.Equal(t, "F16", ts[0].Type())
	assert.Equal(t, uint64(32), ts[0].Elements())
	assert.Equal(t, uint64(64), ts[1].Offset)
}

func TestDecodeMaxArraySize(t *testing.T) {
	g, err := Decode(writeTestModel(t), 1)
	require.NoError(t, err)

	assert.Nil(t, g.KV().Plain("tokenizer.ggml.tokens"))
	assert.Equal(t, "tiny", g.KV().String("general.name"))
}

// oneKV baut einen v3-Header ohne Tensors mit genau einem KV-Paar "k",
// dessen Typ und Wert value schreibt
func oneKV(value func(b *bytes.Buffer)) []byte {
	b := bytes.NewBufferString("GGUF")
	binary.Write(b, binary.LittleEndian, uint32(3))
	binary.Write(b, binary.LittleEndian, uint64(0))
	binary.Write(b, binary.LittleEndian, uint64(1))
	binary.Write(b, binary.LittleEndian, uint64(1))
	b.WriteString("k")
	value(b)
	return b.Bytes()
}

func TestDecodeErrors(t *testing.T) {
	model, err := io.ReadAll(writeTestModel(t))
	require.NoError(t, err)

	cases := []struct {
		name  string
		input []byte
		want  error
	}{
		{"magic", []byte("NOPE\x03\x00\x00\x00"), ErrInvalidMagic},
		{"short", []byte("GG"), ErrInvalidMagic},
		{"ggjt", []byte("tjgg\x01\x00\x00\x00"), ErrInvalidMagic},
		{"version", binary.LittleEndian.AppendUint32([]byte("GGUF"), 7), ErrUnsupportedVersion},
		{"truncated", model[:len(model)/2], ErrMalformed},
		{"array count", oneKV(func(b *bytes.Buffer) {
			binary.Write(b, binary.LittleEndian, ggufTypeArray)
			binary.Write(b, binary.LittleEndian, ggufTypeUint8)
			binary.Write(b, binary.LittleEndian, ^uint64(0))
		}), ErrMalformed},
		{"string array count", oneKV(func(b *bytes.Buffer) {
			binary.Write(b, binary.LittleEndian, ggufTypeArray)
			binary.Write(b, binary.LittleEndian, ggufTypeString)
			binary.Write(b, binary.LittleEndian, uint64(1)<<40)
		}), ErrMalformed},
		{"string length", oneKV(func(b *bytes.Buffer) {
			binary.Write(b, binary.LittleEndian, ggufTypeString)
			binary.Write(b, binary.LittleEndian, uint64(1)<<20)
			b.WriteString("kurz")
		}), ErrMalformed},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.input), -1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	g, err := Decode(writeTestModel(t), -1)
	require.NoError(t, err)

	var visited []*fs.Object
	root := g.Walk(func(o *fs.Object) { visited = append(visited, o) })

	require.Len(t, visited, 4)
	assert.Same(t, root, visited[3])
	assert.Equal(t, []string{MetadataKey, "token_embd.weight", "output.weight"}, fs.Keys(root))

	meta, _ := root.Get(MetadataKey)
	assert.Same(t, visited[0], meta)
	name, _ := visited[0].Get("general.name")
	assert.Equal(t, "tiny", name)
	tokens, _ := visited[0].Get("tokenizer.ggml.tokens")
	assert.Equal(t, []any{"a", "b"}, tokens)

	dtype, _ := visited[2].Get("dtype")
	assert.Equal(t, "F32", dtype)
	offsets, _ := visited[2].Get("data_offsets")
	assert.Equal(t, []uint64{64, 96}, offsets)
	shape, _ := visited[1].Get("shape")
	got, ok := fs.Shape(shape)
	require.True(t, ok)
	assert.Equal(t, []uint64{4, 8}, got)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "gguf", DetectContentType([]byte("GGUF")))
	assert.Equal(t, "ggjt", DetectContentType([]byte("tjgg")))
	assert.Equal(t, "ggml", DetectContentType([]byte("lmgg")))
	assert.Empty(t, DetectContentType([]byte("GG")))
	assert.Empty(t, DetectContentType([]byte("\x00\x00\x00\x00")))
}

func TestTensorTypeNames(t *testing.T) {
	for tt, name := range map[TensorType]string{
		TensorTypeF32:   "F32",
		TensorTypeF16:   "F16",
		TensorTypeBF16:  "BF16",
		TensorTypeQ4_K:  "Q4_K",
		TensorTypeI64:   "I64",
		TensorTypeMXFP4: "MXFP4",
		tensorTypeQ4_2:  "MXFP4",
	} {
		assert.Equal(t, name, tt.String())
	}

	assert.Equal(t, "unknown", TensorType(999).String())
	assert.Equal(t, uint64(2), TensorTypeBF16.TypeSize())
}
