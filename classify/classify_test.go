package classify

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgua/sdbx/fs"
	"github.com/mgua/sdbx/fs/safetensors"
	"github.com/mgua/sdbx/metadata"
	"github.com/mgua/sdbx/vocab"
)

func catalogue(t *testing.T, families ...vocab.Family) *vocab.Catalogue {
	t.Helper()
	c, err := vocab.New(families...)
	require.NoError(t, err)
	return c
}

func object(kv ...string) *fs.Object {
	o := fs.NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i], kv[i+1])
	}
	return o
}

func TestObjectsNoMatch(t *testing.T) {
	c := New(catalogue(t,
		vocab.Family{Label: "flux", Tokens: []string{"double_blocks"}},
		vocab.Family{Label: "sdxl", Tokens: []string{"label_emb"}},
	))

	r := c.Objects(object("decoder.conv_in.weight", "F16", "encoder.down.0", "F16"))

	assert.Empty(t, r.Best)
	assert.True(t, r.Unknown())
	assert.Equal(t, map[string]int{"flux": 0, "sdxl": 0}, r.Scores)
}

func TestObjectsLastTokenWins(t *testing.T) {
	o := object(
		"bbb.0", "",
		"bbb.1", "",
		"aaa.0", "",
	)

	cases := []struct {
		name   string
		tokens []string
		want   int
	}{
		{"bbb zuletzt", []string{"aaa", "bbb"}, 2},
		{"aaa zuletzt", []string{"bbb", "aaa"}, 1},
		{"nicht getroffen zuletzt", []string{"aaa", "bbb", "ccc"}, 0},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			c := New(catalogue(t, vocab.Family{Label: "x", Tokens: tt.tokens}))
			r := c.Objects(o)
			assert.Equal(t, tt.want, r.Scores["x"])
		})
	}
}

func TestObjectsCountsValuesAndAccumulates(t *testing.T) {
	c := New(catalogue(t, vocab.Family{Label: "sdxl", Tokens: []string{"sdxl"}}))

	meta := object("ss_base_model_version", "sdxl_base_v1-0")
	root := object("lora_unet_sdxl_down.weight", "", "other", "")

	r := c.Objects(meta, root)
	assert.Equal(t, 2, r.Scores["sdxl"])
	assert.Equal(t, []string{"sdxl"}, r.Best)
}

func TestObjectsDuplicateTokens(t *testing.T) {
	c := New(catalogue(t, vocab.Family{Label: "x", Tokens: []string{"a", "a"}}))

	r := c.Objects(object("a", ""))
	assert.Equal(t, 2, r.Scores["x"])
}

func TestObjectsTies(t *testing.T) {
	c := New(catalogue(t,
		vocab.Family{Label: "vae", Tokens: []string{"decoder"}},
		vocab.Family{Label: "flux", Tokens: []string{"blocks"}},
		vocab.Family{Label: "t5", Tokens: []string{"encoder.block"}},
	))

	r := c.Objects(object("decoder.a", "", "double_blocks.0", ""))

	if diff := cmp.Diff([]string{"flux", "vae"}, r.Best); diff != "" {
		t.Errorf("best mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, r.Scores["t5"])
}

func TestClassify(t *testing.T) {
	header := fs.NewObject()
	for i, name := range []string{
		"double_blocks.0.img_attn.qkv.weight",
		"double_blocks.1.img_attn.qkv.weight",
		"single_blocks.0.linear1.weight",
		"guidance_in.in_layer.weight",
	} {
		header.Set(name, safetensors.TensorEntry("BF16", []uint64{3072, uint64(i + 1)}, 0, 2))
	}

	var b bytes.Buffer
	require.NoError(t, safetensors.Encode(&b, header))

	p := filepath.Join(t.TempDir(), "flux1-dev.safetensors")
	require.NoError(t, os.WriteFile(p, b.Bytes(), 0o644))

	tag, r, err := New(vocab.Default()).Classify(p)
	require.NoError(t, err)

	assert.Equal(t, []string{"flux"}, r.Best)
	assert.Equal(t, 2, r.Scores["flux"])
	assert.Equal(t, 4, tag.TensorCount)
	assert.Equal(t, "BF16", tag.Dtype)
	assert.Equal(t, []uint64{3072, 4}, tag.MaxShape)
}

func TestClassifyMissing(t *testing.T) {
	_, r, err := New(vocab.Default()).Classify(filepath.Join(t.TempDir(), "nope.safetensors"))
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, metadata.ErrNotFound))
}

// Familien mit gemeinsamem Token teilen sich den Zaehler, spaetere Familien
// im Katalog sehen die Treffer der frueheren mit
func TestObjectsSharedTokenFollowsCatalogueOrder(t *testing.T) {
	o := object("double_blocks.0.img_attn.qkv.weight", "")

	r := New(catalogue(t,
		vocab.Family{Label: "zeta", Tokens: []string{"double_blocks"}},
		vocab.Family{Label: "alpha", Tokens: []string{"double_blocks"}},
	)).Objects(o)
	assert.Equal(t, map[string]int{"zeta": 1, "alpha": 2}, r.Scores)
	assert.Equal(t, []string{"alpha"}, r.Best)

	cat, err := vocab.Parse([]byte("zeta = \"double_blocks\"\nalpha = \"double_blocks\"\n"))
	require.NoError(t, err)
	assert.Equal(t, r.Scores, New(cat).Objects(o).Scores)
}
