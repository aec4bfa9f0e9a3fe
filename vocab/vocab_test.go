package vocab

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
zeta = """
  double_blocks

single_blocks
double_blocks
"""
alpha = ["lora_up", "lora_down"]
version = 3
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha"}, c.Labels())

	want := []Family{
		{Label: "zeta", Tokens: []string{"double_blocks", "single_blocks", "double_blocks"}},
		{Label: "alpha", Tokens: []string{"lora_up", "lora_down"}},
	}
	if diff := cmp.Diff(want, c.Families()); diff != "" {
		t.Errorf("families mismatch (-want +got):\n%s", diff)
	}

	f, ok := c.Family("zeta")
	require.True(t, ok)
	assert.Len(t, f.Tokens, 3)

	_, ok = c.Family("missing")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"kaputtes toml", `sdxl = """unterminated`},
		{"kein string", `sdxl = [1, 2]`},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))

			var vle *VocabularyLoadError
			require.True(t, errors.As(err, &vle))
			assert.True(t, errors.Is(err, ErrVocabularyLoad))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	p := filepath.Join(dir, "classify.toml")
	require.NoError(t, os.WriteFile(p, []byte("vae = \"decoder.conv_out\"\n"), 0o644))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"vae"}, c.Labels())

	missing := filepath.Join(dir, "missing.toml")
	_, err = Load(missing)

	var vle *VocabularyLoadError
	require.True(t, errors.As(err, &vle))
	assert.Equal(t, missing, vle.Path)
	assert.True(t, errors.Is(err, ErrVocabularyLoad))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("= nope"), 0o644))
	_, err = Load(broken)
	require.True(t, errors.As(err, &vle))
	assert.Equal(t, broken, vle.Path)
}

func TestDefault(t *testing.T) {
	c := Default()
	require.Same(t, c, Default())

	for _, label := range []string{"flux", "sdxl", "sd1", "vae", "lora", "llama"} {
		f, ok := c.Family(label)
		require.True(t, ok, label)
		assert.NotEmpty(t, f.Tokens, label)
	}
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("SDBX_VOCABULARY", "")
	c, err := FromEnvironment()
	require.NoError(t, err)
	assert.Same(t, Default(), c)

	p := filepath.Join(t.TempDir(), "v.toml")
	require.NoError(t, os.WriteFile(p, []byte("x = \"y\"\n"), 0o644))
	t.Setenv("SDBX_VOCABULARY", p)

	c, err = FromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, c.Labels())
}

func TestParseDocumentOrder(t *testing.T) {
	c, err := Parse([]byte(`
sdxl = "label_emb"
"quoted family" = "x"
flux = ["double_blocks"]
auraflow = "joint_transformer_blocks"

[extra]
ignored = "y"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"sdxl", "quoted family", "flux", "auraflow"}, c.Labels())

	f, ok := c.Family("flux")
	require.True(t, ok)
	assert.Equal(t, []string{"double_blocks"}, f.Tokens)
}
