package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgua/sdbx/api"
	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/fs"
	"github.com/mgua/sdbx/fs/ggml"
	"github.com/mgua/sdbx/fs/safetensors"
	"github.com/mgua/sdbx/fs/torch"
	"github.com/mgua/sdbx/graph"
	"github.com/mgua/sdbx/index"
	"github.com/mgua/sdbx/tuner"
	"github.com/mgua/sdbx/vocab"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeModel(t *testing.T, dir, name string, tensors ...string) string {
	t.Helper()

	header := fs.NewObject()
	for _, tensor := range tensors {
		header.Set(tensor, safetensors.TensorEntry("F16", []uint64{4, 4}, 0, 32))
	}

	var b bytes.Buffer
	require.NoError(t, safetensors.Encode(&b, header))

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, b.Bytes(), 0o644))
	return p
}

func newTestClient(t *testing.T) (*api.Client, *Server) {
	t.Helper()

	c := classify.New(vocab.Default())
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"), c)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	s := NewServer(c, idx)
	ts := httptest.NewServer(s.GenerateRoutes())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return api.NewClient(u, ts.Client()), s
}

func TestVersionAndVocabulary(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Heartbeat(ctx))

	v, err := client.Version(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, v)

	resp, err := client.Vocabulary(ctx)
	require.NoError(t, err)

	var labels []string
	for _, f := range resp.Families {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, vocab.Default().Labels(), labels)
}

func TestClassify(t *testing.T) {
	client, _ := newTestClient(t)
	p := writeModel(t, t.TempDir(), "ae.safetensors", "decoder.mid.block_1.conv1.weight", "decoder.conv_out.weight")

	resp, err := client.Classify(context.Background(), &api.ClassifyRequest{Path: p})
	require.NoError(t, err)

	assert.Equal(t, []string{"vae"}, resp.Best)
	assert.Equal(t, 2, resp.Tag.TensorCount)
	assert.Equal(t, "F16", resp.Tag.Dtype)
	assert.Equal(t, "ae.safetensors", resp.Tag.Filename)
}

func TestClassifyErrors(t *testing.T) {
	client, _ := newTestClient(t)
	dir := t.TempDir()

	unsupported := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(unsupported, []byte("x"), 0o644))

	truncated := filepath.Join(dir, "broken.safetensors")
	require.NoError(t, os.WriteFile(truncated, []byte{1, 2, 3}, 0o644))

	truncatedGGUF := filepath.Join(dir, "broken.gguf")
	require.NoError(t, os.WriteFile(truncatedGGUF, []byte("GGUF\x03\x00\x00\x00\x05"), 0o644))

	emptyCheckpoint := filepath.Join(dir, "empty.pt")
	require.NoError(t, os.WriteFile(emptyCheckpoint, nil, 0o644))

	cases := []struct {
		name   string
		path   string
		status int
	}{
		{"empty", "", http.StatusBadRequest},
		{"missing", filepath.Join(dir, "missing.safetensors"), http.StatusNotFound},
		{"unsupported", unsupported, http.StatusBadRequest},
		{"truncated", truncated, http.StatusBadRequest},
		{"truncated gguf", truncatedGGUF, http.StatusBadRequest},
		{"empty checkpoint", emptyCheckpoint, http.StatusBadRequest},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Classify(context.Background(), &api.ClassifyRequest{Path: tt.path})

			var se api.StatusError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.NotEmpty(t, se.ErrorMessage)
		})
	}
}

func TestClassifyMissingBody(t *testing.T) {
	_, s := newTestClient(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/classify", nil)
	s.GenerateRoutes().ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"missing request body"}`, w.Body.String())
}

func TestTuneAndClearCache(t *testing.T) {
	client, s := newTestClient(t)
	ctx := context.Background()
	p := writeModel(t, t.TempDir(), "flux1-dev.safetensors", "guidance_in.in_layer.weight", "double_blocks.0.img_attn.norm.key_norm.scale")

	resp, err := client.Tune(ctx, &api.TuneRequest{
		Path:         p,
		Function:     tuner.FunctionDiffusionPipe,
		WidgetInputs: map[string]any{"num_inference_steps": 4},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"flux"}, resp.Best)
	pipe := resp.Parameters.For(tuner.FunctionDiffusionPipe)
	assert.Equal(t, "FluxPipeline", pipe["pipeline"])
	assert.EqualValues(t, 4, pipe["num_inference_steps"])
	assert.Equal(t, 1, s.tuner.Cached())

	_, err = client.Tune(ctx, &api.TuneRequest{Path: p, Function: tuner.FunctionDiffusionPipe, WidgetInputs: map[string]any{"num_inference_steps": 4}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.tuner.Cached())

	require.NoError(t, client.ClearCache(ctx))
	assert.Equal(t, 0, s.tuner.Cached())

	_, err = client.Tune(ctx, &api.TuneRequest{Path: p})
	var se api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestEvaluate(t *testing.T) {
	client, _ := newTestClient(t)
	dir := t.TempDir()
	ae := writeModel(t, dir, "ae.safetensors", "decoder.conv_out.weight")

	req := api.EvaluateRequest{Graph: graph.Document{
		Nodes: []graph.Node{
			{ID: "loader", Function: tuner.FunctionVAEDecode, Path: ae},
			{ID: "decode", Function: tuner.FunctionVAEDecode},
		},
		Edges: []graph.Edge{{From: "loader", To: "decode"}},
	}}

	resp, err := client.Evaluate(context.Background(), &req)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"loader", "decode"}, resp.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, resp.Inputs["loader"])
	assert.Equal(t, "float16", resp.Inputs["decode"]["torch_dtype"])
}

func TestEvaluateCycle(t *testing.T) {
	client, _ := newTestClient(t)

	req := api.EvaluateRequest{Graph: graph.Document{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graph.Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
	}}

	_, err := client.Evaluate(context.Background(), &req)

	var se api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Contains(t, se.ErrorMessage, "cycle")
}

func TestEvaluateUnknownNode(t *testing.T) {
	client, _ := newTestClient(t)

	req := api.EvaluateRequest{Graph: graph.Document{
		Nodes: []graph.Node{{ID: "a"}},
		Edges: []graph.Edge{{From: "a", To: "missing"}},
	}}

	_, err := client.Evaluate(context.Background(), &req)

	var se api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestScanAndModels(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeModel(t, dir, "ae.safetensors", "decoder.conv_out.weight")
	writeModel(t, dir, "other.safetensors", "decoder.conv_out.bias")

	scanned, err := client.Scan(ctx, &api.ScanRequest{Dir: dir, Kind: index.KindVAE})
	require.NoError(t, err)
	assert.Len(t, scanned.Models, 2)

	resp, err := client.Models(ctx, "vae")
	require.NoError(t, err)
	require.Len(t, resp.Models, 2)
	assert.True(t, strings.HasSuffix(resp.Models[0].Path, "ae.safetensors"))
	assert.Equal(t, []string{"vae"}, resp.Models[0].Families)

	resp, err = client.Models(ctx, "llm")
	require.NoError(t, err)
	assert.Empty(t, resp.Models)

	_, err = client.Models(ctx, "unet")
	var se api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&graph.MissingPredecessorResultError{Node: "b", Predecessor: "a"}, http.StatusUnprocessableEntity},
		{&vocab.VocabularyLoadError{Path: "x.toml", Err: errors.New("boom")}, http.StatusBadRequest},
		{index.ErrNotIndexed, http.StatusNotFound},
		{fmt.Errorf("/m/a.gguf: %w: %w", ggml.ErrMalformed, io.ErrUnexpectedEOF), http.StatusBadRequest},
		{fmt.Errorf("/m/a.pt: %w: %w", torch.ErrInvalidCheckpoint, io.ErrUnexpectedEOF), http.StatusBadRequest},
		{&torch.CheckpointTooLargeError{Size: 10, Limit: 1}, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestAllowedHostsMiddleware(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8188}

	r := gin.New()
	r.Use(allowedHostsMiddleware(addr))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := map[string]int{
		"localhost:8188":   http.StatusOK,
		"127.0.0.1:8188":   http.StatusOK,
		"sdbx.local":       http.StatusOK,
		"example.com":      http.StatusForbidden,
		"evil.example.com": http.StatusForbidden,
	}

	for host, want := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, host)
	}
}

func TestEvaluateResponseJSON(t *testing.T) {
	ev := api.EvaluateResponse{Evaluation: graph.Evaluation{Order: []string{"a"}}}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"order":["a"]`)
}
