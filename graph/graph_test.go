package graph

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgua/sdbx/tuner"
)

func chain(t *testing.T) *Graph {
	t.Helper()

	g := New()
	require.NoError(t, g.AddNode(Node{ID: "A", Function: "model_loader"}))
	require.NoError(t, g.AddNode(Node{ID: "B", Function: "lora_loader"}))
	require.NoError(t, g.AddNode(Node{ID: "C", Function: "diffusion_pipe"}))
	require.NoError(t, g.AddEdge(Edge{From: "A", To: "B"}))
	require.NoError(t, g.AddEdge(Edge{From: "A", To: "C", Output: "model", Input: "model"}))
	require.NoError(t, g.AddEdge(Edge{From: "B", To: "C"}))
	return g
}

func TestPropagateUnion(t *testing.T) {
	g := chain(t)

	merged, err := Propagate(g, "C", MapLookup(map[string]tuner.TunedParameters{
		"A": {"diffusion_pipe": {"pipeline": "StableDiffusionXLPipeline"}, "lora_loader": {"ignored": true}},
		"B": {"diffusion_pipe": {"lora_scale": 0.8}},
	}))
	require.NoError(t, err)

	want := tuner.Parameters{"pipeline": "StableDiffusionXLPipeline", "lora_scale": 0.8}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merged mismatch (-want +got):\n%s", diff)
	}
}

func TestPropagateLaterPredecessorWins(t *testing.T) {
	g := chain(t)

	merged, err := Propagate(g, "C", MapLookup(map[string]tuner.TunedParameters{
		"A": {"diffusion_pipe": {"num_inference_steps": 30, "pcm": true}},
		"B": {"diffusion_pipe": {"num_inference_steps": 8}},
	}))
	require.NoError(t, err)

	assert.Equal(t, tuner.Parameters{"num_inference_steps": 8, "pcm": true}, merged)
}

func TestPropagateMissingPredecessor(t *testing.T) {
	g := chain(t)

	merged, err := Propagate(g, "C", MapLookup(map[string]tuner.TunedParameters{
		"A": {"diffusion_pipe": {"pcm": true}},
	}))
	assert.Nil(t, merged)

	var mpe *MissingPredecessorResultError
	require.True(t, errors.As(err, &mpe))
	assert.Equal(t, "C", mpe.Node)
	assert.Equal(t, "B", mpe.Predecessor)
	assert.True(t, errors.Is(err, ErrMissingPredecessorResult))
}

func TestPropagateNoPredecessors(t *testing.T) {
	merged, err := Propagate(chain(t), "A", MapLookup(nil))
	require.NoError(t, err)
	assert.Empty(t, merged)

	_, err = Propagate(chain(t), "Z", MapLookup(nil))
	assert.True(t, errors.Is(err, ErrInvalidGraph))
}

func TestPredecessorsEdgeOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, g.AddNode(Node{ID: id}))
	}
	require.NoError(t, g.AddEdge(Edge{From: "c", To: "d", Input: "x"}))
	require.NoError(t, g.AddEdge(Edge{From: "a", To: "d", Input: "y"}))
	require.NoError(t, g.AddEdge(Edge{From: "c", To: "d", Input: "z"}))
	require.NoError(t, g.AddEdge(Edge{From: "b", To: "d"}))

	assert.Equal(t, []string{"c", "a", "b"}, g.Predecessors("d"))
	assert.Equal(t, []string{"d"}, g.Successors("c"))
	assert.Len(t, g.Edges(), 4)
}

func TestAddErrors(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "a"}))

	assert.True(t, errors.Is(g.AddNode(Node{ID: "a"}), ErrInvalidGraph))
	assert.True(t, errors.Is(g.AddNode(Node{}), ErrInvalidGraph))
	assert.True(t, errors.Is(g.AddEdge(Edge{From: "a", To: "x"}), ErrInvalidGraph))
	assert.True(t, errors.Is(g.AddEdge(Edge{From: "a", To: "a"}), ErrCycleDetected))
}

func TestTopologicalOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"sampler", "vae", "loader", "prompt"} {
		require.NoError(t, g.AddNode(Node{ID: id}))
	}
	require.NoError(t, g.AddEdge(Edge{From: "loader", To: "sampler"}))
	require.NoError(t, g.AddEdge(Edge{From: "prompt", To: "sampler"}))
	require.NoError(t, g.AddEdge(Edge{From: "sampler", To: "vae"}))
	require.NoError(t, g.AddEdge(Edge{From: "loader", To: "vae"}))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"loader", "prompt", "sampler", "vae"}, order)
}

func TestTopologicalOrderCycle(t *testing.T) {
	g := New()
	for _, id := range []string{"x", "a", "b", "c"} {
		require.NoError(t, g.AddNode(Node{ID: id}))
	}
	require.NoError(t, g.AddEdge(Edge{From: "x", To: "a"}))
	require.NoError(t, g.AddEdge(Edge{From: "a", To: "b"}))
	require.NoError(t, g.AddEdge(Edge{From: "b", To: "c"}))
	require.NoError(t, g.AddEdge(Edge{From: "c", To: "a"}))

	_, err := g.TopologicalOrder()

	var cde *CycleDetectedError
	require.True(t, errors.As(err, &cde))
	assert.Equal(t, []string{"a", "b", "c", "a"}, cde.Path)
	assert.True(t, errors.Is(err, ErrCycleDetected))
}

func TestEvaluate(t *testing.T) {
	g := chain(t)

	tuned := map[string]tuner.TunedParameters{
		"A": {"lora_loader": {"rank": 16}, "diffusion_pipe": {"steps": 30, "pcm": true}},
		"B": {"diffusion_pipe": {"steps": 8}},
	}

	var visited []string
	ev, err := Evaluate(context.Background(), g, func(_ context.Context, n *Node, inputs tuner.Parameters) (tuner.TunedParameters, error) {
		visited = append(visited, n.ID)
		return tuned[n.ID], nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, visited)
	assert.Equal(t, []string{"A", "B", "C"}, ev.Order)
	assert.Equal(t, tuner.Parameters{"rank": 16}, ev.Inputs["B"])
	assert.Equal(t, tuner.Parameters{"steps": 8, "pcm": true}, ev.Inputs["C"])
	assert.Equal(t, tuner.TunedParameters{}, ev.Tuned["C"])
}

func TestEvaluateErrors(t *testing.T) {
	noop := func(context.Context, *Node, tuner.Parameters) (tuner.TunedParameters, error) { return nil, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, chain(t), noop)
	assert.ErrorIs(t, err, context.Canceled)

	boom := errors.New("boom")
	_, err = Evaluate(context.Background(), chain(t), func(_ context.Context, n *Node, _ tuner.Parameters) (tuner.TunedParameters, error) {
		if n.ID == "B" {
			return nil, boom
		}
		return nil, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"B"`)
}

func TestDocument(t *testing.T) {
	g, err := Decode(strings.NewReader(`{
		"nodes": [
			{"id": "loader", "function": "model_loader", "path": "/models/sdxl.safetensors", "widget_inputs": {"steps": 20}},
			{"function": "diffusion_pipe"}
		],
		"edges": [{"from": "loader", "to": "#1", "output": "model", "input": "model"}]
	}`))
	require.NoError(t, err)

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	_, err = uuid.Parse(nodes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"loader"}, g.Predecessors(nodes[1].ID))

	var b bytes.Buffer
	require.NoError(t, Encode(&b, g))

	again, err := Decode(&b)
	require.NoError(t, err)
	if diff := cmp.Diff(g.Document(), again.Document()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	_, err = Decode(strings.NewReader(`{"nodes": [`))
	assert.True(t, errors.Is(err, ErrInvalidGraph))
}
