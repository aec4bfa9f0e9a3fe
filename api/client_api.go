// Package api - API-Methoden des Clients.
// Dieses Modul enthaelt alle Methoden, die eine Route des Servers aufrufen.

package api

import (
	"context"
	"net/http"
	"net/url"
)

// Version returns the version of the sdbx server.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version struct {
		Version string `json:"version"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/version", nil, nil, &version); err != nil {
		return "", err
	}

	return version.Version, nil
}

// Heartbeat checks if the server has started and is responsive; if yes, it
// returns nil, otherwise an error.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil, nil)
}

// Vocabulary returns the classification catalogue the server uses.
func (c *Client) Vocabulary(ctx context.Context) (*VocabularyResponse, error) {
	var resp VocabularyResponse
	if err := c.do(ctx, http.MethodGet, "/api/vocabulary", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Classify reads the header of a model file on the server and scores it
// against the catalogue.
func (c *Client) Classify(ctx context.Context, req *ClassifyRequest) (*ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/classify", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tune returns the tuned parameters for one model node.
func (c *Client) Tune(ctx context.Context, req *TuneRequest) (*TuneResponse, error) {
	var resp TuneResponse
	if err := c.do(ctx, http.MethodPost, "/api/tune", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Evaluate propagates tuned parameters through a node graph.
func (c *Client) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	var resp EvaluateResponse
	if err := c.do(ctx, http.MethodPost, "/api/evaluate", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearCache drops every cached tuning on the server.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cache", nil, nil, nil)
}

// Models lists indexed model files, optionally filtered by kind.
func (c *Client) Models(ctx context.Context, kind string) (*ModelsResponse, error) {
	var query url.Values
	if kind != "" {
		query = url.Values{"kind": {kind}}
	}

	var resp ModelsResponse
	if err := c.do(ctx, http.MethodGet, "/api/models", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan classifies all model files in a directory on the server and adds
// them to the index.
func (c *Client) Scan(ctx context.Context, req *ScanRequest) (*ModelsResponse, error) {
	var resp ModelsResponse
	if err := c.do(ctx, http.MethodPost, "/api/scan", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
