// Package api - Hauptmodul des sdbx API-Clients.
// Dieses Modul enthaelt die Client-Struktur und Basis-Methoden.
// API-Methoden sind in client_api.go.
//
// Package api implements the client-side API for code wishing to interact
// with the sdbx service. The methods of the [Client] type correspond to the
// routes registered by the server package. The sdbx command-line client
// itself uses this package to talk to a running server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"

	"github.com/mgua/sdbx/envconfig"
	"github.com/mgua/sdbx/version"
)

// Client encapsulates client state for interacting with the sdbx service.
// Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	se := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	if err := json.Unmarshal(body, &se); err != nil {
		// kein JSON (Proxy, Panic-Seite): der Body ist die Meldung
		se.ErrorMessage = strings.TrimSpace(string(body))
	}
	return se
}

// ClientFromEnvironment creates a new [Client] using configuration from the
// environment variable SDBX_HOST, which points to the network host and port
// on which the sdbx service is listening. The format of this variable is:
//
//	<scheme>://<host>:<port>
//
// If the variable is not specified, a default host and port will be used.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqData, respData any) error {
	var reqBody io.Reader

	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	requestURL := c.base.JoinPath(path)
	if len(query) > 0 {
		requestURL.RawQuery = query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL.String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("sdbx/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version()))

	resp, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := checkError(resp, body); err != nil {
		return err
	}

	if respData == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, respData)
}
