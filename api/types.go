// types.go - Request- und Response-Typen der sdbx API
//
// Dieses Modul enthaelt:
// - StatusError: Fehler mit HTTP-Status
// - Classify/Tune/Evaluate Request- und Response-Typen
// - Vocabulary/Models/Version Responses
package api

import (
	"fmt"

	"github.com/mgua/sdbx/graph"
	"github.com/mgua/sdbx/index"
	"github.com/mgua/sdbx/metadata"
	"github.com/mgua/sdbx/tuner"
	"github.com/mgua/sdbx/vocab"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the sdbx server logs for details"
	}
}

// ClassifyRequest is the request passed to [Client.Classify].
type ClassifyRequest struct {
	// Path is the model file on the server's file system.
	Path string `json:"path"`
}

// ClassifyResponse is the response returned by [Client.Classify].
type ClassifyResponse struct {
	Tag    *metadata.ModelTag `json:"tag"`
	Scores map[string]int     `json:"scores"`
	Best   []string           `json:"best"`
}

// TuneRequest is the request passed to [Client.Tune].
type TuneRequest struct {
	Path     string `json:"path"`
	Function string `json:"function"`

	// WidgetInputs override tuned values of the same name.
	WidgetInputs map[string]any `json:"widget_inputs,omitempty"`
}

// TuneResponse is the response returned by [Client.Tune].
type TuneResponse struct {
	Function   string                `json:"function"`
	Tag        *metadata.ModelTag    `json:"tag"`
	Best       []string              `json:"best"`
	Parameters tuner.TunedParameters `json:"parameters"`
}

// EvaluateRequest is the request passed to [Client.Evaluate].
type EvaluateRequest struct {
	Graph graph.Document `json:"graph"`
}

// EvaluateResponse is the response returned by [Client.Evaluate].
type EvaluateResponse struct {
	graph.Evaluation
}

// VocabularyResponse is the response returned by [Client.Vocabulary].
type VocabularyResponse struct {
	Families []vocab.Family `json:"families"`
}

// ScanRequest is the request passed to [Client.Scan].
type ScanRequest struct {
	Dir  string     `json:"dir"`
	Kind index.Kind `json:"kind"`
}

// ModelsResponse lists indexed model files.
type ModelsResponse struct {
	Models []index.Entry `json:"models"`
}
