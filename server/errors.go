// errors.go - Abbildung von Domain-Fehlern auf HTTP-Status
//
// Enthaelt:
// - statusFor: Fehler -> HTTP-Status
// - abortWithError: Einheitliche {"error": ...} Antwort
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mgua/sdbx/fs/ggml"
	"github.com/mgua/sdbx/fs/safetensors"
	"github.com/mgua/sdbx/fs/torch"
	"github.com/mgua/sdbx/graph"
	"github.com/mgua/sdbx/index"
	"github.com/mgua/sdbx/metadata"
	"github.com/mgua/sdbx/vocab"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, metadata.ErrNotFound),
		errors.Is(err, index.ErrNotIndexed):
		return http.StatusNotFound
	case errors.Is(err, metadata.ErrUnsupportedFormat),
		errors.Is(err, vocab.ErrVocabularyLoad),
		errors.Is(err, index.ErrInvalidKind),
		errors.Is(err, graph.ErrInvalidGraph),
		errors.Is(err, safetensors.ErrHeaderTooLarge),
		errors.Is(err, safetensors.ErrInvalidHeader),
		errors.Is(err, ggml.ErrInvalidMagic),
		errors.Is(err, ggml.ErrUnsupportedVersion),
		errors.Is(err, ggml.ErrMalformed),
		errors.Is(err, torch.ErrInvalidCheckpoint),
		errors.Is(err, torch.ErrCheckpointTooLarge),
		errors.Is(err, torch.ErrNoStateDict):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrMissingPredecessorResult),
		errors.Is(err, graph.ErrCycleDetected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindJSON liest den Request-Body, fehlender Body ergibt 400
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	switch {
	case errors.Is(err, io.EOF):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing request body"})
		return false
	case err != nil:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
