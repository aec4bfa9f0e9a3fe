// routes_models.go - Handler fuer Klassifikation, Tuning und Model-Index
// Enthaelt: ClassifyHandler, TuneHandler, EvaluateHandler, ClearCacheHandler,
// ModelsHandler, ScanHandler

package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mgua/sdbx/api"
	"github.com/mgua/sdbx/envconfig"
	"github.com/mgua/sdbx/graph"
	"github.com/mgua/sdbx/index"
)

// acquire belegt einen Platz fuer Header-Reads. Bei abgebrochenem Request
// wurde die Antwort bereits geschrieben.
func (s *Server) acquire(c *gin.Context) bool {
	if err := s.sem.Acquire(c.Request.Context(), 1); err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// ClassifyHandler verarbeitet /api/classify Anfragen
func (s *Server) ClassifyHandler(c *gin.Context) {
	var req api.ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Path == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	if !s.acquire(c) {
		return
	}
	defer s.sem.Release(1)

	tag, result, err := s.classifier.Classify(req.Path)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ClassifyResponse{Tag: tag, Scores: result.Scores, Best: result.Best})
}

// TuneHandler verarbeitet /api/tune Anfragen
func (s *Server) TuneHandler(c *gin.Context) {
	var req api.TuneRequest
	if !bindJSON(c, &req) {
		return
	}

	switch {
	case req.Path == "":
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	case req.Function == "":
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "function is required"})
		return
	}

	if !s.acquire(c) {
		return
	}
	defer s.sem.Release(1)

	tuning, err := s.tuner.Tune(req.Path, req.Function, req.WidgetInputs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.TuneResponse{
		Function:   tuning.Function,
		Tag:        tuning.Tag,
		Best:       tuning.Result.Best,
		Parameters: tuning.Parameters,
	})
}

// EvaluateHandler verarbeitet /api/evaluate Anfragen
func (s *Server) EvaluateHandler(c *gin.Context) {
	var req api.EvaluateRequest
	if !bindJSON(c, &req) {
		return
	}

	g, err := req.Graph.Build()
	if err != nil {
		abortWithError(c, err)
		return
	}

	if !s.acquire(c) {
		return
	}
	defer s.sem.Release(1)

	ev, err := graph.Evaluate(c.Request.Context(), g, graph.TunerFunc(s.tuner))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.EvaluateResponse{Evaluation: *ev})
}

// ClearCacheHandler leert den Tuning-Cache
func (s *Server) ClearCacheHandler(c *gin.Context) {
	s.tuner.Clear()
	c.Status(http.StatusOK)
}

// ModelsHandler listet den Model-Index, optional gefiltert nach ?kind=
func (s *Server) ModelsHandler(c *gin.Context) {
	if s.index == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "model index unavailable"})
		return
	}

	var kind index.Kind
	if q := c.Query("kind"); q != "" {
		k, err := index.ParseKind(q)
		if err != nil {
			abortWithError(c, err)
			return
		}
		kind = k
	}

	entries, err := s.index.List(c.Request.Context(), kind)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ModelsResponse{Models: entries})
}

// ScanHandler klassifiziert ein Verzeichnis und nimmt es in den Index auf.
// Ohne dir wird SDBX_MODELS gescannt.
func (s *Server) ScanHandler(c *gin.Context) {
	if s.index == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "model index unavailable"})
		return
	}

	var req api.ScanRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Dir == "" {
		req.Dir = envconfig.Models()
	}

	kind, err := index.ParseKind(string(req.Kind))
	if err != nil {
		abortWithError(c, err)
		return
	}

	entries, err := s.scan(c.Request.Context(), req.Dir, kind)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ModelsResponse{Models: entries})
}

// scan laeuft exklusiv, damit der Scan das eigene Parallelitaets-Limit nutzt
func (s *Server) scan(ctx context.Context, dir string, kind index.Kind) ([]index.Entry, error) {
	if err := s.sem.Acquire(ctx, s.slots); err != nil {
		return nil, err
	}
	defer s.sem.Release(s.slots)

	return s.index.Scan(ctx, dir, kind)
}
