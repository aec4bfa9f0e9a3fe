// Package server - Haupt-Router und Server-Setup fuer sdbx
// Beinhaltet: Server-Struct, Router-Registrierung, allgemeine Handler
package server

import (
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/mgua/sdbx/api"
	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/envconfig"
	"github.com/mgua/sdbx/index"
	"github.com/mgua/sdbx/tuner"
	"github.com/mgua/sdbx/version"
)

var mode string = gin.DebugMode

// Server verbindet Klassifikator, Tuner und Model-Index mit dem HTTP-Router
type Server struct {
	addr       net.Addr
	classifier *classify.Classifier
	tuner      *tuner.Tuner
	index      *index.Index

	// sem begrenzt gleichzeitige Header-Reads auf slots
	sem   *semaphore.Weighted
	slots int64
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// NewServer erstellt einen Server. idx darf nil sein, dann antworten die
// Index-Routen mit 503.
func NewServer(c *classify.Classifier, idx *index.Index) *Server {
	slots := int64(max(envconfig.ScanParallel(), 1))
	return &Server{
		classifier: c,
		tuner:      tuner.New(c, nil),
		index:      idx,
		sem:        semaphore.NewWeighted(slots),
		slots:      slots,
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "sdbx is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "sdbx is running") })
	r.HEAD("/api/version", s.VersionHandler)
	r.GET("/api/version", s.VersionHandler)
	r.GET("/api/vocabulary", s.VocabularyHandler)

	// Klassifikation und Tuning
	r.POST("/api/classify", s.ClassifyHandler)
	r.POST("/api/tune", s.TuneHandler)
	r.POST("/api/evaluate", s.EvaluateHandler)
	r.DELETE("/api/cache", s.ClearCacheHandler)

	// Model-Index
	r.GET("/api/models", s.ModelsHandler)
	r.POST("/api/scan", s.ScanHandler)

	return r
}

// VersionHandler gibt die Server-Version zurueck
func (s *Server) VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version.Version})
}

// VocabularyHandler gibt den aktiven Klassifikations-Katalog zurueck
func (s *Server) VocabularyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.VocabularyResponse{Families: s.classifier.Catalogue().Families()})
}
