// Package server is the HTTP transport: a gin engine carrying the REST
// surface, bearer authentication, CORS, and request metadata capture.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config controls the HTTP listener.
type Config struct {
	Addr        string
	CORSOrigins []string
	Debug       bool
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	*gin.Engine

	cfg    Config
	server *http.Server
}

// New builds the engine with recovery, CORS, and metadata capture installed.
// Routes are registered separately via RegisterRoutes.
func New(cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(CaptureMeta())

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Authorization", "Content-Type"}
		engine.Use(cors.New(corsConfig))
	}

	return &Server{Engine: engine, cfg: cfg}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
