// Package http provides the thin web surface over the orchestration
// subsystem.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/inbound"
)

// Server wraps the gin engine and its lifecycle.
type Server struct {
	cfg    config.ServerConfig
	engine *gin.Engine
	server *http.Server
	logger *zap.Logger
}

// NewServer builds the router and registers all routes.
func NewServer(cfg *config.Config, service inbound.SuggestionService, health HealthReporter, logger *zap.Logger) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	s := &Server{
		cfg:    cfg.Server,
		engine: engine,
		logger: logger.Named("http"),
	}

	handler := NewSuggestionHandler(service, logger)
	healthHandler := NewHealthHandler(health)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/suggestions", handler.Generate)
	}
	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Start begins serving. Blocks until the listener fails or closes.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.logger.Info("http server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Engine exposes the router. Test hook.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
