// Package server exposes the extraction and generation pipeline over HTTP
// and a websocket session endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xhad/citedoc/internal/api"
	"github.com/xhad/citedoc/internal/types"
	"github.com/xhad/citedoc/pkg/logger"
	"github.com/xhad/citedoc/pkg/service"
	"go.uber.org/zap"
)

// Pipeline is what the handlers need from the service layer.
type Pipeline interface {
	types.Collaborator
	Process(ctx context.Context, req service.ProcessRequest) (string, error)
}

type Config struct {
	Addr           string
	CORSOrigins    []string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Logger         *zap.Logger
}

type Server struct {
	config   Config
	pipeline Pipeline
	logger   *zap.Logger
	engine   *gin.Engine
}

func New(config Config, pipeline Pipeline) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 32 << 20
	}

	s := &Server{
		config:   config,
		pipeline: pipeline,
		logger:   logger.OrNop(config.Logger),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(s.handleMethodNotAllowed)

	engine.Use(recovery(s.logger))
	engine.Use(requestID())
	engine.Use(corsMiddleware(s.config.CORSOrigins))
	engine.Use(metricsMiddleware())
	engine.Use(requestLogger(s.logger))

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET(api.PathWebSocket, s.handleWebSocket)

	engine.POST(api.PathExtractFile, s.handleExtractFile)
	engine.POST(api.PathExtractLink, s.handleExtractLink)
	engine.POST(api.PathGenerate, s.handleGenerate)
	engine.POST(api.PathProcess, s.handleProcess)

	return engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
