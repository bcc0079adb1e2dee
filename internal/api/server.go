// Package api is the localhost HTTP bridge between the agent core and the
// sandboxed UI process. It exposes the timeline model, the asset library,
// background jobs and project persistence over a bearer-authenticated
// loopback API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// PreviewServer streams a media file with HTTP range support.
type PreviewServer interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port        int
	Version     string
	DeviceID    string
	StartTime   time.Time
	ProjectsDir string

	Timeline   *timeline.Controller
	Commands   *timeline.Dispatcher
	Library    *library.Service
	Repository library.Repository
	Runner     *library.Runner
	Projects   *project.Store
	Preview    PreviewServer
	Tools      ToolsResponse
	Logger     *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
