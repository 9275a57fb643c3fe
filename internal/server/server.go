// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/compiler"
	"github.com/v0xg/hatter/internal/config"
	"github.com/v0xg/hatter/internal/engine"
	"github.com/v0xg/hatter/internal/scraper"
)

// shutdownTimeout bounds how long in-flight requests get once the server
// is asked to stop.
const shutdownTimeout = 10 * time.Second

// Service is what the handlers invoke. *engine.Engine implements it.
type Service interface {
	Run(ctx context.Context, p *command.Plan) (*engine.RunResult, error)
	Compile(p *command.Plan, target compiler.Target) (string, error)
	Scrape(ctx context.Context, url string) (*scraper.Result, error)
}

var _ Service = (*engine.Engine)(nil)

// Server is the HTTP API.
type Server struct {
	svc      Service
	cfg      config.ServerConfig
	router   *gin.Engine
	sessions *semaphore.Weighted
	logger   *zap.Logger
}

// New builds the router. gatherer backs /metrics and may be nil to use the
// default registry.
func New(svc Service, cfg config.ServerConfig, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1
	}

	s := &Server{
		svc:      svc,
		cfg:      cfg,
		router:   gin.New(),
		sessions: semaphore.NewWeighted(int64(cfg.MaxSessions)),
		logger:   logger.Named("server"),
	}

	s.router.Use(gin.Recovery(), requestLogger(s.logger))
	s.router.Use(cors.New(corsConfig(cfg.CORSOrigin)))

	s.router.GET("/", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	api.Use(bodyLimit(int64(cfg.BodyLimitMB) << 20))
	{
		api.POST("/run-test", s.admit, s.handleRunTest)
		api.POST("/scrape-form", s.admit, s.handleScrapeForm)
		api.POST("/generate-script", s.handleGenerateScript)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	<-errc
	return nil
}

func corsConfig(origin string) cors.Config {
	c := cors.DefaultConfig()
	if origin == "" || origin == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = []string{origin}
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	return c
}
