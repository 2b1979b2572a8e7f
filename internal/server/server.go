// Package server exposes the backtest engine over HTTP for UI hosts.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/internal/logging"
	"github.com/rustyeddy/tradelab/sim"
	"github.com/sirupsen/logrus"
)

// Config describes the server's dependencies. Engine and Options are the
// defaults applied to requests that omit them.
type Config struct {
	Addr            string
	Engine          sim.Config
	Options         backtest.RunOptions
	Sweeper         *backtest.Sweeper
	Logger          logrus.FieldLogger
	ShutdownTimeout time.Duration
	// MaxFinishedJobs caps how many finished sweep jobs are kept for polling.
	MaxFinishedJobs int
}

// Server serves single runs, scenarios and asynchronous sweeps.
type Server struct {
	addr     string
	engine   sim.Config
	options  backtest.RunOptions
	sweeper  *backtest.Sweeper
	log      logrus.FieldLogger
	shutdown time.Duration
	router   *gin.Engine
	jobs     *jobStore

	jobsCtx    context.Context
	cancelJobs context.CancelFunc
}

// New builds a Server. The gin mode is left to the caller.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Sweeper == nil {
		cfg.Sweeper = &backtest.Sweeper{Logger: cfg.Logger}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Engine.InitialBalance <= 0 {
		cfg.Engine = sim.DefaultConfig()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:       cfg.Addr,
		engine:     cfg.Engine,
		options:    cfg.Options,
		sweeper:    cfg.Sweeper,
		log:        cfg.Logger,
		shutdown:   cfg.ShutdownTimeout,
		router:     router,
		jobs:       newJobStore(cfg.MaxFinishedJobs),
		jobsCtx:    ctx,
		cancelJobs: cancel,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	api := s.router.Group("/api/backtest")
	api.POST("/runs", s.handleRun)
	api.POST("/scenarios", s.handleScenario)
	api.POST("/sweeps", s.handleSweepStart)
	api.GET("/sweeps", s.handleSweepList)
	api.GET("/sweeps/:id", s.handleSweepDetail)
	api.DELETE("/sweeps/:id", s.handleSweepStop)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops every sweep still running.
func (s *Server) Close() { s.cancelJobs() }

// Start serves until ctx is cancelled, then shuts down gracefully and stops
// any running sweeps.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithField("addr", s.addr).Info("http server listening")

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
