package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/sim"
)

// runRequest carries bars plus a signal list. Signals are kept raw so they go
// through the tolerant signal parser (BUY/SELL, RFC3339 times, wrapped arrays).
type runRequest struct {
	Bars    []market.Bar         `json:"bars" binding:"required"`
	Signals json.RawMessage      `json:"signals"`
	Config  *sim.Config          `json:"config"`
	Options *backtest.RunOptions `json:"options"`
}

type sweepRequest struct {
	Bars    []market.Bar    `json:"bars" binding:"required"`
	Signals json.RawMessage `json:"signals"`
	Config  *sim.Config     `json:"config"`
	SLMults []float64       `json:"slMults"`
	TPMults []float64       `json:"tpMults"`
}

func parseSignals(raw json.RawMessage) ([]market.Signal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return market.ParseSignalsJSON(raw)
}

func (s *Server) engineConfig(cfg *sim.Config) (sim.Config, error) {
	if cfg == nil {
		return s.engine, nil
	}
	if cfg.InitialBalance <= 0 {
		return sim.Config{}, fmt.Errorf("config.initialBalance must be positive")
	}
	if cfg.Leverage <= 0 {
		return sim.Config{}, fmt.Errorf("config.leverage must be positive")
	}
	return *cfg, nil
}

func (s *Server) runInputs(c *gin.Context, req *runRequest) (sim.Config, backtest.RunOptions, []market.Signal, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sim.Config{}, backtest.RunOptions{}, nil, false
	}
	signals, err := parseSignals(req.Signals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sim.Config{}, backtest.RunOptions{}, nil, false
	}
	cfg, err := s.engineConfig(req.Config)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sim.Config{}, backtest.RunOptions{}, nil, false
	}
	opts := s.options
	if req.Options != nil {
		opts = *req.Options
	}
	return cfg, opts, signals, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	cfg, opts, signals, ok := s.runInputs(c, &req)
	if !ok {
		return
	}
	res := backtest.Runner{Config: cfg, Options: opts}.Run(req.Bars, signals)
	s.log.WithField("trades", len(res.Trades)).Debug("run finished")
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func (s *Server) handleScenario(c *gin.Context) {
	var req runRequest
	cfg, opts, signals, ok := s.runInputs(c, &req)
	if !ok {
		return
	}
	sum := backtest.RunScenario(req.Bars, signals, cfg, opts)
	c.JSON(http.StatusOK, gin.H{"summary": sum, "prompt": sum.Prompt()})
}

func (s *Server) handleSweepStart(c *gin.Context) {
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	signals, err := parseSignals(req.Signals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := s.engineConfig(req.Config)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := s.sweeper.Start(s.jobsCtx, backtest.SweepRequest{
		Bars:    req.Bars,
		Signals: signals,
		Config:  cfg,
		SLMults: req.SLMults,
		TPMults: req.TPMults,
	})
	j := s.jobs.add(job)
	s.log.WithField("job", j.id).Info("sweep job started")
	c.JSON(http.StatusAccepted, gin.H{"id": j.id, "job": j.status(false)})
}

func (s *Server) handleSweepList(c *gin.Context) {
	jobs := s.jobs.list()
	out := make([]JobStatus, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.status(false))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

func (s *Server) handleSweepDetail(c *gin.Context) {
	j, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": j.status(true)})
}

// handleSweepStop cancels a running job. A job that already finished is
// removed and its final status returned.
func (s *Server) handleSweepStop(c *gin.Context) {
	j, ok := s.lookup(c)
	if !ok {
		return
	}
	removed, err := s.jobs.remove(j.id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if removed {
		s.log.WithField("job", j.id).Info("sweep job removed")
		c.JSON(http.StatusOK, gin.H{"job": j.status(false)})
		return
	}
	j.job.Stop()
	s.log.WithField("job", j.id).Info("sweep job stop requested")
	c.JSON(http.StatusAccepted, gin.H{"job": j.status(false)})
}

func (s *Server) lookup(c *gin.Context) (*sweepJob, bool) {
	j, err := s.jobs.get(c.Param("id"))
	if errors.Is(err, ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return j, true
}
