package backtest

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/metrics"
	"github.com/rustyeddy/tradelab/sim"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultSliceBudget bounds how long one slice of sweep work runs before the
// sweeper reports progress and yields.
const DefaultSliceBudget = 50 * time.Millisecond

// SweepRequest is one price series and signal set evaluated over the grid
// SLMults x TPMults. Empty multiple lists fall back to the run defaults.
type SweepRequest struct {
	Bars    []market.Bar    `json:"bars"`
	Signals []market.Signal `json:"signals"`
	Config  sim.Config      `json:"config"`
	SLMults []float64       `json:"slMults"`
	TPMults []float64       `json:"tpMults"`
}

// SweepResult is the metrics for one grid point.
type SweepResult struct {
	SLMult  float64          `json:"slMult"`
	TPMult  float64          `json:"tpMult"`
	Metrics metrics.Snapshot `json:"metrics"`
}

// SweepFailure records a grid point that could not be evaluated.
type SweepFailure struct {
	SLMult float64 `json:"slMult"`
	TPMult float64 `json:"tpMult"`
	Err    string  `json:"error"`
}

// SweepReport holds the ranked results (best NetProfit first) plus any
// failures. Completed is less than Total when the sweep was cancelled.
type SweepReport struct {
	Results   []SweepResult  `json:"results"`
	Failures  []SweepFailure `json:"failures,omitempty"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Cancelled bool           `json:"cancelled"`
}

// Progress is reported after every slice.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Fraction is Completed/Total, or 1 for an empty grid.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// Sweeper evaluates SL/TP grids. The zero value is usable: one worker, a 50ms
// slice budget, 1% risk and no logging.
type Sweeper struct {
	Workers     int
	SliceBudget time.Duration
	RiskPct     float64
	Logger      logrus.FieldLogger

	// eval replaces the per-point replay in tests.
	eval func(req SweepRequest, signals map[int64][]market.Signal, p gridPoint) metrics.Snapshot
}

type gridPoint struct {
	sl, tp float64
}

type pointOutcome struct {
	result  *SweepResult
	failure *SweepFailure
}

func grid(req SweepRequest) []gridPoint {
	d := DefaultRunOptions()
	sls, tps := req.SLMults, req.TPMults
	if len(sls) == 0 {
		sls = []float64{d.SLMult}
	}
	if len(tps) == 0 {
		tps = []float64{d.TPMult}
	}
	points := make([]gridPoint, 0, len(sls)*len(tps))
	for _, sl := range sls {
		for _, tp := range tps {
			points = append(points, gridPoint{sl: sl, tp: tp})
		}
	}
	return points
}

func (s *Sweeper) logger() logrus.FieldLogger {
	if s.Logger != nil {
		return s.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (s *Sweeper) workers() int {
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}

func (s *Sweeper) sliceBudget() time.Duration {
	if s.SliceBudget <= 0 {
		return DefaultSliceBudget
	}
	return s.SliceBudget
}

// Run evaluates every grid point with its own ledger, working in time-boxed
// slices. After each slice it calls onProgress (if non-nil), checks ctx and
// yields the processor. On cancellation it returns the partial, ranked report
// together with ctx.Err().
func (s *Sweeper) Run(ctx context.Context, req SweepRequest, onProgress func(Progress)) (SweepReport, error) {
	log := s.logger()
	points := grid(req)
	total := len(points)
	signals := market.IndexSignals(req.Signals)
	outcomes := make([]pointOutcome, total)
	workers := s.workers()
	budget := s.sliceBudget()

	log.WithFields(logrus.Fields{
		"points":  total,
		"bars":    len(req.Bars),
		"signals": len(req.Signals),
		"workers": workers,
	}).Info("sweep started")

	done := 0
	var runErr error
	for done < total {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		// Every slice makes progress, even when one batch outlasts the budget.
		deadline := time.Now().Add(budget)
		for {
			batch := min(workers, total-done)
			var g errgroup.Group
			g.SetLimit(workers)
			for k := done; k < done+batch; k++ {
				k := k
				g.Go(func() error {
					outcomes[k] = s.evaluate(req, signals, points[k])
					return nil
				})
			}
			_ = g.Wait()
			done += batch
			if done >= total || !time.Now().Before(deadline) {
				break
			}
		}

		log.WithFields(logrus.Fields{"completed": done, "total": total}).Debug("sweep slice")
		if onProgress != nil {
			onProgress(Progress{Completed: done, Total: total})
		}
		runtime.Gosched()
	}
	if total == 0 && onProgress != nil {
		onProgress(Progress{})
	}

	report := SweepReport{Completed: done, Total: total, Cancelled: runErr != nil}
	for _, o := range outcomes[:done] {
		switch {
		case o.result != nil:
			report.Results = append(report.Results, *o.result)
		case o.failure != nil:
			log.WithFields(logrus.Fields{
				"sl_mult": o.failure.SLMult,
				"tp_mult": o.failure.TPMult,
			}).Warn("sweep point failed: " + o.failure.Err)
			report.Failures = append(report.Failures, *o.failure)
		}
	}
	slices.SortStableFunc(report.Results, func(a, b SweepResult) int {
		return cmp.Compare(b.Metrics.NetProfit, a.Metrics.NetProfit)
	})

	log.WithFields(logrus.Fields{
		"completed": done,
		"total":     total,
		"failures":  len(report.Failures),
		"cancelled": report.Cancelled,
	}).Info("sweep finished")
	return report, runErr
}

func (s *Sweeper) evaluate(req SweepRequest, signals map[int64][]market.Signal, p gridPoint) (out pointOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = pointOutcome{failure: &SweepFailure{SLMult: p.sl, TPMult: p.tp, Err: fmt.Sprint(r)}}
		}
	}()

	eval := s.eval
	if eval == nil {
		eval = s.replayPoint
	}
	snap := eval(req, signals, p)
	return pointOutcome{result: &SweepResult{SLMult: p.sl, TPMult: p.tp, Metrics: snap}}
}

func (s *Sweeper) replayPoint(req SweepRequest, signals map[int64][]market.Signal, p gridPoint) metrics.Snapshot {
	opts := RunOptions{RiskPct: s.RiskPct}.withDefaults()
	opts.SLMult, opts.TPMult = p.sl, p.tp

	l := sim.NewLedger(req.Config)
	replay(l, req.Bars, signals, opts)
	return metrics.Calculate(l.Trades(), l.EquityCurve(), req.Config.InitialBalance)
}

// SweepJob is a sweep running on its own goroutine.
type SweepJob struct {
	progress chan Progress
	cancel   context.CancelFunc
	done     chan struct{}

	mu     sync.Mutex
	latest Progress
	report SweepReport
	err    error
}

// Start runs the sweep in the background. Progress updates are delivered on
// Progress() without blocking the sweep; a slow reader may miss intermediate
// updates but Latest always has the most recent one.
func (s *Sweeper) Start(ctx context.Context, req SweepRequest) *SweepJob {
	ctx, cancel := context.WithCancel(ctx)
	j := &SweepJob{
		progress: make(chan Progress, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(j.done)
		defer close(j.progress)
		defer cancel()

		report, err := s.Run(ctx, req, func(p Progress) {
			j.mu.Lock()
			j.latest = p
			j.mu.Unlock()
			select {
			case j.progress <- p:
			default:
			}
		})

		j.mu.Lock()
		j.report, j.err = report, err
		j.mu.Unlock()
	}()
	return j
}

// Progress streams progress updates. It is closed when the sweep ends.
func (j *SweepJob) Progress() <-chan Progress { return j.progress }

// Latest returns the most recent progress update.
func (j *SweepJob) Latest() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.latest
}

// Stop requests cancellation. The sweep stops at the next slice boundary.
func (j *SweepJob) Stop() { j.cancel() }

// Done is closed once the sweep has returned.
func (j *SweepJob) Done() <-chan struct{} { return j.done }

// Wait blocks until the sweep returns and hands back its report.
func (j *SweepJob) Wait() (SweepReport, error) {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report, j.err
}
