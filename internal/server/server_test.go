package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

// tpBars is a quiet bar followed by a rally through the target of a long
// opened on the first close.
func tpBars() []market.Bar {
	return []market.Bar{
		{Time: t0.Unix(), Open: 1.1000, High: 1.1010, Low: 1.0990, Close: 1.1000},
		{Time: t0.Add(time.Hour).Unix(), Open: 1.1000, High: 1.1150, Low: 1.0990, Close: 1.1130},
		{Time: t0.Add(2 * time.Hour).Unix(), Open: 1.1130, High: 1.1140, Low: 1.1120, Close: 1.1135},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Config{Sweeper: &backtest.Sweeper{Workers: 2, SliceBudget: time.Millisecond}})
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
}

func TestRun(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/backtest/runs", gin.H{
		"bars":    tpBars(),
		"signals": []gin.H{{"time": t0.Format(time.RFC3339), "side": "buy", "strategy": "breakout"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "result.trades.#").Int())
	assert.Equal(t, "CLOSED_TP", gjson.Get(body, "result.trades.0.status").String())
	assert.Equal(t, "LONG", gjson.Get(body, "result.trades.0.type").String())
	assert.Equal(t, "breakout", gjson.Get(body, "result.trades.0.setupOrigin").String())
	assert.Equal(t, int64(1), gjson.Get(body, "result.metrics.winningTrades").Int())
	assert.Greater(t, gjson.Get(body, "result.metrics.netProfit").Float(), 0.0)
	assert.Equal(t, int64(3), gjson.Get(body, "result.metrics.equityCurve.#").Int())
}

func TestRunWithoutSignals(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/backtest/runs", gin.H{"bars": tpBars()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "result.metrics.totalTrades").Int())
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{bars"},
		{"missing bars", gin.H{"signals": []gin.H{}}},
		{"bad side", gin.H{"bars": tpBars(), "signals": []gin.H{{"time": t0.Unix(), "type": "FLAT"}}}},
		{"bad config", gin.H{"bars": tpBars(), "config": gin.H{"initialBalance": 0, "leverage": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/backtest/runs", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, gjson.Get(w.Body.String(), "error").String())
		})
	}
}

func TestScenario(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/backtest/scenarios", gin.H{
		"bars":    tpBars(),
		"signals": gin.H{"signals": []gin.H{{"time": t0.Unix(), "type": "LONG"}}},
		"config":  gin.H{"initialBalance": 5000, "leverage": 1, "useSyntheticTicks": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(t, 5000.0, gjson.Get(body, "summary.initialBalance").Float())
	assert.False(t, gjson.Get(body, "summary.blown").Bool())
	assert.Equal(t, int64(1), gjson.Get(body, "summary.totalTrades").Int())
	assert.Contains(t, gjson.Get(body, "prompt").String(), "Scenario: balance 5000.00")
}

func waitForStatus(t *testing.T, s *Server, jobID string) string {
	t.Helper()
	var body string
	require.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/api/backtest/sweeps/"+jobID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		body = w.Body.String()
		return gjson.Get(body, "job.status").String() != StatusRunning
	}, 5*time.Second, 5*time.Millisecond)
	return body
}

func TestSweepLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/backtest/sweeps", gin.H{
		"bars":    tpBars(),
		"signals": []gin.H{{"time": t0.Unix(), "type": "LONG"}},
		"slMults": []float64{0.5, 1},
		"tpMults": []float64{1, 2, 3},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID := gjson.Get(w.Body.String(), "id").String()
	require.NotEmpty(t, jobID)

	body := waitForStatus(t, s, jobID)
	assert.Equal(t, StatusDone, gjson.Get(body, "job.status").String())
	assert.Equal(t, int64(6), gjson.Get(body, "job.progress.total").Int())
	assert.Equal(t, int64(6), gjson.Get(body, "job.progress.completed").Int())
	assert.Equal(t, 1.0, gjson.Get(body, "job.fraction").Float())
	assert.Equal(t, int64(6), gjson.Get(body, "job.report.results.#").Int())

	profits := gjson.Get(body, "job.report.results.#.metrics.netProfit").Array()
	for i := 1; i < len(profits); i++ {
		assert.GreaterOrEqual(t, profits[i-1].Float(), profits[i].Float())
	}

	w = do(t, s, http.MethodGet, "/api/backtest/sweeps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobID, gjson.Get(w.Body.String(), "jobs.0.id").String())
	assert.False(t, gjson.Get(w.Body.String(), "jobs.0.report").Exists())
}

func TestSweepStop(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	bars := make([]market.Bar, 0, 2000)
	for i := 0; i < 2000; i++ {
		p := 1.1 + 0.001*float64(i%7)
		bars = append(bars, market.Bar{Time: t0.Add(time.Duration(i) * time.Hour).Unix(), Open: p, High: p + 0.002, Low: p - 0.002, Close: p + 0.0005})
	}
	w := do(t, s, http.MethodPost, "/api/backtest/sweeps", gin.H{
		"bars":    bars,
		"slMults": []float64{0.5, 1, 1.5, 2, 2.5, 3},
		"tpMults": []float64{1, 2, 3, 4, 5, 6},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID := gjson.Get(w.Body.String(), "id").String()

	w = do(t, s, http.MethodDelete, "/api/backtest/sweeps/"+jobID, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	body := waitForStatus(t, s, jobID)
	assert.Contains(t, []string{StatusDone, StatusCancelled}, gjson.Get(body, "job.status").String())

	w = do(t, s, http.MethodDelete, "/api/backtest/sweeps/"+jobID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobID, gjson.Get(w.Body.String(), "job.id").String())

	w = do(t, s, http.MethodGet, "/api/backtest/sweeps/"+jobID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepUnknownJob(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := do(t, s, method, "/api/backtest/sweeps/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, ErrJobNotFound.Error(), gjson.Get(w.Body.String(), "error").String())
	}
}

func TestJobStore(t *testing.T) {
	t.Parallel()

	store := newJobStore(0)
	assert.Equal(t, defaultMaxFinished, store.maxFinished)
	_, err := store.get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Empty(t, store.list())
	_, err = store.remove("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobStoreEvictsOldestFinished(t *testing.T) {
	t.Parallel()

	sw := &backtest.Sweeper{Workers: 1}
	finishedJob := func() *backtest.SweepJob {
		job := sw.Start(context.Background(), backtest.SweepRequest{
			Bars:    tpBars(),
			SLMults: []float64{1},
			TPMults: []float64{1},
		})
		_, err := job.Wait()
		require.NoError(t, err)
		return job
	}

	store := newJobStore(2)
	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, store.add(finishedJob()).id)
	}

	kept := store.list()
	require.Len(t, kept, 2)
	assert.Equal(t, ids[2], kept[0].id)
	assert.Equal(t, ids[3], kept[1].id)
	_, err := store.get(ids[0])
	assert.ErrorIs(t, err, ErrJobNotFound)

	removed, err := store.remove(ids[3])
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, store.list(), 1)
}

func TestNewLeavesGinMode(t *testing.T) {
	t.Parallel()

	New(Config{}).Close()
	assert.Equal(t, gin.TestMode, gin.Mode())
}
