package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/pkg/id"
)

// ErrJobNotFound is returned for unknown sweep job ids.
var ErrJobNotFound = errors.New("sweep job not found")

const (
	StatusRunning   = "running"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
)

type sweepJob struct {
	id      string
	created time.Time
	job     *backtest.SweepJob
}

// JobStatus is what the API reports for a sweep job. Report is only set once
// the sweep has returned.
type JobStatus struct {
	ID       string                `json:"id"`
	Status   string                `json:"status"`
	Created  time.Time             `json:"created"`
	Progress backtest.Progress     `json:"progress"`
	Fraction float64               `json:"fraction"`
	Report   *backtest.SweepReport `json:"report,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func (j *sweepJob) status(withReport bool) JobStatus {
	st := JobStatus{
		ID:       j.id,
		Status:   StatusRunning,
		Created:  j.created,
		Progress: j.job.Latest(),
	}
	select {
	case <-j.job.Done():
		report, err := j.job.Wait()
		st.Progress = backtest.Progress{Completed: report.Completed, Total: report.Total}
		st.Status = StatusDone
		if report.Cancelled || errors.Is(err, context.Canceled) {
			st.Status = StatusCancelled
		}
		if err != nil {
			st.Error = err.Error()
		}
		if withReport {
			st.Report = &report
		}
	default:
	}
	st.Fraction = st.Progress.Fraction()
	return st
}

// defaultMaxFinished bounds how many finished jobs are kept for polling.
const defaultMaxFinished = 100

func (j *sweepJob) finished() bool {
	select {
	case <-j.job.Done():
		return true
	default:
		return false
	}
}

// jobStore keeps running jobs until they finish and at most maxFinished
// finished ones, evicting the oldest first.
type jobStore struct {
	mu          sync.RWMutex
	jobs        map[string]*sweepJob
	maxFinished int
}

func newJobStore(maxFinished int) *jobStore {
	if maxFinished <= 0 {
		maxFinished = defaultMaxFinished
	}
	return &jobStore{jobs: make(map[string]*sweepJob), maxFinished: maxFinished}
}

func (s *jobStore) add(job *backtest.SweepJob) *sweepJob {
	j := &sweepJob{id: id.New(), created: time.Now().UTC(), job: job}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.pruneLocked()
	s.mu.Unlock()
	return j
}

// remove drops a finished job. Running jobs stay put and report false.
func (s *jobStore) remove(jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return false, ErrJobNotFound
	}
	if !j.finished() {
		return false, nil
	}
	delete(s.jobs, jobID)
	return true, nil
}

func (s *jobStore) pruneLocked() {
	var done []string
	for jobID, j := range s.jobs {
		if j.finished() {
			done = append(done, jobID)
		}
	}
	if len(done) <= s.maxFinished {
		return
	}
	sort.Strings(done)
	for _, jobID := range done[:len(done)-s.maxFinished] {
		delete(s.jobs, jobID)
	}
}

func (s *jobStore) get(jobID string) (*sweepJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j, nil
}

// list returns jobs oldest first. Ids are ULIDs so they sort by creation.
func (s *jobStore) list() []*sweepJob {
	s.mu.RLock()
	out := make([]*sweepJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}
