package ga

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
)

// JobState is the lifecycle of a submitted run (spec.md §4.8).
type JobState string

const (
	JobPending    JobState = "pending"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobCancelled  JobState = "cancelled"
	JobFailed     JobState = "failed"
)

// JobStatus is the snapshot returned by Runtime.Status.
type JobStatus struct {
	ID          string
	State       JobState
	ProgressPct float64
	Best        *GenerationMetrics
	Err         error
	Result      *Chromosome
}

// job holds the mutable state a Runtime tracks per submission. Mutations
// go through mu; the evolution loop itself runs lock-free in its own
// goroutine and only touches job through the cancel flag and the latest
// field, both of which are synchronised here.
type job struct {
	mu          sync.Mutex
	id          string
	state       JobState
	progressPct float64
	latest      *GenerationMetrics
	err         error
	result      *Chromosome
	cancelled   bool
	done        chan struct{}
}

func (j *job) snapshot() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		ID:          j.id,
		State:       j.state,
		ProgressPct: j.progressPct,
		Best:        j.latest,
		Err:         j.err,
		Result:      j.result,
	}
}

func (j *job) isCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// Runtime is the async Job Runtime of spec.md §4.8: Submit/Status/Cancel/
// Result over in-memory evolution runs. It performs no I/O and persists
// nothing beyond process lifetime; durable storage of results is a host
// concern layered above Runtime, not part of it.
type Runtime struct {
	mu   sync.Mutex
	jobs map[string]*job
}

// NewRuntime builds an empty Job Runtime.
func NewRuntime() *Runtime {
	return &Runtime{jobs: make(map[string]*job)}
}

// Submit starts a new evolution run in its own goroutine and returns a job
// identifier immediately (spec.md §4.8 Submit).
func (rt *Runtime) Submit(snap *Snapshot, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	j := &job{id: id, state: JobPending, done: make(chan struct{})}

	rt.mu.Lock()
	rt.jobs[id] = j
	rt.mu.Unlock()

	go rt.run(j, snap, cfg)

	return id, nil
}

func (rt *Runtime) run(j *job, snap *Snapshot, cfg Config) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			// The job id in the message lets the host correlate the failure
			// with its own logs; the panic value is cut to 200 bytes.
			msg := fmt.Sprint(r)
			if len(msg) > 200 {
				msg = msg[:200] + "..."
			}
			j.mu.Lock()
			j.state = JobFailed
			j.err = fmt.Errorf("internal panic (job %s): %s", j.id, msg)
			j.mu.Unlock()
		}
	}()

	j.mu.Lock()
	j.state = JobInProgress
	j.mu.Unlock()

	evo := NewEvolution(snap, cfg)
	evo.IsCancelled = j.isCancelled
	evo.Progress = func(m GenerationMetrics) {
		j.mu.Lock()
		mCopy := m
		j.latest = &mCopy
		j.progressPct = progressPercent(m, cfg)
		j.mu.Unlock()
	}

	result := evo.Run()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = result.Best
	switch {
	case result.Reason == TerminationCancelled:
		j.state = JobCancelled
	default:
		j.state = JobCompleted
		j.progressPct = 100
	}
}

// progressPercent implements the spec.md §4.8 progress formula: the
// smallest of the generation share of the generation budget, the elapsed
// share of the execution budget and (when TargetFitness > 0) the best
// fitness as a share of TargetFitness, times 100 and rounded.
func progressPercent(m GenerationMetrics, cfg Config) float64 {
	if cfg.MaxGenerations <= 0 {
		return 0
	}
	byGeneration := float64(m.Generation+1) / float64(cfg.MaxGenerations) * 100
	byDeadline := 100.0
	if cfg.MaxExecutionTime > 0 {
		byDeadline = m.Elapsed.Seconds() / cfg.MaxExecutionTime.Seconds() * 100
	}
	pct := math.Min(byGeneration, byDeadline)
	if cfg.TargetFitness > 0 {
		pct = math.Min(pct, m.BestFitness/cfg.TargetFitness*100)
	}
	pct = math.Round(pct)
	if pct > 99 {
		pct = 99 // reserve 100 for JobCompleted
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Status returns the current snapshot for id, or an error if unknown.
func (rt *Runtime) Status(id string) (JobStatus, error) {
	rt.mu.Lock()
	j, ok := rt.jobs[id]
	rt.mu.Unlock()
	if !ok {
		return JobStatus{}, fmt.Errorf("job %s not found", id)
	}
	return j.snapshot(), nil
}

// Cancel requests cooperative cancellation; idempotent, and a no-op once
// the job has already reached a terminal state (spec.md §4.8 Cancel).
func (rt *Runtime) Cancel(id string) error {
	rt.mu.Lock()
	j, ok := rt.jobs[id]
	rt.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
	return nil
}

// Result blocks until the job reaches a terminal state and returns its best
// chromosome, or an error describing why no result is available. A
// cancelled job still returns the best chromosome discovered before
// cancellation was observed (spec.md §5): callers distinguish a completed
// run from a cancelled one via Status, not via Result's error.
func (rt *Runtime) Result(id string) (*Chromosome, error) {
	rt.mu.Lock()
	j, ok := rt.jobs[id]
	rt.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	<-j.done

	status := j.snapshot()
	switch status.State {
	case JobCompleted, JobCancelled:
		return status.Result, nil
	case JobFailed:
		return nil, status.Err
	default:
		return nil, fmt.Errorf("job %s in unexpected terminal state %s", id, status.State)
	}
}

// Forget drops a job's bookkeeping once its result has been consumed. It
// does not cancel an in-flight run; callers should Cancel first if that is
// also intended.
func (rt *Runtime) Forget(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.jobs, id)
}
