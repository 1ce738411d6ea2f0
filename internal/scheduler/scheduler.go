package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gmpwatch/pkg/logger"
)

// Job is a unit of scheduled work. Implementations must tolerate being
// run repeatedly; the scheduler never runs two passes of one job at once.
type Job interface {
	// Name identifies the job in logs, stats and trigger calls.
	Name() string
	// Schedule is a cron expression with a seconds field,
	// e.g. "0 30 9 * * *" for every day at 09:30.
	Schedule() string
	// Run executes one pass.
	Run(ctx context.Context) error
}

// Scheduler fires registered jobs off cron schedules and keeps a bounded
// run history per job for the status API. A failed pass is not retried;
// the next tick is the re-run policy.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
	wg   sync.WaitGroup

	mu       sync.Mutex
	jobs     map[string]Job
	inFlight map[string]bool
	history  map[string]*runLog
	stopped  bool
}

// New creates an empty scheduler. Register jobs before calling Start.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		log:      log,
		jobs:     make(map[string]Job),
		inFlight: make(map[string]bool),
		history:  make(map[string]*runLog),
	}
}

// Register adds a job under its cron schedule. A duplicate name or an
// unparsable schedule is an error.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &runLog{}

	s.log.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")

	return nil
}

// Start begins firing schedules. It does not block.
func (s *Scheduler) Start() {
	s.log.Info("Scheduler started")
	s.cron.Start()
}

// Stop halts the schedules and waits for any pass still in flight,
// including manually triggered ones. Trigger refuses new work once Stop
// has begun.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

// Trigger starts one pass of a registered job now, outside its schedule.
// It does not wait for the pass to finish.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler stopped")
	}
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(job)
	}()

	return nil
}

// run executes one pass and records the result. If the previous pass of
// the same job has not finished, the tick is skipped rather than stacked.
func (s *Scheduler) run(job Job) {
	name := job.Name()

	s.mu.Lock()
	if s.inFlight[name] {
		s.mu.Unlock()
		s.log.WithField("job", name).Warn("Previous pass still running, skipping this tick")
		return
	}
	s.inFlight[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight[name] = false
		s.mu.Unlock()
	}()

	started := time.Now()
	s.log.WithField("job", name).Info("Pass started")

	err := job.Run(context.Background())

	res := Result{
		Job:      name,
		Started:  started,
		Duration: time.Since(started),
		Success:  err == nil,
	}

	if err != nil {
		res.Error = err.Error()
		s.log.WithError(err).WithField("job", name).Error("Pass failed, waiting for next tick")
	} else {
		s.log.WithFields(map[string]interface{}{
			"job":      name,
			"duration": res.Duration,
		}).Info("Pass completed")
	}

	s.mu.Lock()
	s.history[name].add(res)
	s.mu.Unlock()
}

// Stats summarizes the retained history of every registered job.
func (s *Scheduler) Stats() map[string]Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Stats, len(s.jobs))
	for name, job := range s.jobs {
		out[name] = s.history[name].stats(name, job.Schedule())
	}
	return out
}

// History returns the recorded results for one job, oldest first.
func (s *Scheduler) History(name string) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.history[name]
	if !ok {
		return nil, fmt.Errorf("job %q not registered", name)
	}
	return h.all(), nil
}
