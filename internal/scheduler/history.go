package scheduler

import "time"

// keep is how many results the per-job history retains.
const keep = 100

// Result records one completed pass of a job.
type Result struct {
	Job      string        `json:"job"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
}

// Stats aggregates the retained history of one job.
type Stats struct {
	Job         string     `json:"job"`
	Schedule    string     `json:"schedule"`
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
	LastStarted *time.Time `json:"last_started,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// runLog is a bounded append-only result log. Not safe for concurrent
// use; the scheduler serializes access under its own lock.
type runLog struct {
	results []Result
}

func (l *runLog) add(res Result) {
	l.results = append(l.results, res)
	if len(l.results) > keep {
		l.results = l.results[len(l.results)-keep:]
	}
}

func (l *runLog) all() []Result {
	out := make([]Result, len(l.results))
	copy(out, l.results)
	return out
}

func (l *runLog) stats(job, schedule string) Stats {
	st := Stats{Job: job, Schedule: schedule, Runs: len(l.results)}

	for _, res := range l.results {
		if !res.Success {
			st.Failures++
		}
	}

	if n := len(l.results); n > 0 {
		last := l.results[n-1].Started
		st.LastStarted = &last
	}

	// most recent failure, if any, surfaces in LastError
	for i := len(l.results) - 1; i >= 0; i-- {
		if !l.results[i].Success {
			st.LastError = l.results[i].Error
			break
		}
	}

	return st
}
