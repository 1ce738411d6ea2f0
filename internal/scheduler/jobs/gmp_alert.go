package jobs

import (
	"context"
	"sync"
	"time"

	"gmpwatch/internal/pipeline"
	"gmpwatch/pkg/config"
	"gmpwatch/pkg/logger"
)

// GMPAlertJob runs the alert pipeline on the configured schedule and
// keeps the result of the most recent completed run for the status API.
type GMPAlertJob struct {
	config     config.Config
	source     pipeline.Source
	dispatcher pipeline.Dispatcher
	logger     *logger.Logger

	mu      sync.RWMutex
	lastRun *pipeline.Result
}

// NewGMPAlertJob creates the scheduled alert job
func NewGMPAlertJob(cfg config.Config, source pipeline.Source, dispatcher pipeline.Dispatcher, log *logger.Logger) *GMPAlertJob {
	return &GMPAlertJob{
		config:     cfg,
		source:     source,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Name returns the job name
func (j *GMPAlertJob) Name() string {
	return "gmp_alert"
}

// Schedule returns the cron schedule from the resolved config
func (j *GMPAlertJob) Schedule() string {
	return j.config.Schedule
}

// Run executes one alert pass
func (j *GMPAlertJob) Run(ctx context.Context) error {
	result, err := pipeline.Run(ctx, j.config, j.source, j.dispatcher, j.logger, time.Now())
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.lastRun = &result
	j.mu.Unlock()

	return nil
}

// LastResult returns the most recent completed run, or nil before the
// first successful pass.
func (j *GMPAlertJob) LastResult() *pipeline.Result {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastRun
}
