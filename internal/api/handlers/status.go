package handlers

import (
	"encoding/json"
	"net/http"

	"gmpwatch/internal/pipeline"
	"gmpwatch/internal/scheduler"
	"gmpwatch/internal/scheduler/jobs"
	"gmpwatch/pkg/logger"
)

// StatusHandler serves the watch-mode endpoints: health, job status and
// the manual trigger.
type StatusHandler struct {
	scheduler *scheduler.Scheduler
	alertJob  *jobs.GMPAlertJob
	logger    *logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(sched *scheduler.Scheduler, alertJob *jobs.GMPAlertJob, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		scheduler: sched,
		alertJob:  alertJob,
		logger:    log,
	}
}

// Health reports process liveness
// GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "gmpwatch",
	})
}

// StatusResponse is the watch-mode status document.
type StatusResponse struct {
	Jobs    map[string]scheduler.Stats `json:"jobs"`
	LastRun *pipeline.Result           `json:"last_run"`
}

// GetStatus returns scheduler job stats and the last alert run summary
// GET /api/v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StatusResponse{
		Jobs:    h.scheduler.Stats(),
		LastRun: h.alertJob.LastResult(),
	})
}

// TriggerRun kicks off one alert pass outside the schedule. The pass runs
// in the background; poll GetStatus for its outcome.
// POST /api/v1/run
func (h *StatusHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	name := h.alertJob.Name()

	if err := h.scheduler.Trigger(name); err != nil {
		h.logger.WithError(err).Error("Manual trigger failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}

	h.logger.WithField("job", name).Info("Manual run triggered")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job":    name,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
