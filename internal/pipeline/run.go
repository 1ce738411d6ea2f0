package pipeline

import (
	"context"
	"fmt"
	"time"

	"gmpwatch/internal/alert"
	"gmpwatch/internal/ipo"
	"gmpwatch/internal/notify"
	"gmpwatch/internal/screen"
	"gmpwatch/pkg/config"
	"gmpwatch/pkg/logger"
)

// Source pulls the current report records. Returns records in page order
// plus the count of malformed rows it skipped.
type Source interface {
	Fetch(ctx context.Context) ([]ipo.Record, int, error)
}

// Dispatcher pushes composed messages and reports per-message outcomes.
type Dispatcher interface {
	Dispatch(ctx context.Context, messages []ipo.Message) notify.Report
}

// Result carries everything one run produced.
type Result struct {
	Fetched  int                 `json:"fetched"`
	Skipped  int                 `json:"skipped"`
	Eligible int                 `json:"eligible"`
	Alerts   []ipo.EligibleAlert `json:"alerts,omitempty"`
	Report   notify.Report       `json:"report"`
}

// Run executes one alert pass: fetch, screen, compose, dispatch. A fetch
// failure aborts the run and is the only error path out of here; delivery
// failures land in the Result and the caller exits clean.
func Run(ctx context.Context, cfg config.Config, source Source, dispatcher Dispatcher, log *logger.Logger, now time.Time) (Result, error) {
	records, skipped, err := source.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	screener := screen.New(screen.Config{
		WindowDays:        cfg.WindowDays,
		Threshold:         cfg.Threshold,
		FallbackThreshold: cfg.FallbackThreshold,
	}, log)
	alerts := screener.Screen(records, now)

	messages := make([]ipo.Message, 0, len(alerts))
	for _, a := range alerts {
		messages = append(messages, alert.Compose(a, cfg.WhatsAppGroupID))
	}

	report := dispatcher.Dispatch(ctx, messages)

	result := Result{
		Fetched:  len(records),
		Skipped:  skipped,
		Eligible: len(alerts),
		Alerts:   alerts,
		Report:   report,
	}

	log.WithFields(map[string]interface{}{
		"fetched":    result.Fetched,
		"skipped":    result.Skipped,
		"eligible":   result.Eligible,
		"sent":       report.Sent,
		"failed":     report.Failed,
		"would_send": report.WouldSend,
	}).Info("Run completed")

	return result, nil
}
