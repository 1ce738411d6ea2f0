package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"gmpwatch/internal/ipo"
	"gmpwatch/pkg/logger"
)

// Sink delivers one composed message. The dispatcher needs nothing else
// from a delivery backend.
type Sink interface {
	Send(ctx context.Context, msg ipo.Message) error
}

// Status of one message after a dispatch pass.
type Status string

const (
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusWouldSend Status = "would_send"
)

// Outcome pairs a message with its delivery result.
type Outcome struct {
	Message ipo.Message `json:"-"`
	Status  Status      `json:"status"`
	Err     error       `json:"-"`
}

// Report summarizes one dispatch pass. Outcomes keep the input order.
type Report struct {
	Outcomes  []Outcome `json:"-"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	WouldSend int       `json:"would_send"`
}

// Dispatcher pushes messages through a sink in order. A failed send is
// recorded and never stops later sends. In dry-run mode nothing touches
// the network and every message is recorded as would-send.
type Dispatcher struct {
	sink    Sink
	logger  *logger.Logger
	dryRun  bool
	limiter *rate.Limiter // paces real sends, one message per second
}

// NewDispatcher creates a dispatcher over the given sink.
func NewDispatcher(sink Sink, log *logger.Logger, dryRun bool) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		logger:  log,
		dryRun:  dryRun,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Dispatch sends every message and returns the per-message outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []ipo.Message) Report {
	report := Report{Outcomes: make([]Outcome, 0, len(messages))}

	for _, msg := range messages {
		if d.dryRun {
			d.logger.WithField("to", msg.To).Info("Dry run, would send alert")
			report.Outcomes = append(report.Outcomes, Outcome{Message: msg, Status: StatusWouldSend})
			report.WouldSend++
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{Message: msg, Status: StatusFailed, Err: err})
			report.Failed++
			continue
		}

		if err := d.sink.Send(ctx, msg); err != nil {
			d.logger.WithError(err).WithField("to", msg.To).Error("Failed to send alert")
			report.Outcomes = append(report.Outcomes, Outcome{Message: msg, Status: StatusFailed, Err: err})
			report.Failed++
			continue
		}

		report.Outcomes = append(report.Outcomes, Outcome{Message: msg, Status: StatusSent})
		report.Sent++
	}

	d.logger.WithFields(map[string]interface{}{
		"total":      len(messages),
		"sent":       report.Sent,
		"failed":     report.Failed,
		"would_send": report.WouldSend,
	}).Info("Dispatch completed")

	return report
}
