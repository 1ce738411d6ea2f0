package screen

import (
	"sort"
	"time"

	"gmpwatch/internal/ipo"
	"gmpwatch/pkg/logger"
)

// Screener applies the eligibility cut to fetched records: close date
// inside the alert window and premium over one of the two thresholds.
type Screener struct {
	config Config
	logger *logger.Logger
}

// Config defines the cut. Values come from the resolved app config and
// are validated there (fallback never exceeds primary).
type Config struct {
	WindowDays        int     // inclusive, 0 = closing today only
	Threshold         float64 // primary GMP percent threshold
	FallbackThreshold float64
}

// New creates a new screener
func New(config Config, log *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: log,
	}
}

// Screen filters records and returns the eligible alerts ordered by close
// date ascending, then premium descending, ties in fetch order. The clock
// is injected; screening the same input with the same now is idempotent.
func (s *Screener) Screen(records []ipo.Record, now time.Time) []ipo.EligibleAlert {
	alerts := make([]ipo.EligibleAlert, 0)
	filtered := make(map[string]int) // Filter name -> count

	for _, rec := range records {
		alert, reason := s.check(rec, now)
		if reason == "" {
			alerts = append(alerts, alert)
		} else {
			filtered[reason]++
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if !alerts[i].CloseDate.Equal(alerts[j].CloseDate) {
			return alerts[i].CloseDate.Before(alerts[j].CloseDate)
		}
		return alerts[i].GMPPercent > alerts[j].GMPPercent
	})

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(records),
		"eligible":     len(alerts),
		"filtered_out": len(records) - len(alerts),
		"filters":      filtered,
	}).Info("Screening completed")

	return alerts
}

// check tests one record against the cut.
// Returns the alert and an empty reason if passed, otherwise the filter name.
func (s *Screener) check(rec ipo.Record, now time.Time) (ipo.EligibleAlert, string) {
	days := ipo.DaysUntil(now, rec.CloseDate)
	if days < 0 {
		return ipo.EligibleAlert{}, "already_closed"
	}
	if days > s.config.WindowDays {
		return ipo.EligibleAlert{}, "outside_window"
	}

	pct, ok := rec.Premium()
	if !ok {
		return ipo.EligibleAlert{}, "no_premium"
	}

	var tier ipo.Tier
	switch {
	case pct >= s.config.Threshold:
		tier = ipo.TierPrimary
	case pct >= s.config.FallbackThreshold:
		tier = ipo.TierFallback
	default:
		return ipo.EligibleAlert{}, "below_threshold"
	}

	return ipo.EligibleAlert{
		Name:        rec.Name,
		Exchange:    rec.Exchange,
		CloseDate:   rec.CloseDate,
		GMPPercent:  pct,
		Tier:        tier,
		DaysToClose: days,
	}, ""
}
