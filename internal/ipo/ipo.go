package ipo

import (
	"strings"
	"time"
)

// IST is the exchange timezone. Subscription close dates are civil dates
// in IST regardless of where the process runs.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Exchange identifies the listing venue of an IPO.
type Exchange string

const (
	// ExchangeMainboard is a joint NSE+BSE mainboard listing, the common
	// case for large issues. The source marks only SME and single-venue
	// listings explicitly.
	ExchangeMainboard Exchange = "MAINBOARD"
	ExchangeNSE       Exchange = "NSE"
	ExchangeBSE       Exchange = "BSE"
	ExchangeNSESME    Exchange = "NSE-SME"
	ExchangeBSESME    Exchange = "BSE-SME"
)

// Label returns the human-readable venue name used in alert text.
func (e Exchange) Label() string {
	switch e {
	case ExchangeNSE:
		return "NSE"
	case ExchangeBSE:
		return "BSE"
	case ExchangeNSESME:
		return "NSE SME"
	case ExchangeBSESME:
		return "BSE SME"
	default:
		return "NSE/BSE"
	}
}

// venue markers as they appear appended to issuer names on the report page,
// longest first so "NSE SME" wins over "NSE"
var exchangeMarkers = []struct {
	suffix   string
	exchange Exchange
}{
	{"NSE SME", ExchangeNSESME},
	{"BSE SME", ExchangeBSESME},
	{"SME", ExchangeNSESME},
	{"NSE", ExchangeNSE},
	{"BSE", ExchangeBSE},
}

// SplitIssuer separates an issuer cell value into the clean issuer name and
// the exchange it marks. "Acme Industries NSE SME" -> ("Acme Industries",
// ExchangeNSESME); names without a marker are mainboard listings.
func SplitIssuer(raw string) (string, Exchange) {
	name := strings.TrimSpace(raw)
	for _, m := range exchangeMarkers {
		if strings.HasSuffix(name, m.suffix) {
			trimmed := strings.TrimSpace(strings.TrimSuffix(name, m.suffix))
			if trimmed != "" {
				return trimmed, m.exchange
			}
		}
	}
	return name, ExchangeMainboard
}

// Record is one IPO as normalized by the fetcher: issuer identity, venue,
// subscription close date and the current grey market premium. Records are
// read-only once they leave the fetcher.
type Record struct {
	Name       string    `json:"name"`
	Exchange   Exchange  `json:"exchange"`
	CloseDate  time.Time `json:"close_date"` // civil date, midnight IST
	IssuePrice float64   `json:"issue_price,omitempty"`
	GMPValue   float64   `json:"gmp_value,omitempty"`   // absolute premium in rupees
	GMPPercent float64   `json:"gmp_percent,omitempty"` // premium as percent of issue price

	// Which of the two premium forms the source actually reported. A zero
	// premium is a real quote, so presence is tracked separately.
	HasValue   bool `json:"-"`
	HasPercent bool `json:"-"`
}

// Premium returns the premium as a percentage of the issue price and
// whether one could be determined. The percentage reported by the source
// wins; otherwise it is derived from the absolute premium and the issue
// price so both paths land on the same scale.
func (r Record) Premium() (float64, bool) {
	if r.HasPercent {
		return r.GMPPercent, true
	}
	if r.HasValue && r.IssuePrice > 0 {
		return r.GMPValue / r.IssuePrice * 100, true
	}
	return 0, false
}

// Tier names the threshold that admitted an alert.
type Tier string

const (
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
)

// EligibleAlert is a Record that passed the screen: close date inside the
// window and premium over one of the two thresholds. One per qualifying
// record, alive for a single run only.
type EligibleAlert struct {
	Name        string    `json:"name"`
	Exchange    Exchange  `json:"exchange"`
	CloseDate   time.Time `json:"close_date"`
	GMPPercent  float64   `json:"gmp_percent"` // computed, comparable scale
	Tier        Tier      `json:"tier"`
	DaysToClose int       `json:"days_to_close"`
}

// Message is the final alert text addressed to a destination group.
// Produced by the composer, consumed exactly once by the notifier.
type Message struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// CivilDate truncates t to midnight IST.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.In(IST).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, IST)
}

// DaysUntil returns the whole civil days from now's date to the close
// date. Zero means the close is today; negative means it has passed.
func DaysUntil(now, close time.Time) int {
	return int(CivilDate(close).Sub(CivilDate(now)).Hours() / 24)
}
