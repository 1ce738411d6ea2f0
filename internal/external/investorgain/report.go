package investorgain

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gmpwatch/internal/ipo"
)

// Fetch retrieves the live GMP report page and returns the normalized
// records in page order, plus the number of rows skipped as malformed.
func (c *Client) Fetch(ctx context.Context) ([]ipo.Record, int, error) {
	html, err := c.fetchHTML(ctx)
	if err != nil {
		return nil, 0, err
	}

	records, skipped, err := c.parseReport(html, time.Now())
	if err != nil {
		return nil, 0, err
	}

	c.logger.WithFields(map[string]interface{}{
		"count":   len(records),
		"skipped": skipped,
	}).Debug("Fetched GMP report")
	return records, skipped, nil
}

// parseReport parses the report HTML. The page carries three parallel
// column series tagged with data-label attributes: IPO (issuer anchor),
// Est Listing (estimated listing price with the gain percentage in
// parentheses) and Close (subscription close date). The series must be
// the same length or the page layout has changed and nothing is
// trustworthy. Price and GMP columns are used when present but never
// required.
func (c *Client) parseReport(html string, now time.Time) ([]ipo.Record, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, &SourceError{URL: c.baseURL, Reason: "failed to parse HTML", Err: err}
	}

	ipoCells := doc.Find(`[data-label="IPO"]`)
	estCells := doc.Find(`[data-label="Est Listing"]`)
	closeCells := doc.Find(`[data-label="Close"]`)

	if ipoCells.Length() == 0 {
		return nil, 0, &SourceError{URL: c.baseURL, Reason: "no IPO rows found"}
	}
	if ipoCells.Length() != estCells.Length() || ipoCells.Length() != closeCells.Length() {
		return nil, 0, &SourceError{
			URL: c.baseURL,
			Reason: fmt.Sprintf("column counts do not match: ipo=%d est=%d close=%d",
				ipoCells.Length(), estCells.Length(), closeCells.Length()),
		}
	}

	// Optional enrichment columns, only trusted when aligned with the rows
	priceCells := doc.Find(`[data-label="Price"]`)
	if priceCells.Length() != ipoCells.Length() {
		priceCells = nil
	}
	gmpCells := doc.Find(`[data-label="GMP(₹)"]`)
	if gmpCells.Length() != ipoCells.Length() {
		gmpCells = nil
	}

	var records []ipo.Record
	skipped := 0
	skip := func(i int, reason string) {
		skipped++
		c.logger.WithFields(map[string]interface{}{
			"row":    i,
			"reason": reason,
		}).Warn("Skipping malformed report row")
	}

	for i := 0; i < ipoCells.Length(); i++ {
		anchor := ipoCells.Eq(i).Find(`a[target="_parent"]`)
		if anchor.Length() == 0 {
			skip(i, "no issuer link")
			continue
		}

		// Status badges sit in span tags inside the anchor
		anchor.Find("span").Remove()
		rawName := strings.TrimSpace(anchor.Text())
		if rawName == "" {
			skip(i, "empty issuer name")
			continue
		}
		name, exchange := ipo.SplitIssuer(rawName)

		closeDate, err := parseCloseDate(closeCells.Eq(i).Text(), now)
		if err != nil {
			skip(i, err.Error())
			continue
		}

		rec := ipo.Record{
			Name:      name,
			Exchange:  exchange,
			CloseDate: closeDate,
		}

		if pct, ok := parseEstListingPercent(estCells.Eq(i).Text()); ok {
			rec.GMPPercent = pct
			rec.HasPercent = true
		}
		if priceCells != nil {
			if v, ok := parseRupees(priceCells.Eq(i).Text()); ok {
				rec.IssuePrice = v
			}
		}
		if gmpCells != nil {
			if v, ok := parseRupees(gmpCells.Eq(i).Text()); ok {
				rec.GMPValue = v
				rec.HasValue = true
			}
		}

		if _, ok := rec.Premium(); !ok {
			skip(i, "no usable premium")
			continue
		}

		records = append(records, rec)
	}

	return records, skipped, nil
}

var estPercentRe = regexp.MustCompile(`\((-?\d+(?:\.\d+)?)%\)`)

// parseEstListingPercent extracts the gain percentage from an Est Listing
// cell like "₹482 (34.5%)".
func parseEstListingPercent(s string) (float64, bool) {
	m := estPercentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseRupees parses a rupee amount cell like "₹358" or "1,245".
func parseRupees(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseCloseDate turns a close cell ("26-Aug", "2-Sep", sometimes with an
// explicit year) into a civil date in IST. The page usually omits the
// year; a candidate landing far in the past belongs to the next year, so
// December closes still parse correctly in January.
func parseCloseDate(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty close date")
	}

	for _, layout := range []string{"2-Jan-2006", "2-Jan-06"} {
		if t, err := time.ParseInLocation(layout, s, ipo.IST); err == nil {
			return ipo.CivilDate(t), nil
		}
	}

	t, err := time.ParseInLocation("2-Jan", s, ipo.IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized close date %q", raw)
	}

	candidate := time.Date(now.In(ipo.IST).Year(), t.Month(), t.Day(), 0, 0, 0, 0, ipo.IST)
	if ipo.DaysUntil(now, candidate) < -90 {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return candidate, nil
}
