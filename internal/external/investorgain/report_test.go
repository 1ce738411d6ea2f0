package investorgain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gmpwatch/internal/ipo"
	"gmpwatch/pkg/httputil"
	"gmpwatch/pkg/logger"
)

var testNow = time.Date(2026, 8, 23, 10, 0, 0, 0, ipo.IST)

func testClient() *Client {
	return &Client{logger: logger.NewNop(), baseURL: "https://example.com/gmp"}
}

func TestParseReport(t *testing.T) {
	sampleHTML := `
		<html>
		<body>
		<table>
			<tr>
				<td data-label="IPO"><a target="_parent">Acme Industries<span>Open</span></a></td>
				<td data-label="Price">&#8377;358</td>
				<td data-label="GMP(&#8377;)">&#8377;124</td>
				<td data-label="Est Listing">&#8377;482 (34.64%)</td>
				<td data-label="Close">26-Aug</td>
			</tr>
			<tr>
				<td data-label="IPO"><a target="_parent">Micro Forge NSE SME<span>Closing Today</span></a></td>
				<td data-label="Price">&#8377;96</td>
				<td data-label="GMP(&#8377;)">&#8377;21</td>
				<td data-label="Est Listing">&#8377;117 (21.88%)</td>
				<td data-label="Close">23-Aug</td>
			</tr>
			<tr>
				<td data-label="IPO"><a target="_parent">Grid Power BSE</a></td>
				<td data-label="Price">&#8377;200</td>
				<td data-label="GMP(&#8377;)">&#8377;50</td>
				<td data-label="Est Listing">&#8377;250</td>
				<td data-label="Close">2-Sep</td>
			</tr>
		</table>
		</body>
		</html>
	`

	c := testClient()
	records, skipped, err := c.parseReport(sampleHTML, testNow)
	if err != nil {
		t.Fatalf("parseReport() failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("parseReport() skipped = %d, want 0", skipped)
	}
	if len(records) != 3 {
		t.Fatalf("parseReport() got %d records, want 3", len(records))
	}

	// Row 1: mainboard listing, badge span stripped from the name
	first := records[0]
	if first.Name != "Acme Industries" {
		t.Errorf("Name = %q, want %q", first.Name, "Acme Industries")
	}
	if first.Exchange != ipo.ExchangeMainboard {
		t.Errorf("Exchange = %v, want %v", first.Exchange, ipo.ExchangeMainboard)
	}
	wantClose := time.Date(2026, 8, 26, 0, 0, 0, 0, ipo.IST)
	if !first.CloseDate.Equal(wantClose) {
		t.Errorf("CloseDate = %v, want %v", first.CloseDate, wantClose)
	}
	if pct, ok := first.Premium(); !ok || pct != 34.64 {
		t.Errorf("Premium() = %v, %v, want 34.64, true", pct, ok)
	}
	if first.IssuePrice != 358 || first.GMPValue != 124 {
		t.Errorf("Price/GMP = %v/%v, want 358/124", first.IssuePrice, first.GMPValue)
	}

	// Row 2: SME marker split off the name
	second := records[1]
	if second.Name != "Micro Forge" {
		t.Errorf("Name = %q, want %q", second.Name, "Micro Forge")
	}
	if second.Exchange != ipo.ExchangeNSESME {
		t.Errorf("Exchange = %v, want %v", second.Exchange, ipo.ExchangeNSESME)
	}

	// Row 3: no percentage in Est Listing, premium derived from GMP/price
	third := records[2]
	if third.Exchange != ipo.ExchangeBSE {
		t.Errorf("Exchange = %v, want %v", third.Exchange, ipo.ExchangeBSE)
	}
	if pct, ok := third.Premium(); !ok || pct != 25 {
		t.Errorf("Premium() = %v, %v, want 25, true", pct, ok)
	}
}

func TestParseReportSkipsMalformedRows(t *testing.T) {
	sampleHTML := `
		<html>
		<body>
		<table>
			<tr>
				<td data-label="IPO"><a target="_parent">Acme Industries</a></td>
				<td data-label="Est Listing">&#8377;482 (34.64%)</td>
				<td data-label="Close">26-Aug</td>
			</tr>
			<tr>
				<td data-label="IPO">No anchor here</td>
				<td data-label="Est Listing">&#8377;117 (21.88%)</td>
				<td data-label="Close">23-Aug</td>
			</tr>
			<tr>
				<td data-label="IPO"><a target="_parent">Bad Date Ltd</a></td>
				<td data-label="Est Listing">&#8377;250 (12%)</td>
				<td data-label="Close">soon</td>
			</tr>
			<tr>
				<td data-label="IPO"><a target="_parent">No Premium Ltd</a></td>
				<td data-label="Est Listing">--</td>
				<td data-label="Close">28-Aug</td>
			</tr>
		</table>
		</body>
		</html>
	`

	c := testClient()
	records, skipped, err := c.parseReport(sampleHTML, testNow)
	if err != nil {
		t.Fatalf("parseReport() failed: %v", err)
	}

	if len(records) != 1 {
		t.Errorf("parseReport() got %d records, want 1", len(records))
	}
	if skipped != 3 {
		t.Errorf("parseReport() skipped = %d, want 3", skipped)
	}
	if len(records) > 0 && records[0].Name != "Acme Industries" {
		t.Errorf("surviving record = %q, want %q", records[0].Name, "Acme Industries")
	}
}

func TestParseReportEmptyPage(t *testing.T) {
	c := testClient()
	_, _, err := c.parseReport("<html><body></body></html>", testNow)
	if err == nil {
		t.Fatal("Expected error for page without IPO rows, got nil")
	}

	var serr *SourceError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
}

func TestParseReportColumnMismatch(t *testing.T) {
	sampleHTML := `
		<html>
		<body>
		<table>
			<tr>
				<td data-label="IPO"><a target="_parent">Acme Industries</a></td>
				<td data-label="Est Listing">&#8377;482 (34.64%)</td>
				<td data-label="Close">26-Aug</td>
			</tr>
			<tr>
				<td data-label="IPO"><a target="_parent">Micro Forge</a></td>
				<td data-label="Est Listing">&#8377;117 (21.88%)</td>
			</tr>
		</table>
		</body>
		</html>
	`

	c := testClient()
	_, _, err := c.parseReport(sampleHTML, testNow)
	if err == nil {
		t.Fatal("Expected error for mismatched column counts, got nil")
	}

	var serr *SourceError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
}

func TestParseCloseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		now     time.Time
		want    time.Time
		wantErr bool
	}{
		{
			name: "same month",
			raw:  "26-Aug",
			now:  testNow,
			want: time.Date(2026, 8, 26, 0, 0, 0, 0, ipo.IST),
		},
		{
			name: "next month",
			raw:  "2-Sep",
			now:  testNow,
			want: time.Date(2026, 9, 2, 0, 0, 0, 0, ipo.IST),
		},
		{
			name: "year rollover in december",
			raw:  "15-Jan",
			now:  time.Date(2026, 12, 30, 10, 0, 0, 0, ipo.IST),
			want: time.Date(2027, 1, 15, 0, 0, 0, 0, ipo.IST),
		},
		{
			name: "far past rolls forward",
			raw:  "5-Feb",
			now:  testNow,
			want: time.Date(2027, 2, 5, 0, 0, 0, 0, ipo.IST),
		},
		{
			name: "recent past stays in year",
			raw:  "19-Aug",
			now:  testNow,
			want: time.Date(2026, 8, 19, 0, 0, 0, 0, ipo.IST),
		},
		{
			name: "explicit year",
			raw:  "26-Aug-2025",
			now:  testNow,
			want: time.Date(2025, 8, 26, 0, 0, 0, 0, ipo.IST),
		},
		{
			name:    "garbage",
			raw:     "soon",
			now:     testNow,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			now:     testNow,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCloseDate(tt.raw, tt.now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseCloseDate(%q) expected error, got %v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCloseDate(%q) failed: %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseCloseDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseEstListingPercent(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"₹482 (34.64%)", 34.64, true},
		{"482 (7%)", 7, true},
		{"₹95 (-5.2%)", -5.2, true},
		{"₹482", 0, false},
		{"--", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseEstListingPercent(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseEstListingPercent(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseRupees(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"₹358", 358, true},
		{"1,245", 1245, true},
		{" 72 ", 72, true},
		{"₹", 0, false},
		{"--", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseRupees(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseRupees(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFetch(t *testing.T) {
	// Explicit years keep the fixture stable against the real clock.
	sampleHTML := `
		<html>
		<body>
		<table>
			<tr>
				<td data-label="IPO"><a target="_parent">Acme Industries</a></td>
				<td data-label="Est Listing">&#8377;482 (34.64%)</td>
				<td data-label="Close">26-Aug-2030</td>
			</tr>
			<tr>
				<td data-label="IPO"><a target="_parent">Micro Forge NSE SME</a></td>
				<td data-label="Est Listing">&#8377;117 (21.88%)</td>
				<td data-label="Close">23-Aug-2030</td>
			</tr>
		</table>
		</body>
		</html>
	`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleHTML))
	}))
	defer server.Close()

	log := logger.NewNop()
	c := NewClient(httputil.New(log).DisableRetry(), log, server.URL)

	records, skipped, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("Fetch() skipped = %d, want 0", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("Fetch() got %d records, want 2", len(records))
	}
	if records[0].Name != "Acme Industries" || records[1].Name != "Micro Forge" {
		t.Errorf("Fetch() names = %q, %q", records[0].Name, records[1].Name)
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	log := logger.NewNop()
	c := NewClient(httputil.New(log).DisableRetry(), log, server.URL)

	_, _, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatal("Expected error for 500 response, got nil")
	}

	var serr *SourceError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *SourceError, got %T", err)
	}
}
