// Package models defines the data structures exchanged between the upstream
// gateways, the normalizer, and the HTTP layer.
package models

import "time"

// UpstreamRecord is a raw provider record: a flat mapping of provider-specific,
// possibly-absent field names to values. Snapshot fields use the provider's
// camelCase keys (currentPrice, trailingPE, ...); financial-statement line
// items use their display names ("Total Revenue", "Capital Expenditures", ...).
type UpstreamRecord map[string]any

// Merge returns a new record containing the entries of r overlaid with other.
func (r UpstreamRecord) Merge(other UpstreamRecord) UpstreamRecord {
	merged := make(UpstreamRecord, len(r)+len(other))
	for k, v := range r {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// PriceBar is one day of price history. Close is nil when the provider
// reported no close for that day.
type PriceBar struct {
	Date  time.Time
	Close *float64
}

// DividendEvent is a single dividend payment.
type DividendEvent struct {
	Date   time.Time
	Amount float64
}

// ChartData bundles the price bars and dividend events returned by one
// chart query.
type ChartData struct {
	Bars      []PriceBar
	Dividends []DividendEvent
}

// QuoteSnapshot is the stable per-company contract for the frontend.
// Every numeric field is either a finite number or null, never NaN.
type QuoteSnapshot struct {
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Sector          string   `json:"sector"`
	Country         string   `json:"country"`
	Price           *float64 `json:"price"`
	Revenue         *float64 `json:"revenue"`
	NetIncome       *float64 `json:"netIncome"`
	PERatio         *float64 `json:"peRatio"`
	ROE             *float64 `json:"roe"`
	NetMargin       *float64 `json:"netMargin"`
	DividendYield   *float64 `json:"dividendYield"`
	AnalysisComment string   `json:"analysisComment,omitempty"`
}

// HistorySeries holds one year of daily closes as parallel arrays.
// Missing closes are coerced to 0, not null, so chart renderers stay simple.
type HistorySeries struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// AdvancedMetrics is the fixed schema of the advanced-metrics endpoint.
type AdvancedMetrics struct {
	CurrentRatio     *float64 `json:"currentRatio"`
	QuickRatio       *float64 `json:"quickRatio"`
	DebtToEquity     *float64 `json:"debtToEquity"`
	InterestCoverage *float64 `json:"interestCoverage"`
	FreeCashFlow     *float64 `json:"freeCashFlow"`
	DividendYield    *float64 `json:"dividendYield"`
}

// DividendHistory maps calendar years to summed dividend amounts for the
// trailing five years. Years without dividend events are absent, not zero.
type DividendHistory struct {
	Years   []int     `json:"years"`
	Amounts []float64 `json:"amounts"`
}

// DividendReport is the dividends endpoint body.
type DividendReport struct {
	DividendRate    *float64        `json:"dividendRate"`
	PayoutRatio     *float64        `json:"payoutRatio"`
	DividendHistory DividendHistory `json:"dividendHistory"`
}

// ScreenerEntry is one matching symbol in a screener response.
type ScreenerEntry struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	PE            *float64 `json:"pe"`
	DividendYield *float64 `json:"dividendYield"`
}

// ScreenerFilter holds the optional screener query filters. A dividend floor
// arrives as a percentage and is divided by 100 before comparison.
type ScreenerFilter struct {
	Sector      string
	PEMax       *float64
	DividendMin *float64
}

// ScreenerUniverse is the fixed ordered list of symbols the screener iterates.
var ScreenerUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "JPM", "JNJ",
	"WMT", "PG", "XOM", "NVDA", "V", "UNH", "HD",
}

// MockArticle is one entry in the offline news table.
type MockArticle struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}
