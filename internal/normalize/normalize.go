// Package normalize maps heterogeneous upstream records into the fixed
// output schemas served to the frontend. Each output field is defined by an
// ordered fallback chain of provider field names (or a derivation); the first
// present, finite value wins and everything else becomes null. No value ever
// normalizes to NaN or ±Inf.
package normalize

import (
	"encoding/json"
	"math"

	"github.com/finanalyse/finanalyse/internal/models"
)

// DeriveFunc computes an output value from a whole record, for fields that
// are not a plain field lookup (e.g. free cash flow).
type DeriveFunc func(rec models.UpstreamRecord) *float64

// Chain defines the fallback sources for one output field. Sources are tried
// in order; Derive, when set, replaces the source lookup entirely.
type Chain struct {
	Output  string
	Sources []string
	Derive  DeriveFunc
}

// SnapshotChains is the fallback table for the company snapshot.
// Statement line items ("Total Revenue", "Net Income") take precedence over
// the snapshot fields when the provider returned a financial-statement table.
var SnapshotChains = []Chain{
	{Output: "price", Sources: []string{"currentPrice", "previousClose"}},
	{Output: "revenue", Sources: []string{"Total Revenue", "totalRevenue"}},
	{Output: "netIncome", Sources: []string{"Net Income", "netIncomeToCommon"}},
	{Output: "peRatio", Sources: []string{"trailingPE"}},
	{Output: "roe", Sources: []string{"returnOnEquity"}},
	{Output: "netMargin", Sources: []string{"profitMargins"}},
	{Output: "dividendYield", Sources: []string{"dividendYield"}},
}

// MetricsChains is the fallback table for the advanced-metrics endpoint.
var MetricsChains = []Chain{
	{Output: "currentRatio", Sources: []string{"currentRatio"}},
	{Output: "quickRatio", Sources: []string{"quickRatio"}},
	{Output: "debtToEquity", Sources: []string{"debtToEquity"}},
	{Output: "interestCoverage", Sources: []string{"interestCoverage"}},
	{Output: "freeCashFlow", Derive: FreeCashFlow},
	{Output: "dividendYield", Sources: []string{"dividendYield"}},
}

// Apply runs every chain against the record and returns the fixed output
// schema. Missing fields are present in the result with a nil value.
func Apply(rec models.UpstreamRecord, chains []Chain) map[string]*float64 {
	out := make(map[string]*float64, len(chains))
	for _, chain := range chains {
		if chain.Derive != nil {
			out[chain.Output] = chain.Derive(rec)
			continue
		}
		out[chain.Output] = First(rec, chain.Sources...)
	}
	return out
}

// FreeCashFlow derives operating cash flow + capital expenditures. Capital
// expenditures arrive signed negative upstream, so the sum is the free cash
// flow. Returns nil unless both inputs are present and numeric.
func FreeCashFlow(rec models.UpstreamRecord) *float64 {
	opCash := First(rec, "Total Cash From Operating Activities", "Cash From Operations")
	capEx := Number(rec, "Capital Expenditures")
	return Sum(opCash, capEx)
}

// First returns the first present, finite numeric value among keys.
func First(rec models.UpstreamRecord, keys ...string) *float64 {
	for _, key := range keys {
		if v := Number(rec, key); v != nil {
			return v
		}
	}
	return nil
}

// Number coerces the record value under key to a finite float64, or nil when
// the field is absent, non-numeric, NaN or infinite.
func Number(rec models.UpstreamRecord, key string) *float64 {
	raw, ok := rec[key]
	if !ok || raw == nil {
		return nil
	}

	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case *float64:
		if n == nil {
			return nil
		}
		v = *n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		v = f
	default:
		return nil
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Text returns the string value under key, or fallback when absent or empty.
func Text(rec models.UpstreamRecord, key, fallback string) string {
	if s, ok := rec[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Sum adds two nullable values; nil if either is missing.
func Sum(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
