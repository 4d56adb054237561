// Package interfaces defines client and service contracts for FinAnalyse
package interfaces

import (
	"context"
	"encoding/json"

	"github.com/finanalyse/finanalyse/internal/models"
)

// MarketDataClient provides access to the market-data provider.
type MarketDataClient interface {
	// GetSnapshot retrieves the raw per-symbol record: snapshot fields plus
	// the latest financial-statement and cash-flow line items, flattened
	// under their provider-specific names.
	GetSnapshot(ctx context.Context, symbol string) (models.UpstreamRecord, error)

	// GetChart retrieves daily price bars for the named range ("1d", "1y",
	// "5y"), including dividend events when withDividends is set.
	GetChart(ctx context.Context, symbol string, rng string, withDividends bool) (*models.ChartData, error)
}

// NewsClient provides access to the live news provider.
type NewsClient interface {
	// LatestArticles retrieves the provider's article list verbatim, using
	// the fixed country/language/limit filter.
	LatestArticles(ctx context.Context) ([]json.RawMessage, error)
}

// GenAIClient provides access to the generative-language provider.
type GenAIClient interface {
	// GenerateContent generates text from a single-shot prompt.
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// ChatCompletion generates the next assistant turn for a transcript.
	// The system preamble is passed separately from the turn list.
	ChatCompletion(ctx context.Context, system string, transcript []models.ChatTurn) (string, error)
}
