package interfaces

import (
	"context"
	"encoding/json"

	"github.com/finanalyse/finanalyse/internal/models"
)

// MarketService orchestrates market-data lookups and normalization.
type MarketService interface {
	// GetSnapshot returns the normalized company snapshot, without the AI
	// analysis comment (the handler appends it).
	GetSnapshot(ctx context.Context, symbol string) (*models.QuoteSnapshot, error)

	// GetHistory returns one year of daily closes, zero-filled.
	GetHistory(ctx context.Context, symbol string) (*models.HistorySeries, error)

	// GetAdvancedMetrics returns the advanced ratio metrics.
	GetAdvancedMetrics(ctx context.Context, symbol string) (*models.AdvancedMetrics, error)

	// GetDividends returns the trailing five-year dividend report.
	GetDividends(ctx context.Context, symbol string) (*models.DividendReport, error)

	// Screen filters the fixed symbol universe. Per-symbol faults are
	// swallowed; the call itself never fails.
	Screen(ctx context.Context, filter models.ScreenerFilter) []models.ScreenerEntry
}

// NewsService serves the news endpoint: live proxy when configured, offline
// mock table otherwise.
type NewsService interface {
	// LiveArticles proxies the upstream news query.
	LiveArticles(ctx context.Context) ([]json.RawMessage, error)

	// MockArticles looks up the fixed in-memory table by source key.
	MockArticles(source string) ([]models.MockArticle, error)

	// LiveEnabled reports whether the live provider is configured.
	LiveEnabled() bool
}

// ChatService manages AI chat sessions.
type ChatService interface {
	// SendMessage appends the user turn to the session transcript, obtains
	// the assistant reply, and stores the updated transcript.
	SendMessage(ctx context.Context, sessionID, message string) (string, error)

	// Enabled reports whether the AI gateway is configured.
	Enabled() bool
}

// CommentGenerator produces the natural-language analysis comment for a
// snapshot. Implementations never return an error; faults degrade to a fixed
// fallback sentence.
type CommentGenerator interface {
	Comment(ctx context.Context, snapshot *models.QuoteSnapshot) string
}
