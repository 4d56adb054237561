// Package news serves the news endpoint: a live Marketaux proxy when the API
// key is configured, falling back to a fixed in-memory table for offline use.
package news

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
	"github.com/finanalyse/finanalyse/internal/models"
)

// Service implements NewsService.
type Service struct {
	client interfaces.NewsClient // nil when no API key is configured
	mock   map[string][]models.MockArticle
	logger *common.Logger
}

// NewService creates a news service. client may be nil, in which case only
// the mock table is served.
func NewService(client interfaces.NewsClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		mock:   mockTable,
		logger: logger,
	}
}

// LiveEnabled reports whether the live provider is configured.
func (s *Service) LiveEnabled() bool {
	return s.client != nil
}

// LiveArticles proxies the upstream news query. Transport failures map to
// ErrUnavailable so the handler returns 503.
func (s *Service) LiveArticles(ctx context.Context) ([]json.RawMessage, error) {
	articles, err := s.client.LatestArticles(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("News provider unreachable")
		return nil, fmt.Errorf("news provider: %v: %w", err, models.ErrUnavailable)
	}
	return articles, nil
}

// MockArticles looks up the fixed table by source key.
func (s *Service) MockArticles(source string) ([]models.MockArticle, error) {
	articles, ok := s.mock[source]
	if !ok {
		return nil, fmt.Errorf("news source %q: %w", source, models.ErrNotFound)
	}
	return articles, nil
}

// mockTable is the fixed offline article table, keyed by source.
var mockTable = map[string][]models.MockArticle{
	"moneywise": {
		{
			Title:   "Inflation Reduction Act: Are You Missing Out on These Major Savings?",
			Snippet: "The landmark legislation could save you thousands. Are you taking advantage?",
			URL:     "#",
			Source:  "Moneywise",
		},
		{
			Title:   "Suze Orman Warns of a Major Financial 'Earthquake' — Here's How to Prepare",
			Snippet: "The personal finance guru is sounding the alarm. Here are three ways to protect yourself.",
			URL:     "#",
			Source:  "Moneywise",
		},
	},
	"gobankingrates": {
		{
			Title:   "5 High-Paying Jobs That Don't Require a Bachelor's Degree",
			Snippet: "You don't need a four-year degree to land a lucrative career. Check out these options.",
			URL:     "#",
			Source:  "GOBankingRates",
		},
		{
			Title:   "How To Build Generational Wealth With Just a Few Hundred Dollars",
			Snippet: "Think you need a fortune to start? Think again. Small, consistent investments can lead to big results.",
			URL:     "#",
			Source:  "GOBankingRates",
		},
	},
	"morningstar": {
		{
			Title:   "3 Undervalued Stocks to Buy Now",
			Snippet: "Our analysts have identified three companies trading below their intrinsic value.",
			URL:     "#",
			Source:  "Morningstar Research",
		},
		{
			Title:   "Market Outlook 2025: Navigating a Shifting Landscape",
			Snippet: "Experts weigh in on what to expect from the markets in the coming year.",
			URL:     "#",
			Source:  "Morningstar Research",
		},
	},
	"barchart": {
		{
			Title:   "Corn Prices Surge on Weather Concerns",
			Snippet: "Futures for corn are up as unfavorable weather patterns threaten crop yields.",
			URL:     "#",
			Source:  "Barchart",
		},
		{
			Title:   "Analyst Upgrade: Is This Tech Giant a 'Strong Buy'?",
			Snippet: "Barchart's technical analysis points to a strong upward trend for this well-known stock.",
			URL:     "#",
			Source:  "Barchart",
		},
	},
}

// Ensure Service implements NewsService
var _ interfaces.NewsService = (*Service)(nil)
