// Package app wires configuration, clients and services together
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/finanalyse/finanalyse/internal/clients/gemini"
	"github.com/finanalyse/finanalyse/internal/clients/marketaux"
	"github.com/finanalyse/finanalyse/internal/clients/yahoo"
	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
	"github.com/finanalyse/finanalyse/internal/services/analysis"
	"github.com/finanalyse/finanalyse/internal/services/chat"
	"github.com/finanalyse/finanalyse/internal/services/market"
	"github.com/finanalyse/finanalyse/internal/services/news"
)

// App holds all initialized clients and services shared by the HTTP server.
type App struct {
	Config *common.Config
	Logger *common.Logger

	MarketClient interfaces.MarketDataClient
	NewsClient   interfaces.NewsClient
	GeminiClient interfaces.GenAIClient

	MarketService interfaces.MarketService
	NewsService   interfaces.NewsService
	ChatService   interfaces.ChatService
	Comments      interfaces.CommentGenerator

	StartupTime time.Time
}

// NewApp initializes all clients and services. configPath may be empty, in
// which case FINANALYSE_CONFIG and the default location are tried. A missing
// API credential disables the corresponding feature instead of failing
// startup.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	if configPath == "" {
		configPath = os.Getenv("FINANALYSE_CONFIG")
	}
	if configPath == "" {
		configPath = "config/finanalyse.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	marketClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	var newsClient interfaces.NewsClient
	if config.Clients.Marketaux.APIKey != "" {
		newsClient = marketaux.NewClient(config.Clients.Marketaux.APIKey,
			marketaux.WithBaseURL(config.Clients.Marketaux.BaseURL),
			marketaux.WithLogger(logger),
			marketaux.WithFilter(
				config.Clients.Marketaux.Countries,
				config.Clients.Marketaux.Language,
				config.Clients.Marketaux.Limit,
			),
			marketaux.WithRateLimit(config.Clients.Marketaux.RateLimit),
			marketaux.WithTimeout(config.Clients.Marketaux.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("Marketaux API key not configured - news falls back to the offline table")
	}

	var geminiClient interfaces.GenAIClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - AI features disabled")
		} else {
			geminiClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - AI chat and analysis comments disabled")
	}

	a := &App{
		Config:        config,
		Logger:        logger,
		MarketClient:  marketClient,
		NewsClient:    newsClient,
		GeminiClient:  geminiClient,
		MarketService: market.NewService(marketClient, logger),
		NewsService:   news.NewService(newsClient, logger),
		ChatService:   chat.NewService(geminiClient, config.Chat.GetSessionTTL(), logger),
		Comments:      analysis.NewGenerator(geminiClient, logger),
		StartupTime:   startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}
