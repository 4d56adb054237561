// Package common provides shared utilities for FinAnalyse
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the FinAnalyse backend
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Clients     ClientsConfig `toml:"clients"`
	Chat        ChatConfig    `toml:"chat"`
	CORS        CORSConfig    `toml:"cors"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds upstream API client configurations
type ClientsConfig struct {
	Yahoo     YahooConfig     `toml:"yahoo"`
	Marketaux MarketauxConfig `toml:"marketaux"`
	Gemini    GeminiConfig    `toml:"gemini"`
}

// YahooConfig holds Yahoo Finance API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MarketauxConfig holds Marketaux news API configuration
type MarketauxConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Countries string `toml:"countries"`
	Language  string `toml:"language"`
	Limit     int    `toml:"limit"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *MarketauxConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ChatConfig holds chat session configuration
type ChatConfig struct {
	SessionTTL string `toml:"session_ttl"`
}

// GetSessionTTL parses and returns the session TTL duration
func (c *ChatConfig) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

// CORSConfig holds the fixed origin allow-list for the web frontend
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Marketaux: MarketauxConfig{
				BaseURL:   "https://api.marketaux.com",
				Countries: "us,fr",
				Language:  "en",
				Limit:     15,
				RateLimit: 2,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Chat: ChatConfig{
			SessionTTL: "12h",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"https://finanalyses.pages.dev",
				"http://localhost:8080",
				"http://127.0.0.1:8080",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINANALYSE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FINANALYSE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FINANALYSE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FINANALYSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if key := resolveEnv("MARKETAUX_API_KEY", "FINANALYSE_MARKETAUX_API_KEY"); key != "" {
		config.Clients.Marketaux.APIKey = key
	}

	if key := resolveEnv("GEMINI_API_KEY", "FINANALYSE_GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}

	if model := os.Getenv("FINANALYSE_GEMINI_MODEL"); model != "" {
		config.Clients.Gemini.Model = model
	}

	if origins := os.Getenv("FINANALYSE_CORS_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		config.CORS.AllowedOrigins = parts
	}
}

// resolveEnv returns the first non-empty value among the named variables.
func resolveEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
