// Package marketaux provides a client for the Marketaux news API
package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://api.marketaux.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	DefaultCountries = "us,fr"
	DefaultLanguage  = "en"
	DefaultLimit     = 15
)

// Client implements the NewsClient interface
type Client struct {
	baseURL    string
	apiKey     string
	countries  string
	language   string
	limit      int
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFilter sets the fixed country/language/limit filter
func WithFilter(countries, language string, limit int) ClientOption {
	return func(c *Client) {
		if countries != "" {
			c.countries = countries
		}
		if language != "" {
			c.language = language
		}
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Marketaux client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiKey:    apiKey,
		countries: DefaultCountries,
		language:  DefaultLanguage,
		limit:     DefaultLimit,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an upstream API error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketaux API error: %s (status: %d)", e.Message, e.StatusCode)
}

// newsEnvelope is the provider's response wrapper; articles ride under "data"
// and are passed through verbatim.
type newsEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

// LatestArticles retrieves the provider's article list with the fixed
// country/language/limit filter, verbatim.
func (c *Client) LatestArticles(ctx context.Context) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("countries", c.countries)
	params.Set("filter_entities", "true")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("language", c.language)
	params.Set("api_token", c.apiKey)

	reqURL := fmt.Sprintf("%s/v1/news/all?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("countries", c.countries).Int("limit", c.limit).Msg("Marketaux API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var envelope newsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return envelope.Data, nil
}

// Ensure Client implements NewsClient
var _ interfaces.NewsClient = (*Client)(nil)
