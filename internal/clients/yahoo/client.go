// Package yahoo provides a client for the Yahoo Finance query API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
	"github.com/finanalyse/finanalyse/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// Yahoo rejects requests without a browser-like user agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// snapshotModules are the quoteSummary modules needed to assemble a full
// per-symbol record, including the statement tables the fallback chains read.
var snapshotModules = []string{
	"price",
	"summaryProfile",
	"summaryDetail",
	"financialData",
	"defaultKeyStatistics",
	"incomeStatementHistory",
	"cashflowStatementHistory",
}

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
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

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request. A 404 is reported via the
// notFound return instead of an error so callers can map it to empty data.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) (notFound bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return true, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return false, nil
}

// rawValue is Yahoo's {raw, fmt} numeric wrapper. Only raw is used.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

// quoteSummaryResponse mirrors the quoteSummary envelope for the modules in
// snapshotModules.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				Symbol    string `json:"symbol"`
			} `json:"price"`
			SummaryProfile struct {
				Sector  string `json:"sector"`
				Country string `json:"country"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				PreviousClose rawValue `json:"previousClose"`
				TrailingPE    rawValue `json:"trailingPE"`
				DividendYield rawValue `json:"dividendYield"`
				DividendRate  rawValue `json:"dividendRate"`
				PayoutRatio   rawValue `json:"payoutRatio"`
			} `json:"summaryDetail"`
			FinancialData struct {
				CurrentPrice     rawValue `json:"currentPrice"`
				TotalRevenue     rawValue `json:"totalRevenue"`
				ReturnOnEquity   rawValue `json:"returnOnEquity"`
				ProfitMargins    rawValue `json:"profitMargins"`
				CurrentRatio     rawValue `json:"currentRatio"`
				QuickRatio       rawValue `json:"quickRatio"`
				DebtToEquity     rawValue `json:"debtToEquity"`
				InterestCoverage rawValue `json:"interestCoverage"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				NetIncomeToCommon rawValue `json:"netIncomeToCommon"`
			} `json:"defaultKeyStatistics"`
			IncomeStatementHistory struct {
				Statements []struct {
					TotalRevenue rawValue `json:"totalRevenue"`
					NetIncome    rawValue `json:"netIncome"`
				} `json:"incomeStatementHistory"`
			} `json:"incomeStatementHistory"`
			CashflowStatementHistory struct {
				Statements []struct {
					TotalCashFromOperatingActivities rawValue `json:"totalCashFromOperatingActivities"`
					CapitalExpenditures              rawValue `json:"capitalExpenditures"`
				} `json:"cashflowStatements"`
			} `json:"cashflowStatementHistory"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"quoteSummary"`
}

type apiErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetSnapshot retrieves the flattened per-symbol record. Snapshot fields keep
// their provider camelCase names; the latest statement line items are exposed
// under their display names so the normalizer's fallback chains can prefer
// them.
func (c *Client) GetSnapshot(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
	params := url.Values{}
	params.Set("modules", strings.Join(snapshotModules, ","))

	path := fmt.Sprintf("/v10/finance/quoteSummary/%s", url.PathEscape(symbol))

	var resp quoteSummaryResponse
	notFound, err := c.get(ctx, path, params, &resp)
	if err != nil {
		return nil, err
	}
	if notFound || len(resp.QuoteSummary.Result) == 0 {
		if e := resp.QuoteSummary.Error; e != nil {
			c.logger.Debug().Str("symbol", symbol).Str("code", e.Code).Msg("quoteSummary returned error body")
		}
		return models.UpstreamRecord{}, nil
	}

	r := resp.QuoteSummary.Result[0]
	rec := models.UpstreamRecord{}

	putText(rec, "longName", r.Price.LongName)
	putText(rec, "shortName", r.Price.ShortName)
	putText(rec, "symbol", r.Price.Symbol)
	putText(rec, "sector", r.SummaryProfile.Sector)
	putText(rec, "country", r.SummaryProfile.Country)

	put(rec, "currentPrice", r.FinancialData.CurrentPrice)
	put(rec, "previousClose", r.SummaryDetail.PreviousClose)
	put(rec, "totalRevenue", r.FinancialData.TotalRevenue)
	put(rec, "netIncomeToCommon", r.DefaultKeyStatistics.NetIncomeToCommon)
	put(rec, "trailingPE", r.SummaryDetail.TrailingPE)
	put(rec, "returnOnEquity", r.FinancialData.ReturnOnEquity)
	put(rec, "profitMargins", r.FinancialData.ProfitMargins)
	put(rec, "dividendYield", r.SummaryDetail.DividendYield)
	put(rec, "dividendRate", r.SummaryDetail.DividendRate)
	put(rec, "payoutRatio", r.SummaryDetail.PayoutRatio)
	put(rec, "currentRatio", r.FinancialData.CurrentRatio)
	put(rec, "quickRatio", r.FinancialData.QuickRatio)
	put(rec, "debtToEquity", r.FinancialData.DebtToEquity)
	put(rec, "interestCoverage", r.FinancialData.InterestCoverage)

	// Latest annual statement line items, keyed by display name
	if len(r.IncomeStatementHistory.Statements) > 0 {
		latest := r.IncomeStatementHistory.Statements[0]
		put(rec, "Total Revenue", latest.TotalRevenue)
		put(rec, "Net Income", latest.NetIncome)
	}
	if len(r.CashflowStatementHistory.Statements) > 0 {
		latest := r.CashflowStatementHistory.Statements[0]
		put(rec, "Total Cash From Operating Activities", latest.TotalCashFromOperatingActivities)
		put(rec, "Capital Expenditures", latest.CapitalExpenditures)
	}

	return rec, nil
}

func put(rec models.UpstreamRecord, key string, v rawValue) {
	if v.Raw != nil {
		rec[key] = *v.Raw
	}
}

func putText(rec models.UpstreamRecord, key, value string) {
	if value != "" {
		rec[key] = value
	}
}

// chartResponse mirrors the v8 chart envelope.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *apiErrorBody `json:"error"`
	} `json:"chart"`
}

// GetChart retrieves daily bars for the named range. Unknown symbols come
// back as an empty ChartData, not an error; the caller decides what an empty
// history means.
func (c *Client) GetChart(ctx context.Context, symbol string, rng string, withDividends bool) (*models.ChartData, error) {
	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", "1d")
	if withDividends {
		params.Set("events", "div")
	}

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))

	var resp chartResponse
	notFound, err := c.get(ctx, path, params, &resp)
	if err != nil {
		return nil, err
	}
	if notFound || len(resp.Chart.Result) == 0 {
		return &models.ChartData{}, nil
	}

	r := resp.Chart.Result[0]

	data := &models.ChartData{
		Bars: make([]models.PriceBar, 0, len(r.Timestamp)),
	}

	var closes []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	for i, ts := range r.Timestamp {
		bar := models.PriceBar{Date: time.Unix(ts, 0).UTC()}
		if i < len(closes) {
			bar.Close = closes[i]
		}
		data.Bars = append(data.Bars, bar)
	}

	for _, div := range r.Events.Dividends {
		data.Dividends = append(data.Dividends, models.DividendEvent{
			Date:   time.Unix(div.Date, 0).UTC(),
			Amount: div.Amount,
		})
	}
	sort.Slice(data.Dividends, func(i, j int) bool {
		return data.Dividends[i].Date.Before(data.Dividends[j].Date)
	})

	return data, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
