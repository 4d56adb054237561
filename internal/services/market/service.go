// Package market orchestrates market-data lookups and normalization
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
	"github.com/finanalyse/finanalyse/internal/models"
	"github.com/finanalyse/finanalyse/internal/normalize"
)

// screenConcurrency bounds the screener's upstream fan-out.
const screenConcurrency = 5

// Service implements MarketService on top of a MarketDataClient.
type Service struct {
	client interfaces.MarketDataClient
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new market service.
func NewService(client interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// NormalizeSymbol uppercases and trims a client-supplied ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ensureKnown applies the single validity check: a symbol is known iff the
// provider returns at least one recent daily price bar. Applied before any
// other processing so unknown tickers map to NotFound, not to zero values.
func (s *Service) ensureKnown(ctx context.Context, symbol string) error {
	chart, err := s.client.GetChart(ctx, symbol, "1d", false)
	if err != nil {
		return fmt.Errorf("price history check for %s: %w", symbol, err)
	}
	if len(chart.Bars) == 0 {
		return fmt.Errorf("symbol %s has no recent price data: %w", symbol, models.ErrNotFound)
	}
	return nil
}

// GetSnapshot returns the normalized company snapshot.
func (s *Service) GetSnapshot(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	symbol = NormalizeSymbol(symbol)

	if err := s.ensureKnown(ctx, symbol); err != nil {
		return nil, err
	}

	rec, err := s.client.GetSnapshot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("snapshot for %s: %w", symbol, err)
	}

	fields := normalize.Apply(rec, normalize.SnapshotChains)

	return &models.QuoteSnapshot{
		Name:          normalize.Text(rec, "longName", symbol),
		Symbol:        normalize.Text(rec, "symbol", symbol),
		Sector:        normalize.Text(rec, "sector", "N/A"),
		Country:       normalize.Text(rec, "country", "N/A"),
		Price:         fields["price"],
		Revenue:       fields["revenue"],
		NetIncome:     fields["netIncome"],
		PERatio:       fields["peRatio"],
		ROE:           fields["roe"],
		NetMargin:     fields["netMargin"],
		DividendYield: fields["dividendYield"],
	}, nil
}

// GetHistory returns one year of daily closes. Missing closes become 0, not
// null; the zero-fill is a deliberate product choice for chart renderers.
func (s *Service) GetHistory(ctx context.Context, symbol string) (*models.HistorySeries, error) {
	symbol = NormalizeSymbol(symbol)

	if err := s.ensureKnown(ctx, symbol); err != nil {
		return nil, err
	}

	chart, err := s.client.GetChart(ctx, symbol, "1y", false)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", symbol, err)
	}

	series := &models.HistorySeries{
		Dates:  make([]string, 0, len(chart.Bars)),
		Prices: make([]float64, 0, len(chart.Bars)),
	}
	for _, bar := range chart.Bars {
		series.Dates = append(series.Dates, bar.Date.Format("2006-01-02"))
		if bar.Close != nil {
			series.Prices = append(series.Prices, *bar.Close)
		} else {
			series.Prices = append(series.Prices, 0)
		}
	}

	return series, nil
}

// GetAdvancedMetrics returns the advanced ratio metrics.
func (s *Service) GetAdvancedMetrics(ctx context.Context, symbol string) (*models.AdvancedMetrics, error) {
	symbol = NormalizeSymbol(symbol)

	if err := s.ensureKnown(ctx, symbol); err != nil {
		return nil, err
	}

	rec, err := s.client.GetSnapshot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("metrics for %s: %w", symbol, err)
	}

	fields := normalize.Apply(rec, normalize.MetricsChains)

	return &models.AdvancedMetrics{
		CurrentRatio:     fields["currentRatio"],
		QuickRatio:       fields["quickRatio"],
		DebtToEquity:     fields["debtToEquity"],
		InterestCoverage: fields["interestCoverage"],
		FreeCashFlow:     fields["freeCashFlow"],
		DividendYield:    fields["dividendYield"],
	}, nil
}

// GetDividends returns the trailing five-year dividend report. Years without
// dividend events are absent from the mapping, not zero-filled.
func (s *Service) GetDividends(ctx context.Context, symbol string) (*models.DividendReport, error) {
	symbol = NormalizeSymbol(symbol)

	if err := s.ensureKnown(ctx, symbol); err != nil {
		return nil, err
	}

	rec, err := s.client.GetSnapshot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("dividend snapshot for %s: %w", symbol, err)
	}

	chart, err := s.client.GetChart(ctx, symbol, "5y", true)
	if err != nil {
		return nil, fmt.Errorf("dividend history for %s: %w", symbol, err)
	}

	cutoff := s.now().AddDate(-5, 0, 0)
	byYear := map[int]float64{}
	for _, div := range chart.Dividends {
		if div.Date.Before(cutoff) {
			continue
		}
		byYear[div.Date.Year()] += div.Amount
	}

	history := models.DividendHistory{
		Years:   make([]int, 0, len(byYear)),
		Amounts: make([]float64, 0, len(byYear)),
	}
	for year := cutoff.Year(); year <= s.now().Year(); year++ {
		if amount, ok := byYear[year]; ok {
			history.Years = append(history.Years, year)
			history.Amounts = append(history.Amounts, amount)
		}
	}

	return &models.DividendReport{
		DividendRate:    normalize.Number(rec, "dividendRate"),
		PayoutRatio:     normalize.Number(rec, "payoutRatio"),
		DividendHistory: history,
	}, nil
}

// Screen iterates the fixed symbol universe concurrently and applies the
// filters in order: sector equality, PE ceiling (missing PE always fails the
// ceiling), dividend floor (missing yield counts as 0). Per-symbol faults are
// swallowed; input-list order is preserved in the result.
func (s *Service) Screen(ctx context.Context, filter models.ScreenerFilter) []models.ScreenerEntry {
	slots := make([]*models.ScreenerEntry, len(models.ScreenerUniverse))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(screenConcurrency)

	for i, symbol := range models.ScreenerUniverse {
		g.Go(func() error {
			rec, err := s.client.GetSnapshot(gctx, symbol)
			if err != nil {
				s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Screener skipping symbol after upstream fault")
				return nil
			}
			slots[i] = s.screenOne(symbol, rec, filter)
			return nil
		})
	}
	g.Wait()

	results := make([]models.ScreenerEntry, 0, len(slots))
	for _, entry := range slots {
		if entry != nil {
			results = append(results, *entry)
		}
	}
	return results
}

// screenOne applies the filters to one symbol's record. Returns nil when the
// symbol is skipped or filtered out.
func (s *Service) screenOne(symbol string, rec models.UpstreamRecord, filter models.ScreenerFilter) *models.ScreenerEntry {
	// Records without a display name are dead tickers
	name := normalize.Text(rec, "longName", "")
	if name == "" {
		return nil
	}

	pe := normalize.Number(rec, "trailingPE")
	yield := normalize.Number(rec, "dividendYield")

	if filter.Sector != "" && normalize.Text(rec, "sector", "") != filter.Sector {
		return nil
	}

	if filter.PEMax != nil {
		// A missing PE always fails the ceiling check
		if pe == nil || *pe > *filter.PEMax {
			return nil
		}
	}

	if filter.DividendMin != nil {
		floor := *filter.DividendMin / 100
		y := 0.0
		if yield != nil {
			y = *yield
		}
		if y < floor {
			return nil
		}
	}

	return &models.ScreenerEntry{
		Symbol:        normalize.Text(rec, "symbol", symbol),
		Name:          name,
		PE:            pe,
		DividendYield: yield,
	}
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
