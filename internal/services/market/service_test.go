package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/models"
)

// mockClient implements MarketDataClient with overridable functions.
type mockClient struct {
	getSnapshotFunc func(ctx context.Context, symbol string) (models.UpstreamRecord, error)
	getChartFunc    func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error)
}

func (m *mockClient) GetSnapshot(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
	return m.getSnapshotFunc(ctx, symbol)
}

func (m *mockClient) GetChart(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
	return m.getChartFunc(ctx, symbol, rng, withDividends)
}

func f(v float64) *float64 { return &v }

// barsFor builds n daily bars ending today.
func barsFor(n int, close float64) []models.PriceBar {
	bars := make([]models.PriceBar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, models.PriceBar{
			Date:  time.Now().UTC().AddDate(0, 0, i-n),
			Close: f(close),
		})
	}
	return bars
}

func validChart(rng string) *models.ChartData {
	return &models.ChartData{Bars: barsFor(5, 100)}
}

func newTestService(client *mockClient) *Service {
	return NewService(client, common.NewSilentLogger())
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
	assert.Equal(t, "MC.PA", NormalizeSymbol("mc.pa"))
}

func TestGetSnapshotUnknownSymbol(t *testing.T) {
	client := &mockClient{
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			return &models.ChartData{}, nil // no bars: symbol unknown
		},
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			t.Fatal("snapshot must not be fetched for unknown symbols")
			return nil, nil
		},
	}

	_, err := newTestService(client).GetSnapshot(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetSnapshotFallbacks(t *testing.T) {
	client := &mockClient{
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			assert.Equal(t, "1d", rng)
			return validChart(rng), nil
		},
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			assert.Equal(t, "AAPL", symbol, "symbol is normalized before the upstream call")
			return models.UpstreamRecord{
				"longName":      "Apple Inc.",
				"symbol":        "AAPL",
				"previousClose": 150.0,
				"trailingPE":    28.5,
			}, nil
		},
	}

	snap, err := newTestService(client).GetSnapshot(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", snap.Name)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, "N/A", snap.Sector, "missing sector falls back to N/A")
	assert.Equal(t, "N/A", snap.Country)
	require.NotNil(t, snap.Price)
	assert.Equal(t, 150.0, *snap.Price)
	require.NotNil(t, snap.PERatio)
	assert.Equal(t, 28.5, *snap.PERatio)
	assert.Nil(t, snap.Revenue)
	assert.Nil(t, snap.ROE)
	assert.Empty(t, snap.AnalysisComment, "comment is attached by the handler, not the service")
}

func TestGetSnapshotNameFallsBackToSymbol(t *testing.T) {
	client := &mockClient{
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			return validChart(rng), nil
		},
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			return models.UpstreamRecord{"currentPrice": 10.0}, nil
		},
	}

	snap, err := newTestService(client).GetSnapshot(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", snap.Name)
	assert.Equal(t, "XYZ", snap.Symbol)
}

func TestGetHistoryZeroFillsMissingCloses(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	client := &mockClient{
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			if rng == "1d" {
				return validChart(rng), nil
			}
			assert.Equal(t, "1y", rng)
			return &models.ChartData{Bars: []models.PriceBar{
				{Date: day, Close: f(100)},
				{Date: day.AddDate(0, 0, 1), Close: nil},
				{Date: day.AddDate(0, 0, 2), Close: f(102)},
			}}, nil
		},
	}

	series, err := newTestService(client).GetHistory(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, series.Dates, 3)
	require.Len(t, series.Prices, 3, "dates and prices stay index-aligned")
	assert.Equal(t, "2026-03-02", series.Dates[0])
	assert.Equal(t, []float64{100, 0, 102}, series.Prices)
}

func TestGetAdvancedMetrics(t *testing.T) {
	client := &mockClient{
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			return validChart(rng), nil
		},
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			return models.UpstreamRecord{
				"currentRatio":                         1.1,
				"debtToEquity":                         140.0,
				"Total Cash From Operating Activities": 110e9,
				"Capital Expenditures":                 -10e9,
			}, nil
		},
	}

	metrics, err := newTestService(client).GetAdvancedMetrics(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, metrics.CurrentRatio)
	assert.Equal(t, 1.1, *metrics.CurrentRatio)
	require.NotNil(t, metrics.DebtToEquity)
	assert.Equal(t, 140.0, *metrics.DebtToEquity)
	require.NotNil(t, metrics.FreeCashFlow)
	assert.Equal(t, 100e9, *metrics.FreeCashFlow)
	assert.Nil(t, metrics.QuickRatio)
	assert.Nil(t, metrics.InterestCoverage)
	assert.Nil(t, metrics.DividendYield)
}

func TestGetDividendsTrailingWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	client := &mockClient{
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			return models.UpstreamRecord{
				"dividendRate": 0.96,
				"payoutRatio":  0.15,
			}, nil
		},
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			if rng == "1d" {
				return validChart(rng), nil
			}
			assert.Equal(t, "5y", rng)
			assert.True(t, withDividends)
			return &models.ChartData{Dividends: []models.DividendEvent{
				{Date: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 0.20}, // before cutoff
				{Date: time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 0.22},
				{Date: time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC), Amount: 0.23},
				// 2023, 2024 pay nothing
				{Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Amount: 0.25},
				{Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 0.26},
			}}, nil
		},
	}

	svc := newTestService(client)
	svc.now = func() time.Time { return now }

	report, err := svc.GetDividends(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, report.DividendRate)
	assert.Equal(t, 0.96, *report.DividendRate)
	require.NotNil(t, report.PayoutRatio)
	assert.Equal(t, 0.15, *report.PayoutRatio)

	// Years ascend, events per year are summed, payless years are absent
	assert.Equal(t, []int{2022, 2025, 2026}, report.DividendHistory.Years)
	require.Len(t, report.DividendHistory.Amounts, 3)
	assert.InDelta(t, 0.45, report.DividendHistory.Amounts[0], 1e-9)
	assert.InDelta(t, 0.25, report.DividendHistory.Amounts[1], 1e-9)
	assert.InDelta(t, 0.26, report.DividendHistory.Amounts[2], 1e-9)
}

func TestGetDividendsEmptyHistory(t *testing.T) {
	client := &mockClient{
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			return models.UpstreamRecord{}, nil
		},
		getChartFunc: func(ctx context.Context, symbol, rng string, withDividends bool) (*models.ChartData, error) {
			if rng == "1d" {
				return validChart(rng), nil
			}
			return &models.ChartData{}, nil
		},
	}

	report, err := newTestService(client).GetDividends(context.Background(), "GOOG")
	require.NoError(t, err)
	assert.Nil(t, report.DividendRate)
	assert.Nil(t, report.PayoutRatio)
	assert.Empty(t, report.DividendHistory.Years)
	assert.Empty(t, report.DividendHistory.Amounts)
}

// screenerRecords keys the full universe to plausible records for filter tests.
func screenerRecords() map[string]models.UpstreamRecord {
	recs := map[string]models.UpstreamRecord{}
	for _, sym := range models.ScreenerUniverse {
		recs[sym] = models.UpstreamRecord{
			"longName":      sym + " Inc.",
			"symbol":        sym,
			"sector":        "Technology",
			"trailingPE":    30.0,
			"dividendYield": 0.01,
		}
	}
	return recs
}

func TestScreenNoFilters(t *testing.T) {
	recs := screenerRecords()
	client := &mockClient{
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			return recs[symbol], nil
		},
	}

	results := newTestService(client).Screen(context.Background(), models.ScreenerFilter{})
	require.Len(t, results, len(models.ScreenerUniverse))

	// Input-list order is preserved despite the concurrent fan-out
	for i, entry := range results {
		assert.Equal(t, models.ScreenerUniverse[i], entry.Symbol)
	}
}

func TestScreenFilters(t *testing.T) {
	recs := screenerRecords()
	recs["AAPL"]["trailingPE"] = 25.0
	recs["MSFT"]["sector"] = "Software"
	delete(recs["GOOGL"], "trailingPE")      // missing PE fails any ceiling
	delete(recs["AMZN"], "dividendYield")    // missing yield counts as zero
	delete(recs["TSLA"], "longName")         // no display name: dead ticker
	recs["JPM"]["dividendYield"] = 0.025

	client := &mockClient{
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			return recs[symbol], nil
		},
	}
	svc := newTestService(client)

	t.Run("pe ceiling", func(t *testing.T) {
		results := svc.Screen(context.Background(), models.ScreenerFilter{PEMax: f(26)})
		require.Len(t, results, 1)
		assert.Equal(t, "AAPL", results[0].Symbol)
	})

	t.Run("sector equality", func(t *testing.T) {
		results := svc.Screen(context.Background(), models.ScreenerFilter{Sector: "Software"})
		require.Len(t, results, 1)
		assert.Equal(t, "MSFT", results[0].Symbol)
	})

	t.Run("dividend floor is a percentage", func(t *testing.T) {
		// 2 means 2%, i.e. a 0.02 yield floor; only JPM clears it
		results := svc.Screen(context.Background(), models.ScreenerFilter{DividendMin: f(2)})
		require.Len(t, results, 1)
		assert.Equal(t, "JPM", results[0].Symbol)
	})

	t.Run("zero floor keeps missing yields", func(t *testing.T) {
		results := svc.Screen(context.Background(), models.ScreenerFilter{DividendMin: f(0)})
		// Everyone except the dead ticker passes a zero floor
		assert.Len(t, results, len(models.ScreenerUniverse)-1)
	})

	t.Run("dead ticker always skipped", func(t *testing.T) {
		results := svc.Screen(context.Background(), models.ScreenerFilter{})
		for _, entry := range results {
			assert.NotEqual(t, "TSLA", entry.Symbol)
		}
	})
}

func TestScreenSwallowsUpstreamFaults(t *testing.T) {
	recs := screenerRecords()
	var mu sync.Mutex
	calls := 0

	client := &mockClient{
		getSnapshotFunc: func(ctx context.Context, symbol string) (models.UpstreamRecord, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			if symbol == "XOM" || symbol == "NVDA" {
				return nil, errors.New("upstream timeout")
			}
			return recs[symbol], nil
		},
	}

	results := newTestService(client).Screen(context.Background(), models.ScreenerFilter{})

	assert.Equal(t, len(models.ScreenerUniverse), calls, "every symbol is attempted")
	assert.Len(t, results, len(models.ScreenerUniverse)-2, "failed symbols are skipped, not fatal")
	for _, entry := range results {
		assert.NotEqual(t, "XOM", entry.Symbol)
		assert.NotEqual(t, "NVDA", entry.Symbol)
	}
}
