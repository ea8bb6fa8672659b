package collector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/external/mops"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

type fakePriceFetcher struct {
	mu    sync.Mutex
	calls map[string][]time.Time
	fail  map[string]bool
}

func (f *fakePriceFetcher) FetchMonth(_ context.Context, stock contracts.Stock, m time.Time) ([]contracts.DailyPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string][]time.Time{}
	}
	f.calls[stock.Code] = append(f.calls[stock.Code], m)
	if f.fail[stock.Code] {
		return nil, errors.New("503")
	}
	return []contracts.DailyPrice{
		{Code: stock.Code, Date: m.AddDate(0, 0, 1), Close: 100},
		{Code: stock.Code, Date: m.AddDate(0, 0, 2), Close: 101},
	}, nil
}

type fakeRevenueFetcher struct {
	fail map[string]bool
}

func (f *fakeRevenueFetcher) FetchMonthlyRevenue(_ context.Context, segment string, m time.Time) ([]mops.RevenueReport, error) {
	if f.fail[segment] {
		return nil, errors.New("timeout")
	}
	code := "2330"
	if segment == mops.SegmentOTC {
		code = "6488"
	}
	return []mops.RevenueReport{{
		Stock:   contracts.Stock{Code: code, Name: "n" + code, Market: mops.MarketOf(segment)},
		Revenue: contracts.MonthlyRevenue{Code: code, Month: m, Revenue: 1000},
	}}, nil
}

type memStocks struct {
	mu     sync.Mutex
	stocks []contracts.Stock
}

func (m *memStocks) ListActive(context.Context) ([]contracts.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contracts.Stock(nil), m.stocks...), nil
}

func (m *memStocks) UpsertBatch(_ context.Context, stocks []contracts.Stock) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks = append(m.stocks, stocks...)
	return len(stocks), nil
}

type memPrices struct {
	mu   sync.Mutex
	rows []contracts.DailyPrice
}

func (m *memPrices) SaveBatch(_ context.Context, prices []contracts.DailyPrice) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, prices...)
	return len(prices), nil
}

func (m *memPrices) LoadRange(context.Context, time.Time, time.Time) ([]contracts.DailyPrice, error) {
	return m.rows, nil
}

func (m *memPrices) LatestDate(context.Context) (time.Time, error) {
	return time.Time{}, contracts.ErrInputUnavailable
}

type memRevenue struct {
	rows []contracts.MonthlyRevenue
}

func (m *memRevenue) SaveBatch(_ context.Context, revenues []contracts.MonthlyRevenue) (int, error) {
	m.rows = append(m.rows, revenues...)
	return len(revenues), nil
}

func (m *memRevenue) LoadRange(context.Context, time.Time, time.Time) ([]contracts.MonthlyRevenue, error) {
	return m.rows, nil
}

type fixture struct {
	prices   *fakePriceFetcher
	revenues *fakeRevenueFetcher
	stocks   *memStocks
	priceDB  *memPrices
	revDB    *memRevenue
	c        *Collector
}

func newFixture(stocks ...string) *fixture {
	f := &fixture{
		prices:   &fakePriceFetcher{fail: map[string]bool{}},
		revenues: &fakeRevenueFetcher{fail: map[string]bool{}},
		stocks:   &memStocks{},
		priceDB:  &memPrices{},
		revDB:    &memRevenue{},
	}
	for _, code := range stocks {
		f.stocks.stocks = append(f.stocks.stocks, contracts.Stock{Code: code, Active: true})
	}
	f.c = NewCollector(f.prices, f.revenues,
		Repositories{Stocks: f.stocks, Prices: f.priceDB, Revenues: f.revDB},
		[]string{mops.SegmentListed, mops.SegmentOTC}, nil, logger.Nop())
	return f
}

func TestMonths(t *testing.T) {
	asOf := time.Date(2025, 2, 18, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, []time.Time{month(2025, 2)}, Months(asOf, 0))
	assert.Equal(t, []time.Time{month(2024, 12), month(2025, 1), month(2025, 2)}, Months(asOf, 3))
}

func TestCollectPrices(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		f := newFixture("2330", "2317", "6488")
		f.prices.fail["2317"] = true

		results, err := f.c.CollectPrices(context.Background(), Months(month(2025, 2), 2), Config{Workers: workers})
		require.NoError(t, err)
		require.Len(t, results, 3)

		sort.Slice(results, func(i, j int) bool { return results[i].StockCode < results[j].StockCode })
		assert.Error(t, results[0].Error, "2317")
		assert.Equal(t, 4, results[1].PriceCount)
		assert.Equal(t, 4, results[2].PriceCount)

		assert.Len(t, f.priceDB.rows, 8)
		assert.Equal(t, []time.Time{month(2025, 1), month(2025, 2)}, f.prices.calls["2330"])
		// failure stops the stock after its first month
		assert.Len(t, f.prices.calls["2317"], 1)
	}
}

func TestCollectPrices_NoStocks(t *testing.T) {
	f := newFixture()

	_, err := f.c.CollectPrices(context.Background(), Months(month(2025, 2), 1), Config{Workers: 2})
	assert.ErrorIs(t, err, contracts.ErrInputUnavailable)
}

func TestCollectPrices_Cancelled(t *testing.T) {
	f := newFixture("2330", "2317")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.c.CollectPrices(ctx, Months(month(2025, 2), 1), Config{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.priceDB.rows)
}

func TestCollectRevenue(t *testing.T) {
	f := newFixture()

	saved, err := f.c.CollectRevenue(context.Background(), time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, saved)
	require.Len(t, f.stocks.stocks, 2)
	for _, s := range f.stocks.stocks {
		assert.True(t, s.Active, s.Code)
	}
	assert.Equal(t, contracts.MarketTPEx, f.stocks.stocks[1].Market)
	assert.Equal(t, month(2025, 1), f.revDB.rows[0].Month)
}

func TestCollectRevenue_PartialAndTotalFailure(t *testing.T) {
	f := newFixture()
	f.revenues.fail[mops.SegmentOTC] = true

	saved, err := f.c.CollectRevenue(context.Background(), month(2025, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	f.revenues.fail[mops.SegmentListed] = true
	_, err = f.c.CollectRevenue(context.Background(), month(2025, 1))
	assert.Error(t, err)
}

func TestCollectAll(t *testing.T) {
	f := newFixture()
	asOf := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	require.NoError(t, f.c.CollectAll(context.Background(), asOf, Config{Workers: 2}))

	// revenue of February is public on 3/14; its pages seed the stock master
	assert.Equal(t, month(2025, 2), f.revDB.rows[0].Month)
	assert.Len(t, f.priceDB.rows, 4)
	assert.Equal(t, []time.Time{month(2025, 3)}, f.prices.calls["6488"])
}

func TestCollectAll_AllPricesFail(t *testing.T) {
	f := newFixture()
	f.prices.fail["2330"] = true
	f.prices.fail["6488"] = true

	err := f.c.CollectAll(context.Background(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Config{Workers: 1})
	assert.Error(t, err)
}
