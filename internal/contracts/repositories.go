package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: repository interfaces are defined here only

// Market identifiers
const (
	MarketTWSE = "twse" // 上市
	MarketTPEx = "tpex" // 上櫃
)

// Stock is a listed instrument
type Stock struct {
	Code     string
	Name     string
	Market   string
	Industry string
	Active   bool
}

// StockRepository manages the instrument master
type StockRepository interface {
	ListActive(ctx context.Context) ([]Stock, error)
	UpsertBatch(ctx context.Context, stocks []Stock) (int, error)
}

// DailyPrice is one session of one instrument
type DailyPrice struct {
	Code   string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64 // shares
	Value  int64 // turnover, NTD
}

// PriceRepository manages daily price data
type PriceRepository interface {
	SaveBatch(ctx context.Context, prices []DailyPrice) (int, error)
	LoadRange(ctx context.Context, from, to time.Time) ([]DailyPrice, error)
	LatestDate(ctx context.Context) (time.Time, error)
}

// MonthlyRevenue is one reported month of one instrument
type MonthlyRevenue struct {
	Code    string
	Month   time.Time // first day of the reporting month
	Revenue int64     // thousand NTD
}

// RevenueRepository manages monthly revenue data
type RevenueRepository interface {
	SaveBatch(ctx context.Context, revenues []MonthlyRevenue) (int, error)
	LoadRange(ctx context.Context, fromMonth, toMonth time.Time) ([]MonthlyRevenue, error)
}
