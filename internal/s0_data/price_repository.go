package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: 日價格資料存取只在這裡
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveBatch upserts daily prices (bulk, one transaction)
func (r *PriceRepository) SaveBatch(ctx context.Context, prices []contracts.DailyPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO data.daily_prices (
			stock_code, trade_date, open_price, high_price, low_price,
			close_price, volume, trading_value, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			trading_value = EXCLUDED.trading_value,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query, p.Code, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, p.Value)
	}

	return sendBatch(ctx, r.pool, batch, "daily_prices")
}

// LoadRange retrieves every instrument's prices within [from, to], ordered by date
func (r *PriceRepository) LoadRange(ctx context.Context, from, to time.Time) ([]contracts.DailyPrice, error) {
	query := `
		SELECT p.stock_code, p.trade_date, p.open_price, p.high_price, p.low_price,
		       p.close_price, p.volume, p.trading_value
		FROM data.daily_prices p
		JOIN data.stocks s ON s.code = p.stock_code
		WHERE s.active AND p.trade_date BETWEEN $1 AND $2
		ORDER BY p.trade_date, p.stock_code
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var prices []contracts.DailyPrice
	for rows.Next() {
		var p contracts.DailyPrice
		if err := rows.Scan(&p.Code, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.Value); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return prices, nil
}

// LatestDate returns the most recent stored trading date.
// Returns contracts.ErrInputUnavailable when the table is empty.
func (r *PriceRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(trade_date) FROM data.daily_prices`).Scan(&latest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("query latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, fmt.Errorf("no stored prices: %w", contracts.ErrInputUnavailable)
	}
	return *latest, nil
}
