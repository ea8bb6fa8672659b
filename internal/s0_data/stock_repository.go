package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
)

// StockRepository implements contracts.StockRepository
// ⭐ SSOT: 股票主檔存取只在這裡
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new stock repository
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// ListActive retrieves all active stocks ordered by code
func (r *StockRepository) ListActive(ctx context.Context) ([]contracts.Stock, error) {
	query := `
		SELECT code, name, market, industry, active
		FROM data.stocks
		WHERE active
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active stocks: %w", err)
	}
	defer rows.Close()

	var stocks []contracts.Stock
	for rows.Next() {
		var s contracts.Stock
		if err := rows.Scan(&s.Code, &s.Name, &s.Market, &s.Industry, &s.Active); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stocks, nil
}

// UpsertBatch inserts or refreshes stocks in one transaction
func (r *StockRepository) UpsertBatch(ctx context.Context, stocks []contracts.Stock) (int, error) {
	if len(stocks) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO data.stocks (code, name, market, industry, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			market = EXCLUDED.market,
			industry = COALESCE(NULLIF(EXCLUDED.industry, ''), data.stocks.industry),
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, s := range stocks {
		batch.Queue(query, s.Code, s.Name, s.Market, s.Industry, s.Active)
	}

	return sendBatch(ctx, r.pool, batch, "stocks")
}

// sendBatch runs a queued batch inside a transaction and returns the
// number of statements applied
func sendBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch, table string) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert %s row %d: %w", table, i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return batch.Len(), nil
}
