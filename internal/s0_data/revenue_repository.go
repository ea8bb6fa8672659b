package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
)

// RevenueRepository implements contracts.RevenueRepository
// ⭐ SSOT: 月營收存取只在這裡
type RevenueRepository struct {
	pool *pgxpool.Pool
}

// NewRevenueRepository creates a new revenue repository
func NewRevenueRepository(pool *pgxpool.Pool) *RevenueRepository {
	return &RevenueRepository{pool: pool}
}

// SaveBatch upserts monthly revenue rows
func (r *RevenueRepository) SaveBatch(ctx context.Context, revenues []contracts.MonthlyRevenue) (int, error) {
	if len(revenues) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO data.monthly_revenue (stock_code, revenue_month, revenue, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (stock_code, revenue_month) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, rev := range revenues {
		batch.Queue(query, rev.Code, rev.Month, rev.Revenue)
	}

	return sendBatch(ctx, r.pool, batch, "monthly_revenue")
}

// LoadRange retrieves revenue for months in [fromMonth, toMonth]
func (r *RevenueRepository) LoadRange(ctx context.Context, fromMonth, toMonth time.Time) ([]contracts.MonthlyRevenue, error) {
	query := `
		SELECT stock_code, revenue_month, revenue
		FROM data.monthly_revenue
		WHERE revenue_month BETWEEN $1 AND $2
		ORDER BY revenue_month, stock_code
	`

	rows, err := r.pool.Query(ctx, query, fromMonth, toMonth)
	if err != nil {
		return nil, fmt.Errorf("query revenue: %w", err)
	}
	defer rows.Close()

	var revenues []contracts.MonthlyRevenue
	for rows.Next() {
		var rev contracts.MonthlyRevenue
		if err := rows.Scan(&rev.Code, &rev.Month, &rev.Revenue); err != nil {
			return nil, fmt.Errorf("scan revenue: %w", err)
		}
		revenues = append(revenues, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return revenues, nil
}
