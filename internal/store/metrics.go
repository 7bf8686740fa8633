package store

import (
	"context"
	"database/sql"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetMetricsByRetailer retrieves a retailer's metrics record
func (s *Store) GetMetricsByRetailer(ctx context.Context, retailerID int64) (*models.RetailerMetrics, error) {
	var m models.RetailerMetrics
	err := s.db.GetContext(ctx, &m,
		"SELECT * FROM retailer_metrics WHERE retailer_id = $1", retailerID)
	if err == sql.ErrNoRows {
		return nil, ErrMetricsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMetricsForUpdateTx locks and retrieves a retailer's metrics record.
// Returns ErrMetricsNotFound for first-time retailers; callers create the
// record lazily.
func (s *Store) GetMetricsForUpdateTx(ctx context.Context, tx *sqlx.Tx, retailerID int64) (*models.RetailerMetrics, error) {
	var m models.RetailerMetrics
	err := tx.GetContext(ctx, &m,
		"SELECT * FROM retailer_metrics WHERE retailer_id = $1 FOR UPDATE", retailerID)
	if err == sql.ErrNoRows {
		return nil, ErrMetricsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertMetricsTx writes a retailer's metrics record inside a transaction
func (s *Store) UpsertMetricsTx(ctx context.Context, tx *sqlx.Tx, m *models.RetailerMetrics) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO retailer_metrics
			(retailer_id, daily_quota, sales_today, total_sales, total_transactions, last_sale_date, current_streak, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (retailer_id) DO UPDATE SET
			daily_quota = EXCLUDED.daily_quota,
			sales_today = EXCLUDED.sales_today,
			total_sales = EXCLUDED.total_sales,
			total_transactions = EXCLUDED.total_transactions,
			last_sale_date = EXCLUDED.last_sale_date,
			current_streak = EXCLUDED.current_streak,
			updated_at = NOW()`,
		m.RetailerID, m.DailyQuota, m.SalesToday, m.TotalSales,
		m.TotalTransactions, m.LastSaleDate, m.CurrentStreak)
	return err
}

// ListRetailerIDs returns every retailer with a metrics record
func (s *Store) ListRetailerIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT retailer_id FROM retailer_metrics ORDER BY retailer_id")
	return ids, err
}

// GetLeaderboard returns top retailers by streak, then lifetime sales
func (s *Store) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT retailer_id, current_streak, sales_today, total_sales, total_transactions
		FROM retailer_metrics
		ORDER BY current_streak DESC, total_sales DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
