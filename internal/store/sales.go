package store

import (
	"context"
	"database/sql"
	"time"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertSaleTx persists a sale aggregate inside a transaction
func (s *Store) InsertSaleTx(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, retailer_id, total_amount, created_at)
		VALUES ($1, $2, $3, $4)`,
		sale.ID, sale.RetailerID, sale.TotalAmount, sale.CreatedAt)
	return err
}

// InsertSaleItemTx persists one sale line inside a transaction
func (s *Store) InsertSaleItemTx(ctx context.Context, tx *sqlx.Tx, item *models.SaleItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sale_items (id, sale_id, product_id, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.SaleID, item.ProductID, item.Quantity, item.LineTotal)
	return err
}

// GetSaleByID retrieves a sale with its items
func (s *Store) GetSaleByID(ctx context.Context, saleID int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale, "SELECT * FROM sales WHERE id = $1", saleID)
	if err == sql.ErrNoRows {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &sale.Items,
		"SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id", saleID)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleForUpdateTx locks and retrieves a sale with its items, so a reversal
// cannot race another reversal of the same sale.
func (s *Store) GetSaleForUpdateTx(ctx context.Context, tx *sqlx.Tx, saleID int64) (*models.Sale, error) {
	var sale models.Sale
	err := tx.GetContext(ctx, &sale, "SELECT * FROM sales WHERE id = $1 FOR UPDATE", saleID)
	if err == sql.ErrNoRows {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}

	err = tx.SelectContext(ctx, &sale.Items,
		"SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id", saleID)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeleteSaleTx removes a sale and its items inside a transaction
func (s *Store) DeleteSaleTx(ctx context.Context, tx *sqlx.Tx, saleID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM sale_items WHERE sale_id = $1", saleID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", saleID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSaleNotFound
	}
	return nil
}

// GetSalesInRange retrieves sales filtered by date range and optionally by
// retailer, newest first, items included.
func (s *Store) GetSalesInRange(ctx context.Context, from, to time.Time, retailerID int64) ([]models.Sale, error) {
	query := "SELECT * FROM sales WHERE created_at >= $1 AND created_at <= $2"
	args := []interface{}{from, to}
	if retailerID != 0 {
		query += " AND retailer_id = $3"
		args = append(args, retailerID)
	}
	query += " ORDER BY created_at DESC"

	var sales []models.Sale
	if err := s.db.SelectContext(ctx, &sales, query, args...); err != nil {
		return nil, err
	}

	for i := range sales {
		err := s.db.SelectContext(ctx, &sales[i].Items,
			"SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id", sales[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return sales, nil
}
