package store

import (
	"context"
	"database/sql"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// fefoOrder sorts soonest-to-expire first, never-expiring batches last, oldest
// arrival breaking ties.
const fefoOrder = "ORDER BY expiration_date ASC NULLS LAST, added_at ASC, id ASC"

// GetBatchesByProduct retrieves a product's batches in FEFO order
func (s *Store) GetBatchesByProduct(ctx context.Context, productID int64) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	err := s.db.SelectContext(ctx, &batches,
		"SELECT * FROM stock_batches WHERE product_id = $1 "+fefoOrder, productID)
	return batches, err
}

// GetBatchesForUpdateTx locks and retrieves a product's batches in FEFO order.
// The row locks are held until the surrounding transaction ends, so concurrent
// sales touching the same product serialize here.
func (s *Store) GetBatchesForUpdateTx(ctx context.Context, tx *sqlx.Tx, productID int64) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	err := tx.SelectContext(ctx, &batches,
		"SELECT * FROM stock_batches WHERE product_id = $1 "+fefoOrder+" FOR UPDATE", productID)
	return batches, err
}

// GetBatchByID retrieves a single batch
func (s *Store) GetBatchByID(ctx context.Context, batchID int64) (*models.StockBatch, error) {
	var batch models.StockBatch
	err := s.db.GetContext(ctx, &batch, "SELECT * FROM stock_batches WHERE id = $1", batchID)
	if err == sql.ErrNoRows {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// TotalStock sums all batch quantities for a product
func (s *Store) TotalStock(ctx context.Context, productID int64) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(quantity), 0) FROM stock_batches WHERE product_id = $1", productID)
	return total, err
}

// InsertBatch inserts a new stock batch
func (s *Store) InsertBatch(ctx context.Context, batch *models.StockBatch) error {
	query := `
		INSERT INTO stock_batches (id, product_id, quantity, expiration_date, added_at, added_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING added_at`

	return s.db.GetContext(ctx, &batch.AddedAt, query,
		batch.ID, batch.ProductID, batch.Quantity, batch.ExpirationDate,
		batch.AddedAt, batch.AddedBy, batch.Reason)
}

// InsertBatchTx inserts a new stock batch inside a transaction
func (s *Store) InsertBatchTx(ctx context.Context, tx *sqlx.Tx, batch *models.StockBatch) error {
	query := `
		INSERT INTO stock_batches (id, product_id, quantity, expiration_date, added_at, added_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING added_at`

	return tx.GetContext(ctx, &batch.AddedAt, query,
		batch.ID, batch.ProductID, batch.Quantity, batch.ExpirationDate,
		batch.AddedAt, batch.AddedBy, batch.Reason)
}

// SetBatchQuantityTx writes a batch's quantity inside a transaction
func (s *Store) SetBatchQuantityTx(ctx context.Context, tx *sqlx.Tx, batchID int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE stock_batches SET quantity = $1 WHERE id = $2", quantity, batchID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBatchNotFound
	}
	return nil
}

// ReduceBatchQuantity subtracts from a batch, refusing to go below zero. The
// WHERE guard makes the check-and-write a single atomic statement. Callers
// must verify the batch exists first; no matching row here means the remaining
// quantity was too low.
func (s *Store) ReduceBatchQuantity(ctx context.Context, batchID int64, qty int, reason string) (*models.StockBatch, error) {
	var batch models.StockBatch
	err := s.db.GetContext(ctx, &batch, `
		UPDATE stock_batches
		SET quantity = quantity - $1, reason = $2
		WHERE id = $3 AND quantity >= $1
		RETURNING *`,
		qty, reason, batchID)
	if err == sql.ErrNoRows {
		return nil, ErrReduceBelowZero
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// DeleteBatch removes a batch entirely
func (s *Store) DeleteBatch(ctx context.Context, batchID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM stock_batches WHERE id = $1", batchID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBatchNotFound
	}
	return nil
}
