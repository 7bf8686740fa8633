package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/redisclient"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const stockCacheTTL = 5 * time.Minute

// InventoryService owns the stock ledger: batch bookkeeping and FEFO
// deduction. All stock mutations in the system go through it.
type InventoryService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *InventoryService {
	return &InventoryService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// TotalStock returns the product's derived stock level: the sum of its batch
// quantities. Served from the Redis cache when possible.
func (is *InventoryService) TotalStock(ctx context.Context, productID int64) (int, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.TotalStock")
	defer span.End()

	if total, hit, err := is.redis.GetStockLevel(ctx, productID); err == nil && hit {
		return total, nil
	}

	if _, err := is.store.GetProductByID(ctx, productID); err != nil {
		return 0, err
	}

	total, err := is.store.TotalStock(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum batches for product %d: %w", productID, err)
	}

	if err := is.redis.SetStockLevel(ctx, productID, total, stockCacheTTL); err != nil {
		is.logger.Warn("Failed to cache stock level",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return total, nil
}

// StockStatus returns a product's derived stock level together with a
// low-stock flag against the product's minimum stock threshold.
func (is *InventoryService) StockStatus(ctx context.Context, productID int64) (int, bool, error) {
	product, err := is.store.GetProductByID(ctx, productID)
	if err != nil {
		return 0, false, err
	}

	total, err := is.TotalStock(ctx, productID)
	if err != nil {
		return 0, false, err
	}

	return total, product.BelowMinStock(total), nil
}

// EnsureAvailable checks that a product can cover qty without mutating
// anything. It always reads the database, not the cache.
func (is *InventoryService) EnsureAvailable(ctx context.Context, productID int64, qty int) error {
	product, err := is.store.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}

	available, err := is.store.TotalStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to sum batches for product %d: %w", productID, err)
	}

	if available < qty {
		return &InsufficientStockError{
			ProductID:   productID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   available,
		}
	}
	return nil
}

// DeductFEFO consumes qty units from a product's batches in FEFO order inside
// its own transaction. A failed deduction leaves every batch untouched.
func (is *InventoryService) DeductFEFO(ctx context.Context, productID int64, qty int) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.DeductFEFO")
	defer span.End()

	if qty <= 0 {
		return fmt.Errorf("%w: deduction quantity must be positive", ErrInvalidInput)
	}

	err := is.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return is.DeductFefoTx(ctx, tx, productID, qty)
	})
	if err != nil {
		return err
	}

	is.invalidateStock(ctx, productID)
	return nil
}

// DeductFefoTx runs the FEFO deduction inside an existing transaction, using
// the transaction's row locks. The plan is computed against the locked
// snapshot and applied only when it covers the full quantity, so the ledger
// can never be left partially deducted.
func (is *InventoryService) DeductFefoTx(ctx context.Context, tx *sqlx.Tx, productID int64, qty int) error {
	product, err := is.store.GetProductByIDTx(ctx, tx, productID)
	if err != nil {
		return err
	}

	batches, err := is.store.GetBatchesForUpdateTx(ctx, tx, productID)
	if err != nil {
		return fmt.Errorf("failed to lock batches for product %d: %w", productID, err)
	}

	plan, shortfall := planFefoDeduction(batches, qty)
	if shortfall > 0 {
		util.InsufficientStockTotal.Inc()
		return &InsufficientStockError{
			ProductID:   productID,
			ProductName: product.Name,
			Requested:   qty,
			Available:   totalQuantity(batches),
		}
	}

	for _, step := range plan {
		if err := is.store.SetBatchQuantityTx(ctx, tx, step.BatchID, step.NewQty); err != nil {
			return fmt.Errorf("failed to deduct %d from batch %d: %w", step.Take, step.BatchID, err)
		}
	}

	util.StockDeductionsTotal.Inc()
	return nil
}

// AddBatch appends a new stock batch; used for restocking and for
// compensating reversals. expiration may be nil for stock that never expires.
func (is *InventoryService) AddBatch(ctx context.Context, productID int64, qty int, expiration *time.Time, reason string, actorID int64) (*models.StockBatch, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AddBatch")
	defer span.End()

	if qty <= 0 {
		return nil, fmt.Errorf("%w: batch quantity must be positive", ErrInvalidInput)
	}

	if _, err := is.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	batchID, err := is.store.NextID(ctx, store.EntityTypeStockBatch)
	if err != nil {
		return nil, err
	}

	batch := &models.StockBatch{
		ID:             batchID,
		ProductID:      productID,
		Quantity:       qty,
		ExpirationDate: expiration,
		AddedAt:        time.Now().UTC(),
		AddedBy:        actorID,
		Reason:         reason,
	}

	if err := is.store.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}

	util.BatchesAddedTotal.Inc()
	is.invalidateStock(ctx, productID)

	is.publishBatchEvent(ctx, models.EventTypeBatchAdded, batch, actorID)

	is.logger.Info("Stock batch added",
		zap.Int64("product_id", productID),
		zap.Int64("batch_id", batchID),
		zap.Int("quantity", qty))

	return batch, nil
}

// AddBatchTx appends a batch inside an existing transaction. The reversal
// path uses this so restocking commits together with the sale deletion.
func (is *InventoryService) AddBatchTx(ctx context.Context, tx *sqlx.Tx, productID int64, qty int, reason string, actorID int64) (*models.StockBatch, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: batch quantity must be positive", ErrInvalidInput)
	}

	batchID, err := is.store.NextID(ctx, store.EntityTypeStockBatch)
	if err != nil {
		return nil, err
	}

	batch := &models.StockBatch{
		ID:        batchID,
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now().UTC(),
		AddedBy:   actorID,
		Reason:    reason,
	}

	if err := is.store.InsertBatchTx(ctx, tx, batch); err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}
	return batch, nil
}

// ReduceBatch removes qty units from a single batch (administrative
// adjustment, e.g. disposal of expired stock). Reducing below zero is
// rejected.
func (is *InventoryService) ReduceBatch(ctx context.Context, batchID int64, qty int, reason string, actorID int64) (*models.StockBatch, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity to remove must be positive", ErrInvalidInput)
	}

	existing, err := is.store.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	batch, err := is.store.ReduceBatchQuantity(ctx, batchID, qty, reason)
	if errors.Is(err, store.ErrReduceBelowZero) {
		return nil, fmt.Errorf("%w: cannot remove %d units from batch %d holding %d",
			ErrInvalidInput, qty, batchID, existing.Quantity)
	}
	if err != nil {
		return nil, err
	}

	is.invalidateStock(ctx, batch.ProductID)
	is.publishBatchEvent(ctx, models.EventTypeBatchReduced, batch, actorID)

	return batch, nil
}

// RemoveBatch deletes a batch entirely
func (is *InventoryService) RemoveBatch(ctx context.Context, batchID int64, actorID int64) error {
	batch, err := is.store.GetBatchByID(ctx, batchID)
	if err != nil {
		return err
	}

	if err := is.store.DeleteBatch(ctx, batchID); err != nil {
		return err
	}

	is.invalidateStock(ctx, batch.ProductID)
	is.publishBatchEvent(ctx, models.EventTypeBatchRemoved, batch, actorID)

	is.logger.Info("Stock batch removed",
		zap.Int64("batch_id", batchID),
		zap.Int64("product_id", batch.ProductID))

	return nil
}

// ListBatches returns a product's batches in FEFO order
func (is *InventoryService) ListBatches(ctx context.Context, productID int64) ([]models.StockBatch, error) {
	if _, err := is.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return is.store.GetBatchesByProduct(ctx, productID)
}

// invalidateStock drops the cached stock level after any ledger mutation
func (is *InventoryService) invalidateStock(ctx context.Context, productID int64) {
	if err := is.redis.InvalidateStockLevel(ctx, productID); err != nil {
		is.logger.Warn("Failed to invalidate stock cache",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}
}

func (is *InventoryService) publishBatchEvent(ctx context.Context, eventType string, batch *models.StockBatch, actorID int64) {
	event := &models.BatchEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		BatchID:   batch.ID,
		ProductID: batch.ProductID,
		Quantity:  batch.Quantity,
		Reason:    batch.Reason,
		ActorID:   actorID,
	}

	if err := is.eventPublisher.PublishBatchEvent(ctx, event); err != nil {
		is.logger.Error("Failed to publish batch event",
			zap.String("event_type", eventType),
			zap.Int64("batch_id", batch.ID),
			zap.Error(err))
	}
}
