package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

const idempotencyTTL = 24 * time.Hour

// SaleService commits multi-line sales as a single unit and provides the
// compensating reversal.
type SaleService struct {
	store          *store.Store
	redis          *redisclient.Client
	inventory      *InventoryService
	metrics        *MetricsService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	store *store.Store,
	redis *redisclient.Client,
	inventory *InventoryService,
	metrics *MetricsService,
	eventPublisher *broker.EventPublisher,
) *SaleService {
	return &SaleService{
		store:          store,
		redis:          redis,
		inventory:      inventory,
		metrics:        metrics,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RecordSaleRequest represents a request to record a sale
type RecordSaleRequest struct {
	RetailerID     int64             `json:"retailer_id" binding:"required"`
	Items          []SaleLineRequest `json:"items" binding:"required,min=1"`
	TotalAmount    int64             `json:"total_amount" binding:"required"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// SaleLineRequest represents one line of a sale request
type SaleLineRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
	LineTotal int64 `json:"line_total" binding:"required"`
}

// RecordAtomicSale commits a multi-line sale: availability validation, FEFO
// deduction, sale persistence and the retailer metrics update all run inside
// one transaction, so any failure leaves every product's stock and the
// retailer's counters exactly as they were.
func (ss *SaleService) RecordAtomicSale(ctx context.Context, req *RecordSaleRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.RecordAtomicSale")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SaleCommitLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validateSaleRequest(req); err != nil {
		util.SalesFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if saleID, hit, err := ss.redis.GetIdempotencyKey(ctx, req.IdempotencyKey); err == nil && hit {
			ss.logger.Info("Duplicate sale request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("sale_id", saleID))
			return ss.store.GetSaleByID(ctx, saleID)
		}
	}

	sale := &models.Sale{
		RetailerID:  req.RetailerID,
		TotalAmount: req.TotalAmount,
		CreatedAt:   time.Now().UTC(),
	}

	err := ss.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Validate phase: every product's combined requirement is checked
		// against its locked batch snapshot before anything is deducted.
		// Locks are taken in product-id order so concurrent sales cannot
		// deadlock each other.
		if err := ss.validateLinesTx(ctx, tx, req.Items); err != nil {
			return err
		}

		// Deduct phase: re-walks the snapshots this transaction already
		// locked, so the availability just validated still holds.
		for _, productID := range sortedProductIDs(req.Items) {
			qty := combinedQuantity(req.Items, productID)
			if err := ss.inventory.DeductFefoTx(ctx, tx, productID, qty); err != nil {
				return err
			}
		}

		// Persist phase
		saleID, err := ss.store.NextID(ctx, store.EntityTypeSale)
		if err != nil {
			return err
		}
		sale.ID = saleID

		if err := ss.store.InsertSaleTx(ctx, tx, sale); err != nil {
			return fmt.Errorf("failed to persist sale: %w", err)
		}

		for _, line := range req.Items {
			itemID, err := ss.store.NextID(ctx, store.EntityTypeSaleItem)
			if err != nil {
				return err
			}
			item := models.SaleItem{
				ID:        itemID,
				SaleID:    saleID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				LineTotal: line.LineTotal,
			}
			if err := ss.store.InsertSaleItemTx(ctx, tx, &item); err != nil {
				return fmt.Errorf("failed to persist sale item: %w", err)
			}
			sale.Items = append(sale.Items, item)
		}

		// Metrics phase
		if _, err := ss.metrics.RecordSaleTx(ctx, tx, req.RetailerID, req.TotalAmount, sale.CreatedAt); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		reason := "error"
		if IsInsufficientStock(err) {
			reason = "insufficient_stock"
		} else if errors.Is(err, ErrProductNotFound) {
			reason = "product_not_found"
		}
		util.SalesFailedTotal.WithLabelValues(reason).Inc()
		return nil, err
	}

	util.SalesRecordedTotal.Inc()

	for _, productID := range sortedProductIDs(req.Items) {
		ss.inventory.invalidateStock(ctx, productID)
	}

	if req.IdempotencyKey != "" {
		if err := ss.redis.SetIdempotencyKey(ctx, req.IdempotencyKey, sale.ID, idempotencyTTL); err != nil {
			ss.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	ss.publishSaleRecorded(ctx, sale)

	ss.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("retailer_id", sale.RetailerID),
		zap.Int("items", len(sale.Items)),
		zap.Int64("total_amount", sale.TotalAmount))

	return sale, nil
}

// UndoSale reverses a committed sale: each line's quantity comes back as a
// fresh batch (original batch boundaries and expirations are not restored),
// the retailer's counters are floor-decremented and the sale aggregate is
// deleted, all in one transaction.
func (ss *SaleService) UndoSale(ctx context.Context, saleID int64, actingUserID int64) error {
	ctx, span := util.StartSpan(ctx, "SaleService.UndoSale")
	defer span.End()

	if actingUserID <= 0 {
		return fmt.Errorf("%w: acting user id is required", ErrInvalidInput)
	}

	var sale *models.Sale
	err := ss.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		sale, err = ss.store.GetSaleForUpdateTx(ctx, tx, saleID)
		if err != nil {
			return err
		}

		reason := fmt.Sprintf("Reversal of sale %d", saleID)
		for _, item := range sale.Items {
			if _, err := ss.inventory.AddBatchTx(ctx, tx, item.ProductID, item.Quantity, reason, actingUserID); err != nil {
				return err
			}
		}

		if err := ss.metrics.ReverseSaleTx(ctx, tx, sale.RetailerID, sale.TotalAmount); err != nil {
			return err
		}

		return ss.store.DeleteSaleTx(ctx, tx, saleID)
	})
	if err != nil {
		return err
	}

	util.SalesReversedTotal.Inc()

	for _, item := range sale.Items {
		ss.inventory.invalidateStock(ctx, item.ProductID)
	}

	event := &models.SaleReversedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleReversed,
			Timestamp: time.Now(),
		},
		SaleID:      sale.ID,
		RetailerID:  sale.RetailerID,
		TotalAmount: sale.TotalAmount,
		ActorID:     actingUserID,
	}
	if err := ss.eventPublisher.PublishSaleReversed(ctx, event); err != nil {
		ss.logger.Error("Failed to publish SaleReversed event", zap.Error(err))
	}

	ss.logger.Info("Sale reversed",
		zap.Int64("sale_id", saleID),
		zap.Int64("actor_id", actingUserID))

	return nil
}

// GetSale retrieves a sale with its items
func (ss *SaleService) GetSale(ctx context.Context, saleID int64) (*models.Sale, error) {
	return ss.store.GetSaleByID(ctx, saleID)
}

// GetSalesReport returns sales over a window with aggregate totals
func (ss *SaleService) GetSalesReport(ctx context.Context, from, to time.Time, retailerID int64) ([]models.Sale, *models.SalesReportSummary, error) {
	sales, err := ss.store.GetSalesInRange(ctx, from, to, retailerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query sales: %w", err)
	}

	summary := &models.SalesReportSummary{TotalTransactions: len(sales)}
	for _, sale := range sales {
		summary.TotalRevenue += sale.TotalAmount
		for _, item := range sale.Items {
			summary.TotalItemsSold += item.Quantity
		}
	}
	return sales, summary, nil
}

// validateLinesTx locks each product's batches and checks the combined
// required quantity per product. All failing lines are reported together.
func (ss *SaleService) validateLinesTx(ctx context.Context, tx *sqlx.Tx, items []SaleLineRequest) error {
	var failures []error

	for _, productID := range sortedProductIDs(items) {
		product, err := ss.store.GetProductByIDTx(ctx, tx, productID)
		if errors.Is(err, store.ErrProductNotFound) {
			failures = append(failures, fmt.Errorf("product %d: %w", productID, err))
			continue
		}
		if err != nil {
			return err
		}

		batches, err := ss.store.GetBatchesForUpdateTx(ctx, tx, productID)
		if err != nil {
			return fmt.Errorf("failed to lock batches for product %d: %w", productID, err)
		}

		required := combinedQuantity(items, productID)
		if available := totalQuantity(batches); available < required {
			failures = append(failures, &InsufficientStockError{
				ProductID:   productID,
				ProductName: product.Name,
				Requested:   required,
				Available:   available,
			})
		}
	}

	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

// validateSaleRequest rejects malformed requests before any storage access.
// The caller-supplied total must equal the sum of line totals.
func validateSaleRequest(req *RecordSaleRequest) error {
	if req.RetailerID <= 0 {
		return fmt.Errorf("%w: retailer_id is required", ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items must be a non-empty array", ErrInvalidInput)
	}

	var sum int64
	for i, line := range req.Items {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: item %d: product_id is required", ErrInvalidInput, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrInvalidInput, i)
		}
		if line.LineTotal < 0 {
			return fmt.Errorf("%w: item %d: line_total must be non-negative", ErrInvalidInput, i)
		}
		sum += line.LineTotal
	}

	if req.TotalAmount <= 0 {
		return fmt.Errorf("%w: total_amount must be positive", ErrInvalidInput)
	}
	if sum != req.TotalAmount {
		return fmt.Errorf("%w: total_amount %d does not match sum of line totals %d",
			ErrInvalidInput, req.TotalAmount, sum)
	}
	return nil
}

// sortedProductIDs returns the distinct product ids of a request in
// ascending order. Both lock acquisition and deduction follow this order.
func sortedProductIDs(items []SaleLineRequest) []int64 {
	seen := make(map[int64]bool, len(items))
	var ids []int64
	for _, line := range items {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// combinedQuantity sums the requested quantity across lines of one product
func combinedQuantity(items []SaleLineRequest, productID int64) int {
	total := 0
	for _, line := range items {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

func (ss *SaleService) publishSaleRecorded(ctx context.Context, sale *models.Sale) {
	items := make([]models.SaleItemData, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, models.SaleItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	event := &models.SaleRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleRecorded,
			Timestamp: time.Now(),
		},
		SaleID:      sale.ID,
		RetailerID:  sale.RetailerID,
		TotalAmount: sale.TotalAmount,
		Items:       items,
	}

	if err := ss.eventPublisher.PublishSaleRecorded(ctx, event); err != nil {
		ss.logger.Error("Failed to publish SaleRecorded event",
			zap.Int64("sale_id", sale.ID),
			zap.Error(err))
	}
}
