package worker

import (
	"context"
	"fmt"
	"log"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// AuditWorker consumes audit events and persists them as activity log rows.
// Sales, reversals, batch adjustments, quota changes and reset runs all end
// up in one queryable trail.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, st *store.Store) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleRecorded(w.handleSaleRecorded)
	eventHandler.OnSaleReversed(w.handleSaleReversed)
	eventHandler.OnBatchEvent(w.handleBatchEvent)
	eventHandler.OnQuotaUpdated(w.handleQuotaUpdated)
	eventHandler.OnMetricsReset(w.handleMetricsReset)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting audit worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping audit worker...")
	return w.consumer.Close()
}

func (w *AuditWorker) handleSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	details := fmt.Sprintf("Sale %d: %d items, total %d", event.SaleID, len(event.Items), event.TotalAmount)
	return w.persist(ctx, event.BaseEvent, event.RetailerID, "sale", event.SaleID, details)
}

func (w *AuditWorker) handleSaleReversed(ctx context.Context, event *models.SaleReversedEvent) error {
	details := fmt.Sprintf("Reversed sale %d, amount %d", event.SaleID, event.TotalAmount)
	return w.persist(ctx, event.BaseEvent, event.ActorID, "sale", event.SaleID, details)
}

func (w *AuditWorker) handleBatchEvent(ctx context.Context, event *models.BatchEvent) error {
	details := fmt.Sprintf("Batch %d of product %d: qty=%d, reason=%s",
		event.BatchID, event.ProductID, event.Quantity, event.Reason)
	return w.persist(ctx, event.BaseEvent, event.ActorID, "stock_batch", event.BatchID, details)
}

func (w *AuditWorker) handleQuotaUpdated(ctx context.Context, event *models.QuotaUpdatedEvent) error {
	details := fmt.Sprintf("Quota updated: %d -> %d", event.OldQuota, event.NewQuota)
	return w.persist(ctx, event.BaseEvent, event.ActorID, "retailer_metrics", event.RetailerID, details)
}

func (w *AuditWorker) handleMetricsReset(ctx context.Context, event *models.MetricsResetEvent) error {
	details := fmt.Sprintf("Daily reset processed %d retailers", event.RetailersProcessed)
	return w.persist(ctx, event.BaseEvent, 0, "retailer_metrics", 0, details)
}

// persist writes one activity log row, skipping events already processed so
// redelivered messages never produce duplicate rows.
func (w *AuditWorker) persist(ctx context.Context, base models.BaseEvent, actorID int64, targetEntity string, targetID int64, details string) error {
	processed, err := w.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	entryID, err := w.store.NextID(ctx, store.EntityTypeActivity)
	if err != nil {
		return err
	}

	entry := &models.ActivityLog{
		ID:           entryID,
		ActorID:      actorID,
		Action:       base.EventType,
		TargetEntity: targetEntity,
		TargetID:     targetID,
		Details:      details,
		CreatedAt:    base.Timestamp.UTC(),
	}
	if err := w.store.InsertActivityLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist activity log: %w", err)
	}

	if err := w.store.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	util.AuditEventsPersisted.Inc()
	return nil
}
