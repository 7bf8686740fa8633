package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MetricsService tracks per-retailer performance: daily quota progress,
// lifetime totals and the consecutive-quota-met streak.
type MetricsService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	defaultQuota   int64
}

// NewMetricsService creates a new metrics service
func NewMetricsService(store *store.Store, eventPublisher *broker.EventPublisher, defaultQuota int64) *MetricsService {
	return &MetricsService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		defaultQuota:   defaultQuota,
	}
}

// RecordSaleTx applies one committed sale to a retailer's metrics inside the
// sale's transaction, creating the record with the default quota on first
// sale. The metrics row is locked for the rest of the transaction.
func (ms *MetricsService) RecordSaleTx(ctx context.Context, tx *sqlx.Tx, retailerID int64, amount int64, now time.Time) (*models.RetailerMetrics, error) {
	metrics, err := ms.store.GetMetricsForUpdateTx(ctx, tx, retailerID)
	if errors.Is(err, store.ErrMetricsNotFound) {
		metrics = ms.newMetrics(retailerID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load metrics for retailer %d: %w", retailerID, err)
	}

	applySaleToMetrics(metrics, amount, now)

	if err := ms.store.UpsertMetricsTx(ctx, tx, metrics); err != nil {
		return nil, fmt.Errorf("failed to write metrics for retailer %d: %w", retailerID, err)
	}
	return metrics, nil
}

// ReverseSaleTx backs a reversed sale out of a retailer's metrics inside the
// reversal's transaction. A retailer with no metrics record is left alone.
func (ms *MetricsService) ReverseSaleTx(ctx context.Context, tx *sqlx.Tx, retailerID int64, amount int64) error {
	metrics, err := ms.store.GetMetricsForUpdateTx(ctx, tx, retailerID)
	if errors.Is(err, store.ErrMetricsNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load metrics for retailer %d: %w", retailerID, err)
	}

	applySaleReversal(metrics, amount)

	if err := ms.store.UpsertMetricsTx(ctx, tx, metrics); err != nil {
		return fmt.Errorf("failed to write metrics for retailer %d: %w", retailerID, err)
	}
	return nil
}

// GetRetailerPerformance returns a retailer's metrics. A retailer without a
// record yet gets zeroed metrics with the default quota, mirroring what the
// first sale would create.
func (ms *MetricsService) GetRetailerPerformance(ctx context.Context, retailerID int64) (*models.RetailerMetrics, error) {
	metrics, err := ms.store.GetMetricsByRetailer(ctx, retailerID)
	if errors.Is(err, store.ErrMetricsNotFound) {
		return ms.newMetrics(retailerID), nil
	}
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// UpdateQuota replaces a retailer's daily quota. Negative quotas are
// rejected; the change does not retroactively affect streak state.
func (ms *MetricsService) UpdateQuota(ctx context.Context, retailerID int64, newQuota int64, actorID int64) (*models.RetailerMetrics, error) {
	ctx, span := util.StartSpan(ctx, "MetricsService.UpdateQuota")
	defer span.End()

	if newQuota < 0 {
		return nil, fmt.Errorf("%w: quota must be non-negative", ErrInvalidInput)
	}

	var metrics *models.RetailerMetrics
	var oldQuota int64
	err := ms.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		metrics, err = ms.store.GetMetricsForUpdateTx(ctx, tx, retailerID)
		if errors.Is(err, store.ErrMetricsNotFound) {
			metrics = ms.newMetrics(retailerID)
		} else if err != nil {
			return err
		}
		oldQuota = metrics.DailyQuota
		metrics.DailyQuota = newQuota
		return ms.store.UpsertMetricsTx(ctx, tx, metrics)
	})
	if err != nil {
		return nil, err
	}

	event := &models.QuotaUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeQuotaUpdated,
			Timestamp: time.Now(),
		},
		RetailerID: retailerID,
		OldQuota:   oldQuota,
		NewQuota:   newQuota,
		ActorID:    actorID,
	}
	if err := ms.eventPublisher.PublishQuotaUpdated(ctx, event); err != nil {
		ms.logger.Error("Failed to publish QuotaUpdated event", zap.Error(err))
	}

	ms.logger.Info("Retailer quota updated",
		zap.Int64("retailer_id", retailerID),
		zap.Int64("old_quota", oldQuota),
		zap.Int64("new_quota", newQuota))

	return metrics, nil
}

// ResetDaily runs the end-of-day transition for every retailer and returns
// how many were processed. Each retailer is updated under the same row lock
// discipline as RecordSaleTx, so a sale racing the reset cannot lose updates.
func (ms *MetricsService) ResetDaily(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "MetricsService.ResetDaily")
	defer span.End()

	retailerIDs, err := ms.store.ListRetailerIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list retailers: %w", err)
	}

	now := time.Now()
	processed := 0
	for _, retailerID := range retailerIDs {
		err := ms.store.WithTx(ctx, func(tx *sqlx.Tx) error {
			metrics, err := ms.store.GetMetricsForUpdateTx(ctx, tx, retailerID)
			if err != nil {
				return err
			}
			applyDailyReset(metrics, now)
			return ms.store.UpsertMetricsTx(ctx, tx, metrics)
		})
		if err != nil {
			ms.logger.Error("Failed to reset metrics",
				zap.Int64("retailer_id", retailerID),
				zap.Error(err))
			continue
		}
		processed++
	}

	util.MetricsResetRuns.Inc()
	util.MetricsResetRetailers.Observe(float64(processed))

	event := &models.MetricsResetEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeMetricsReset,
			Timestamp: time.Now(),
		},
		RetailersProcessed: processed,
	}
	if err := ms.eventPublisher.PublishMetricsReset(ctx, event); err != nil {
		ms.logger.Error("Failed to publish MetricsReset event", zap.Error(err))
	}

	ms.logger.Info("Daily metrics reset completed", zap.Int("retailers", processed))
	return processed, nil
}

// GetLeaderboard returns the top retailers by streak, then lifetime sales
func (ms *MetricsService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return ms.store.GetLeaderboard(ctx, limit)
}

func (ms *MetricsService) newMetrics(retailerID int64) *models.RetailerMetrics {
	return &models.RetailerMetrics{
		RetailerID: retailerID,
		DailyQuota: ms.defaultQuota,
	}
}
