package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing audit events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleRecorded publishes SaleRecorded event
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	util.AuditEventsPublished.WithLabelValues(event.EventType).Inc()
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSaleReversed publishes SaleReversed event
func (ep *EventPublisher) PublishSaleReversed(ctx context.Context, event *models.SaleReversedEvent) error {
	util.AuditEventsPublished.WithLabelValues(event.EventType).Inc()
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBatchEvent publishes a batch add/reduce/remove event
func (ep *EventPublisher) PublishBatchEvent(ctx context.Context, event *models.BatchEvent) error {
	util.AuditEventsPublished.WithLabelValues(event.EventType).Inc()
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuotaUpdated publishes QuotaUpdated event
func (ep *EventPublisher) PublishQuotaUpdated(ctx context.Context, event *models.QuotaUpdatedEvent) error {
	util.AuditEventsPublished.WithLabelValues(event.EventType).Inc()
	key := fmt.Sprintf("retailer-%d", event.RetailerID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishMetricsReset publishes MetricsReset event
func (ep *EventPublisher) PublishMetricsReset(ctx context.Context, event *models.MetricsResetEvent) error {
	util.AuditEventsPublished.WithLabelValues(event.EventType).Inc()
	return ep.producer.PublishEvent(ctx, "metrics-reset", event)
}

// EventHandler routes incoming audit events
type EventHandler struct {
	onSaleRecorded func(context.Context, *models.SaleRecordedEvent) error
	onSaleReversed func(context.Context, *models.SaleReversedEvent) error
	onBatchEvent   func(context.Context, *models.BatchEvent) error
	onQuotaUpdated func(context.Context, *models.QuotaUpdatedEvent) error
	onMetricsReset func(context.Context, *models.MetricsResetEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSaleRecorded registers a handler for SaleRecorded events
func (eh *EventHandler) OnSaleRecorded(handler func(context.Context, *models.SaleRecordedEvent) error) {
	eh.onSaleRecorded = handler
}

// OnSaleReversed registers a handler for SaleReversed events
func (eh *EventHandler) OnSaleReversed(handler func(context.Context, *models.SaleReversedEvent) error) {
	eh.onSaleReversed = handler
}

// OnBatchEvent registers a handler for batch events
func (eh *EventHandler) OnBatchEvent(handler func(context.Context, *models.BatchEvent) error) {
	eh.onBatchEvent = handler
}

// OnQuotaUpdated registers a handler for QuotaUpdated events
func (eh *EventHandler) OnQuotaUpdated(handler func(context.Context, *models.QuotaUpdatedEvent) error) {
	eh.onQuotaUpdated = handler
}

// OnMetricsReset registers a handler for MetricsReset events
func (eh *EventHandler) OnMetricsReset(handler func(context.Context, *models.MetricsResetEvent) error) {
	eh.onMetricsReset = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeSaleRecorded:
		if eh.onSaleRecorded != nil {
			var event models.SaleRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleRecorded event: %w", err)
			}
			return eh.onSaleRecorded(ctx, &event)
		}

	case models.EventTypeSaleReversed:
		if eh.onSaleReversed != nil {
			var event models.SaleReversedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleReversed event: %w", err)
			}
			return eh.onSaleReversed(ctx, &event)
		}

	case models.EventTypeBatchAdded, models.EventTypeBatchReduced, models.EventTypeBatchRemoved:
		if eh.onBatchEvent != nil {
			var event models.BatchEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal batch event: %w", err)
			}
			return eh.onBatchEvent(ctx, &event)
		}

	case models.EventTypeQuotaUpdated:
		if eh.onQuotaUpdated != nil {
			var event models.QuotaUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal QuotaUpdated event: %w", err)
			}
			return eh.onQuotaUpdated(ctx, &event)
		}

	case models.EventTypeMetricsReset:
		if eh.onMetricsReset != nil {
			var event models.MetricsResetEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal MetricsReset event: %w", err)
			}
			return eh.onMetricsReset(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
