package models

import "time"

// Audit event types
const (
	EventTypeSaleRecorded = "SALE_RECORDED"
	EventTypeSaleReversed = "SALE_REVERSED"
	EventTypeBatchAdded   = "BATCH_ADDED"
	EventTypeBatchReduced = "BATCH_REDUCED"
	EventTypeBatchRemoved = "BATCH_REMOVED"
	EventTypeQuotaUpdated = "QUOTA_UPDATED"
	EventTypeMetricsReset = "METRICS_RESET"
)

// BaseEvent contains common fields for all audit events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleRecordedEvent published when a sale commits.
type SaleRecordedEvent struct {
	BaseEvent
	SaleID      int64          `json:"sale_id"`
	RetailerID  int64          `json:"retailer_id"`
	TotalAmount int64          `json:"total_amount"`
	Items       []SaleItemData `json:"items"`
}

// SaleReversedEvent published when a sale is undone.
type SaleReversedEvent struct {
	BaseEvent
	SaleID      int64 `json:"sale_id"`
	RetailerID  int64 `json:"retailer_id"`
	TotalAmount int64 `json:"total_amount"`
	ActorID     int64 `json:"actor_id"`
}

// BatchEvent published for restocks and administrative batch adjustments.
type BatchEvent struct {
	BaseEvent
	BatchID   int64  `json:"batch_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	ActorID   int64  `json:"actor_id"`
}

// QuotaUpdatedEvent published when a retailer's daily quota changes.
type QuotaUpdatedEvent struct {
	BaseEvent
	RetailerID int64 `json:"retailer_id"`
	OldQuota   int64 `json:"old_quota"`
	NewQuota   int64 `json:"new_quota"`
	ActorID    int64 `json:"actor_id"`
}

// MetricsResetEvent published after the daily reset job runs.
type MetricsResetEvent struct {
	BaseEvent
	RetailersProcessed int `json:"retailers_processed"`
}

// SaleItemData represents line data carried in events.
type SaleItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	LineTotal int64 `json:"line_total"`
}
