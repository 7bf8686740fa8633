package service

import (
	"context"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
)

const defaultActivityLimit = 50

// AuditService exposes the activity trail the broker worker writes.
type AuditService struct {
	store *store.Store
}

// NewAuditService creates a new audit service
func NewAuditService(store *store.Store) *AuditService {
	return &AuditService{store: store}
}

// RecentActivity returns recent audit records, newest first, optionally
// filtered by action.
func (as *AuditService) RecentActivity(ctx context.Context, limit int, action string) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return as.store.GetActivityLogs(ctx, limit, action)
}
