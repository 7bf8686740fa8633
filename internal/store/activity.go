package store

import (
	"context"

	"inventory-service/internal/models"
)

// InsertActivityLog persists one audit record
func (s *Store) InsertActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, actor_id, action, target_entity, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return s.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID, entry.ActorID, entry.Action, entry.TargetEntity,
		entry.TargetID, entry.Details, entry.CreatedAt)
}

// GetActivityLogs retrieves recent audit records, newest first
func (s *Store) GetActivityLogs(ctx context.Context, limit int, action string) ([]models.ActivityLog, error) {
	query := "SELECT * FROM activity_logs"
	args := []interface{}{}
	if action != "" {
		query += " WHERE action = $1"
		args = append(args, action)
	}
	query += " ORDER BY created_at DESC LIMIT "
	if action != "" {
		query += "$2"
	} else {
		query += "$1"
	}
	args = append(args, limit)

	var logs []models.ActivityLog
	err := s.db.SelectContext(ctx, &logs, query, args...)
	return logs, err
}

// IsEventProcessed checks if an audit event has already been persisted
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an audit event as persisted
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
