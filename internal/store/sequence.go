package store

import (
	"context"
	"fmt"
)

// Entity types with counter rows. Floors other than zero are seeded by the
// initial migration (users start above the floor so legacy ids stay reserved).
const (
	EntityTypeUser       = "user"
	EntityTypeProduct    = "product"
	EntityTypeSale       = "sale"
	EntityTypeSaleItem   = "sale_item"
	EntityTypeStockBatch = "stock_batch"
	EntityTypeActivity   = "activity_log"
)

const nextIDQuery = `
	INSERT INTO counters (entity_type, seq) VALUES ($1, 1)
	ON CONFLICT (entity_type) DO UPDATE SET seq = counters.seq + 1
	RETURNING seq`

// NextID atomically increments and returns the counter for an entity type.
// The upsert makes first use implicit; the whole operation is a single
// statement, so concurrent callers can never observe the same value.
func (s *Store) NextID(ctx context.Context, entityType string) (int64, error) {
	var seq int64
	if err := s.db.GetContext(ctx, &seq, nextIDQuery, entityType); err != nil {
		return 0, fmt.Errorf("failed to advance counter %q: %w", entityType, err)
	}
	return seq, nil
}

// SeedCounter raises a counter to at least floor. Used at startup so the first
// issued id for the type is floor+1. Never lowers an existing counter.
func (s *Store) SeedCounter(ctx context.Context, entityType string, floor int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO counters (entity_type, seq) VALUES ($1, $2)
		ON CONFLICT (entity_type) DO UPDATE SET seq = GREATEST(counters.seq, $2)`,
		entityType, floor)
	if err != nil {
		return fmt.Errorf("failed to seed counter %q: %w", entityType, err)
	}
	return nil
}
