package service

import (
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSortBatchesFefo(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	batches := []models.StockBatch{
		{ID: 1, Quantity: 10, ExpirationDate: nil, AddedAt: base},
		{ID: 2, Quantity: 10, ExpirationDate: datePtr(2026, 6, 1), AddedAt: base.Add(2 * time.Hour)},
		{ID: 3, Quantity: 10, ExpirationDate: datePtr(2026, 4, 1), AddedAt: base.Add(time.Hour)},
		{ID: 4, Quantity: 10, ExpirationDate: datePtr(2026, 4, 1), AddedAt: base},
		{ID: 5, Quantity: 10, ExpirationDate: nil, AddedAt: base.Add(-time.Hour)},
	}

	sortBatchesFefo(batches)

	var order []int64
	for _, b := range batches {
		order = append(order, b.ID)
	}

	// Earliest expiration first, arrival time breaking ties, batches
	// without an expiration last.
	assert.Equal(t, []int64{4, 3, 2, 5, 1}, order)
}

func TestPlanFefoDeductionSpansBatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	batches := []models.StockBatch{
		{ID: 1, Quantity: 5, ExpirationDate: datePtr(2026, 4, 1), AddedAt: base},
		{ID: 2, Quantity: 8, ExpirationDate: datePtr(2026, 5, 1), AddedAt: base},
		{ID: 3, Quantity: 20, ExpirationDate: nil, AddedAt: base},
	}

	plan, shortfall := planFefoDeduction(batches, 10)
	require.Zero(t, shortfall)
	require.Len(t, plan, 2)

	assert.Equal(t, batchDeduction{BatchID: 1, Take: 5, NewQty: 0}, plan[0])
	assert.Equal(t, batchDeduction{BatchID: 2, Take: 5, NewQty: 3}, plan[1])
}

func TestPlanFefoDeductionPartialBatch(t *testing.T) {
	batches := []models.StockBatch{
		{ID: 1, Quantity: 10, ExpirationDate: datePtr(2026, 4, 1)},
	}

	plan, shortfall := planFefoDeduction(batches, 3)
	require.Zero(t, shortfall)
	require.Len(t, plan, 1)
	assert.Equal(t, 3, plan[0].Take)
	assert.Equal(t, 7, plan[0].NewQty)
}

func TestPlanFefoDeductionSkipsEmptyBatches(t *testing.T) {
	batches := []models.StockBatch{
		{ID: 1, Quantity: 0, ExpirationDate: datePtr(2026, 4, 1)},
		{ID: 2, Quantity: 6, ExpirationDate: datePtr(2026, 5, 1)},
	}

	plan, shortfall := planFefoDeduction(batches, 4)
	require.Zero(t, shortfall)
	require.Len(t, plan, 1)
	assert.Equal(t, int64(2), plan[0].BatchID)
}

func TestPlanFefoDeductionShortfall(t *testing.T) {
	batches := []models.StockBatch{
		{ID: 1, Quantity: 3, ExpirationDate: datePtr(2026, 4, 1)},
		{ID: 2, Quantity: 4, ExpirationDate: nil},
	}

	_, shortfall := planFefoDeduction(batches, 10)
	assert.Equal(t, 3, shortfall)

	// The snapshot itself is never mutated, so nothing was taken.
	assert.Equal(t, 7, totalQuantity(batches))
}

func TestPlanFefoDeductionConservesStock(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	batches := []models.StockBatch{
		{ID: 1, Quantity: 7, ExpirationDate: datePtr(2026, 4, 1), AddedAt: base},
		{ID: 2, Quantity: 2, ExpirationDate: datePtr(2026, 4, 15), AddedAt: base},
		{ID: 3, Quantity: 11, ExpirationDate: nil, AddedAt: base},
	}
	before := totalQuantity(batches)

	plan, shortfall := planFefoDeduction(batches, 13)
	require.Zero(t, shortfall)

	taken := 0
	remaining := 0
	for _, step := range plan {
		taken += step.Take
		remaining += step.NewQty
	}

	assert.Equal(t, 13, taken)

	// Untouched batches plus the plan's leftovers account for every unit.
	planned := map[int64]bool{}
	for _, step := range plan {
		planned[step.BatchID] = true
	}
	for _, b := range batches {
		if !planned[b.ID] {
			remaining += b.Quantity
		}
	}
	assert.Equal(t, before-13, remaining)
}

func TestPlanFefoDeductionZeroQuantity(t *testing.T) {
	batches := []models.StockBatch{
		{ID: 1, Quantity: 5, ExpirationDate: datePtr(2026, 4, 1)},
	}

	plan, shortfall := planFefoDeduction(batches, 0)
	assert.Empty(t, plan)
	assert.Zero(t, shortfall)
}
