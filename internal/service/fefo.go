package service

import (
	"sort"

	"inventory-service/internal/models"
)

// batchDeduction is one step of a deduction plan: take Take units from the
// batch identified by BatchID.
type batchDeduction struct {
	BatchID int64
	Take    int
	NewQty  int
}

// sortBatchesFefo orders batches first-expired-first: earliest expiration
// first, batches without an expiration last, arrival time breaking ties.
func sortBatchesFefo(batches []models.StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		bi, bj := batches[i], batches[j]
		switch {
		case bi.ExpirationDate == nil && bj.ExpirationDate == nil:
			return bi.AddedAt.Before(bj.AddedAt)
		case bi.ExpirationDate == nil:
			return false
		case bj.ExpirationDate == nil:
			return true
		case bi.ExpirationDate.Equal(*bj.ExpirationDate):
			return bi.AddedAt.Before(bj.AddedAt)
		default:
			return bi.ExpirationDate.Before(*bj.ExpirationDate)
		}
	})
}

// planFefoDeduction computes a deduction plan against a snapshot of a
// product's batches. It walks the batches in FEFO order, taking
// min(remaining, needed) from each non-empty batch. The snapshot is never
// mutated; the returned shortfall is zero only when the plan fully covers
// qty, and callers must apply nothing otherwise.
func planFefoDeduction(batches []models.StockBatch, qty int) (plan []batchDeduction, shortfall int) {
	sortBatchesFefo(batches)

	remaining := qty
	for _, batch := range batches {
		if remaining <= 0 {
			break
		}
		if batch.Quantity <= 0 {
			continue
		}

		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		plan = append(plan, batchDeduction{
			BatchID: batch.ID,
			Take:    take,
			NewQty:  batch.Quantity - take,
		})
		remaining -= take
	}

	return plan, remaining
}

// totalQuantity sums a batch snapshot's quantities
func totalQuantity(batches []models.StockBatch) int {
	total := 0
	for _, b := range batches {
		total += b.Quantity
	}
	return total
}
