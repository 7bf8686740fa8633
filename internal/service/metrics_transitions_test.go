package service

import (
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestMetrics(quota int64) *models.RetailerMetrics {
	return &models.RetailerMetrics{
		RetailerID: 42,
		DailyQuota: quota,
	}
}

func at(day int, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestApplySaleStartsStreakWhenQuotaMet(t *testing.T) {
	m := newTestMetrics(1000)

	applySaleToMetrics(m, 600, at(1, 10))
	assert.EqualValues(t, 600, m.SalesToday)
	assert.Equal(t, 0, m.CurrentStreak)

	// The second sale pushes the day over quota, so the streak shows
	// immediately instead of waiting for the next rollover.
	applySaleToMetrics(m, 500, at(1, 15))
	assert.EqualValues(t, 1100, m.SalesToday)
	assert.EqualValues(t, 1100, m.TotalSales)
	assert.EqualValues(t, 2, m.TotalTransactions)
	assert.Equal(t, 1, m.CurrentStreak)
}

func TestApplySaleRolloverExtendsStreak(t *testing.T) {
	m := newTestMetrics(1000)

	applySaleToMetrics(m, 1100, at(1, 10))
	assert.Equal(t, 1, m.CurrentStreak)

	// Next-day sale without an intervening reset: yesterday's quota was
	// met, so the rollover extends the streak and restarts today's count.
	applySaleToMetrics(m, 200, at(2, 9))
	assert.Equal(t, 2, m.CurrentStreak)
	assert.EqualValues(t, 200, m.SalesToday)
	assert.EqualValues(t, 1300, m.TotalSales)
}

func TestApplySaleRolloverBreaksStreakOnMissedQuota(t *testing.T) {
	m := newTestMetrics(1000)
	m.CurrentStreak = 4

	applySaleToMetrics(m, 300, at(1, 10))
	assert.Equal(t, 4, m.CurrentStreak)

	applySaleToMetrics(m, 100, at(2, 9))
	assert.Equal(t, 0, m.CurrentStreak)
}

func TestApplySaleRolloverBreaksStreakOnMissedDay(t *testing.T) {
	m := newTestMetrics(1000)

	applySaleToMetrics(m, 1500, at(1, 10))
	assert.Equal(t, 1, m.CurrentStreak)

	// No sale on day 2 at all.
	applySaleToMetrics(m, 500, at(3, 10))
	assert.Equal(t, 0, m.CurrentStreak)
	assert.EqualValues(t, 500, m.SalesToday)
}

func TestApplySaleKeepsStreakSettledByDailyReset(t *testing.T) {
	m := newTestMetrics(1000)

	applySaleToMetrics(m, 1100, at(1, 10))
	assert.Equal(t, 1, m.CurrentStreak)

	// The nightly reset evaluates day 1 and zeroes salesToday.
	applyDailyReset(m, at(2, 0))
	assert.Equal(t, 2, m.CurrentStreak)
	assert.Zero(t, m.SalesToday)

	// The first sale of day 2 must not evaluate day 1 a second time.
	applySaleToMetrics(m, 200, at(2, 9))
	assert.Equal(t, 2, m.CurrentStreak)
	assert.EqualValues(t, 200, m.SalesToday)
}

func TestApplyDailyResetQuotaMissed(t *testing.T) {
	m := newTestMetrics(1000)
	m.CurrentStreak = 3
	m.SalesToday = 400
	last := at(1, 10)
	m.LastSaleDate = &last

	applyDailyReset(m, at(2, 0))
	assert.Equal(t, 0, m.CurrentStreak)
	assert.Zero(t, m.SalesToday)
}

func TestApplyDailyResetMissedDays(t *testing.T) {
	m := newTestMetrics(1000)
	m.CurrentStreak = 5
	m.SalesToday = 2000
	last := at(1, 10)
	m.LastSaleDate = &last

	// Reset running two days later means day 2 had no sales.
	applyDailyReset(m, at(3, 0))
	assert.Equal(t, 0, m.CurrentStreak)
	assert.Zero(t, m.SalesToday)
}

func TestApplyDailyResetNeverSold(t *testing.T) {
	m := newTestMetrics(1000)
	m.CurrentStreak = 0

	applyDailyReset(m, at(2, 0))
	assert.Equal(t, 0, m.CurrentStreak)
	assert.Zero(t, m.SalesToday)
}

func TestApplySaleReversalFloorsAtZero(t *testing.T) {
	m := newTestMetrics(1000)
	m.SalesToday = 300
	m.TotalSales = 5000
	m.TotalTransactions = 4
	m.CurrentStreak = 2

	applySaleReversal(m, 800)

	assert.Zero(t, m.SalesToday)
	assert.EqualValues(t, 4200, m.TotalSales)
	assert.EqualValues(t, 3, m.TotalTransactions)
	assert.Equal(t, 2, m.CurrentStreak)
}

func TestApplySaleReversalEmptyMetrics(t *testing.T) {
	m := newTestMetrics(1000)

	applySaleReversal(m, 999)

	assert.Zero(t, m.SalesToday)
	assert.Zero(t, m.TotalSales)
	assert.Zero(t, m.TotalTransactions)
}

func TestQuotaProgress(t *testing.T) {
	m := newTestMetrics(1000)
	m.SalesToday = 250
	assert.InDelta(t, 25.0, m.QuotaProgress(), 0.001)

	m.DailyQuota = 0
	assert.Zero(t, m.QuotaProgress())
}
