package service

import (
	"time"

	"inventory-service/internal/models"
)

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// applySaleToMetrics advances a retailer's metrics for one committed sale.
//
// When the previous sale was on an earlier day, yesterday's quota is
// evaluated against the previous salesToday/dailyQuota pair before today's
// counters start. A salesToday of zero on a rollover means the nightly reset
// already evaluated yesterday (committed sales always carry a positive
// amount), so the streak it computed is kept rather than evaluated twice.
func applySaleToMetrics(m *models.RetailerMetrics, amount int64, now time.Time) {
	today := dateOnly(now)

	if m.LastSaleDate != nil {
		last := dateOnly(*m.LastSaleDate)
		if last.Before(today) {
			yesterday := today.AddDate(0, 0, -1)
			switch {
			case last.Equal(yesterday) && m.SalesToday == 0:
				// streak already settled by the daily reset
			case last.Equal(yesterday) && m.QuotaMet():
				m.CurrentStreak++
			default:
				m.CurrentStreak = 0
			}
			m.SalesToday = 0
		}
	}

	m.SalesToday += amount
	m.TotalSales += amount
	m.TotalTransactions++
	m.LastSaleDate = &today

	// The first day of a new streak becomes visible immediately rather than
	// waiting for the next day's rollover.
	if m.QuotaMet() && m.CurrentStreak == 0 {
		m.CurrentStreak = 1
	}
}

// applyDailyReset performs the end-of-day transition for one retailer: the
// streak grows if yesterday's quota was met, resets if the retailer missed a
// full day, and salesToday is zeroed either way.
func applyDailyReset(m *models.RetailerMetrics, now time.Time) {
	today := dateOnly(now)
	yesterday := today.AddDate(0, 0, -1)

	if m.LastSaleDate != nil {
		last := dateOnly(*m.LastSaleDate)
		switch {
		case last.Equal(yesterday):
			if m.QuotaMet() {
				m.CurrentStreak++
			} else {
				m.CurrentStreak = 0
			}
		case last.Before(yesterday):
			m.CurrentStreak = 0
		}
	}

	m.SalesToday = 0
}

// applySaleReversal backs a sale's amount out of a retailer's counters,
// flooring each at zero. Streak state is left alone: a reversal is a
// compensating action, not a rewind of streak history.
func applySaleReversal(m *models.RetailerMetrics, amount int64) {
	m.SalesToday -= amount
	if m.SalesToday < 0 {
		m.SalesToday = 0
	}
	m.TotalSales -= amount
	if m.TotalSales < 0 {
		m.TotalSales = 0
	}
	if m.TotalTransactions > 0 {
		m.TotalTransactions--
	}
}
