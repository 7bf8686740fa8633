package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBelowMinStock(t *testing.T) {
	p := &Product{ID: 1, Name: "Aspirin 500mg", MinStockLevel: 10}

	assert.True(t, p.BelowMinStock(9))
	assert.False(t, p.BelowMinStock(10))
	assert.False(t, p.BelowMinStock(25))

	// A product without a threshold is never low.
	none := &Product{ID: 2, Name: "Bandages"}
	assert.False(t, none.BelowMinStock(0))
}

func TestQuotaMet(t *testing.T) {
	m := &RetailerMetrics{DailyQuota: 1000, SalesToday: 999}
	assert.False(t, m.QuotaMet())

	m.SalesToday = 1000
	assert.True(t, m.QuotaMet())
}
