package models

import "time"

// Product represents an item in the catalog. StockLevel is derived from the
// product's batches and is never stored independently.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Brand         string    `db:"brand" json:"brand,omitempty"`
	Price         int64     `db:"price" json:"price"`
	CategoryID    int64     `db:"category_id" json:"category_id"`
	MinStockLevel int       `db:"min_stock_level" json:"min_stock_level"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// BelowMinStock reports whether a derived stock total has fallen under the
// product's minimum stock threshold.
func (p *Product) BelowMinStock(total int) bool {
	return total < p.MinStockLevel
}

// StockBatch is a quantity of one product received together. A nil
// ExpirationDate means the batch never expires and is consumed last.
type StockBatch struct {
	ID             int64      `db:"id" json:"id"`
	ProductID      int64      `db:"product_id" json:"product_id"`
	Quantity       int        `db:"quantity" json:"quantity"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	AddedAt        time.Time  `db:"added_at" json:"added_at"`
	AddedBy        int64      `db:"added_by" json:"added_by"`
	Reason         string     `db:"reason" json:"reason"`
}

// Sale is an immutable-once-committed aggregate of sale lines.
type Sale struct {
	ID          int64     `db:"id" json:"id"`
	RetailerID  int64     `db:"retailer_id" json:"retailer_id"`
	TotalAmount int64     `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Items []SaleItem `db:"-" json:"items,omitempty"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID        int64 `db:"id" json:"id"`
	SaleID    int64 `db:"sale_id" json:"sale_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	LineTotal int64 `db:"line_total" json:"line_total"`
}

// RetailerMetrics tracks a retailer's daily quota performance. One record per
// retailer, created lazily on the first sale.
type RetailerMetrics struct {
	RetailerID        int64      `db:"retailer_id" json:"retailer_id"`
	DailyQuota        int64      `db:"daily_quota" json:"daily_quota"`
	SalesToday        int64      `db:"sales_today" json:"sales_today"`
	TotalSales        int64      `db:"total_sales" json:"total_sales"`
	TotalTransactions int64      `db:"total_transactions" json:"total_transactions"`
	LastSaleDate      *time.Time `db:"last_sale_date" json:"last_sale_date,omitempty"`
	CurrentStreak     int        `db:"current_streak" json:"current_streak"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// QuotaMet reports whether today's sales have reached the daily quota.
func (m *RetailerMetrics) QuotaMet() bool {
	return m.SalesToday >= m.DailyQuota
}

// QuotaProgress returns today's sales as a percentage of the quota.
func (m *RetailerMetrics) QuotaProgress() float64 {
	if m.DailyQuota <= 0 {
		return 0
	}
	return float64(m.SalesToday) / float64(m.DailyQuota) * 100
}

// SequenceCounter backs id issuance. One row per entity type; seq only moves
// forward.
type SequenceCounter struct {
	EntityType string `db:"entity_type"`
	Seq        int64  `db:"seq"`
}

// ActivityLog is one persisted audit record.
type ActivityLog struct {
	ID           int64     `db:"id" json:"id"`
	ActorID      int64     `db:"actor_id" json:"actor_id"`
	Action       string    `db:"action" json:"action"`
	TargetEntity string    `db:"target_entity" json:"target_entity"`
	TargetID     int64     `db:"target_id" json:"target_id"`
	Details      string    `db:"details" json:"details"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent for audit consumer idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// LeaderboardEntry is one row of the retailer leaderboard, ranked by streak
// then lifetime sales.
type LeaderboardEntry struct {
	Rank              int   `db:"-" json:"rank"`
	RetailerID        int64 `db:"retailer_id" json:"retailer_id"`
	CurrentStreak     int   `db:"current_streak" json:"current_streak"`
	SalesToday        int64 `db:"sales_today" json:"sales_today"`
	TotalSales        int64 `db:"total_sales" json:"total_sales"`
	TotalTransactions int64 `db:"total_transactions" json:"total_transactions"`
}

// SalesReportSummary aggregates sales over a report window.
type SalesReportSummary struct {
	TotalRevenue      int64 `json:"total_revenue"`
	TotalTransactions int   `json:"total_transactions"`
	TotalItemsSold    int   `json:"total_items_sold"`
}
