package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/service"
	"inventory-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	saleService      *service.SaleService
	inventoryService *service.InventoryService
	metricsService   *service.MetricsService
	auditService     *service.AuditService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	saleService *service.SaleService,
	inventoryService *service.InventoryService,
	metricsService *service.MetricsService,
	auditService *service.AuditService,
) *Handler {
	return &Handler{
		saleService:      saleService,
		inventoryService: inventoryService,
		metricsService:   metricsService,
		auditService:     auditService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sales", h.recordSale)
		v1.GET("/sales/report", h.salesReport)
		v1.GET("/sales/:id", h.getSale)
		v1.DELETE("/sales/:id", h.undoSale)

		v1.GET("/products/:id/stock", h.getStock)
		v1.GET("/products/:id/batches", h.listBatches)
		v1.POST("/products/:id/batches", h.addBatch)
		v1.POST("/batches/:id/reduce", h.reduceBatch)
		v1.DELETE("/batches/:id", h.removeBatch)

		v1.GET("/retailers/:id/performance", h.getPerformance)
		v1.PUT("/retailers/:id/quota", h.updateQuota)
		v1.GET("/leaderboard", h.leaderboard)

		v1.POST("/admin/metrics/reset", h.resetMetrics)
		v1.GET("/admin/activity", h.listActivity)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// recordSale handles sale creation
func (h *Handler) recordSale(c *gin.Context) {
	var req service.RecordSaleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	sale, err := h.saleService.RecordAtomicSale(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to record sale")
		return
	}

	c.JSON(http.StatusCreated, sale)
}

// getSale handles get sale by ID
func (h *Handler) getSale(c *gin.Context) {
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.writeError(c, err, "Failed to get sale")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// undoSale handles sale reversal. The acting user is mandatory so every
// reversal is attributable in the audit trail.
func (h *Handler) undoSale(c *gin.Context) {
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	actorID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || actorID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing or invalid X-User-ID header",
		})
		return
	}

	if err := h.saleService.UndoSale(c.Request.Context(), saleID, actorID); err != nil {
		h.writeError(c, err, "Failed to undo sale")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "reversed",
		"sale_id": saleID,
	})
}

// salesReport handles aggregated sales reporting over a date range
func (h *Handler) salesReport(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid 'from' date, expected YYYY-MM-DD",
		})
		return
	}

	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid 'to' date, expected YYYY-MM-DD",
		})
		return
	}
	// The range is inclusive of the whole 'to' day.
	to = to.AddDate(0, 0, 1).Add(-time.Second)

	var retailerID int64
	if raw := c.Query("retailer_id"); raw != "" {
		retailerID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid retailer_id",
			})
			return
		}
	}

	sales, summary, err := h.saleService.GetSalesReport(c.Request.Context(), from, to, retailerID)
	if err != nil {
		h.writeError(c, err, "Failed to build sales report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"sales":   sales,
	})
}

// getStock handles total stock lookup for a product
func (h *Handler) getStock(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	total, lowStock, err := h.inventoryService.StockStatus(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err, "Failed to get stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id":  productID,
		"total_stock": total,
		"low_stock":   lowStock,
	})
}

// listBatches handles batch listing for a product, in deduction order
func (h *Handler) listBatches(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	batches, err := h.inventoryService.ListBatches(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err, "Failed to list batches")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"batches":    batches,
	})
}

type addBatchRequest struct {
	Quantity       int    `json:"quantity" binding:"required"`
	ExpirationDate string `json:"expiration_date"`
	Reason         string `json:"reason"`
	UserID         int64  `json:"user_id" binding:"required"`
}

// addBatch handles stock batch creation
func (h *Handler) addBatch(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	var expiration *time.Time
	if req.ExpirationDate != "" {
		parsed, err := parseDate(req.ExpirationDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid expiration_date, expected YYYY-MM-DD",
			})
			return
		}
		expiration = &parsed
	}

	batch, err := h.inventoryService.AddBatch(
		c.Request.Context(), productID, req.Quantity, expiration, req.Reason, req.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to add batch")
		return
	}

	c.JSON(http.StatusCreated, batch)
}

type reduceBatchRequest struct {
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason"`
	UserID   int64  `json:"user_id" binding:"required"`
}

// reduceBatch handles a manual quantity reduction on a single batch
func (h *Handler) reduceBatch(c *gin.Context) {
	batchID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req reduceBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	batch, err := h.inventoryService.ReduceBatch(
		c.Request.Context(), batchID, req.Quantity, req.Reason, req.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to reduce batch")
		return
	}

	c.JSON(http.StatusOK, batch)
}

// removeBatch handles batch deletion
func (h *Handler) removeBatch(c *gin.Context) {
	batchID, ok := pathID(c, "id")
	if !ok {
		return
	}

	actorID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || actorID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing or invalid X-User-ID header",
		})
		return
	}

	if err := h.inventoryService.RemoveBatch(c.Request.Context(), batchID, actorID); err != nil {
		h.writeError(c, err, "Failed to remove batch")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "removed",
		"batch_id": batchID,
	})
}

// getPerformance handles retailer performance lookup
func (h *Handler) getPerformance(c *gin.Context) {
	retailerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	metrics, err := h.metricsService.GetRetailerPerformance(c.Request.Context(), retailerID)
	if err != nil {
		h.writeError(c, err, "Failed to get retailer performance")
		return
	}

	c.JSON(http.StatusOK, metrics)
}

type updateQuotaRequest struct {
	DailyQuota int64 `json:"daily_quota" binding:"required"`
	UserID     int64 `json:"user_id" binding:"required"`
}

// updateQuota handles daily quota changes for a retailer
func (h *Handler) updateQuota(c *gin.Context) {
	retailerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	metrics, err := h.metricsService.UpdateQuota(
		c.Request.Context(), retailerID, req.DailyQuota, req.UserID)
	if err != nil {
		h.writeError(c, err, "Failed to update quota")
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// leaderboard handles the retailer streak leaderboard
func (h *Handler) leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = parsed
	}

	entries, err := h.metricsService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err, "Failed to get leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
	})
}

// resetMetrics triggers the daily reset pass on demand. The scheduler runs
// the same pass automatically every night.
func (h *Handler) resetMetrics(c *gin.Context) {
	count, err := h.metricsService.ResetDaily(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to reset metrics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "reset",
		"retailers": count,
	})
}

// listActivity returns the recent audit trail, newest first
func (h *Handler) listActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = parsed
	}

	logs, err := h.auditService.RecentActivity(c.Request.Context(), limit, c.Query("action"))
	if err != nil {
		h.writeError(c, err, "Failed to list activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": logs,
	})
}

// writeError maps service errors onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError

	switch {
	case service.IsInsufficientStock(err):
		status = http.StatusConflict
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrBatchNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrMetricsNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
