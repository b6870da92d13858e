package handler

import (
	"net/http"
	"strings"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/feed"
	"stock_go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler is the broker-terminal surface: order intake, ledgers, the price
// chart and admin overrides. It only writes pending rows and directives —
// settlement happens exclusively inside the cycle, keeping the ledger
// single-writer.
type Handler struct {
	store *store.Store
	hub   *feed.Hub
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, hub *feed.Hub) *Handler {
	return &Handler{store: st, hub: hub}
}

// RegisterRoutes sets up the Gin routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/orders", h.PlaceOrder)
		v1.GET("/orders/:id", h.GetOrder)
		v1.GET("/prices", h.GetPrices)
		v1.GET("/prices/ws", h.PricesWS)
		v1.GET("/participants/:name", h.GetParticipant)
		v1.POST("/admin/overrides", h.SetOverride)
	}
}

// Health returns a health check response.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stock-exchange-sim",
	})
}

// PlaceOrderRequest is the request body for submitting an order. Quantity,
// price and total are raw strings: the settlement pipeline is the parser,
// a malformed order is accepted here and rejected with a reason during the
// next cycle.
type PlaceOrderRequest struct {
	Buyer    string `json:"buyer" binding:"required"`
	Seller   string `json:"seller" binding:"required"`
	Company  string `json:"company" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	Price    string `json:"price" binding:"required"`
	Total    string `json:"total"`
}

// PlaceOrder handles POST /v1/orders.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		Buyer:         strings.TrimSpace(req.Buyer),
		Seller:        strings.TrimSpace(req.Seller),
		Company:       strings.ToUpper(strings.TrimSpace(req.Company)),
		Quantity:      req.Quantity,
		Price:         req.Price,
		DeclaredTotal: req.Total,
		Resubmit:      true,
		CreatedAt:     time.Now(),
	}

	if err := h.store.CreateOrder(c.Request.Context(), &order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /v1/orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.store.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetPrices handles GET /v1/prices.
func (h *Handler) GetPrices(c *gin.Context) {
	rows, err := h.store.PriceRows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// PricesWS handles GET /v1/prices/ws: the live price feed.
func (h *Handler) PricesWS(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}

// GetParticipant handles GET /v1/participants/:name: the ledger plus
// recent transaction history.
func (h *Handler) GetParticipant(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	cash, err := h.store.CashBalance(ctx, name)
	if err != nil {
		if err == domain.ErrUnknownParticipant {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	holdings, err := h.store.Holdings(ctx, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	transactions, err := h.store.Transactions(ctx, name, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":         name,
		"cash":         cash,
		"holdings":     holdings,
		"transactions": transactions,
	})
}

// SetOverrideRequest is the request body for an admin price override.
type SetOverrideRequest struct {
	Company string          `json:"company" binding:"required"`
	Price   decimal.Decimal `json:"price" binding:"required"`
}

// SetOverride handles POST /v1/admin/overrides. The directive is consumed
// and cleared by the next price-discovery pass.
func (h *Handler) SetOverride(c *gin.Context) {
	var req SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "override price must be positive"})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Company))
	if err := h.store.SetOverride(c.Request.Context(), symbol, req.Price); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"company": symbol, "price": req.Price})
}
