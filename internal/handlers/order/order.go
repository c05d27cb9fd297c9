package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc            *orders.Service
	reconcileAfter time.Duration
}

func NewHandler(svc *orders.Service, reconcileAfter time.Duration) *Handler {
	return &Handler{svc: svc, reconcileAfter: reconcileAfter}
}

func parseOrderID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Identifiant de commande invalide", "details": gin.H{"field": "orderId"}})
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/order/create
func (h *Handler) CreateOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "JSON invalide", "details": err.Error()})
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	body := gin.H{
		"success":     true,
		"orderId":     res.Order.ID,
		"status":      res.Order.Status,
		"totalAmount": res.Order.TotalAmount,
	}
	if res.Checkout != nil {
		body["payment"] = res.Checkout
	}
	c.JSON(http.StatusCreated, body)
}

// GET /api/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseOrderID(c, c.Param("id"))
	if !ok {
		return
	}
	order, items, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "items": items})
}

// POST /api/send-status-email
func (h *Handler) SendStatusEmail(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "JSON invalide", "details": err.Error()})
		return
	}
	id, ok := parseOrderID(c, req.OrderID)
	if !ok {
		return
	}
	var status models.OrderStatus
	if req.Status != "" {
		st, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "details": gin.H{"field": "status"}})
			return
		}
		status = st
	}

	messageID, err := h.svc.SendStatusEmail(c.Request.Context(), id, status)
	if errors.Is(err, orders.ErrNoCustomerEmail) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": messageID})
}

// GET /api/admin/orders
func (h *Handler) ListOrders(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		limit = 100
	}
	list, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": list, "count": len(list)})
}

// PATCH /api/admin/orders/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseOrderID(c, c.Param("id"))
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
		Force  bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "JSON invalide", "details": err.Error()})
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "details": gin.H{"field": "status"}})
		return
	}
	order, err := h.svc.UpdateStatus(c.Request.Context(), id, status, req.Force)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// POST /api/admin/orders/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	n, err := h.svc.Reconcile(c.Request.Context(), h.reconcileAfter)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cancelled": n})
}
