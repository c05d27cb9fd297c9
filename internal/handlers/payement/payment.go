package payement

import (
	"log"
	"net/http"
	"strconv"

	orderhandler "voltshop_back_end/internal/handlers/order"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/orders"
	"voltshop_back_end/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// Handler regroupe les routes de paiement. liqpay et stripe sont nil quand non configurés.
type Handler struct {
	svc    *orders.Service
	liqpay *payment.LiqPay
	stripe *payment.Stripe
}

func NewHandler(svc *orders.Service, liqpay *payment.LiqPay, stripe *payment.Stripe) *Handler {
	return &Handler{svc: svc, liqpay: liqpay, stripe: stripe}
}

// POST /api/payment/create-session
func (h *Handler) CreateSession(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "JSON invalide", "details": err.Error()})
		return
	}
	res, err := h.svc.CreateSession(c.Request.Context(), req)
	if err != nil {
		orderhandler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"orderId":     res.OrderID,
		"totalAmount": res.TotalAmount,
		"payment":     res.Checkout,
	})
}

// confirm applique une notification vérifiée et répond à la passerelle
func (h *Handler) confirm(c *gin.Context, res *payment.Result) {
	out, err := h.svc.ConfirmPayment(c.Request.Context(), res)
	if err != nil {
		orderhandler.RespondError(c, err)
		return
	}
	log.Printf("💳 Notification %s traitée: commande %s (%s)", res.Provider, out.OrderID, out.Message)
	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": out.OrderID, "message": out.Message})
}

// GET /api/payment/:orderId/qr renvoie le QR code PNG du lien de paiement LiqPay
func (h *Handler) PaymentQR(c *gin.Context) {
	if h.liqpay == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "LiqPay non configuré"})
		return
	}
	id, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Identifiant de commande invalide"})
		return
	}
	ctx := c.Request.Context()
	order, _, err := h.svc.Get(ctx, id)
	if err != nil {
		orderhandler.RespondError(c, err)
		return
	}
	if order.PaymentMethod != models.PaymentOnline || order.Status != models.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "La commande n'attend pas de paiement en ligne", "details": gin.H{"status": order.Status}})
		return
	}

	co, err := h.liqpay.CreateCheckout(ctx, payment.CheckoutRequest{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		CustomerEmail: order.CustomerEmail,
	})
	if err != nil {
		log.Printf("❌ Erreur lien LiqPay pour %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur génération du lien de paiement"})
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultQRSize)))
	if err != nil || size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	png, err := payment.QRCode(co.CheckoutURL, size)
	if err != nil {
		log.Printf("❌ Erreur génération QR code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur génération QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
