package payement

import (
	"errors"
	"log"
	"net/http"

	"voltshop_back_end/internal/payment"

	"github.com/gin-gonic/gin"
)

// POST /api/payment/liqpay-callback (form data + signature)
func (h *Handler) LiqPayCallback(c *gin.Context) {
	if h.liqpay == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "LiqPay non configuré"})
		return
	}
	res, err := h.liqpay.Verify(c.PostForm("data"), c.PostForm("signature"))
	switch {
	case errors.Is(err, payment.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	case errors.Is(err, payment.ErrInvalidSignature):
		log.Printf("❌ Signature LiqPay invalide (ip %s)", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Signature invalide"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Notification illisible", "details": err.Error()})
		return
	}
	log.Printf("📥 Callback LiqPay reçu: commande %s, statut %s", res.OrderRef, res.Status)
	h.confirm(c, res)
}
