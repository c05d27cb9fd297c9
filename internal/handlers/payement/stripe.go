package payement

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = int64(65536)

// POST /api/payment/stripe-webhook
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.stripe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Stripe non configuré"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Échec lecture body"})
		return
	}

	res, err := h.stripe.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Println("❌ Webhook Stripe rejeté:", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Signature invalide"})
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ignored"})
		return
	}
	h.confirm(c, res)
}
