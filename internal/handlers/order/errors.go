package order

import (
	"errors"
	"log"
	"net/http"

	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/orders"

	"github.com/gin-gonic/gin"
)

// RespondError traduit les erreurs du service commandes en réponse JSON
func RespondError(c *gin.Context, err error) {
	var ve *orders.ValidationError
	var nf *orders.ProductNotFoundError
	var te *orders.TransitionError

	switch {
	case errors.As(err, &ve):
		details := gin.H{"field": ve.Field}
		if ve.Line >= 0 {
			details["line"] = ve.Line
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ve.Error(), "details": details})
	case errors.As(err, &nf):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Produit introuvable",
			"details": gin.H{"line": nf.Line, "productId": nf.ProductID},
		})
	case errors.As(err, &te):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   te.Error(),
			"details": gin.H{"from": te.From, "to": te.To},
		})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Commande introuvable"})
	case errors.Is(err, orders.ErrGatewayUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Paiement en ligne indisponible"})
	case errors.Is(err, orders.ErrPaymentFailed):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("❌ Erreur traitement commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur interne", "details": err.Error()})
	}
}
