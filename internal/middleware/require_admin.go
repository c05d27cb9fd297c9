package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin vérifie le jeton admin (en-tête X-Admin-Token ou Bearer).
// Sans jeton configuré les routes admin restent ouvertes.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		given := c.GetHeader(AdminTokenHeader)
		if given == "" {
			given = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Accès réservé aux administrateurs"})
			c.Abort()
			return
		}
		c.Next()
	}
}
