package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"voltshop_back_end/internal/cache"

	"github.com/gin-gonic/gin"
)

const (
	SearchMaxRequests = 30
	RateLimitWindow   = 1 * time.Minute
)

// RateLimit compte les requêtes par IP dans Redis sur une fenêtre fixe.
// Sans Redis, ou si Redis échoue, la requête passe.
func RateLimit(c *cache.Cache, prefix string, max int, window time.Duration, message string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if max <= 0 || !c.Enabled() {
			ctx.Next()
			return
		}
		key := prefix + ":" + ctx.ClientIP()
		n, err := c.IncrementRateLimit(ctx.Request.Context(), key, window)
		if err != nil {
			log.Printf("⚠️ Rate limit indisponible (%s): %v", prefix, err)
			ctx.Next()
			return
		}

		remaining := int64(max) - n
		if remaining < 0 {
			remaining = 0
		}
		ctx.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		ctx.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if n > int64(max) {
			ctx.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       message,
				"retry_after": int(window.Seconds()),
			})
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// OrderRateLimit limite les créations de commande et de session de paiement
func OrderRateLimit(c *cache.Cache, perMinute int) gin.HandlerFunc {
	return RateLimit(c, "order_requests", perMinute, RateLimitWindow, "Trop de commandes. Réessayez dans 1 minute")
}

// SearchRateLimit limite les recherches (anti-spam)
func SearchRateLimit(c *cache.Cache) gin.HandlerFunc {
	return RateLimit(c, "search_requests", SearchMaxRequests, RateLimitWindow, "Trop de recherches. Réessayez dans 1 minute")
}
