package product

import (
	"context"
	"log"
	"net/http"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

const categoriesKey = "categories:all"

func (h *Handler) categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := h.cache.GetJSON(ctx, categoriesKey, &cats); err == nil {
		return cats, nil
	}
	cats, err := h.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.cache.SetJSON(ctx, categoriesKey, cats, cache.ListCacheTTL); err != nil {
		log.Printf("⚠️ Erreur mise en cache catégories: %v", err)
	}
	return cats, nil
}

func (h *Handler) categoryExists(ctx context.Context, id int) (bool, error) {
	cats, err := h.categories(ctx)
	if err != nil {
		return false, err
	}
	for _, cat := range cats {
		if cat.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// GET /api/categories
func (h *Handler) GetCategories(c *gin.Context) {
	cats, err := h.categories(c.Request.Context())
	if err != nil {
		log.Printf("❌ Erreur lecture catégories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture catégories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": cats})
}
