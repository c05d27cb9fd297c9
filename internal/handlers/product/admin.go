package product

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var cleanupMinPrice = decimal.NewFromInt(1)

// PUT /api/admin/products/:id/category
func (h *Handler) UpdateCategory(c *gin.Context) {
	id := models.ProductUUID(c.Param("id"))
	var req struct {
		CategoryID int `json:"categoryId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "JSON invalide", "details": err.Error()})
		return
	}
	ctx := c.Request.Context()
	known, err := h.categoryExists(ctx, req.CategoryID)
	if err != nil {
		log.Printf("❌ Erreur lecture catégories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture catégories"})
		return
	}
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Catégorie introuvable", "details": gin.H{"field": "categoryId"}})
		return
	}

	err = h.store.UpdateProductCategory(ctx, id, req.CategoryID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Produit introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Erreur mise à jour catégorie %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur mise à jour catégorie"})
		return
	}

	if p, err := h.store.GetProduct(ctx, id); err == nil {
		if err := h.search.IndexProduct(ctx, *p); err != nil {
			log.Printf("⚠️ Erreur réindexation %s: %v", id, err)
		}
	}
	h.invalidate(ctx, id)
	c.JSON(http.StatusOK, gin.H{"success": true, "productId": id, "categoryId": req.CategoryID})
}

// POST /api/admin/products/cleanup supprime les produits sans image ou sous le prix plancher
func (h *Handler) Cleanup(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture produits"})
		return
	}

	var ids []uuid.UUID
	for _, p := range products {
		if strings.TrimSpace(p.ImageURL) == "" || p.Price.LessThan(cleanupMinPrice) {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": 0})
		return
	}

	if err := h.store.DeleteProducts(ctx, ids); err != nil {
		log.Printf("❌ Erreur nettoyage produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur suppression produits"})
		return
	}
	if err := h.search.DeleteProducts(ctx, ids); err != nil {
		log.Printf("⚠️ Erreur suppression index: %v", err)
	}
	h.invalidate(ctx, ids...)
	log.Printf("🧹 %d produit(s) supprimé(s) par le nettoyage", len(ids))
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": len(ids)})
}
