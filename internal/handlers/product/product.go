package product

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/catalog"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handler struct {
	store   database.ProductStore
	catalog *catalog.Store
	cache   *cache.Cache
	search  *services.SearchIndex
}

func NewHandler(store database.ProductStore, cat *catalog.Store, c *cache.Cache, search *services.SearchIndex) *Handler {
	return &Handler{store: store, catalog: cat, cache: c, search: search}
}

// loadCatalog charge le catalogue une seule fois : Redis d'abord, ScyllaDB sinon
func (h *Handler) loadCatalog(ctx context.Context) error {
	if h.catalog.Loaded() {
		return nil
	}
	var products []models.Product
	if err := h.cache.GetJSON(ctx, cache.ProductsAllKey, &products); err == nil {
		h.catalog.SetProducts(products)
		return nil
	}
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		return err
	}
	if err := h.cache.SetJSON(ctx, cache.ProductsAllKey, products, cache.ListCacheTTL); err != nil {
		log.Printf("⚠️ Erreur mise en cache produits: %v", err)
	}
	h.catalog.SetProducts(products)
	log.Printf("✅ Catalogue chargé: %d produits", len(products))
	return nil
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// GET /api/products
func (h *Handler) ListProducts(c *gin.Context) {
	if err := h.loadCatalog(c.Request.Context()); err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture produits"})
		return
	}
	filter, err := catalog.FilterFromQuery(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Filtre invalide", "details": err.Error()})
		return
	}
	page := h.catalog.Page(filter, queryInt(c, "page", 1), queryInt(c, "limit", catalog.DefaultPageSize))

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": page.Items,
		"total":    page.Total,
		"page":     page.Page,
		"limit":    page.Limit,
		"hasMore":  page.HasMore,
	})
}

// GET /api/products/:id, accepte l'UUID ou l'identifiant fournisseur
func (h *Handler) GetProduct(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("id"))
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Identifiant produit manquant"})
		return
	}
	id := models.ProductUUID(ref)
	ctx := c.Request.Context()
	key := cache.ProductKey(id.String())

	var p models.Product
	if err := h.cache.GetJSON(ctx, key, &p); err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
		return
	}

	found, err := h.store.GetProduct(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Produit introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Erreur lecture produit %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture produit"})
		return
	}
	if err := h.cache.SetJSON(ctx, key, found, cache.ProductCacheTTL); err != nil {
		log.Printf("⚠️ Erreur mise en cache produit %s: %v", id, err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": found})
}

// GET /api/products/search?q=
func (h *Handler) SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "paramètre 'q' manquant"})
		return
	}
	ctx := c.Request.Context()
	if err := h.loadCatalog(ctx); err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture produits"})
		return
	}
	limit := queryInt(c, "limit", 20)
	if limit < 1 || limit > catalog.MaxPageSize {
		limit = catalog.MaxPageSize
	}

	// 🔎 Elasticsearch en priorité, le catalogue en secours
	ids, err := h.search.Search(ctx, query, limit)
	if err != nil && !errors.Is(err, services.ErrSearchDisabled) {
		log.Printf("⚠️ Recherche Elastic indisponible, repli sur le catalogue: %v", err)
	}
	if err == nil && len(ids) > 0 {
		if results := h.byIDs(ids); len(results) > 0 {
			c.JSON(http.StatusOK, gin.H{"success": true, "products": results, "source": "elasticsearch"})
			return
		}
	}

	results := h.catalog.Apply(catalog.Filter{Search: query})
	if len(results) > limit {
		results = results[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": results, "source": "catalog"})
}

// byIDs garde l'ordre de pertinence et ignore les ids inconnus du catalogue
func (h *Handler) byIDs(ids []uuid.UUID) []models.Product {
	index := make(map[uuid.UUID]models.Product)
	for _, p := range h.catalog.Products() {
		index[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := index[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

type createProductRequest struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Price           decimal.Decimal   `json:"price"`
	Quantity        int               `json:"quantity"`
	Brand           string            `json:"brand"`
	CategoryID      int               `json:"categoryId"`
	ImageURL        string            `json:"imageUrl"`
	ImageURLs       []string          `json:"imageUrls"`
	VendorCode      string            `json:"vendorCode"`
	Characteristics map[string]string `json:"characteristics"`
}

// POST /api/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "JSON invalide", "details": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Le champ 'name' est obligatoire", "details": gin.H{"field": "name"}})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Le prix doit être positif", "details": gin.H{"field": "price"}})
		return
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "La quantité ne peut pas être négative", "details": gin.H{"field": "quantity"}})
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

	now := time.Now()
	p := models.Product{
		ID:              uuid.New(),
		Name:            req.Name,
		Description:     strings.TrimSpace(req.Description),
		Price:           req.Price,
		Quantity:        req.Quantity,
		Brand:           strings.TrimSpace(req.Brand),
		CategoryID:      req.CategoryID,
		ImageURL:        strings.TrimSpace(req.ImageURL),
		ImageURLs:       req.ImageURLs,
		VendorCode:      strings.TrimSpace(req.VendorCode),
		Characteristics: req.Characteristics,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.ImageURL == "" && len(p.ImageURLs) > 0 {
		p.ImageURL = p.ImageURLs[0]
	}

	if err := h.store.InsertProducts(ctx, []models.Product{p}); err != nil {
		log.Printf("❌ Erreur création produit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur création produit"})
		return
	}

	// 🔄 Indexation Elasticsearch, non bloquante pour la création
	if err := h.search.IndexProduct(ctx, p); err != nil {
		log.Printf("⚠️ Erreur indexation produit %s: %v", p.ID, err)
	}
	h.invalidate(ctx)

	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": p})
}

func (h *Handler) invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	h.cache.InvalidateProducts(ctx, keys...)
	h.catalog.Reset()
}
