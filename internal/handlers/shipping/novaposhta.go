package shipping

import (
	"log"
	"net/http"
	"strings"

	"voltshop_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	np *services.NovaPoshta
}

func NewHandler(np *services.NovaPoshta) *Handler {
	return &Handler{np: np}
}

// GET /api/novaposhta/cities?q=
func (h *Handler) Cities(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len([]rune(q)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "paramètre 'q' trop court", "details": gin.H{"field": "q"}})
		return
	}
	cities, err := h.np.SearchCities(c.Request.Context(), q)
	if err != nil {
		log.Printf("❌ Nova Poshta (villes %q): %v", q, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Nova Poshta indisponible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cities": cities})
}

// GET /api/novaposhta/warehouses?cityRef=&q=
func (h *Handler) Warehouses(c *gin.Context) {
	cityRef := strings.TrimSpace(c.Query("cityRef"))
	if cityRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "paramètre 'cityRef' manquant", "details": gin.H{"field": "cityRef"}})
		return
	}
	warehouses, err := h.np.Warehouses(c.Request.Context(), cityRef, strings.TrimSpace(c.Query("q")))
	if err != nil {
		log.Printf("❌ Nova Poshta (entrepôts %s): %v", cityRef, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Nova Poshta indisponible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "warehouses": warehouses})
}
