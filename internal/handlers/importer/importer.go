package importer

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"voltshop_back_end/internal/database"
	feed "voltshop_back_end/internal/importer"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

const feedURLTTL = time.Hour

type Handler struct {
	importer *feed.Importer
	store    database.ProductStore
	archive  *services.FeedArchive
}

func NewHandler(im *feed.Importer, store database.ProductStore, archive *services.FeedArchive) *Handler {
	return &Handler{importer: im, store: store, archive: archive}
}

// POST /api/import
func (h *Handler) RunImport(c *gin.Context) {
	res, err := h.importer.Run(c.Request.Context())
	switch {
	case errors.Is(err, feed.ErrRunning):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	case errors.Is(err, feed.ErrFetch):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Flux fournisseur indisponible", "details": err.Error()})
		return
	case err != nil:
		log.Printf("❌ Import en échec: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur import", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"inserted": res.Inserted,
		"updated":  res.Updated,
		"deleted":  res.Deleted,
		"skipped":  res.Skipped,
		"errors":   res.Errors,
	})
}

type importLogView struct {
	models.ImportLog
	FeedURL string `json:"feed_url,omitempty"`
}

// GET /api/admin/import/logs
func (h *Handler) ListLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	ctx := c.Request.Context()
	entries, err := h.store.ListImportLogs(ctx, limit)
	if err != nil {
		log.Printf("❌ Erreur lecture journaux d'import: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture journaux d'import"})
		return
	}

	views := make([]importLogView, 0, len(entries))
	for _, e := range entries {
		v := importLogView{ImportLog: e}
		if e.FeedObject != "" && h.archive != nil {
			if u, err := h.archive.PresignedURL(ctx, e.FeedObject, feedURLTTL); err == nil {
				v.FeedURL = u
			} else {
				log.Printf("⚠️ URL signée impossible pour %s: %v", e.FeedObject, err)
			}
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": views})
}
