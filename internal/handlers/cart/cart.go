package cart

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	pollInterval = 3 * time.Second
	writeTimeout = 10 * time.Second
)

type Handler struct {
	svc      *orders.Service
	cache    *cache.Cache
	upgrader websocket.Upgrader
}

// NewHandler accepte toutes les origines quand allowedOrigins est vide
func NewHandler(svc *orders.Service, c *cache.Cache, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		svc:   svc,
		cache: c,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Handler) cleared(ctx context.Context, id uuid.UUID) (bool, time.Time, error) {
	e, err := h.svc.CartStatus(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, err
	}
	return true, e.CreatedAt, nil
}

// GET /api/cart/clear-status/:orderId
func (h *Handler) ClearStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Identifiant de commande invalide"})
		return
	}
	clear, at, err := h.cleared(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ Erreur lecture marqueur panier %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur lecture statut panier"})
		return
	}
	body := gin.H{"success": true, "clear": clear}
	if clear {
		body["createdAt"] = at
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/cart/events/:orderId : WebSocket, pousse cart_cleared une fois puis ferme
func (h *Handler) Events(c *gin.Context) {
	id, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Identifiant de commande invalide"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// la lecture détecte la fermeture côté client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// abonnement avant la vérification du marqueur pour ne rien rater
	var events <-chan struct{}
	if pubsub := h.cache.Subscribe(ctx, cache.CartChannel(id.String())); pubsub != nil {
		defer pubsub.Close()
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Printf("⚠️ Abonnement Redis impossible pour %s: %v", id, err)
		} else {
			events = relay(ctx, pubsub.Channel())
		}
	}

	if err := write(conn, gin.H{"type": "connected", "orderId": id.String()}); err != nil {
		return
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	check := func() bool {
		ok, _, err := h.cleared(ctx, id)
		if err != nil {
			log.Printf("⚠️ Lecture marqueur panier %s: %v", id, err)
		}
		return ok
	}
	if check() {
		h.sendCleared(conn, id)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			h.sendCleared(conn, id)
			return
		case <-poll.C:
			if events == nil && check() {
				h.sendCleared(conn, id)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendCleared(conn *websocket.Conn, id uuid.UUID) {
	msg := orders.CartEvent{Type: orders.CartClearedEvent, OrderID: id.String()}
	if err := write(conn, msg); err != nil {
		log.Printf("❌ Erreur envoi WebSocket: %v", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

func write(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
