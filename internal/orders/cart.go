package orders

import (
	"context"
	"log"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
)

// CartEvent est poussé aux clients abonnés à la commande
type CartEvent struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
}

const CartClearedEvent = "cart_cleared"

// emitCartCleared écrit le marqueur puis le publie. Les deux étapes sont best-effort.
func (s *Service) emitCartCleared(ctx context.Context, orderID uuid.UUID) {
	event := models.CartClearingEvent{OrderID: orderID, CreatedAt: s.now()}
	if err := s.store.InsertCartClearingEvent(ctx, event); err != nil {
		log.Printf("⚠️ Marqueur de vidage du panier non écrit pour %s: %v", orderID, err)
	}
	msg := CartEvent{Type: CartClearedEvent, OrderID: orderID.String()}
	if err := s.cache.Publish(ctx, cache.CartChannel(orderID.String()), msg); err != nil {
		log.Printf("⚠️ Publication de l'événement panier %s impossible: %v", orderID, err)
	}
}

// CartStatus indique si le panier lié à la commande peut être vidé
func (s *Service) CartStatus(ctx context.Context, orderID uuid.UUID) (*models.CartClearingEvent, error) {
	return s.store.GetCartClearingEvent(ctx, orderID)
}
