package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
)

var ErrNoCustomerEmail = errors.New("commande sans e-mail client")

// UpdateStatus applique la machine d'états, force la contourne.
// L'e-mail de statut part en best-effort.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, force bool) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !force && !order.Status.CanTransitionTo(status) {
		return nil, &TransitionError{From: order.Status, To: status}
	}
	if err := s.store.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("mise à jour du statut de %s: %w", id, err)
	}
	log.Printf("✅ Commande %s: %s → %s", id, order.Status, status)
	order.Status = status
	order.UpdatedAt = s.now()

	if s.mailer != nil && order.CustomerEmail != "" {
		if _, err := s.mailer.SendStatusUpdate(ctx, *order, status); err != nil {
			log.Printf("⚠️ E-mail de statut non envoyé pour %s: %v", id, err)
		}
	}
	return order, nil
}

// SendStatusEmail renvoie l'e-mail pour le statut donné, ou le statut stocké si vide
func (s *Service) SendStatusEmail(ctx context.Context, id uuid.UUID, status models.OrderStatus) (string, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return "", err
	}
	if status == "" {
		status = order.Status
	}
	if order.CustomerEmail == "" {
		return "", ErrNoCustomerEmail
	}
	if s.mailer == nil {
		return "", errors.New("service e-mail non configuré")
	}
	return s.mailer.SendStatusUpdate(ctx, *order, status)
}

// Reconcile annule les commandes restées en pending_items au-delà de olderThan
func (s *Service) Reconcile(ctx context.Context, olderThan time.Duration) (int, error) {
	all, err := s.store.ListOrders(ctx, 0)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-olderThan)
	cancelled := 0
	for _, o := range all {
		if o.Status != models.StatusPendingItems || o.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.store.UpdateOrderStatus(ctx, o.ID, models.StatusCancelled); err != nil {
			log.Printf("❌ Réconciliation: commande %s non annulée: %v", o.ID, err)
			continue
		}
		cancelled++
		log.Printf("🧹 Commande incomplète %s annulée (créée le %s)", o.ID, o.CreatedAt.Format(time.RFC3339))
	}
	return cancelled, nil
}

// RunReconciler lance Reconcile à intervalle régulier jusqu'à l'annulation du contexte
func (s *Service) RunReconciler(ctx context.Context, interval, olderThan time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Reconcile(ctx, olderThan); err != nil {
				log.Printf("❌ Erreur réconciliation: %v", err)
			} else if n > 0 {
				log.Printf("🧹 %d commande(s) incomplète(s) annulée(s)", n)
			}
		}
	}
}
