package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MessageProcessing    = "processing"
	MessageOrderExists   = "order already exists"
	MessageOrderCreated  = "order created"
	MessageOrderRecorded = "order recorded"

	paymentLockTTL = 30 * time.Second
)

var ErrPaymentFailed = errors.New("paiement refusé par la passerelle")

// paymentNamespace dérive un id de commande stable quand la passerelle renvoie une référence non UUID
var paymentNamespace = uuid.MustParse("0b6f3c2e-8d1a-5f47-a9e3-2c7d5b1e4f60")

type ConfirmResult struct {
	OrderID uuid.UUID
	Message string
}

func orderIDFromResult(res *payment.Result) uuid.UUID {
	if res.OrderID != uuid.Nil {
		return res.OrderID
	}
	return uuid.NewSHA1(paymentNamespace, []byte(strings.TrimSpace(res.OrderRef)))
}

// ConfirmPayment matérialise la commande payée. Les redélivrances de la passerelle
// aboutissent toujours à une seule commande.
func (s *Service) ConfirmPayment(ctx context.Context, res *payment.Result) (*ConfirmResult, error) {
	if res == nil || strings.TrimSpace(res.OrderRef) == "" {
		return nil, invalid("order_id", "référence de commande absente de la notification")
	}
	orderID := orderIDFromResult(res)
	if !res.Successful {
		s.MarkPaymentFailed(ctx, orderID, res.Status)
		return nil, fmt.Errorf("%w: statut %q", ErrPaymentFailed, res.Status)
	}

	lockKey := "payment:" + orderID.String()
	acquired, err := s.cache.AcquireLock(ctx, lockKey, paymentLockTTL)
	if err != nil {
		log.Printf("⚠️ Verrou Redis indisponible pour %s, on continue sans: %v", orderID, err)
		acquired = true
	}
	if !acquired {
		log.Printf("⏳ Paiement %s déjà en cours de traitement", orderID)
		return &ConfirmResult{OrderID: orderID, Message: MessageProcessing}, nil
	}
	defer s.cache.ReleaseLock(ctx, lockKey)

	existing, err := s.store.GetOrder(ctx, orderID)
	switch {
	case err == nil:
		return s.alreadyExists(ctx, existing)
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("lecture de la commande %s: %w", orderID, err)
	}

	session, err := s.store.GetPaymentSession(ctx, orderID)
	switch {
	case err == nil:
		return s.createFromSession(ctx, session, res)
	case errors.Is(err, database.ErrNotFound):
		return s.synthesize(ctx, orderID, res)
	default:
		return nil, fmt.Errorf("lecture de la session %s: %w", orderID, err)
	}
}

func (s *Service) alreadyExists(ctx context.Context, o *models.Order) (*ConfirmResult, error) {
	switch o.Status {
	case models.StatusPendingItems:
		restored, err := s.restoreItems(ctx, o)
		if err != nil {
			return nil, err
		}
		if !restored {
			return &ConfirmResult{OrderID: o.ID, Message: MessageOrderExists}, nil
		}
		fallthrough
	case models.StatusPending:
		if err := s.store.UpdateOrderStatus(ctx, o.ID, models.StatusPaid); err != nil {
			return nil, fmt.Errorf("passage au statut payé de %s: %w", o.ID, err)
		}
		log.Printf("💳 Commande %s payée", o.ID)
	}
	s.completeSession(ctx, o.ID)
	return &ConfirmResult{OrderID: o.ID, Message: MessageOrderExists}, nil
}

// restoreItems complète une commande pending_items depuis sa session de paiement.
// Sans lignes ni session, la commande reste en pending_items et l'admin est alerté.
func (s *Service) restoreItems(ctx context.Context, o *models.Order) (bool, error) {
	items, err := s.store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return false, fmt.Errorf("lecture des lignes de %s: %w", o.ID, err)
	}
	if len(items) > 0 {
		return true, nil
	}

	ps, err := s.store.GetPaymentSession(ctx, o.ID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		log.Printf("⚠️ Commande %s payée mais sans lignes ni session, laissée en pending_items", o.ID)
		s.alertAdmin(ctx, "⚠️ Оплачене замовлення без товарів "+o.ID.String(),
			fmt.Sprintf("Замовлення %s оплачено, але його товари не збережені.\nСума: %s\nПотрібна ручна перевірка.",
				o.ID, o.TotalAmount.StringFixed(2)))
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lecture de la session %s: %w", o.ID, err)
	}

	items, err = s.sessionItems(ctx, ps)
	if err != nil {
		return false, err
	}
	if err := s.store.InsertOrderItems(ctx, o.ID, items); err != nil {
		return false, fmt.Errorf("reprise des lignes de %s: %w", o.ID, err)
	}
	log.Printf("🔧 Commande %s: %d lignes reprises depuis la session", o.ID, len(items))
	return true, nil
}

func (s *Service) completeSession(ctx context.Context, orderID uuid.UUID) {
	err := s.store.UpdatePaymentSessionStatus(ctx, orderID, models.SessionCompleted)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Printf("⚠️ Session %s non marquée terminée: %v", orderID, err)
	}
}

// createFromSession garde les lignes dont le produit a disparu, sans référence produit
func (s *Service) createFromSession(ctx context.Context, ps *models.PaymentSession, res *payment.Result) (*ConfirmResult, error) {
	items, err := s.sessionItems(ctx, ps)
	if err != nil {
		return nil, err
	}

	total := models.ItemsTotal(items)
	if !res.Amount.IsZero() && !res.Amount.Equal(total) {
		log.Printf("⚠️ Commande %s: montant payé %s différent du panier %s", ps.OrderID, res.Amount.StringFixed(2), total.StringFixed(2))
	}
	order := newOrder(ps.OrderID, ps.Customer, models.PaymentOnline, total, models.StatusPaid)
	order.PaymentProvider = res.Provider

	if err := s.store.CreateOrder(ctx, &order, items); err != nil {
		if errors.Is(err, database.ErrOrderExists) {
			return &ConfirmResult{OrderID: order.ID, Message: MessageOrderExists}, nil
		}
		return nil, fmt.Errorf("enregistrement de la commande payée: %w", err)
	}
	log.Printf("✅ Commande %s créée depuis la session de paiement (%s ₴)", order.ID, total.StringFixed(2))

	s.sendConfirmation(ctx, order, items)
	s.completeSession(ctx, order.ID)
	s.emitCartCleared(ctx, order.ID)
	return &ConfirmResult{OrderID: order.ID, Message: MessageOrderCreated}, nil
}

func (s *Service) sessionItems(ctx context.Context, ps *models.PaymentSession) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(ps.Items))
	for _, it := range ps.Items {
		var productID *uuid.UUID
		id := models.ProductUUID(it.ProductRef)
		_, err := s.store.GetProduct(ctx, id)
		switch {
		case err == nil:
			productID = &id
		case errors.Is(err, database.ErrNotFound):
			log.Printf("⚠️ Commande %s: produit %q introuvable, ligne conservée sans référence", ps.OrderID, it.ProductRef)
		default:
			return nil, fmt.Errorf("vérification du produit %q: %w", it.ProductRef, err)
		}
		items = append(items, models.NewOrderItem(ps.OrderID, productID, it.Name, it.UnitPrice, it.Quantity))
	}
	return items, nil
}

func (s *Service) alertAdmin(ctx context.Context, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.NotifyAdmin(ctx, subject, body); err != nil {
		log.Printf("❌ Alerte admin non envoyée (%s): %v", subject, err)
	}
}

// synthesize enregistre une commande minimale quand aucune session n'existe
func (s *Service) synthesize(ctx context.Context, orderID uuid.UUID, res *payment.Result) (*ConfirmResult, error) {
	amount := res.Amount
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	placeholder := models.Customer{
		Name:      "Невідомий клієнт",
		City:      "-",
		Warehouse: "-",
	}
	order := newOrder(orderID, placeholder, models.PaymentOnline, amount, models.StatusPaid)
	order.PaymentProvider = res.Provider

	if err := s.store.CreateOrder(ctx, &order, nil); err != nil {
		if errors.Is(err, database.ErrOrderExists) {
			return &ConfirmResult{OrderID: orderID, Message: MessageOrderExists}, nil
		}
		return nil, fmt.Errorf("enregistrement de la commande minimale: %w", err)
	}
	log.Printf("⚠️ Paiement %s sans session: commande minimale %s créée (%s ₴)", res.OrderRef, orderID, amount.StringFixed(2))

	s.alertAdmin(ctx, "⚠️ Оплата без кошика "+orderID.String(),
		fmt.Sprintf("Оплата %s (%s) отримана без збереженого кошика.\nЗамовлення: %s\nСума: %s %s\nПотрібна ручна перевірка.",
			res.OrderRef, res.Provider, orderID, amount.StringFixed(2), res.Currency))
	return &ConfirmResult{OrderID: orderID, Message: MessageOrderRecorded}, nil
}

// MarkPaymentFailed marque la session en échec, sans bloquer la réponse
func (s *Service) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, status string) {
	log.Printf("❌ Paiement %s refusé (statut %q)", orderID, status)
	err := s.store.UpdatePaymentSessionStatus(ctx, orderID, models.SessionFailed)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Printf("⚠️ Session %s non marquée en échec: %v", orderID, err)
	}
}
