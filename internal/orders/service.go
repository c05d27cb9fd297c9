package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/mailer"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	store   database.Store
	gateway payment.Gateway
	mailer  *mailer.Mailer
	cache   *cache.Cache
	now     func() time.Time
}

type Options struct {
	Gateway payment.Gateway
	Mailer  *mailer.Mailer
	Cache   *cache.Cache
}

func NewService(store database.Store, opts Options) *Service {
	return &Service{
		store:   store,
		gateway: opts.Gateway,
		mailer:  opts.Mailer,
		cache:   opts.Cache,
		now:     time.Now,
	}
}

type CreateResult struct {
	Order    models.Order
	Items    []models.OrderItem
	Checkout *payment.Checkout
}

type resolvedLine struct {
	productID uuid.UUID
	ref       string
	name      string
	unitPrice decimal.Decimal
	quantity  int
}

// resolveLines vérifie l'existence de chaque produit avant toute écriture
func (s *Service) resolveLines(ctx context.Context, lines []models.CartLine) ([]resolvedLine, error) {
	resolved := make([]resolvedLine, 0, len(lines))
	for i, line := range lines {
		ref := strings.TrimSpace(line.Ref())
		id := models.ProductUUID(ref)
		p, err := s.store.GetProduct(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return nil, &ProductNotFoundError{Line: i, ProductID: ref}
		}
		if err != nil {
			return nil, fmt.Errorf("vérification du produit %q: %w", ref, err)
		}
		name := strings.TrimSpace(line.Name)
		if name == "" {
			name = p.Name
		}
		price := line.Price
		if price.IsZero() {
			price = p.Price
		}
		resolved = append(resolved, resolvedLine{productID: id, ref: ref, name: name, unitPrice: price, quantity: line.Quantity})
	}
	return resolved, nil
}

func linesTotal(lines []resolvedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity))))
	}
	return total
}

func checkTotal(orderID uuid.UUID, computed, declared decimal.Decimal) {
	if !computed.Equal(declared) {
		log.Printf("⚠️ Commande %s: total client %s différent du total calculé %s, on garde le calculé",
			orderID, declared.StringFixed(2), computed.StringFixed(2))
	}
}

func (s *Service) checkout(ctx context.Context, orderID uuid.UUID, total decimal.Decimal, email string) (*payment.Checkout, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	co, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		OrderID:       orderID,
		Amount:        total,
		Description:   "Замовлення " + orderID.String(),
		CustomerEmail: email,
	})
	if err != nil {
		return nil, fmt.Errorf("initialisation du paiement: %w", err)
	}
	return co, nil
}

func newOrder(id uuid.UUID, c models.Customer, method models.PaymentMethod, total decimal.Decimal, status models.OrderStatus) models.Order {
	return models.Order{
		ID:                id,
		CustomerName:      c.Name,
		CustomerEmail:     c.Email,
		CustomerPhone:     c.Phone,
		City:              c.City,
		CityRef:           c.CityRef,
		DeliveryBranch:    c.Warehouse,
		DeliveryBranchRef: c.WarehouseRef,
		DeliveryAddress:   c.Address,
		PaymentMethod:     method,
		TotalAmount:       total,
		Status:            status,
	}
}

// Create enregistre la commande. Paiement à la livraison : confirmée tout de suite.
// Paiement en ligne : en attente, avec session de paiement et marqueur de vidage du panier.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	method, declared, err := req.validate()
	if err != nil {
		return nil, err
	}
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	total := linesTotal(lines)
	checkTotal(orderID, total, declared)
	customer := req.CustomerData.snapshot()

	status := models.StatusConfirmed
	var co *payment.Checkout
	if method == models.PaymentOnline {
		status = models.StatusPending
		if co, err = s.checkout(ctx, orderID, total, customer.Email); err != nil {
			return nil, err
		}
	}

	order := newOrder(orderID, customer, method, total, status)
	if co != nil {
		order.PaymentProvider = co.Provider
	}
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		pid := l.productID
		items = append(items, models.NewOrderItem(orderID, &pid, l.name, l.unitPrice, l.quantity))
	}

	if err := s.store.CreateOrder(ctx, &order, items); err != nil {
		return nil, fmt.Errorf("enregistrement de la commande: %w", err)
	}
	log.Printf("✅ Commande %s créée (%s, %s, %s ₴)", order.ID, method, order.Status, total.StringFixed(2))

	if method == models.PaymentOnline {
		session := sessionFromLines(orderID, customer, lines, total, co.Provider)
		if err := s.store.SavePaymentSession(ctx, session); err != nil {
			log.Printf("⚠️ Session de paiement non enregistrée pour %s: %v", orderID, err)
		}
	}

	s.sendConfirmation(ctx, order, items)

	if method == models.PaymentOnline {
		s.emitCartCleared(ctx, orderID)
	}

	return &CreateResult{Order: order, Items: items, Checkout: co}, nil
}

type SessionResult struct {
	OrderID     uuid.UUID
	TotalAmount decimal.Decimal
	Checkout    *payment.Checkout
}

// CreateSession prépare un paiement en ligne sans créer la commande, le webhook la matérialise
func (s *Service) CreateSession(ctx context.Context, req CreateRequest) (*SessionResult, error) {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		req.PaymentMethod = string(models.PaymentOnline)
	}
	method, declared, err := req.validate()
	if err != nil {
		return nil, err
	}
	if method != models.PaymentOnline {
		return nil, invalid("paymentMethod", "une session de paiement exige le paiement en ligne")
	}
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	total := linesTotal(lines)
	checkTotal(orderID, total, declared)
	customer := req.CustomerData.snapshot()

	co, err := s.checkout(ctx, orderID, total, customer.Email)
	if err != nil {
		return nil, err
	}
	session := sessionFromLines(orderID, customer, lines, total, co.Provider)
	if err := s.store.SavePaymentSession(ctx, session); err != nil {
		return nil, fmt.Errorf("enregistrement de la session de paiement: %w", err)
	}
	log.Printf("💳 Session de paiement %s créée (%s ₴, %s)", orderID, total.StringFixed(2), co.Provider)
	return &SessionResult{OrderID: orderID, TotalAmount: total, Checkout: co}, nil
}

func sessionFromLines(orderID uuid.UUID, c models.Customer, lines []resolvedLine, total decimal.Decimal, provider string) *models.PaymentSession {
	items := make([]models.SessionItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.SessionItem{ProductRef: l.ref, Name: l.name, UnitPrice: l.unitPrice, Quantity: l.quantity})
	}
	return &models.PaymentSession{
		OrderID:     orderID,
		Customer:    c,
		Items:       items,
		TotalAmount: total,
		Provider:    provider,
		Status:      models.SessionPending,
	}
}

func (s *Service) sendConfirmation(ctx context.Context, o models.Order, items []models.OrderItem) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendOrderConfirmation(ctx, o, items); err != nil {
		log.Printf("⚠️ Confirmation de la commande %s partiellement envoyée: %v", o.ID, err)
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.store.ListOrderItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.ListOrders(ctx, limit)
}
