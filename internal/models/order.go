package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentOnline         PaymentMethod = "online"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// ParsePaymentMethod accepte aussi l'alias "cod"
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "liqpay", "card":
		return PaymentOnline, nil
	case "cash_on_delivery", "cod", "cash":
		return PaymentCashOnDelivery, nil
	}
	return "", fmt.Errorf("méthode de paiement inconnue: %q", s)
}

type OrderStatus string

const (
	// StatusPendingItems marque une commande dont les lignes ne sont pas encore écrites
	StatusPendingItems OrderStatus = "pending_items"
	StatusPending      OrderStatus = "pending"
	StatusConfirmed    OrderStatus = "confirmed"
	StatusPaid         OrderStatus = "paid"
	StatusShipped      OrderStatus = "shipped"
	StatusDelivered    OrderStatus = "delivered"
	StatusCancelled    OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingItems: {StatusPending, StatusConfirmed, StatusPaid, StatusCancelled},
	StatusPending:      {StatusConfirmed, StatusPaid, StatusCancelled},
	StatusConfirmed:    {StatusPaid, StatusShipped, StatusCancelled},
	StatusPaid:         {StatusShipped, StatusCancelled},
	StatusShipped:      {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus rejette les statuts inconnus
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPendingItems, StatusPending, StatusConfirmed, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("statut de commande inconnu: %q", s)
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerPhone     string          `json:"customer_phone"`
	City              string          `json:"city"`
	CityRef           string          `json:"city_ref,omitempty"`
	DeliveryBranch    string          `json:"delivery_branch"`
	DeliveryBranchRef string          `json:"delivery_branch_ref,omitempty"`
	DeliveryAddress   string          `json:"delivery_address,omitempty"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	PaymentProvider   string          `json:"payment_provider,omitempty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// NewOrderItem calcule le prix de ligne (quantité × prix unitaire)
func NewOrderItem(orderID uuid.UUID, productID *uuid.UUID, name string, unitPrice decimal.Decimal, quantity int) OrderItem {
	return OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: name,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Price:       unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// ItemsTotal additionne les prix de ligne
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}
