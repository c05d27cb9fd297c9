package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature = errors.New("signature invalide")
	ErrMissingFields    = errors.New("data et signature sont obligatoires")
)

// CheckoutRequest décrit le paiement à initier pour une commande
type CheckoutRequest struct {
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Description   string
	CustomerEmail string
}

// Checkout est renvoyé au front pour rediriger (LiqPay) ou confirmer (Stripe)
type Checkout struct {
	Provider     string `json:"provider"`
	CheckoutURL  string `json:"checkoutUrl,omitempty"`
	Data         string `json:"data,omitempty"`
	Signature    string `json:"signature,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	PaymentID    string `json:"paymentId,omitempty"`
}

// Result est la notification de paiement vérifiée
type Result struct {
	Provider   string
	OrderRef   string
	OrderID    uuid.UUID
	Amount     decimal.Decimal
	Currency   string
	Status     string
	PaymentID  string
	Successful bool
}

type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
}
