package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"voltshop_back_end/internal/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

const StripeProvider = "stripe"

var hundred = decimal.NewFromInt(100)

type Stripe struct {
	webhookSecret string
	currency      string
}

func NewStripe(cfg config.StripeConfig) *Stripe {
	stripe.Key = cfg.SecretKey
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "uah"
	}
	return &Stripe{webhookSecret: cfg.WebhookSecret, currency: currency}
}

func (s *Stripe) Name() string { return StripeProvider }

func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.Mul(hundred).Round(0).IntPart()),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": req.OrderID.String(),
		},
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("création PaymentIntent: %w", err)
	}
	return &Checkout{
		Provider:     StripeProvider,
		ClientSecret: intent.ClientSecret,
		PaymentID:    intent.ID,
	}, nil
}

// ParseWebhook vérifie la signature Stripe et extrait le PaymentIntent.
// Retourne nil, nil pour les événements ignorés.
func (s *Stripe) ParseWebhook(payload []byte, signatureHeader string) (*Result, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("PaymentIntent illisible: %w", err)
	}

	res := &Result{
		Provider:   StripeProvider,
		OrderRef:   pi.Metadata["order_id"],
		Amount:     decimal.NewFromInt(pi.Amount).Div(hundred),
		Currency:   string(pi.Currency),
		Status:     string(pi.Status),
		PaymentID:  pi.ID,
		Successful: event.Type == "payment_intent.succeeded",
	}
	if id, err := uuid.Parse(res.OrderRef); err == nil {
		res.OrderID = id
	}
	return res, nil
}
