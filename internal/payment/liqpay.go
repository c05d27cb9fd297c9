package payment

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"voltshop_back_end/internal/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LiqPayProvider    = "liqpay"
	liqpayCheckoutURL = "https://www.liqpay.ua/api/3/checkout"
	liqpayVersion     = 3
)

// LiqPay signe les requêtes de paiement et vérifie les callbacks
type LiqPay struct {
	publicKey  string
	privateKey string
	sandbox    bool
	resultURL  string
	serverURL  string
}

func NewLiqPay(cfg config.LiqPayConfig) *LiqPay {
	return &LiqPay{
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		sandbox:    cfg.Sandbox,
		resultURL:  cfg.ResultURL,
		serverURL:  cfg.ServerURL,
	}
}

func (l *LiqPay) Name() string { return LiqPayProvider }

// Sign : base64(sha1(private_key + data + private_key))
func (l *LiqPay) Sign(data string) string {
	sum := sha1.Sum([]byte(l.privateKey + data + l.privateKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Encode sérialise les paramètres en base64(JSON) et retourne data + signature
func (l *LiqPay) Encode(params map[string]interface{}) (string, string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", "", err
	}
	data := base64.StdEncoding.EncodeToString(raw)
	return data, l.Sign(data), nil
}

func (l *LiqPay) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	description := req.Description
	if description == "" {
		description = "Замовлення " + req.OrderID.String()
	}
	params := map[string]interface{}{
		"version":     liqpayVersion,
		"public_key":  l.publicKey,
		"action":      "pay",
		"amount":      req.Amount.StringFixed(2),
		"currency":    "UAH",
		"description": description,
		"order_id":    req.OrderID.String(),
		"result_url":  l.resultURL + "?orderId=" + url.QueryEscape(req.OrderID.String()),
		"server_url":  l.serverURL,
		"language":    "uk",
	}
	if l.sandbox {
		params["sandbox"] = 1
	}
	data, signature, err := l.Encode(params)
	if err != nil {
		return nil, fmt.Errorf("encodage LiqPay: %w", err)
	}
	q := url.Values{}
	q.Set("data", data)
	q.Set("signature", signature)
	return &Checkout{
		Provider:    LiqPayProvider,
		CheckoutURL: liqpayCheckoutURL + "?" + q.Encode(),
		Data:        data,
		Signature:   signature,
	}, nil
}

type liqpayNotification struct {
	Status    string          `json:"status"`
	OrderID   string          `json:"order_id"`
	Amount    json.RawMessage `json:"amount"`
	Currency  string          `json:"currency"`
	PaymentID json.RawMessage `json:"payment_id"`
	ErrCode   string          `json:"err_code"`
}

// Verify contrôle la signature en temps constant puis décode la notification
func (l *LiqPay) Verify(data, signature string) (*Result, error) {
	data = strings.TrimSpace(data)
	signature = strings.TrimSpace(signature)
	if data == "" || signature == "" {
		return nil, ErrMissingFields
	}
	if l.privateKey == "" {
		return nil, fmt.Errorf("%w: clé privée LiqPay absente", ErrInvalidSignature)
	}
	expected := l.Sign(data)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, ErrInvalidSignature
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("data non base64: %w", err)
	}
	var n liqpayNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("data illisible: %w", err)
	}

	res := &Result{
		Provider:  LiqPayProvider,
		OrderRef:  n.OrderID,
		Currency:  n.Currency,
		Status:    strings.ToLower(n.Status),
		PaymentID: strings.Trim(string(n.PaymentID), `"`),
	}
	res.Successful = res.Status == "success" || (l.sandbox && res.Status == "sandbox")
	if id, err := uuid.Parse(n.OrderID); err == nil {
		res.OrderID = id
	}
	if amount, err := parseLooseAmount(n.Amount); err == nil {
		res.Amount = amount
	}
	return res, nil
}

func parseLooseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return decimal.Zero, fmt.Errorf("montant absent")
	}
	return decimal.NewFromString(s)
}
