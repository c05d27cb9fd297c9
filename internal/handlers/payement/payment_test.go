package payement

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"voltshop_back_end/internal/config"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/orders"
	"voltshop_back_end/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	router *gin.Engine
	store  *database.MemoryStore
	liqpay *payment.LiqPay
	svc    *orders.Service
}

func setup(t *testing.T) *env {
	t.Helper()
	store := database.NewMemoryStore()
	require.NoError(t, store.InsertProducts(context.Background(), []models.Product{
		{ID: models.ProductUUID("101"), Name: "Павербанк", Price: decimal.NewFromInt(500), Quantity: 2, CategoryID: models.CategoryPowerBanks},
	}))
	lp := payment.NewLiqPay(config.LiqPayConfig{PublicKey: "pub", PrivateKey: "priv", ResultURL: "https://voltshop.ua/order/status"})
	st := payment.NewStripe(config.StripeConfig{SecretKey: "sk_test_x", WebhookSecret: "whsec_test"})
	svc := orders.NewService(store, orders.Options{Gateway: lp})
	h := NewHandler(svc, lp, st)

	r := gin.New()
	r.POST("/api/payment/create-session", h.CreateSession)
	r.POST("/api/payment/liqpay-callback", h.LiqPayCallback)
	r.POST("/api/payment/stripe-webhook", h.StripeWebhook)
	r.GET("/api/payment/:orderId/qr", h.PaymentQR)
	return &env{router: r, store: store, liqpay: lp, svc: svc}
}

func (e *env) callback(data, signature string) *httptest.ResponseRecorder {
	form := url.Values{}
	if data != "" {
		form.Set("data", data)
	}
	if signature != "" {
		form.Set("signature", signature)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/payment/liqpay-callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) createSession(t *testing.T) uuid.UUID {
	t.Helper()
	body := `{"customerData":{"name":"Іван","email":"ivan@example.com","city":"Львів","warehouse":"№3"},` +
		`"items":[{"productId":"101","name":"Павербанк","price":500,"quantity":1}],"totalAmount":500,"paymentMethod":"online"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payment/create-session", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		OrderID uuid.UUID        `json:"orderId"`
		Payment payment.Checkout `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, payment.LiqPayProvider, res.Payment.Provider)
	assert.NotEmpty(t, res.Payment.Data)
	return res.OrderID
}

func (e *env) notification(t *testing.T, orderID, status string) (string, string) {
	t.Helper()
	data, sig, err := e.liqpay.Encode(map[string]interface{}{
		"order_id": orderID, "status": status, "amount": 500, "currency": "UAH", "payment_id": 123,
	})
	require.NoError(t, err)
	return data, sig
}

func TestLiqPayCallback_CreatesOrderOnce(t *testing.T) {
	e := setup(t)
	orderID := e.createSession(t)
	data, sig := e.notification(t, orderID.String(), "success")

	w := e.callback(data, sig)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), orders.MessageOrderCreated)

	w = e.callback(data, sig)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orders.MessageOrderExists)

	order, err := e.store.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)
	all, _ := e.store.ListOrders(context.Background(), 0)
	assert.Len(t, all, 1)
}

func TestLiqPayCallback_Rejections(t *testing.T) {
	e := setup(t)
	orderID := e.createSession(t)
	data, sig := e.notification(t, orderID.String(), "success")

	assert.Equal(t, http.StatusBadRequest, e.callback("", sig).Code)
	assert.Equal(t, http.StatusBadRequest, e.callback(data, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.callback(data, "bm9wZQ==").Code)

	failed, failedSig := e.notification(t, orderID.String(), "failure")
	assert.Equal(t, http.StatusBadRequest, e.callback(failed, failedSig).Code)

	_, err := e.store.GetOrder(context.Background(), orderID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	session, err := e.store.GetPaymentSession(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, session.Status)
}

func TestLiqPayCallback_SandboxRejectedOutsideSandbox(t *testing.T) {
	e := setup(t)
	orderID := e.createSession(t)
	data, sig := e.notification(t, orderID.String(), "sandbox")
	assert.Equal(t, http.StatusBadRequest, e.callback(data, sig).Code)
}

func TestStripeWebhook_SynthesizesOrderWithoutSession(t *testing.T) {
	e := setup(t)
	orderID := uuid.New()
	body := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":` +
		`{"id":"pi_1","object":"payment_intent","amount":30000,"currency":"uah","status":"succeeded","metadata":{"order_id":"` +
		orderID.String() + `"}}}}`
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(body), Secret: "whsec_test", Timestamp: time.Now()})

	req := httptest.NewRequest(http.MethodPost, "/api/payment/stripe-webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), orders.MessageOrderRecorded)

	order, err := e.store.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", order.TotalAmount.StringFixed(2))

	req = httptest.NewRequest(http.MethodPost, "/api/payment/stripe-webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentQR(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	created, err := e.svc.Create(ctx, orders.CreateRequest{
		CustomerData:  orders.CustomerData{Name: "Іван", Email: "ivan@example.com"},
		Items:         []models.CartLine{{ProductID: "101", Quantity: 1}},
		TotalAmount:   json.RawMessage(`500`),
		PaymentMethod: "online",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/payment/"+created.Order.ID.String()+"/qr?size=128", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	require.NoError(t, e.store.UpdateOrderStatus(ctx, created.Order.ID, models.StatusPaid))
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payment/"+created.Order.ID.String()+"/qr", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payment/"+uuid.NewString()+"/qr", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
