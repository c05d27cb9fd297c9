package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	require.NoError(t, store.InsertProducts(context.Background(), []models.Product{
		{ID: models.ProductUUID("101"), Name: "Павербанк", Price: decimal.NewFromInt(500), Quantity: 2, CategoryID: models.CategoryPowerBanks},
	}))
	h := NewHandler(orders.NewService(store, orders.Options{}), time.Hour)

	r := gin.New()
	r.POST("/api/order/create", h.CreateOrder)
	r.GET("/api/orders/:id", h.GetOrder)
	r.POST("/api/send-status-email", h.SendStatusEmail)
	r.GET("/api/admin/orders", h.ListOrders)
	r.PATCH("/api/admin/orders/:id/status", h.UpdateStatus)
	r.POST("/api/admin/orders/reconcile", h.Reconcile)
	return r, store
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const codOrder = `{
	"customerData": {"name": "Іван", "email": "ivan@example.com", "phone": "+380", "city": "Львів", "warehouse": "№3"},
	"items": [{"productId": 101, "name": "Павербанк", "price": 500, "quantity": 2}],
	"totalAmount": "1000",
	"paymentMethod": "cod"
}`

func TestCreateOrder_COD(t *testing.T) {
	r, _ := setup(t)

	w := perform(r, http.MethodPost, "/api/order/create", codOrder)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Success bool      `json:"success"`
		OrderID uuid.UUID `json:"orderId"`
		Status  string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "confirmed", res.Status)

	w = perform(r, http.MethodGet, "/api/orders/"+res.OrderID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"product_name":"Павербанк"`)
}

func TestCreateOrder_Errors(t *testing.T) {
	r, store := setup(t)

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"json invalide", `{`, http.StatusBadRequest, "JSON invalide"},
		{"méthode inconnue", `{"customerData":{"name":"a","email":"a@b"},"items":[{"id":"101","quantity":1}],"totalAmount":1,"paymentMethod":"crypto"}`,
			http.StatusBadRequest, `"field":"paymentMethod"`},
		{"produit inconnu", `{"customerData":{"name":"a","email":"a@b"},"items":[{"id":"101","quantity":1},{"id":"999","quantity":1}],"totalAmount":1,"paymentMethod":"cod"}`,
			http.StatusBadRequest, `"details":{"line":1,"productId":"999"}`},
		{"sans passerelle", `{"customerData":{"name":"a","email":"a@b"},"items":[{"id":"101","quantity":1}],"totalAmount":1,"paymentMethod":"online"}`,
			http.StatusServiceUnavailable, "indisponible"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/api/order/create", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}

	all, err := store.ListOrders(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetOrder_NotFoundAndInvalid(t *testing.T) {
	r, _ := setup(t)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/api/orders/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/api/orders/abc", "").Code)
}

func TestUpdateStatus(t *testing.T) {
	r, store := setup(t)
	o := models.Order{ID: uuid.New(), Status: models.StatusDelivered}
	require.NoError(t, store.CreateOrder(context.Background(), &o, nil))
	path := "/api/admin/orders/" + o.ID.String() + "/status"

	w := perform(r, http.MethodPatch, path, `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodPatch, path, `{"status":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPatch, path, `{"status":"pending","force":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	got, err := store.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestSendStatusEmail(t *testing.T) {
	r, store := setup(t)
	o := models.Order{ID: uuid.New(), Status: models.StatusShipped}
	require.NoError(t, store.CreateOrder(context.Background(), &o, nil))

	w := perform(r, http.MethodPost, "/api/send-status-email", `{"orderId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodPost, "/api/send-status-email", `{"orderId":"`+o.ID.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndReconcile(t *testing.T) {
	r, store := setup(t)
	stale := models.Order{ID: uuid.New(), Status: models.StatusPendingItems, CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, store.CreateOrder(context.Background(), &stale, nil))

	w := perform(r, http.MethodGet, "/api/admin/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = perform(r, http.MethodPost, "/api/admin/orders/reconcile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"cancelled":1}`, w.Body.String())
}
