package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/mailer"
	"voltshop_back_end/internal/models"
	"voltshop_back_end/internal/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []payment.CheckoutRequest
	err   error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, req)
	return &payment.Checkout{Provider: "fake", CheckoutURL: "https://pay.example/" + req.OrderID.String()}, nil
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(ctx context.Context, m mailer.Message) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return "id", nil
}

func (o *outbox) recipients() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var to []string
	for _, m := range o.sent {
		to = append(to, m.To...)
	}
	return to
}

type fixture struct {
	store   *database.MemoryStore
	gateway *fakeGateway
	outbox  *outbox
	svc     *Service
}

func newFixture(t *testing.T, c *cache.Cache) *fixture {
	t.Helper()
	store := database.NewMemoryStore()
	ext := "sku-1"
	require.NoError(t, store.InsertProducts(context.Background(), []models.Product{
		{ID: models.ProductUUID("sku-1"), ExternalID: &ext, Name: "Павербанк 10000", Price: decimal.RequireFromString("100.00"), Quantity: 5, CategoryID: models.CategoryPowerBanks},
		{ID: models.ProductUUID("42"), Name: "Кабель Type-C", Price: decimal.RequireFromString("25.50"), Quantity: 3, CategoryID: models.CategoryCables},
	}))
	f := &fixture{store: store, gateway: &fakeGateway{}, outbox: &outbox{}}
	f.svc = NewService(store, Options{
		Gateway: f.gateway,
		Mailer:  mailer.New(f.outbox, "admin@voltshop.ua", "https://voltshop.ua"),
		Cache:   c,
	})
	return f
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, cache.New(client)
}

func validRequest(method string) CreateRequest {
	return CreateRequest{
		CustomerData: CustomerData{Name: "Олена", Email: "olena@example.com", Phone: "+380501112233", City: "Київ", Warehouse: "Відділення №1"},
		Items: []models.CartLine{
			{ProductID: "sku-1", Name: "Павербанк 10000", Price: decimal.RequireFromString("100.00"), Quantity: 2},
			{ID: "42", Name: "Кабель Type-C", Price: decimal.RequireFromString("25.50"), Quantity: 1},
		},
		TotalAmount:   json.RawMessage(`"225.50"`),
		PaymentMethod: method,
	}
}

func TestCreate_CashOnDeliveryIsConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	res, err := f.svc.Create(ctx, validRequest("cod"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, res.Order.Status)
	assert.Nil(t, res.Checkout)
	assert.True(t, decimal.RequireFromString("225.50").Equal(res.Order.TotalAmount))
	assert.Empty(t, f.gateway.calls)

	stored, items, err := f.svc.Get(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	require.Len(t, items, 2)
	assert.True(t, stored.TotalAmount.Equal(models.ItemsTotal(items)))

	assert.ElementsMatch(t, []string{"olena@example.com", "admin@voltshop.ua"}, f.outbox.recipients())

	_, err = f.svc.CartStatus(ctx, res.Order.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCreate_StoresComputedTotalOnMismatch(t *testing.T) {
	f := newFixture(t, nil)
	req := validRequest("cash_on_delivery")
	req.TotalAmount = json.RawMessage(`1`)

	res, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "225.50", res.Order.TotalAmount.StringFixed(2))
}

func TestCreate_ZeroLinePriceFallsBackToStoredPrice(t *testing.T) {
	f := newFixture(t, nil)
	req := validRequest("cod")
	req.Items[1].Price = decimal.Zero

	res, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "225.50", res.Order.TotalAmount.StringFixed(2))
}

func TestCreate_OnlineIsPendingWithSessionAndCartMarker(t *testing.T) {
	ctx := context.Background()
	_, c := newRedis(t)
	f := newFixture(t, c)

	req := validRequest("online")
	// l'id de commande n'est connu qu'après coup, on écoute le motif
	sub := c.Client().PSubscribe(ctx, cache.CartChannel("*"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	res, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, res.Order.Status)
	require.NotNil(t, res.Checkout)
	assert.Equal(t, "fake", res.Order.PaymentProvider)
	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, res.Order.ID, f.gateway.calls[0].OrderID)

	session, err := f.store.GetPaymentSession(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, session.Status)
	assert.Len(t, session.Items, 2)

	marker, err := f.svc.CartStatus(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Order.ID, marker.OrderID)

	select {
	case msg := <-sub.Channel():
		var ev CartEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, CartClearedEvent, ev.Type)
		assert.Equal(t, res.Order.ID.String(), ev.OrderID)
	case <-time.After(2 * time.Second):
		t.Fatal("événement cart_cleared non reçu")
	}
}

func TestCreate_UnknownProductWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	req := validRequest("cod")
	req.Items[1].ID = "does-not-exist"

	_, err := f.svc.Create(ctx, req)
	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, nf.Line)
	assert.Equal(t, "does-not-exist", nf.ProductID)

	all, err := f.svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.outbox.recipients())
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateRequest)
		field  string
	}{
		{"nom manquant", func(r *CreateRequest) { r.CustomerData.Name = " " }, "customerData.name"},
		{"email manquant", func(r *CreateRequest) { r.CustomerData.Email = "" }, "customerData.email"},
		{"panier vide", func(r *CreateRequest) { r.Items = nil }, "items"},
		{"total absent", func(r *CreateRequest) { r.TotalAmount = nil }, "totalAmount"},
		{"total non numérique", func(r *CreateRequest) { r.TotalAmount = json.RawMessage(`"abc"`) }, "totalAmount"},
		{"méthode inconnue", func(r *CreateRequest) { r.PaymentMethod = "bitcoin" }, "paymentMethod"},
		{"quantité nulle", func(r *CreateRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"prix négatif", func(r *CreateRequest) { r.Items[1].Price = decimal.NewFromInt(-1) }, "items[1].price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			req := validRequest("cod")
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)

			all, _ := f.svc.List(context.Background(), 0)
			assert.Empty(t, all)
		})
	}
}

func TestCreate_OnlineGatewayFailureWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.gateway.err = errors.New("liqpay down")

	_, err := f.svc.Create(context.Background(), validRequest("online"))
	require.Error(t, err)
	all, _ := f.svc.List(context.Background(), 0)
	assert.Empty(t, all)
}

func TestCreate_OnlineWithoutGateway(t *testing.T) {
	store := database.NewMemoryStore()
	svc := NewService(store, Options{})
	req := validRequest("online")
	ext := "sku-1"
	require.NoError(t, store.InsertProducts(context.Background(), []models.Product{
		{ID: models.ProductUUID("sku-1"), ExternalID: &ext, Name: "P", Price: decimal.NewFromInt(100), Quantity: 1},
		{ID: models.ProductUUID("42"), Name: "C", Price: decimal.NewFromInt(25), Quantity: 1},
	}))

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestCreateSession_NoOrderUntilWebhook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sess, err := f.svc.CreateSession(ctx, validRequest(""))
	require.NoError(t, err)
	require.NotNil(t, sess.Checkout)

	_, err = f.store.GetOrder(ctx, sess.OrderID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	res, err := f.svc.ConfirmPayment(ctx, &payment.Result{
		Provider: "fake", OrderRef: sess.OrderID.String(), OrderID: sess.OrderID,
		Amount: sess.TotalAmount, Status: "success", Successful: true,
	})
	require.NoError(t, err)
	assert.Equal(t, MessageOrderCreated, res.Message)

	order, items, err := f.svc.Get(ctx, sess.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Len(t, items, 2)
	assert.Equal(t, "Київ", order.City)

	session, err := f.store.GetPaymentSession(ctx, sess.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)

	_, err = f.svc.CartStatus(ctx, sess.OrderID)
	assert.NoError(t, err)
}

func TestCreateSession_RejectsCashOnDelivery(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.CreateSession(context.Background(), validRequest("cod"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "paymentMethod", ve.Field)
}

func successFor(id uuid.UUID, amount string) *payment.Result {
	return &payment.Result{
		Provider: "fake", OrderRef: id.String(), OrderID: id,
		Amount: decimal.RequireFromString(amount), Currency: "UAH", Status: "success", Successful: true,
	}
}

func TestConfirmPayment_RedeliveryYieldsSingleOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess, err := f.svc.CreateSession(ctx, validRequest("online"))
	require.NoError(t, err)

	first, err := f.svc.ConfirmPayment(ctx, successFor(sess.OrderID, "225.50"))
	require.NoError(t, err)
	assert.Equal(t, MessageOrderCreated, first.Message)

	second, err := f.svc.ConfirmPayment(ctx, successFor(sess.OrderID, "225.50"))
	require.NoError(t, err)
	assert.Equal(t, MessageOrderExists, second.Message)
	assert.Equal(t, first.OrderID, second.OrderID)

	all, err := f.svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConfirmPayment_ConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess, err := f.svc.CreateSession(ctx, validRequest("online"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConfirmPayment(ctx, successFor(sess.OrderID, "225.50"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := f.svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConfirmPayment_LockHeldReturnsProcessing(t *testing.T) {
	ctx := context.Background()
	mr, c := newRedis(t)
	f := newFixture(t, c)
	id := uuid.New()
	require.NoError(t, mr.Set("lock:payment:"+id.String(), "1"))

	res, err := f.svc.ConfirmPayment(ctx, successFor(id, "10"))
	require.NoError(t, err)
	assert.Equal(t, MessageProcessing, res.Message)

	_, err = f.store.GetOrder(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestConfirmPayment_ReleasesLock(t *testing.T) {
	mr, c := newRedis(t)
	f := newFixture(t, c)
	id := uuid.New()

	_, err := f.svc.ConfirmPayment(context.Background(), successFor(id, "10"))
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:payment:"+id.String()))
}

func TestConfirmPayment_FlipsPendingOrderToPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	created, err := f.svc.Create(ctx, validRequest("online"))
	require.NoError(t, err)

	res, err := f.svc.ConfirmPayment(ctx, successFor(created.Order.ID, "225.50"))
	require.NoError(t, err)
	assert.Equal(t, MessageOrderExists, res.Message)

	order, err := f.store.GetOrder(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)

	session, err := f.store.GetPaymentSession(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
}

func TestConfirmPayment_RestoresItemsOfPendingItemsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	sess, err := f.svc.CreateSession(ctx, validRequest(""))
	require.NoError(t, err)
	broken := models.Order{ID: sess.OrderID, Status: models.StatusPendingItems, TotalAmount: sess.TotalAmount, CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, f.store.CreateOrder(ctx, &broken, nil))

	res, err := f.svc.ConfirmPayment(ctx, successFor(sess.OrderID, "225.50"))
	require.NoError(t, err)
	assert.Equal(t, MessageOrderExists, res.Message)

	order, items, err := f.svc.Get(ctx, sess.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Len(t, items, 2)

	session, err := f.store.GetPaymentSession(ctx, sess.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)
}

func TestConfirmPayment_PendingItemsWithoutSessionStaysVisible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	broken := models.Order{ID: uuid.New(), Status: models.StatusPendingItems, TotalAmount: decimal.NewFromInt(80), CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, f.store.CreateOrder(ctx, &broken, nil))

	res, err := f.svc.ConfirmPayment(ctx, successFor(broken.ID, "80.00"))
	require.NoError(t, err)
	assert.Equal(t, MessageOrderExists, res.Message)

	order, err := f.store.GetOrder(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingItems, order.Status)
	assert.Equal(t, []string{"admin@voltshop.ua"}, f.outbox.recipients())

	n, err := f.svc.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConfirmPayment_WithoutSessionSynthesizesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	id := uuid.New()

	res, err := f.svc.ConfirmPayment(ctx, successFor(id, "199.00"))
	require.NoError(t, err)
	assert.Equal(t, MessageOrderRecorded, res.Message)

	order, items, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Equal(t, "199.00", order.TotalAmount.StringFixed(2))
	assert.Empty(t, items)
	assert.Equal(t, []string{"admin@voltshop.ua"}, f.outbox.recipients())
}

func TestConfirmPayment_NonUUIDReferenceIsStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	res := &payment.Result{Provider: "fake", OrderRef: "legacy-778", Amount: decimal.NewFromInt(50), Status: "success", Successful: true}

	first, err := f.svc.ConfirmPayment(ctx, res)
	require.NoError(t, err)
	second, err := f.svc.ConfirmPayment(ctx, res)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, MessageOrderExists, second.Message)
}

func TestConfirmPayment_VanishedProductKeptWithoutReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess, err := f.svc.CreateSession(ctx, validRequest("online"))
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteProducts(ctx, []uuid.UUID{models.ProductUUID("42")}))

	_, err = f.svc.ConfirmPayment(ctx, successFor(sess.OrderID, "225.50"))
	require.NoError(t, err)

	_, items, err := f.svc.Get(ctx, sess.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	var withoutRef int
	for _, it := range items {
		if it.ProductID == nil {
			withoutRef++
			assert.Equal(t, "Кабель Type-C", it.ProductName)
		}
	}
	assert.Equal(t, 1, withoutRef)
}

func TestConfirmPayment_FailedStatusMarksSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	sess, err := f.svc.CreateSession(ctx, validRequest("online"))
	require.NoError(t, err)

	res := successFor(sess.OrderID, "225.50")
	res.Status, res.Successful = "failure", false
	_, err = f.svc.ConfirmPayment(ctx, res)
	assert.ErrorIs(t, err, ErrPaymentFailed)

	session, err := f.store.GetPaymentSession(ctx, sess.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, session.Status)
	_, err = f.store.GetOrder(ctx, sess.OrderID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	created, err := f.svc.Create(ctx, validRequest("cod"))
	require.NoError(t, err)
	id := created.Order.ID

	order, err := f.svc.UpdateStatus(ctx, id, models.StatusShipped, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, order.Status)

	_, err = f.svc.UpdateStatus(ctx, id, models.StatusPending, false)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusShipped, te.From)

	order, err = f.svc.UpdateStatus(ctx, id, models.StatusPending, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), models.StatusPaid, false)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSendStatusEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	created, err := f.svc.Create(ctx, validRequest("cod"))
	require.NoError(t, err)
	before := len(f.outbox.recipients())

	_, err = f.svc.SendStatusEmail(ctx, created.Order.ID, "")
	require.NoError(t, err)
	assert.Len(t, f.outbox.recipients(), before+1)
	last := f.outbox.sent[len(f.outbox.sent)-1]
	assert.Contains(t, last.Text, mailer.StatusLabel(models.StatusConfirmed))

	_, err = f.svc.SendStatusEmail(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestReconcileCancelsStalePendingItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	stale := models.Order{ID: uuid.New(), Status: models.StatusPendingItems, CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := models.Order{ID: uuid.New(), Status: models.StatusPendingItems, CreatedAt: time.Now()}
	paid := models.Order{ID: uuid.New(), Status: models.StatusPaid, CreatedAt: time.Now().Add(-3 * time.Hour)}
	for _, o := range []models.Order{stale, fresh, paid} {
		o := o
		require.NoError(t, f.store.CreateOrder(ctx, &o, nil))
	}

	n, err := f.svc.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := f.store.GetOrder(ctx, stale.ID)
	assert.Equal(t, models.StatusCancelled, got.Status)
	got, _ = f.store.GetOrder(ctx, fresh.ID)
	assert.Equal(t, models.StatusPendingItems, got.Status)
	got, _ = f.store.GetOrder(ctx, paid.ID)
	assert.Equal(t, models.StatusPaid, got.Status)
}
