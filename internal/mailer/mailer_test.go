package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	failFor string
}

func (s *recordingSender) Send(ctx context.Context, m Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor != "" && m.To[0] == s.failFor {
		return "", errors.New("smtp down")
	}
	s.sent = append(s.sent, m)
	return "msg-" + m.To[0], nil
}

func testOrder() (models.Order, []models.OrderItem) {
	o := models.Order{
		ID:             uuid.New(),
		CustomerName:   "Олена",
		CustomerEmail:  "olena@example.com",
		City:           "Київ",
		DeliveryBranch: "Відділення №1",
		TotalAmount:    decimal.RequireFromString("449.70"),
		Status:         models.StatusConfirmed,
	}
	items := []models.OrderItem{models.NewOrderItem(o.ID, nil, "Кабель <Type-C>", decimal.RequireFromString("149.90"), 3)}
	return o, items
}

func TestSendOrderConfirmation_CustomerAndAdmin(t *testing.T) {
	sender := &recordingSender{}
	m := New(sender, "admin@voltshop.ua", "https://voltshop.ua/")
	o, items := testOrder()

	require.NoError(t, m.SendOrderConfirmation(context.Background(), o, items))
	require.Len(t, sender.sent, 2)

	var customer Message
	for _, msg := range sender.sent {
		if msg.To[0] == o.CustomerEmail {
			customer = msg
		}
	}
	assert.Contains(t, customer.HTML, "449.70")
	assert.Contains(t, customer.HTML, "Кабель &lt;Type-C&gt;")
	assert.Contains(t, customer.HTML, "https://voltshop.ua/order/status?orderId="+o.ID.String())
	assert.True(t, strings.Contains(customer.Text, "Разом: 449.70"))
}

func TestSendOrderConfirmation_OneFailureDoesNotBlockOther(t *testing.T) {
	sender := &recordingSender{failFor: "olena@example.com"}
	m := New(sender, "admin@voltshop.ua", "")
	o, items := testOrder()

	err := m.SendOrderConfirmation(context.Background(), o, items)
	assert.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "admin@voltshop.ua", sender.sent[0].To[0])
}

func TestSendStatusUpdate(t *testing.T) {
	sender := &recordingSender{}
	m := New(sender, "", "")
	o, _ := testOrder()

	id, err := m.SendStatusUpdate(context.Background(), o, models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, "msg-olena@example.com", id)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Subject, "відправлено")
	assert.Contains(t, sender.sent[0].HTML, "Відправлено")

	o.CustomerEmail = ""
	_, err = m.SendStatusUpdate(context.Background(), o, models.StatusShipped)
	assert.Error(t, err)
}
