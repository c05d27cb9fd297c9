package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"voltshop_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// CreateOrder en trois temps : ligne commande en pending_items (LWT), lignes en LOGGED BATCH,
// puis bascule vers le statut demandé. Un échec intermédiaire laisse une commande pending_items
// que la réconciliation annule.
func (s *ScyllaStore) CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	target := o.Status

	applied, err := s.orders.Query(insertOrderIfNotExistsQuery,
		gocql.UUID(o.ID), o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.City, o.CityRef, o.DeliveryBranch,
		o.DeliveryBranchRef, o.DeliveryAddress, string(o.PaymentMethod), o.PaymentProvider, toDec(o.TotalAmount),
		string(models.StatusPendingItems), o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("insertion commande %s: %w", o.ID, err)
	}
	if !applied {
		return ErrOrderExists
	}

	if err := s.writeItems(ctx, o.ID, items); err != nil {
		log.Printf("❌ Lignes de la commande %s non écrites, commande laissée en pending_items: %v", o.ID, err)
		o.Status = models.StatusPendingItems
		return err
	}

	if err := s.UpdateOrderStatus(ctx, o.ID, target); err != nil {
		o.Status = models.StatusPendingItems
		return fmt.Errorf("activation commande %s: %w", o.ID, err)
	}
	return nil
}

func (s *ScyllaStore) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return err
	}
	return s.writeItems(ctx, orderID, items)
}

// writeItems écrit les lignes en un seul LOGGED BATCH
func (s *ScyllaStore) writeItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := s.orders.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, item := range items {
		var productID interface{}
		if item.ProductID != nil {
			productID = gocql.UUID(*item.ProductID)
		}
		batch.Query(insertOrderItemQuery, gocql.UUID(orderID), gocql.UUID(item.ID), productID, item.ProductName,
			toDec(item.UnitPrice), item.Quantity, toDec(item.Price))
	}
	if err := s.orders.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("insertion lignes commande %s: %w", orderID, err)
	}
	return nil
}

func scanOrders(iter *gocql.Iter) ([]models.Order, error) {
	var orders []models.Order
	for {
		var (
			o             models.Order
			id            gocql.UUID
			paymentMethod string
			status        string
			total         *inf.Dec
		)
		if !iter.Scan(&id, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.City, &o.CityRef, &o.DeliveryBranch,
			&o.DeliveryBranchRef, &o.DeliveryAddress, &paymentMethod, &o.PaymentProvider, &total, &status,
			&o.CreatedAt, &o.UpdatedAt) {
			break
		}
		o.ID = uuid.UUID(id)
		o.PaymentMethod = models.PaymentMethod(paymentMethod)
		o.Status = models.OrderStatus(status)
		o.TotalAmount = fromDec(total)
		orders = append(orders, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	return orders, nil
}

func (s *ScyllaStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	orders, err := scanOrders(s.orders.Query(selectOrderQuery, gocql.UUID(id)).WithContext(ctx).Iter())
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (s *ScyllaStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	iter := s.orders.Query(selectOrderItemsQuery, gocql.UUID(orderID)).WithContext(ctx).Iter()
	var items []models.OrderItem
	for {
		var (
			item      models.OrderItem
			id        gocql.UUID
			productID gocql.UUID
			unitPrice *inf.Dec
			linePrice *inf.Dec
		)
		if !iter.Scan(&id, &productID, &item.ProductName, &unitPrice, &item.Quantity, &linePrice) {
			break
		}
		item.ID = uuid.UUID(id)
		item.OrderID = orderID
		if productID != (gocql.UUID{}) {
			pid := uuid.UUID(productID)
			item.ProductID = &pid
		}
		item.UnitPrice = fromDec(unitPrice)
		item.Price = fromDec(linePrice)
		items = append(items, item)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture lignes commande %s: %w", orderID, err)
	}
	return items, nil
}

func (s *ScyllaStore) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	orders, err := scanOrders(s.orders.Query(selectAllOrdersQuery).WithContext(ctx).Iter())
	if err != nil {
		return nil, err
	}
	sortOrders(orders)
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *ScyllaStore) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	applied, err := s.orders.Query(updateOrderStatusQuery, string(status), time.Now(), gocql.UUID(id)).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("mise à jour statut commande %s: %w", id, err)
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// Les instantanés client et lignes sont stockés en JSON (colonnes text)
func (s *ScyllaStore) SavePaymentSession(ctx context.Context, ps *models.PaymentSession) error {
	now := time.Now()
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = now
	}
	ps.UpdatedAt = now

	customer, err := json.Marshal(ps.Customer)
	if err != nil {
		return err
	}
	items, err := json.Marshal(ps.Items)
	if err != nil {
		return err
	}
	err = s.orders.Query(upsertPaymentSessionQuery, gocql.UUID(ps.OrderID), string(customer), string(items),
		toDec(ps.TotalAmount), ps.Provider, string(ps.Status), ps.CreatedAt, ps.UpdatedAt).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("écriture session de paiement %s: %w", ps.OrderID, err)
	}
	return nil
}

func (s *ScyllaStore) GetPaymentSession(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	var (
		customer, items, status string
		total                   *inf.Dec
		ps                      = models.PaymentSession{OrderID: orderID}
	)
	err := s.orders.Query(selectPaymentSessionQuery, gocql.UUID(orderID)).WithContext(ctx).
		Scan(&customer, &items, &total, &ps.Provider, &status, &ps.CreatedAt, &ps.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture session de paiement %s: %w", orderID, err)
	}
	if err := json.Unmarshal([]byte(customer), &ps.Customer); err != nil {
		return nil, fmt.Errorf("session %s: client illisible: %w", orderID, err)
	}
	if err := json.Unmarshal([]byte(items), &ps.Items); err != nil {
		return nil, fmt.Errorf("session %s: lignes illisibles: %w", orderID, err)
	}
	ps.TotalAmount = fromDec(total)
	ps.Status = models.PaymentSessionStatus(status)
	return &ps, nil
}

func (s *ScyllaStore) UpdatePaymentSessionStatus(ctx context.Context, orderID uuid.UUID, status models.PaymentSessionStatus) error {
	applied, err := s.orders.Query(updatePaymentSessionStatusQuery, string(status), time.Now(), gocql.UUID(orderID)).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("mise à jour session %s: %w", orderID, err)
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaStore) InsertCartClearingEvent(ctx context.Context, e models.CartClearingEvent) error {
	if err := s.orders.Query(insertCartEventQuery, gocql.UUID(e.OrderID), e.CreatedAt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture marqueur panier %s: %w", e.OrderID, err)
	}
	return nil
}

func (s *ScyllaStore) GetCartClearingEvent(ctx context.Context, orderID uuid.UUID) (*models.CartClearingEvent, error) {
	e := models.CartClearingEvent{OrderID: orderID}
	err := s.orders.Query(selectCartEventQuery, gocql.UUID(orderID)).WithContext(ctx).Scan(&e.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture marqueur panier %s: %w", orderID, err)
	}
	return &e, nil
}
