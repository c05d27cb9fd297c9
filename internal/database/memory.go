package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
)

// MemoryStore garde tout en mémoire (STORE_DRIVER=memory, tests)
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]models.Product
	categories map[int]models.Category
	orders     map[uuid.UUID]models.Order
	orderItems map[uuid.UUID][]models.OrderItem
	sessions   map[uuid.UUID]models.PaymentSession
	cartEvents map[uuid.UUID]models.CartClearingEvent
	importLogs []models.ImportLog
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		products:   make(map[uuid.UUID]models.Product),
		categories: make(map[int]models.Category),
		orders:     make(map[uuid.UUID]models.Order),
		orderItems: make(map[uuid.UUID][]models.OrderItem),
		sessions:   make(map[uuid.UUID]models.PaymentSession),
		cartEvents: make(map[uuid.UUID]models.CartClearingEvent),
		now:        time.Now,
	}
	for _, c := range models.CanonicalCategories {
		s.categories[c.ID] = c
	}
	return s
}

func (s *MemoryStore) Close() {}

func copyProduct(p models.Product) models.Product {
	if p.ImageURLs != nil {
		p.ImageURLs = append([]string(nil), p.ImageURLs...)
	}
	if p.Characteristics != nil {
		chars := make(map[string]string, len(p.Characteristics))
		for k, v := range p.Characteristics {
			chars[k] = v
		}
		p.Characteristics = chars
	}
	if p.ExternalID != nil {
		ext := *p.ExternalID
		p.ExternalID = &ext
	}
	return p
}

// --- Produits ---

func (s *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyProduct(p)
	return &cp, nil
}

func (s *MemoryStore) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.products[id]
	return ok, nil
}

func (s *MemoryStore) ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]uuid.UUID)
	for id, p := range s.products {
		if p.ExternalID != nil {
			out[*p.ExternalID] = id
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertProducts(ctx context.Context, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, p := range products {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		s.products[p.ID] = copyProduct(p)
	}
	return nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = copyProduct(p)
	return nil
}

func (s *MemoryStore) DeleteProducts(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.products, id)
	}
	return nil
}

func (s *MemoryStore) UpdateProductCategory(ctx context.Context, id uuid.UUID, categoryID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return ErrNotFound
	}
	p.CategoryID = categoryID
	p.UpdatedAt = s.now()
	s.products[id] = p
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertCategory(ctx context.Context, c models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) InsertImportLog(ctx context.Context, l models.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.importLogs = append(s.importLogs, l)
	return nil
}

func (s *MemoryStore) ListImportLogs(ctx context.Context, limit int) ([]models.ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ImportLog, 0, len(s.importLogs))
	for i := len(s.importLogs) - 1; i >= 0; i-- {
		out = append(out, s.importLogs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- Commandes ---

func (s *MemoryStore) CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return ErrOrderExists
	}
	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	s.orders[o.ID] = *o
	s.orderItems[o.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (s *MemoryStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OrderItem(nil), s.orderItems[orderID]...), nil
}

func (s *MemoryStore) InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return ErrNotFound
	}
	s.orderItems[orderID] = append(s.orderItems[orderID], items...)
	return nil
}

func (s *MemoryStore) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sortOrders(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = s.now()
	s.orders[id] = o
	return nil
}

func (s *MemoryStore) SavePaymentSession(ctx context.Context, ps *models.PaymentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = now
	}
	ps.UpdatedAt = now
	cp := *ps
	cp.Items = append([]models.SessionItem(nil), ps.Items...)
	s.sessions[ps.OrderID] = cp
	return nil
}

func (s *MemoryStore) GetPaymentSession(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, ok := s.sessions[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	ps.Items = append([]models.SessionItem(nil), ps.Items...)
	return &ps, nil
}

func (s *MemoryStore) UpdatePaymentSessionStatus(ctx context.Context, orderID uuid.UUID, status models.PaymentSessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.sessions[orderID]
	if !ok {
		return ErrNotFound
	}
	ps.Status = status
	ps.UpdatedAt = s.now()
	s.sessions[orderID] = ps
	return nil
}

func (s *MemoryStore) InsertCartClearingEvent(ctx context.Context, e models.CartClearingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartEvents[e.OrderID] = e
	return nil
}

func (s *MemoryStore) GetCartClearingEvent(ctx context.Context, orderID uuid.UUID) (*models.CartClearingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cartEvents[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
